// Package boltstore keeps items in a bbolt bucket keyed by big-endian id.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

const bucketItems = "items"

// Store implements store.Repository on a bbolt database.
type Store struct {
	db *bolt.DB
}

var _ store.Repository = (*Store)(nil)

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketItems))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketItems)).ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var it model.Item
			if err := json.Unmarshal(v, &it); err != nil {
				return fmt.Errorf("decode item: %w", err)
			}
			items = append(items, it)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	var it model.Item
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketItems))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		it = d.Item(int(seq))
		return put(b, it)
	})
	return it, err
}

func (s *Store) Update(ctx context.Context, id int, d model.Draft) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	var it model.Item
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketItems))
		if id <= 0 || b.Get(key(id)) == nil {
			return store.ErrNotFound
		}
		it = d.Item(id)
		return put(b, it)
	})
	return it, err
}

func (s *Store) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketItems))
		if id <= 0 || b.Get(key(id)) == nil {
			return store.ErrNotFound
		}
		return b.Delete(key(id))
	})
}

func (s *Store) Close() error { return s.db.Close() }

func put(b *bolt.Bucket, it model.Item) error {
	v, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	return b.Put(key(it.ID), v)
}

func key(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
