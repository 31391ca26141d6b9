package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// A sidecar lock file serializes writers across processes.

const (
	DefaultFileName = "todos.json"
	lockRetry       = 25 * time.Millisecond
)

type document struct {
	NextID int          `json:"nextId"`
	Items  []model.Item `json:"items"`
}

// Store implements store.Repository on a single JSON file.
type Store struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

var _ store.Repository = (*Store)(nil)

// Open prepares a store at path. The file is created on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path is the data file location.
func (s *Store) Path() string { return s.path }

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := s.with(ctx, false, func(doc *document) error {
		out = append([]model.Item{}, doc.Items...)
		return nil
	})
	return out, err
}

func (s *Store) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	var it model.Item
	err := s.with(ctx, true, func(doc *document) error {
		doc.NextID++
		it = d.Item(doc.NextID)
		doc.Items = append(doc.Items, it)
		return nil
	})
	return it, err
}

func (s *Store) Update(ctx context.Context, id int, d model.Draft) (model.Item, error) {
	var it model.Item
	err := s.with(ctx, true, func(doc *document) error {
		i := model.IndexOf(doc.Items, id)
		if i < 0 {
			return store.ErrNotFound
		}
		it = d.Item(id)
		doc.Items[i] = it
		return nil
	})
	return it, err
}

func (s *Store) Delete(ctx context.Context, id int) error {
	return s.with(ctx, true, func(doc *document) error {
		i := model.IndexOf(doc.Items, id)
		if i < 0 {
			return store.ErrNotFound
		}
		doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
		return nil
	})
}

func (s *Store) Close() error {
	return s.lock.Close()
}

// with runs f on the loaded document under the file lock and saves the
// result when write is set and f succeeded.
func (s *Store) with(ctx context.Context, write bool, f func(*document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		locked bool
		err    error
	)
	if write {
		locked, err = s.lock.TryLockContext(ctx, lockRetry)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	if !locked {
		return errors.New("lock: not acquired")
	}
	defer s.lock.Unlock()

	doc, err := load(s.path)
	if err != nil {
		return err
	}
	if err := f(doc); err != nil {
		return err
	}
	if !write {
		return nil
	}
	return save(s.path, doc)
}

func load(p string) (*document, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Items: []model.Item{}}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []model.Item{}
	}
	return &doc, nil
}

// save writes through a temp file so readers never see a partial document.
func save(p string, doc *document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
