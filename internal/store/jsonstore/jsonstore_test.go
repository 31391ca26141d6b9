package jsonstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/store/storetest"
)

func open(t *testing.T) store.Repository {
	s, err := jsonstore.Open(filepath.Join(t.TempDir(), "todos.json"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRepository(t *testing.T) {
	storetest.TestRepository(t, open)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "nested", "todos.json")

	s1, err := jsonstore.Open(p)
	require.NoError(t, err)
	it, err := s1.Create(ctx, model.Draft{UserID: 1, Title: "keep"})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Contains(t, string(b), `"nextId": 1`)

	s2, err := jsonstore.Open(p)
	require.NoError(t, err)
	defer s2.Close()
	items, err := s2.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.Item{it}, items)
}

func TestCorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "todos.json")
	require.NoError(t, os.WriteFile(p, []byte("{"), 0o644))

	s, err := jsonstore.Open(p)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.List(context.Background())
	require.ErrorContains(t, err, "json unmarshal")
}
