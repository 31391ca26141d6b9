// Package storetest keeps a test suite run against every store.Repository.
package storetest

import (
	"context"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

func randomDraft() model.Draft {
	return model.Draft{
		UserID: randomdata.Number(1, 100),
		Title:  randomdata.SillyName(),
	}
}

// TestRepository exercises CRUD semantics and id assignment on a fresh,
// empty repository returned by open.
func TestRepository(t *testing.T, open func(t *testing.T) store.Repository) {
	ctx := context.Background()

	t.Run("EmptyList", func(t *testing.T) {
		r := open(t)
		items, err := r.List(ctx)
		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)
	})

	t.Run("CreateAssignsIncreasingIDs", func(t *testing.T) {
		r := open(t)
		d1, d2 := randomDraft(), randomDraft()

		a, err := r.Create(ctx, d1)
		require.NoError(t, err)
		b, err := r.Create(ctx, d2)
		require.NoError(t, err)

		require.Positive(t, a.ID)
		require.Greater(t, b.ID, a.ID)
		require.Equal(t, d1.Item(a.ID), a)

		items, err := r.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []model.Item{a, b}, items)
	})

	t.Run("UpdateReplacesWholesale", func(t *testing.T) {
		r := open(t)
		a, err := r.Create(ctx, randomDraft())
		require.NoError(t, err)

		next := model.Draft{UserID: a.UserID + 1, Title: "replaced"}
		got, err := r.Update(ctx, a.ID, next)
		require.NoError(t, err)
		require.Equal(t, next.Item(a.ID), got)

		items, err := r.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []model.Item{got}, items)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		r := open(t)
		_, err := r.Update(ctx, 404, randomDraft())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DeleteAndIDsNotReused", func(t *testing.T) {
		r := open(t)
		a, err := r.Create(ctx, randomDraft())
		require.NoError(t, err)
		b, err := r.Create(ctx, randomDraft())
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, b.ID))
		require.ErrorIs(t, r.Delete(ctx, b.ID), store.ErrNotFound)

		c, err := r.Create(ctx, randomDraft())
		require.NoError(t, err)
		require.Greater(t, c.ID, b.ID)

		items, err := r.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []model.Item{a, c}, items)
	})
}
