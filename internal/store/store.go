// Package store defines the item repository served by the dev server.
package store

import (
	"context"
	"errors"

	"github.com/idilsaglam/tada/internal/model"
)

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("item not found")

// Repository persists items and assigns their ids. Ids are positive,
// unique and increase monotonically; a deleted id is never reused.
type Repository interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, d model.Draft) (model.Item, error)
	Update(ctx context.Context, id int, d model.Draft) (model.Item, error)
	Delete(ctx context.Context, id int) error
	Close() error
}
