package state_test

import (
	"context"
	"sync"

	"github.com/idilsaglam/tada/internal/gateway"
	"github.com/idilsaglam/tada/internal/model"
)

// fakeGateway answers from a scripted in-memory list and records calls.
type fakeGateway struct {
	mu     sync.Mutex
	items  []model.Item
	nextID int
	err    error
	calls  []string

	// block, when set, holds every call until it is closed.
	block chan struct{}
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) wait(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeGateway) FetchAll(ctx context.Context) ([]model.Item, error) {
	if err := f.wait(ctx, "fetch"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Item(nil), f.items...), nil
}

func (f *fakeGateway) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	if err := f.wait(ctx, "create"); err != nil {
		return model.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	it := d.Item(f.nextID)
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeGateway) Update(ctx context.Context, d model.Draft, id int) (model.Item, error) {
	if err := f.wait(ctx, "update"); err != nil {
		return model.Item{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it := d.Item(id)
	if i := model.IndexOf(f.items, id); i >= 0 {
		f.items[i] = it
	}
	return it, nil
}

func (f *fakeGateway) Delete(ctx context.Context, id int) error {
	if err := f.wait(ctx, "delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := model.IndexOf(f.items, id); i >= 0 {
		f.items = append(f.items[:i], f.items[i+1:]...)
	}
	return nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGateway) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}
