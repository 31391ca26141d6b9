// Package state holds the item collection and the current selection, and
// reduces dispatched actions against gateway responses into new snapshots.
package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/idilsaglam/tada/internal/model"
)

var (
	// ErrNotFound is returned when an update targets an id that is not in the collection.
	ErrNotFound = errors.New("item not in collection")
	// ErrBusy is returned when a gateway action is dispatched while another is in flight.
	ErrBusy = errors.New("another request is in flight")
)

// State is one immutable snapshot of the container.
type State struct {
	Items    []model.Item
	Selected *model.Item
	Pending  Kind     // gateway action in flight, KindNone when idle
	Failure  *Failure // last failed request, cleared when the next one starts
}

// Failure is the request-failed state shown to views.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (s State) clone() State {
	out := s
	out.Items = slices.Clone(s.Items)
	if out.Items == nil {
		out.Items = []model.Item{}
	}
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	return out
}

// ------- reducers -------

// Outcome carries what the gateway resolved with.
type Outcome struct {
	Items []model.Item
	Item  model.Item
}

type reducer func(s State, a Action, o Outcome) State

var reducers = map[Kind]reducer{
	KindFetchAll: reduceFetchAll,
	KindCreate:   reduceCreate,
	KindUpdate:   reduceUpdate,
	KindDelete:   reduceDelete,
	KindSelect:   reduceSelect,
}

// Reduce applies a resolved action to s and returns the next snapshot.
// It never mutates s.
func Reduce(s State, a Action, o Outcome) State {
	r, ok := reducers[a.Kind]
	if !ok {
		return s
	}
	return r(s, a, o)
}

func reduceFetchAll(s State, _ Action, o Outcome) State {
	s.Items = slices.Clone(o.Items)
	if s.Items == nil {
		s.Items = []model.Item{}
	}
	return s
}

func reduceCreate(s State, _ Action, o Outcome) State {
	items := make([]model.Item, 0, len(s.Items)+1)
	items = append(items, s.Items...)
	s.Items = append(items, o.Item)
	s.Selected = nil
	return s
}

func reduceUpdate(s State, a Action, o Outcome) State {
	i := model.IndexOf(s.Items, a.ID)
	if i < 0 {
		return s
	}
	items := slices.Clone(s.Items)
	items[i] = o.Item
	s.Items = items
	s.Selected = nil
	return s
}

func reduceDelete(s State, a Action, _ Outcome) State {
	if model.IndexOf(s.Items, a.ID) < 0 {
		return s
	}
	items := make([]model.Item, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ID != a.ID {
			items = append(items, it)
		}
	}
	s.Items = items
	if s.Selected != nil && s.Selected.ID == a.ID {
		s.Selected = nil
	}
	return s
}

func reduceSelect(s State, a Action, _ Outcome) State {
	s.Selected = a.Item
	return s
}

// ------- selectors -------

func Items(s State) []model.Item { return s.Items }

func Selected(s State) *model.Item { return s.Selected }

func Pending(s State) Kind { return s.Pending }

func LastFailure(s State) *Failure { return s.Failure }

// Selectors maps slice names to their projection.
var Selectors = map[string]func(State) any{
	"items":    func(s State) any { return Items(s) },
	"selected": func(s State) any { return Selected(s) },
	"pending":  func(s State) any { return Pending(s) },
	"failure":  func(s State) any { return LastFailure(s) },
}
