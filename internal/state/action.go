package state

import (
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
)

// Kind tags an action. The set is closed: only the constructors below
// produce valid actions.
type Kind int

const (
	KindNone Kind = iota
	KindFetchAll
	KindCreate
	KindUpdate
	KindDelete
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindFetchAll:
		return "fetch-all"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindSelect:
		return "select"
	case KindNone:
		return "none"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// remote reports whether the action needs a gateway round trip.
func (k Kind) remote() bool {
	return k == KindFetchAll || k == KindCreate || k == KindUpdate || k == KindDelete
}

// Action is an intent dispatched into the container.
type Action struct {
	Kind  Kind
	Draft model.Draft
	ID    int
	Item  *model.Item
}

func FetchAll() Action { return Action{Kind: KindFetchAll} }

func Create(d model.Draft) Action { return Action{Kind: KindCreate, Draft: d} }

func Update(d model.Draft, id int) Action { return Action{Kind: KindUpdate, Draft: d, ID: id} }

func Delete(id int) Action { return Action{Kind: KindDelete, ID: id} }

// Select marks it as the selected item; nil clears the selection.
func Select(it *model.Item) Action {
	if it != nil {
		cp := *it
		it = &cp
	}
	return Action{Kind: KindSelect, Item: it}
}
