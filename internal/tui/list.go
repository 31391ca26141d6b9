package tui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	item model.Item
}

func (i listItem) Title() string       { return i.item.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Title }

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{item: it})
	}
	return out
}

// itemDelegate renders one item per line: "#id  [owner] title".
type itemDelegate struct {
	editingID int // row loaded in the form, 0 for none
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	id := mutedStyle.Render(fmt.Sprintf("#%-4s", strconv.Itoa(it.item.ID)))
	owner := accentStyle.Render(fmt.Sprintf("[%d]", it.item.UserID))
	title := it.item.Title
	if d.editingID != 0 && d.editingID == it.item.ID {
		title = editingStyle.Render(title + " ✎")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s", prefix, id, owner, title)
}

// owners counts distinct owner references.
func owners(items []model.Item) int {
	seen := map[int]struct{}{}
	for _, it := range items {
		seen[it.UserID] = struct{}{}
	}
	return len(seen)
}
