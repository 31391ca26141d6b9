// Package tui is the interactive list + form front end over the state container.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
)

// Options tune the interactive session.
type Options struct {
	AltScreen bool
}

// ------- messages -------

// storeMsg wraps a change pushed by a container subscription.
type storeMsg struct{ inner tea.Msg }

type itemsMsg []model.Item

type selectedMsg struct{ item *model.Item }

type pendingMsg state.Kind

type failureMsg struct{ failure *state.Failure }

// dispatchedMsg reports a resolved dispatch.
type dispatchedMsg struct {
	kind state.Kind
	err  error
}

type pane int

const (
	paneList pane = iota
	paneForm
)

var (
	editBind    = key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit"))
	deleteBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	newBind     = key.NewBinding(key.WithKeys("a", "tab"), key.WithHelp("a", "new"))
	refreshBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
)

type appModel struct {
	ctx     context.Context
	store   *state.Container
	updates chan tea.Msg
	listen  bool

	list list.Model
	form form
	pane pane

	items      []model.Item
	pending    state.Kind
	failure    *state.Failure
	submitting bool
	status     string
	warn       string

	width, height int
}

// newModel builds the model and subscribes it to the container. The
// returned release cancels every subscription.
func newModel(ctx context.Context, c *state.Container) (appModel, func()) {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Todos"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{editBind, deleteBind, newBind, refreshBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{editBind, deleteBind, newBind, refreshBind} }

	m := appModel{
		ctx:     ctx,
		store:   c,
		updates: make(chan tea.Msg, 64),
		listen:  true,
		list:    l,
		form:    newForm(),
		width:   80,
		height:  24,
	}
	m.resize()

	push := func(msg tea.Msg) {
		select {
		case m.updates <- msg:
		case <-ctx.Done():
		}
	}
	cancels := []func(){
		state.Watch(c, state.Items, func(items []model.Item) { push(itemsMsg(items)) }),
		state.Watch(c, state.Selected, func(it *model.Item) { push(selectedMsg{item: it}) }),
		state.Watch(c, state.Pending, func(k state.Kind) { push(pendingMsg(k)) }),
		state.Watch(c, state.LastFailure, func(f *state.Failure) { push(failureMsg{failure: f}) }),
	}
	release := func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
	return m, release
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(ctx context.Context, c *state.Container, opt Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, release := newModel(ctx, c)
	defer release()

	var popts []tea.ProgramOption
	popts = append(popts, tea.WithContext(ctx))
	if opt.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(m, popts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m appModel) waitForStore() tea.Cmd {
	if !m.listen {
		return nil
	}
	ch := m.updates
	return func() tea.Msg { return storeMsg{inner: <-ch} }
}

func (m appModel) dispatch(a state.Action) tea.Cmd {
	ctx, c := m.ctx, m.store
	return func() tea.Msg {
		return dispatchedMsg{kind: a.Kind, err: c.Dispatch(ctx, a)}
	}
}

// Update and View implement Bubble Tea's Model on appModel
func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.waitForStore(), m.dispatch(state.FetchAll()))
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeMsg:
		m = m.applyStore(msg.inner)
		return m, m.waitForStore()

	case dispatchedMsg:
		return m.onDispatched(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.pane == paneForm {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	if m.pane == paneForm {
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyStore folds a subscription change into the view model.
func (m appModel) applyStore(msg tea.Msg) appModel {
	switch msg := msg.(type) {
	case itemsMsg:
		m.items = []model.Item(msg)
		m.list.SetItems(toListItems(m.items))
		m.list.Title = m.header()
	case selectedMsg:
		if msg.item != nil {
			m.form = m.form.patch(*msg.item)
			m.list.SetDelegate(itemDelegate{editingID: msg.item.ID})
			m.pane = paneForm
			m.form, _ = m.form.focusField(fieldTitle)
		} else {
			m.form = m.form.createMode()
			m.list.SetDelegate(itemDelegate{})
		}
	case pendingMsg:
		m.pending = state.Kind(msg)
	case failureMsg:
		m.failure = msg.failure
	}
	return m
}

func (m appModel) onDispatched(msg dispatchedMsg) (tea.Model, tea.Cmd) {
	m.warn = ""
	if errors.Is(msg.err, state.ErrBusy) {
		m.warn = "busy: " + shortError(msg.err)
	}
	switch msg.kind {
	case state.KindCreate, state.KindUpdate:
		m.submitting = false
		if msg.err != nil {
			m.form.err = shortError(msg.err)
			return m, nil
		}
		m.form = m.form.reset().blur()
		m.pane = paneList
		m.status = fmt.Sprintf("%s ok", msg.kind)
		return m, m.dispatch(state.Select(nil))
	case state.KindDelete:
		if msg.err == nil {
			m.status = "deleted"
		}
	case state.KindFetchAll:
		if msg.err == nil {
			m.status = fmt.Sprintf("loaded %d items", len(m.items))
		}
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, deleteBind):
		if it, ok := m.current(); ok {
			return m, m.dispatch(state.Delete(it.ID))
		}
		return m, nil
	case key.Matches(msg, editBind):
		if it, ok := m.current(); ok {
			return m, m.dispatch(state.Select(&it))
		}
		return m, nil
	case key.Matches(msg, newBind):
		m.pane = paneForm
		var cmd tea.Cmd
		m.form, cmd = m.form.focusField(fieldOwner)
		return m, cmd
	case key.Matches(msg, refreshBind):
		return m, m.dispatch(state.FetchAll())
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		m.form = m.form.reset().blur()
		m.pane = paneList
		return m, m.dispatch(state.Select(nil))
	case "tab", "down":
		m.form, cmd = m.form.focusField(m.form.focus + 1)
		return m, cmd
	case "shift+tab", "up":
		m.form, cmd = m.form.focusField(m.form.focus - 1)
		return m, cmd
	case "enter":
		return m.submit()
	}
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

// submit validates the draft locally and dispatches create or update.
// A second submit while one is in flight is ignored.
func (m appModel) submit() (tea.Model, tea.Cmd) {
	if m.submitting || m.pending != state.KindNone {
		return m, nil
	}
	d := m.form.draft()
	if err := d.Validate(); err != nil {
		m.form.err = shortError(err)
		return m, nil
	}
	m.form.err = ""
	m.submitting = true
	if m.form.editing {
		return m, m.dispatch(state.Update(d, m.form.editID))
	}
	return m, m.dispatch(state.Create(d))
}

func (m appModel) current() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.item, true
}

func (m appModel) header() string {
	return fmt.Sprintf("%s   %s %d  %s %d",
		titleStyle.Render("Todos"),
		accentStyle.Render("Total"), len(m.items),
		mutedStyle.Render("Owners"), owners(m.items),
	)
}

func (m *appModel) resize() {
	// frame borders + form panel + status line
	listHeight := m.height - 10
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)
}

func (m appModel) statusLine() string {
	switch {
	case m.failure != nil:
		return errorStyle.Render("✖ request failed: " + shortError(m.failure))
	case m.pending != state.KindNone:
		return pendingStyle.Render("… " + m.pending.String())
	case m.warn != "":
		return pendingStyle.Render("! " + m.warn)
	case m.status != "":
		return successStyle.Render("✔ " + m.status)
	}
	return ""
}

func (m appModel) View() string {
	listPanel := panelString(m.list.View(), m.pane == paneList)
	formPanel := m.form.view(m.pane == paneForm)
	return lipgloss.JoinVertical(lipgloss.Left, listPanel, formPanel, m.statusLine())
}

// shortError flattens err onto one line.
func shortError(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
