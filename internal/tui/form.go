package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
)

const (
	fieldOwner = iota
	fieldTitle
	fieldCount
)

// form holds the draft being edited. In edit mode editID names the item
// the draft will replace; in create mode it is zero.
type form struct {
	inputs  [fieldCount]textinput.Model
	focus   int
	editing bool
	editID  int
	err     string
}

func newForm() form {
	owner := textinput.New()
	owner.Prompt = "owner > "
	owner.Placeholder = "user id"
	owner.CharLimit = 9

	title := textinput.New()
	title.Prompt = "title > "
	title.Placeholder = "What needs doing?"
	title.CharLimit = 200

	return form{inputs: [fieldCount]textinput.Model{owner, title}}
}

// draft reads the inputs. An unparsable owner yields zero, which fails validation.
func (f form) draft() model.Draft {
	owner, _ := strconv.Atoi(strings.TrimSpace(f.inputs[fieldOwner].Value()))
	return model.Draft{UserID: owner, Title: strings.TrimSpace(f.inputs[fieldTitle].Value())}
}

// patch loads it into the inputs and switches to edit mode.
func (f form) patch(it model.Item) form {
	f.inputs[fieldOwner].SetValue(strconv.Itoa(it.UserID))
	f.inputs[fieldTitle].SetValue(it.Title)
	f.inputs[fieldTitle].CursorEnd()
	f.editing = true
	f.editID = it.ID
	f.err = ""
	return f
}

// createMode leaves the draft as is and drops the edit target.
func (f form) createMode() form {
	f.editing = false
	f.editID = 0
	return f
}

func (f form) reset() form {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.err = ""
	return f.createMode()
}

func (f form) focusField(i int) (form, tea.Cmd) {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f, f.inputs[f.focus].Focus()
}

func (f form) blur() form {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f
}

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f form) view(focused bool) string {
	heading := "New item"
	if f.editing {
		heading = "Edit item #" + strconv.Itoa(f.editID)
	}
	heading = titleStyle.Render(heading)
	if f.err != "" {
		heading += " " + errorStyle.Render(f.err)
	}
	lines := []string{heading}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	return panelString(strings.Join(lines, "\n"), focused)
}
