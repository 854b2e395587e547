package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a vertical list of text inputs with a single focused field.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 128
	in.Width = 32
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func newLoginForm() form {
	f := form{
		labels: []string{"Email", "Password"},
		inputs: []textinput.Model{
			newInput("you@example.com", false),
			newInput("password", true),
		},
	}
	f.setFocus(0)
	return f
}

func newRegisterForm() form {
	f := form{
		labels: []string{"Name", "Email", "Password"},
		inputs: []textinput.Model{
			newInput("Your name", false),
			newInput("you@example.com", false),
			newInput("choose a password", true),
		},
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range f.inputs {
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *form) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

func (f form) onLast() bool { return f.focus == len(f.inputs)-1 }

func (f form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// secret returns the untrimmed value of field i.
func (f form) secret(i int) string { return f.inputs[i].Value() }

func (f *form) set(i int, v string) { f.inputs[i].SetValue(v) }

func (f *form) clear(i int) { f.inputs[i].Reset() }

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.setFocus(0)
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) view() string {
	var b strings.Builder
	for i, in := range f.inputs {
		marker := "  "
		if i == f.focus {
			marker = styles.ok.Render("▸ ")
		}
		b.WriteString(marker + styles.label.Render(f.labels[i]) + in.View() + "\n")
	}
	return b.String()
}
