package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Single-letter bindings are only matched outside the forms so they can be typed into a field.
type keyMap struct {
	next     key.Binding
	prev     key.Binding
	submit   key.Binding
	switchTo key.Binding
	back     key.Binding
	logout   key.Binding
	refresh  key.Binding
	quit     key.Binding
	abort    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab/↓", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab/↑", "previous field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		switchTo: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "create account")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		logout:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log out")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		abort:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.abort}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.submit},
		{k.switchTo, k.back},
		{k.logout, k.refresh, k.quit},
	}
}

// forView returns the bindings shown in the help line of view.
func (k keyMap) forView(view ViewState) []key.Binding {
	switch view {
	case LoginView:
		return []key.Binding{k.next, k.submit, k.switchTo, k.abort}
	case RegisterView:
		return []key.Binding{k.next, k.submit, k.back, k.abort}
	case ProfileView:
		return []key.Binding{k.refresh, k.logout, k.quit}
	default:
		return []key.Binding{k.quit}
	}
}
