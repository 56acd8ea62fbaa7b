package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	skip    key.Binding
	finish  key.Binding
	cancel  key.Binding
	extend  key.Binding
	prev    key.Binding
	next    key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip exercise"),
		),
		finish: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "finish"),
		),
		cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel rest"),
		),
		extend: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "extend rest"),
		),
		prev: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev exercise"),
		),
		next: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next exercise"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new workout"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.skip, k.finish, k.prev, k.next},
		{k.cancel, k.extend},
		{k.restart, k.quit},
	}
}

// workoutHelp lists the bindings active during a live session.
func (k keyMap) workoutHelp(resting bool) []key.Binding {
	if resting {
		return []key.Binding{k.enter, k.cancel, k.extend, k.finish}
	}
	return []key.Binding{k.enter, k.skip, k.prev, k.next, k.finish}
}
