package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up          key.Binding
	down        key.Binding
	enter       key.Binding
	back        key.Binding
	yes         key.Binding
	no          key.Binding
	description key.Binding
	duration    key.Binding
	notes       key.Binding
	video       key.Binding
	unlink      key.Binding
	render      key.Binding
	restart     key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:          key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		description: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "description")),
		duration:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "duration")),
		notes:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "notes")),
		video:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "attach video")),
		unlink:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove video")),
		render:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "render")),
		restart:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "back to scenes")),
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.description, k.duration, k.notes},
		{k.video, k.unlink, k.render},
		{k.back, k.quit},
	}
}
