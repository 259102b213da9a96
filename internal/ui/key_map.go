package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Upload and form views keep a text input focused, so their actions sit on ctrl chords.
type keyMap struct {
	enter    key.Binding
	next     key.Binding
	prev     key.Binding
	back     key.Binding
	analyze  key.Binding
	remove   key.Binding
	login    key.Binding
	register key.Binding
	logout   key.Binding
	results  key.Binding
	open     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		analyze:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "analyze CV")),
		remove:   key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remove file")),
		login:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log in")),
		register: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "sign up")),
		logout:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "log out")),
		results:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "job matches")),
		open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open listing")),
		quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.analyze, k.remove},
		{k.login, k.register, k.logout},
		{k.results, k.back, k.quit},
	}
}
