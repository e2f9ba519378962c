package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	submit   key.Binding
	again    key.Binding
	moreLike key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		again:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new request")),
		moreLike: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "more like this")),
		quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.again},
		{k.moreLike, k.quit},
	}
}
