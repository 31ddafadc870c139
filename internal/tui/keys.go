package tui

import "github.com/charmbracelet/bubbles/key"

// watchKeyMap defines key bindings for the watch dashboard
type watchKeyMap struct {
	Refresh key.Binding
	Start   key.Binding
	Stop    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Start, k.Stop, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Start, k.Stop},
		{k.Help, k.Quit},
	}
}

func newWatchKeyMap(charger bool) watchKeyMap {
	keys := watchKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start charging"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop charging"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
	// Meters have no charging session to control
	keys.Start.SetEnabled(charger)
	keys.Stop.SetEnabled(charger)
	return keys
}
