package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer key bindings with built-in help text.
type KeyMap struct {
	Quit       key.Binding
	NextFamily key.Binding
	PrevFamily key.Binding
	NextRun    key.Binding
	PrevRun    key.Binding
	Up         key.Binding
	Down       key.Binding
	Summary    key.Binding
	Back       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextFamily: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next metric"),
		),
		PrevFamily: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev metric"),
		),
		NextRun: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next run"),
		),
		PrevRun: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev run"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Summary: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "summary"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "r"),
			key.WithHelp("esc/r", "runs"),
		),
	}
}

// helpLine renders the short help for the given bindings.
func helpLine(bindings ...key.Binding) string {
	var out string
	for i, b := range bindings {
		h := b.Help()
		if i > 0 {
			out += "  "
		}
		out += helpKeyStyle.Render(h.Key) + " " + helpDescStyle.Render(h.Desc)
	}
	return out
}
