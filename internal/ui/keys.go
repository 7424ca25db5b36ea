package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the editor screen. Global bindings work from
// every pane; canvas bindings only while the canvas has focus.
type KeyMap struct {
	// global
	AddRow      key.Binding
	AddColumn   key.Binding
	TextMode    key.Binding
	ImageMode   key.Binding
	AlignLeft   key.Binding
	AlignCenter key.Binding
	AlignRight  key.Binding
	Documents   key.Binding
	Copy        key.Binding
	NextPane    key.Binding
	PrevPane    key.Binding
	Help        key.Binding
	Quit        key.Binding

	// canvas
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Deselect key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		AddRow: key.NewBinding(
			key.WithKeys("alt+r"),
			key.WithHelp("alt+r", "add row"),
		),
		AddColumn: key.NewBinding(
			key.WithKeys("alt+n"),
			key.WithHelp("alt+n", "add column"),
		),
		TextMode: key.NewBinding(
			key.WithKeys("alt+t"),
			key.WithHelp("alt+t", "text"),
		),
		ImageMode: key.NewBinding(
			key.WithKeys("alt+i"),
			key.WithHelp("alt+i", "image"),
		),
		AlignLeft: key.NewBinding(
			key.WithKeys("alt+1"),
			key.WithHelp("alt+1", "align left"),
		),
		AlignCenter: key.NewBinding(
			key.WithKeys("alt+2"),
			key.WithHelp("alt+2", "align center"),
		),
		AlignRight: key.NewBinding(
			key.WithKeys("alt+3"),
			key.WithHelp("alt+3", "align right"),
		),
		Documents: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "documents"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy text"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select column"),
		),
		Deselect: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "deselect"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.AddRow, k.AddColumn, k.NextPane, k.Documents, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Deselect},
		{k.AddRow, k.AddColumn, k.TextMode, k.ImageMode},
		{k.AlignLeft, k.AlignCenter, k.AlignRight, k.Copy},
		{k.NextPane, k.Documents, k.Help, k.Quit},
	}
}
