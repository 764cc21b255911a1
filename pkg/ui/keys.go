package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists every binding the map view reacts to. It implements
// help.KeyMap.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Clear    key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Reset    key.Binding
	Fit      key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	PanUp    key.Binding
	PanDown  key.Binding
	Filter   key.Binding
	CopyID   key.Binding
	Export   key.Binding
	Reload   key.Binding
	Focus    key.Binding
	Detail   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Accept   key.Binding
	Cancel   key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev node")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next node")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "center node")),
		Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Reset:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
		Fit:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		PanLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "pan left")),
		PanRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "pan right")),
		PanUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "pan up")),
		PanDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "pan down")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		CopyID:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Detail:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "toggle detail")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Accept:   key.NewBinding(key.WithKeys("enter")),
		Cancel:   key.NewBinding(key.WithKeys("esc")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ZoomIn, k.ZoomOut, k.Filter, k.Export, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Clear, k.Filter},
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Fit},
		{k.PanLeft, k.PanRight, k.PanUp, k.PanDown},
		{k.CopyID, k.Export, k.Reload, k.Focus, k.Detail, k.Help, k.Quit},
	}
}
