package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	NextTab   key.Binding
	SignOut   key.Binding
	Submit    key.Binding
	Field     key.Binding
	Later     key.Binding
	Earlier   key.Binding
	HourLater key.Binding
	HourEarly key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	All       key.Binding
	Cancel    key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	SignOut:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Field:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "start/end")),
	Later:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "+5m")),
	Earlier:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "-5m")),
	HourLater: key.NewBinding(key.WithKeys("pgup", "K"), key.WithHelp("pgup", "+1h")),
	HourEarly: key.NewBinding(key.WithKeys("pgdown", "J"), key.WithHelp("pgdn", "-1h")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "coin")),
	Right:     key.NewBinding(key.WithKeys("right", "l")),
	Toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle coin")),
	All:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/none")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}
