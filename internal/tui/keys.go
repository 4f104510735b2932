package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	PrevMonth, NextMonth  key.Binding
	Today                 key.Binding
	Open                  key.Binding
	Add, Edit, Delete     key.Binding
	NextInList            key.Binding
	Upcoming              key.Binding
	Category              key.Binding
	Reload                key.Binding
	Copy                  key.Binding
	Help                  key.Binding
	Back                  key.Binding
	Quit                  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		PrevMonth:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev")),
		NextMonth:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next")),
		Today:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		NextInList: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next event")),
		Upcoming:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "upcoming")),
		Category:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpLine renders a compact "k: desc" footer for the given bindings.
func helpLine(bindings ...key.Binding) string {
	var out string
	for i, b := range bindings {
		h := b.Help()
		if i > 0 {
			out += "  "
		}
		out += h.Key + " " + h.Desc
	}
	return out
}
