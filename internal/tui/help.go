package tui

import (
	"eventcal/internal/docs"
)

func (m appModel) viewHelp() string {
	body, ok := docs.Get("keys")
	if !ok {
		return "No help available."
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	return renderMarkdown(body, width-2) + "\n\n" + styleMuted().Render("esc back")
}
