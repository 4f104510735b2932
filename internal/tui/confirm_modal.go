package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

// confirmState is a pending yes/no question, currently only "delete this event?".
type confirmState struct {
	eventID string
	title   string
	body    string
	focus   confirmModalFocus
}

func renderConfirmModal(width int, c confirmState) string {
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := styleSelected().Padding(0, 1)

	yes, no := btnBase.Render("Delete (y)"), btnBase.Render("Cancel (n)")
	if c.focus == confirmFocusConfirm {
		yes = btnActive.Render("Delete (y)")
	} else {
		no = btnActive.Render("Cancel (n)")
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, yes, " ", no)

	help := styleMuted().Render("tab: focus   enter: select   esc: cancel")
	return renderModalBox(width, c.title, strings.Join([]string{c.body, "", controls, "", help}, "\n"))
}
