package tui

import (
	"strings"

	"eventcal/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) detailEvent() (model.Event, bool) {
	return model.FindEvent(m.events, m.detailID)
}

func (m appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	e, ok := m.detailEvent()
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Back):
		m.view = m.backView
		if m.view == viewDetail || m.view == viewForm || m.view == viewHelp {
			m.view = viewMonth
		}
	case !ok:
		return m, nil
	case key.Matches(msg, k.Edit):
		m.backView = viewDetail
		m.form = newEditForm(e, m.width)
		m.view = viewForm
		m.setStatus("", false)
		return m, m.form.focusCmd()
	case key.Matches(msg, k.Delete):
		m.askDelete(e)
	case key.Matches(msg, k.Copy):
		return m, m.copyCmd(e.ID)
	case key.Matches(msg, k.Help):
		return m.openHelp(), nil
	}
	return m, nil
}

func (m appModel) viewDetail() string {
	e, ok := m.detailEvent()
	if !ok {
		return styleTitle().Render("Event not found.")
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	lines := []string{
		styleTitle().Render(e.Title),
		"",
		styleMuted().Render("Date      ") + longDate(e.Date),
		styleMuted().Render("Category  ") + categoryDot(e.Category) + " " + string(model.NormalizeCategory(string(e.Category))),
		styleMuted().Render("ID        ") + e.ID,
		"",
	}
	if desc := renderMarkdown(e.Desc, width-2); desc != "" {
		lines = append(lines, desc)
	} else {
		lines = append(lines, styleMuted().Render("No description."))
	}
	lines = append(lines, "", styleMuted().Render(helpLine(m.keys.Edit, m.keys.Delete, m.keys.Copy, m.keys.Back)))
	return strings.Join(lines, "\n")
}
