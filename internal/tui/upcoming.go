package tui

import (
	"fmt"
	"strings"

	"eventcal/internal/calendar"
	"eventcal/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) upcomingEvents() []model.Event {
	filtered := calendar.FilterUpcoming(m.events, m.upYear, m.upCategory, m.now())
	return calendar.GroupByYearThenMonth(filtered).Flatten()
}

// nextCategory cycles "" (all) → Work → Personal → Entertainment → Others → "".
func nextCategory(c model.Category) model.Category {
	cats := model.Categories()
	if c == "" {
		return cats[0]
	}
	for i, x := range cats {
		if x == c && i+1 < len(cats) {
			return cats[i+1]
		}
	}
	return ""
}

func (m appModel) updateUpcoming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	evs := m.upcomingEvents()
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Back), key.Matches(msg, k.Upcoming):
		m.view = viewMonth
	case key.Matches(msg, k.PrevMonth):
		m.upYear--
		m.upCursor = 0
	case key.Matches(msg, k.NextMonth):
		m.upYear++
		m.upCursor = 0
	case key.Matches(msg, k.Category):
		m.upCategory = nextCategory(m.upCategory)
		m.upCursor = 0
	case key.Matches(msg, k.Up):
		if m.upCursor > 0 {
			m.upCursor--
		}
	case key.Matches(msg, k.Down), key.Matches(msg, k.NextInList):
		if m.upCursor < len(evs)-1 {
			m.upCursor++
		}
	case key.Matches(msg, k.Open):
		if m.upCursor < len(evs) {
			m.detailID = evs[m.upCursor].ID
			m.backView = viewUpcoming
			m.view = viewDetail
		}
	case key.Matches(msg, k.Help):
		return m.openHelp(), nil
	}
	return m, nil
}

func (m appModel) viewUpcoming() string {
	cat := "All Categories"
	if m.upCategory != "" {
		cat = string(m.upCategory)
	}
	lines := []string{
		styleTitle().Render(fmt.Sprintf("Upcoming in %d", m.upYear)) + "  " + styleMuted().Render(cat),
		"",
	}

	groups := calendar.GroupByYearThenMonth(calendar.FilterUpcoming(m.events, m.upYear, m.upCategory, m.now()))
	if groups.Count() == 0 {
		lines = append(lines, styleMuted().Render("No upcoming events."))
	}
	i := 0
	for _, yg := range groups {
		lines = append(lines, styleTitle().Render("Events in "+yg.Label))
		for _, mg := range yg.Months {
			lines = append(lines, fmt.Sprintf("  %s (%d events)", mg.Label, len(mg.Events)))
			for _, e := range mg.Events {
				row := fmt.Sprintf("    %s %s  %s", categoryDot(e.Category), e.Date.String(), e.Title)
				if m.width > 0 {
					row = truncateWidth(row, m.width)
				}
				if i == m.upCursor {
					row = styleSelected().Render(row)
				}
				lines = append(lines, row)
				i++
			}
		}
	}
	lines = append(lines, "", styleMuted().Render("[ ] year  c category  enter open  esc back"))
	return strings.Join(lines, "\n")
}
