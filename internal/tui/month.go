package tui

import (
	"fmt"
	"strings"

	"eventcal/internal/calendar"
	"eventcal/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const cellWidth = 6

// sideEvents is what the side list shows: the selected day's events, or the
// whole month when that day is empty.
func (m appModel) sideEvents() []model.Event {
	if day := calendar.EventsOnDay(m.events, m.selected); len(day) > 0 {
		return day
	}
	return calendar.EventsInMonth(m.events, m.month)
}

func (m appModel) sideTitle() (title string, dayMode bool) {
	if len(calendar.EventsOnDay(m.events, m.selected)) > 0 {
		return "Events on " + longDate(m.selected), true
	}
	return "Events in " + m.month.Time(m.opts.Location).Format("January 2006"), false
}

func (m appModel) highlighted() (model.Event, bool) {
	evs := m.sideEvents()
	if m.highlight < 0 || m.highlight >= len(evs) {
		return model.Event{}, false
	}
	return evs[m.highlight], true
}

func (m *appModel) selectDay(d model.Date) {
	m.selected = d
	m.month = calendar.MonthStart(d)
	m.highlight = 0
}

func (m appModel) updateMonth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Left):
		m.selectDay(m.selected.AddDays(-1))
	case key.Matches(msg, k.Right):
		m.selectDay(m.selected.AddDays(1))
	case key.Matches(msg, k.Up):
		m.selectDay(m.selected.AddDays(-7))
	case key.Matches(msg, k.Down):
		m.selectDay(m.selected.AddDays(7))
	case key.Matches(msg, k.PrevMonth):
		m.selectDay(shiftMonth(m.selected, -1))
	case key.Matches(msg, k.NextMonth):
		m.selectDay(shiftMonth(m.selected, 1))
	case key.Matches(msg, k.Today):
		m.selectDay(m.today())
	case key.Matches(msg, k.NextInList):
		if n := len(m.sideEvents()); n > 0 {
			m.highlight = (m.highlight + 1) % n
		}
	case key.Matches(msg, k.Open):
		if e, ok := m.highlighted(); ok {
			m.detailID = e.ID
			m.backView = viewMonth
			m.view = viewDetail
		}
	case key.Matches(msg, k.Add):
		m.backView = viewMonth
		m.form = newAddForm(m.selected, m.width)
		m.view = viewForm
		m.setStatus("", false)
		return m, m.form.focusCmd()
	case key.Matches(msg, k.Edit):
		if e, ok := m.highlighted(); ok {
			m.backView = viewMonth
			m.form = newEditForm(e, m.width)
			m.view = viewForm
			m.setStatus("", false)
			return m, m.form.focusCmd()
		}
	case key.Matches(msg, k.Delete):
		if e, ok := m.highlighted(); ok {
			m.askDelete(e)
		}
	case key.Matches(msg, k.Upcoming):
		m.view = viewUpcoming
		m.upCursor = 0
	case key.Matches(msg, k.Reload):
		m.setStatus("Reloaded.", false)
		return m, m.reloadCmd(true)
	case key.Matches(msg, k.Help):
		return m.openHelp(), nil
	}
	return m, nil
}

// shiftMonth moves d by n months, clamping the day to the target month's length.
func shiftMonth(d model.Date, n int) model.Date {
	first := calendar.AddMonths(calendar.MonthStart(d), n)
	return calendar.ClampDay(first.Year, first.Month, d.Day)
}

func (m appModel) grid() calendar.Grid {
	sel := m.selected
	return calendar.BuildGrid(m.month.Time(m.opts.Location), m.events, &sel, calendar.GridOptions{
		WeekStart:    m.opts.WeekStart,
		Today:        m.today(),
		IndicatorCap: m.opts.IndicatorCap,
	})
}

func (m appModel) viewMonth() string {
	g := m.grid()

	var b strings.Builder
	b.WriteString(styleTitle().Render(g.Title()))
	b.WriteString("\n\n")

	for _, wd := range g.Weekdays() {
		b.WriteString(styleMuted().Render(padCell(wd)))
	}
	b.WriteString("\n")
	for _, week := range g.Weeks {
		for _, c := range week {
			b.WriteString(renderCell(c))
		}
		b.WriteString("\n")
	}
	left := b.String()

	sideW := m.width - cellWidth*7 - 4
	if sideW < 24 {
		sideW = 24
	}
	right := m.renderSide(sideW)

	gridW := cellWidth * 7
	gridH := len(g.Weeks) + 3
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(left, gridW, gridH),
		"    ",
		normalizePane(right, sideW, max(gridH, lipgloss.Height(right))),
	)
	footer := styleMuted().Render(helpLine(m.keys.PrevMonth, m.keys.NextMonth, m.keys.Today, m.keys.Add, m.keys.Edit, m.keys.Delete, m.keys.Upcoming, m.keys.Help, m.keys.Quit))
	return body + "\n\n" + footer
}

func padCell(s string) string {
	return lipgloss.NewStyle().Width(cellWidth).Render(s)
}

// renderCell draws " 12●+1" style cells: day number, capped dots, overflow count.
func renderCell(c calendar.Cell) string {
	num := fmt.Sprintf("%2d", c.Date.Day)
	switch {
	case c.IsSelected:
		num = styleSelected().Render(num)
	case c.IsToday:
		num = styleToday().Render(num)
	case !c.InCurrentMonth:
		num = lipgloss.NewStyle().Foreground(colorOutsideDay).Render(num)
	}
	s := num
	for _, ind := range c.Indicators {
		s += categoryDot(ind.Category)
	}
	if c.More > 0 {
		s += styleMuted().Render(fmt.Sprintf("+%d", c.More))
	}
	return padCell(s)
}

func (m appModel) renderSide(width int) string {
	title, dayMode := m.sideTitle()
	lines := []string{styleTitle().Render(truncateWidth(title, width)), ""}
	evs := m.sideEvents()
	if len(evs) == 0 {
		lines = append(lines, styleMuted().Render("No events for this month."), "", styleMuted().Render("a: add on "+m.selected.String()))
		return strings.Join(lines, "\n")
	}
	for i, e := range evs {
		row := categoryDot(e.Category) + " " + e.Title
		if !dayMode {
			row = categoryDot(e.Category) + " " + fmt.Sprintf("%2d", e.Date.Day) + "  " + e.Title
		}
		row = truncateWidth(row, width)
		if i == m.highlight {
			row = styleSelected().Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func longDate(d model.Date) string {
	if d.IsZero() {
		return "No date"
	}
	return fmt.Sprintf("%s %d, %d", d.Month, d.Day, d.Year)
}
