// Package calendar builds month grids and upcoming-event groupings from an
// event collection. Everything here is pure: callers pass "today" and "now".
package calendar

import (
	"time"

	"eventcal/internal/model"
)

const DefaultIndicatorCap = 1

type GridOptions struct {
	WeekStart    time.Weekday
	Today        model.Date
	IndicatorCap int
}

type Indicator struct {
	EventID  string         `json:"eventId"`
	Category model.Category `json:"category"`
	Color    string         `json:"color"`
}

type Cell struct {
	Date           model.Date    `json:"date"`
	InCurrentMonth bool          `json:"inCurrentMonth"`
	IsToday        bool          `json:"isToday"`
	IsSelected     bool          `json:"isSelected"`
	Events         []model.Event `json:"events"`
	Indicators     []Indicator   `json:"indicators"`
	More           int           `json:"more"`
}

type Grid struct {
	Year      int          `json:"year"`
	Month     time.Month   `json:"month"`
	WeekStart time.Weekday `json:"weekStart"`
	Weeks     [][]Cell     `json:"weeks"`
}

// BuildGrid lays out the month containing ref as whole weeks, from the start of
// the week holding the 1st to the end of the week holding the last day.
func BuildGrid(ref time.Time, events []model.Event, selected *model.Date, opts GridOptions) Grid {
	capN := opts.IndicatorCap
	if capN <= 0 {
		capN = DefaultIndicatorCap
	}
	first := MonthStart(model.DateOf(ref))
	last := first.AddDays(daysInMonth(first.Year, first.Month) - 1)
	start := startOfWeek(first, opts.WeekStart)
	end := startOfWeek(last, opts.WeekStart).AddDays(6)

	byDay := map[model.Date][]model.Event{}
	for _, e := range events {
		if e.Date.IsZero() {
			continue
		}
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		byDay[e.Date] = append(byDay[e.Date], e)
	}

	g := Grid{Year: first.Year, Month: first.Month, WeekStart: opts.WeekStart}
	var week []Cell
	for d := start; !d.After(end); d = d.AddDays(1) {
		dayEvents := byDay[d]
		if dayEvents == nil {
			dayEvents = []model.Event{}
		}
		c := Cell{
			Date:           d,
			InCurrentMonth: d.Year == first.Year && d.Month == first.Month,
			IsToday:        d.Equal(opts.Today),
			IsSelected:     selected != nil && selected.Equal(d),
			Events:         dayEvents,
			Indicators:     []Indicator{},
		}
		for i, e := range dayEvents {
			if i >= capN {
				c.More = len(dayEvents) - capN
				break
			}
			cat := model.NormalizeCategory(string(e.Category))
			c.Indicators = append(c.Indicators, Indicator{EventID: e.ID, Category: cat, Color: cat.Color()})
		}
		week = append(week, c)
		if len(week) == 7 {
			g.Weeks = append(g.Weeks, week)
			week = nil
		}
	}
	return g
}

// Title is the month heading, e.g. "March 2025".
func (g Grid) Title() string {
	return time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// Weekdays returns the column headers starting at the grid's week start.
func (g Grid) Weekdays() []string {
	out := make([]string, 7)
	for i := 0; i < 7; i++ {
		out[i] = (time.Weekday((int(g.WeekStart) + i) % 7)).String()[:3]
	}
	return out
}

// Cells returns every cell in row-major order.
func (g Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.Weeks)*7)
	for _, w := range g.Weeks {
		out = append(out, w...)
	}
	return out
}

// Cell finds the cell for d, if it is on the grid.
func (g Grid) Cell(d model.Date) (Cell, bool) {
	for _, w := range g.Weeks {
		for _, c := range w {
			if c.Date == d {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// EventsOnDay returns events dated exactly d, in input order.
func EventsOnDay(events []model.Event, d model.Date) []model.Event {
	out := []model.Event{}
	if d.IsZero() {
		return out
	}
	for _, e := range events {
		if e.Date.Equal(d) {
			out = append(out, e)
		}
	}
	return out
}

// EventsInMonth returns events in ref's month sorted by date (stable).
func EventsInMonth(events []model.Event, ref model.Date) []model.Event {
	out := []model.Event{}
	for _, e := range events {
		if !e.Date.IsZero() && e.Date.Year == ref.Year && e.Date.Month == ref.Month {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out
}

func MonthStart(d model.Date) model.Date {
	return model.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// AddMonths moves to the first day of the month n months away.
func AddMonths(d model.Date, n int) model.Date {
	t := time.Date(d.Year, d.Month+time.Month(n), 1, 12, 0, 0, 0, time.UTC)
	return model.DateOf(t)
}

// ClampDay moves d to month m of year y, keeping the day where possible.
func ClampDay(y int, m time.Month, day int) model.Date {
	if day < 1 {
		day = 1
	}
	if n := daysInMonth(y, m); day > n {
		day = n
	}
	return model.Date{Year: y, Month: m, Day: day}
}

func daysInMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

func startOfWeek(d model.Date, weekStart time.Weekday) model.Date {
	back := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-back)
}
