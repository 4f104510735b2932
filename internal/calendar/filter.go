package calendar

import (
	"sort"
	"time"

	"eventcal/internal/model"
)

// FilterUpcoming keeps events in year whose day starts strictly after now and,
// when category is non-empty, that carry that category. Input order is kept.
func FilterUpcoming(events []model.Event, year int, category model.Category, now time.Time) []model.Event {
	out := []model.Event{}
	for _, e := range events {
		if e.Date.IsZero() || e.Date.Year != year {
			continue
		}
		if !e.Date.Time(now.Location()).After(now) {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	return out
}

type MonthGroup struct {
	Label  string        `json:"label"`
	Year   int           `json:"year"`
	Month  time.Month    `json:"month"`
	Events []model.Event `json:"events"`
}

type YearGroup struct {
	Label  string       `json:"label"`
	Year   int          `json:"year"`
	Months []MonthGroup `json:"months"`
}

type Groups []YearGroup

// GroupByYearThenMonth partitions events into years then months, both ascending.
// Within a month events are ordered by date; same-day events keep input order.
func GroupByYearThenMonth(events []model.Event) Groups {
	sorted := model.Clone(events)
	sortByDate(sorted)

	var out Groups
	for _, e := range sorted {
		if e.Date.IsZero() {
			continue
		}
		if len(out) == 0 || out[len(out)-1].Year != e.Date.Year {
			out = append(out, YearGroup{Label: yearLabel(e.Date), Year: e.Date.Year})
		}
		yg := &out[len(out)-1]
		if len(yg.Months) == 0 || yg.Months[len(yg.Months)-1].Month != e.Date.Month {
			yg.Months = append(yg.Months, MonthGroup{Label: monthLabel(e.Date), Year: e.Date.Year, Month: e.Date.Month})
		}
		mg := &yg.Months[len(yg.Months)-1]
		mg.Events = append(mg.Events, e)
	}
	if out == nil {
		out = Groups{}
	}
	return out
}

// Flatten returns every grouped event in group order.
func (g Groups) Flatten() []model.Event {
	out := []model.Event{}
	for _, y := range g {
		for _, m := range y.Months {
			out = append(out, m.Events...)
		}
	}
	return out
}

func (g Groups) Count() int {
	n := 0
	for _, y := range g {
		for _, m := range y.Months {
			n += len(m.Events)
		}
	}
	return n
}

func yearLabel(d model.Date) string {
	return d.Time(time.UTC).Format("2006")
}

func monthLabel(d model.Date) string {
	return d.Time(time.UTC).Format("January 2006")
}

func sortByDate(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}
