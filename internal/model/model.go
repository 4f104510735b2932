package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryWork          Category = "Work"
	CategoryPersonal      Category = "Personal"
	CategoryEntertainment Category = "Entertainment"
	CategoryOthers        Category = "Others"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryEntertainment, CategoryOthers}
}

// ParseCategory matches case-insensitively. Empty input is valid and means "no category".
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	for _, c := range Categories() {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory maps unknown or empty values to Others.
func NormalizeCategory(s string) Category {
	c, ok := ParseCategory(s)
	if !ok || c == "" {
		return CategoryOthers
	}
	return c
}

// Color is the fixed indicator color (hex) for the category.
func (c Category) Color() string {
	switch c {
	case CategoryWork:
		return "#f97316"
	case CategoryPersonal:
		return "#3b82f6"
	case CategoryEntertainment:
		return "#eab308"
	default:
		return "#22c55e"
	}
}

type Event struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Desc     string   `json:"desc"`
	Date     Date     `json:"date"`
	Category Category `json:"category"`
}

const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
// The zero value means "unscheduled" and never matches a calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("invalid date: empty")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Equal(o Date) bool { return d == o }

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool { return o.Before(d) }

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails on a malformed date string: the event is kept as
// unscheduled instead of discarding the whole collection.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		// Browser exports sometimes carry a full ISO timestamp.
		if t, terr := time.Parse(time.RFC3339, strings.TrimSpace(s)); terr == nil {
			*d = DateOf(t)
			return nil
		}
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// Clone returns a copy of events that shares no backing array with the input.
func Clone(events []Event) []Event {
	if events == nil {
		return []Event{}
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

func FindEvent(events []Event, id string) (Event, bool) {
	id = strings.TrimSpace(id)
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}
