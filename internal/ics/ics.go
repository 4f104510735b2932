// Package ics converts the event collection to and from iCalendar.
// Events are all-day: DTSTART;VALUE=DATE is the event date and DTEND the next day.
package ics

import (
	"errors"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const productID = "-//eventcal//eventcal//EN"

// Export writes events as a VCALENDAR. Events without a date are skipped.
func Export(w io.Writer, events []model.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("eventcal")

	for _, e := range events {
		if e.Date.IsZero() {
			continue
		}
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(e.Title)
		if strings.TrimSpace(e.Desc) != "" {
			ve.SetDescription(e.Desc)
		}
		start := e.Date.Time(time.UTC)
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ve.AddProperty(ical.ComponentPropertyCategories, string(model.NormalizeCategory(string(e.Category))))
	}
	return cal.SerializeTo(w)
}

// Parse reads VEVENTs from r. UID becomes the event id; the first CATEGORIES
// value that names a known category is kept, anything else becomes Others.
// VEVENTs without UID or DTSTART are skipped with a warning.
func Parse(r io.Reader) ([]model.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}
	out := []model.Event{}
	for _, ve := range cal.Events() {
		e, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("skipping vevent", "error", perr)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var e model.Event
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return e, errors.New("missing UID")
	}
	e.ID = strings.TrimSpace(uid.Value)

	dt := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dt == nil {
		return e, errors.New("missing DTSTART")
	}
	d, err := parseDTStart(dt)
	if err != nil {
		return e, err
	}
	e.Date = d

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		e.Desc = p.Value
	}
	e.Category = model.CategoryOthers
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, v := range strings.Split(p.Value, ",") {
			if c, ok := model.ParseCategory(v); ok && c != "" {
				e.Category = c
				return e, nil
			}
		}
	}
	return e, nil
}

// parseDTStart takes the calendar date as written. Timed values with a TZID or
// floating time keep their wall date; UTC values are converted to local time.
func parseDTStart(p *ical.IANAProperty) (model.Date, error) {
	v := strings.TrimSpace(p.Value)
	if len(v) < 8 {
		return model.Date{}, errors.New("malformed DTSTART " + v)
	}
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return model.Date{}, err
		}
		return model.DateOf(t.In(time.Local)), nil
	}
	t, err := time.Parse("20060102", v[:8])
	if err != nil {
		return model.Date{}, err
	}
	return model.DateOf(t), nil
}
