// Package mutate applies add/update/delete to an event collection. Functions are
// pure: they return a new slice and never touch storage.
package mutate

import (
	"strings"

	"eventcal/internal/model"
)

// Draft is unvalidated input for a new event.
type Draft struct {
	Title    string
	Desc     string
	Date     string
	Category string
}

// Patch changes only the fields that are set.
type Patch struct {
	Title    *string
	Desc     *string
	Date     *string
	Category *string
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Desc == nil && p.Date == nil && p.Category == nil
}

// IDFunc generates a fresh id that does not collide with existing.
type IDFunc func(existing []model.Event) (string, error)

// ValidateDraft checks a draft without generating an id.
func ValidateDraft(d Draft) (model.Event, error) {
	if strings.TrimSpace(d.Date) == "" {
		return model.Event{}, ValidationError{Field: "date", Message: "Invalid or missing date."}
	}
	date, err := model.ParseDate(d.Date)
	if err != nil {
		return model.Event{}, ValidationError{Field: "date", Message: "Invalid date format. Please use YYYY-MM-DD."}
	}
	cat, ok := model.ParseCategory(d.Category)
	if !ok {
		return model.Event{}, ValidationError{Field: "category", Message: "Unknown category " + strings.TrimSpace(d.Category) + "."}
	}
	return model.Event{
		Title:    strings.TrimSpace(d.Title),
		Desc:     strings.TrimSpace(d.Desc),
		Date:     date,
		Category: model.NormalizeCategory(string(cat)),
	}, nil
}

// Add appends a validated event. The input slice is not modified.
func Add(events []model.Event, d Draft, newID IDFunc) ([]model.Event, model.Event, error) {
	e, err := ValidateDraft(d)
	if err != nil {
		return nil, model.Event{}, err
	}
	id, err := newID(events)
	if err != nil {
		return nil, model.Event{}, err
	}
	e.ID = id
	out := make([]model.Event, 0, len(events)+1)
	out = append(out, events...)
	out = append(out, e)
	return out, e, nil
}

// Update applies p to the event with id. Position in the collection is kept.
func Update(events []model.Event, id string, p Patch) ([]model.Event, model.Event, error) {
	id = strings.TrimSpace(id)
	idx := indexOf(events, id)
	if idx < 0 {
		return nil, model.Event{}, NotFoundError{Kind: "event", ID: id}
	}
	e := events[idx]
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Desc != nil {
		e.Desc = strings.TrimSpace(*p.Desc)
	}
	if p.Date != nil {
		d, err := model.ParseDate(*p.Date)
		if err != nil {
			return nil, model.Event{}, ValidationError{Field: "date", Message: "Invalid date format. Please use YYYY-MM-DD."}
		}
		e.Date = d
	}
	if p.Category != nil {
		c, ok := model.ParseCategory(*p.Category)
		if !ok {
			return nil, model.Event{}, ValidationError{Field: "category", Message: "Unknown category " + strings.TrimSpace(*p.Category) + "."}
		}
		e.Category = model.NormalizeCategory(string(c))
	}
	out := model.Clone(events)
	out[idx] = e
	return out, e, nil
}

// Delete removes the event with id.
func Delete(events []model.Event, id string) ([]model.Event, model.Event, error) {
	id = strings.TrimSpace(id)
	idx := indexOf(events, id)
	if idx < 0 {
		return nil, model.Event{}, NotFoundError{Kind: "event", ID: id}
	}
	removed := events[idx]
	out := make([]model.Event, 0, len(events)-1)
	out = append(out, events[:idx]...)
	out = append(out, events[idx+1:]...)
	return out, removed, nil
}

// Merge adds incoming events, keeping existing ids and replacing events whose id
// already exists. Used by import.
func Merge(existing, incoming []model.Event) (out []model.Event, added, replaced int) {
	out = model.Clone(existing)
	for _, e := range incoming {
		if idx := indexOf(out, e.ID); idx >= 0 {
			out[idx] = e
			replaced++
			continue
		}
		out = append(out, e)
		added++
	}
	return out, added, replaced
}

func indexOf(events []model.Event, id string) int {
	if id == "" {
		return -1
	}
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}
