package cli

import (
	"errors"

	"eventcal/internal/mutate"
	"eventcal/internal/store"
)

func errNotFound(id string) error {
	return mutate.NotFoundError{Kind: "event", ID: id}
}

// describeErr turns typed errors into the one-line messages printed on stderr.
func describeErr(err error) string {
	var nf mutate.NotFoundError
	var ve mutate.ValidationError
	switch {
	case errors.As(err, &nf):
		return "Event not found: " + nf.ID
	case errors.As(err, &ve):
		return "invalid " + ve.Field + ": " + ve.Message
	case errors.Is(err, store.ErrConflict):
		return err.Error() + " (reloaded; run the command again)"
	}
	return err.Error()
}

func errUnknownCategory(s string) error {
	return mutate.ValidationError{Field: "category", Message: "unknown category " + s + " (want one of " + categoryList() + ")"}
}
