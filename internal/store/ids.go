package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"eventcal/internal/model"
)

// NewEventID returns ev-<suffix> where suffix is 8 chars of lowercase base32 (~40 bits).
func NewEventID() (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return "ev-" + strings.ToLower(enc.EncodeToString(b[:])), nil
}

// NewUniqueEventID retries until the id does not collide with an existing event.
func NewUniqueEventID(existing []model.Event) (string, error) {
	for {
		id, err := NewEventID()
		if err != nil {
			return "", err
		}
		if _, taken := model.FindEvent(existing, id); !taken {
			return id, nil
		}
	}
}

// LooksLikeEventID reports whether s has the shape NewEventID produces.
func LooksLikeEventID(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "ev-") || len(s) != len("ev-")+8 {
		return false
	}
	for _, r := range s[3:] {
		if !(r >= 'a' && r <= 'z') && !(r >= '2' && r <= '7') {
			return false
		}
	}
	return true
}
