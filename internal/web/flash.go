package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "eventcal_flash"

// toast is a one-shot notification shown on the next rendered page.
type toast struct {
	Kind    string `json:"kind"` // success|error
	Message string `json:"message"`
}

func setFlash(w http.ResponseWriter, kind, msg string) {
	b, err := json.Marshal(toast{Kind: kind, Message: msg})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the pending toast, if any.
func takeFlash(w http.ResponseWriter, r *http.Request) *toast {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var t toast
	if err := json.Unmarshal(b, &t); err != nil || t.Message == "" {
		return nil
	}
	return &t
}
