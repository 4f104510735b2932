package web

import (
	"bytes"
	"net/http"

	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
)

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	var b bytes.Buffer
	if err := ics.Export(&b, s.dir.Events(), s.now()); err != nil {
		appLog.Error("ics export", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}
