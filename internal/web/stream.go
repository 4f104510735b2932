package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

const streamKeepAlive = 25 * time.Second

// handleStream re-renders the calendar partial whenever the directory changes,
// so every open tab follows edits made elsewhere.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	month, selected := s.monthAndSelection(r.URL.Query())

	ch, cancel := s.dir.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	_ = sse.MarshalAndPatchSignals(map[string]any{"revision": s.dir.Revision()})

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			html, err := s.renderTemplate("calendar", s.buildCalendarVM(month, selected))
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			if strings.TrimSpace(html) == "" {
				continue
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#calendar"), datastar.WithMode(datastar.ElementPatchModeOuter))
			_ = sse.MarshalAndPatchSignals(map[string]any{"revision": s.dir.Revision()})
		}
	}
}
