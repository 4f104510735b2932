package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"eventcal/internal/directory"
	"eventcal/internal/events"
	"eventcal/internal/metrics"
	"eventcal/internal/model"
	"eventcal/internal/store"
)

func fixedNow() time.Time { return time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, seed []model.Event) (*Server, *directory.Directory) {
	t.Helper()
	st := store.Store{Dir: t.TempDir()}
	ctx := context.Background()
	if seed != nil {
		if _, err := st.Save(ctx, seed); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	dir := directory.New(st)
	if err := dir.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	m := metrics.New()
	srv, err := NewServer(ServerConfig{
		Addr:      "127.0.0.1:0",
		Location:  time.UTC,
		WeekStart: time.Sunday,
		Now:       fixedNow,
	}, dir, events.New(dir, m), m)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, dir
}

func seedEvents() []model.Event {
	return []model.Event{
		{ID: "ev-w1", Title: "Standup", Date: model.MustDate("2025-03-10"), Category: model.CategoryWork},
		{ID: "ev-p1", Title: "Dentist", Desc: "Bring **insurance** card", Date: model.MustDate("2025-03-10"), Category: model.CategoryPersonal},
		{ID: "ev-w2", Title: "Quarterly review", Date: model.MustDate("2025-04-02"), Category: model.CategoryWork},
		{ID: "ev-e1", Title: "Concert", Date: model.MustDate("2024-12-01"), Category: model.CategoryEntertainment},
	}
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func flashFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie {
			return c
		}
	}
	t.Fatalf("expected %s cookie to be set", flashCookie)
	return nil
}

func TestHome_MonthPanelAndGrid(t *testing.T) {
	srv, _ := newTestServer(t, seedEvents())
	rr := do(t, srv.Handler(), http.MethodGet, "/?month=2025-03", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"March 2025", "Events in March 2025", "Standup", "Dentist", `id="calendar"`, "/stream?month=2025-03"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
	if strings.Contains(body, "Quarterly review") {
		t.Fatalf("April event must not be listed in the March panel")
	}
	if !strings.Contains(body, "+1") {
		t.Fatalf("expected overflow marker for the day with two events")
	}
}

func TestHome_SelectedDay(t *testing.T) {
	srv, _ := newTestServer(t, seedEvents())
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/?selected=2025-03-10", nil)
	body := rr.Body.String()
	if !strings.Contains(body, "Events on March 10, 2025") {
		t.Fatalf("expected selected-day heading, got:\n%s", body)
	}
	if !strings.Contains(body, `href="/add/2025-03-10"`) {
		t.Fatalf("expected add link for the selected day")
	}

	rr = do(t, h, http.MethodGet, "/?selected=2025-03-11", nil)
	if !strings.Contains(rr.Body.String(), "No events for this date.") {
		t.Fatalf("expected empty-day message")
	}
}

func TestHome_EmptyMonth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := do(t, srv.Handler(), http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No events for this month.") {
		t.Fatalf("expected empty-month message")
	}
}

func TestAdd_RedirectsAndFlashes(t *testing.T) {
	srv, dir := newTestServer(t, nil)
	h := srv.Handler()

	rr := do(t, h, http.MethodPost, "/add", url.Values{
		"title":    {"Lunch"},
		"desc":     {"with team"},
		"date":     {"2025-03-20"},
		"category": {"Work"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
	evs := dir.Events()
	if len(evs) != 1 || evs[0].Title != "Lunch" || evs[0].Category != model.CategoryWork {
		t.Fatalf("unexpected events: %+v", evs)
	}
	if !store.LooksLikeEventID(evs[0].ID) {
		t.Fatalf("unexpected id shape %q", evs[0].ID)
	}

	rr = do(t, h, http.MethodGet, "/", nil, flashFrom(t, rr))
	if !strings.Contains(rr.Body.String(), "Event added successfully!") {
		t.Fatalf("expected success toast on the next page")
	}
}

func TestAdd_ForDateStaysOnForm(t *testing.T) {
	srv, dir := newTestServer(t, nil)
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/add/2025-03-10", nil)
	if !strings.Contains(rr.Body.String(), `value="2025-03-10"`) {
		t.Fatalf("expected date prefilled")
	}

	rr = do(t, h, http.MethodPost, "/add/2025-03-10", url.Values{
		"title": {"Gym"}, "date": {"2025-03-10"}, "category": {"Personal"},
	})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/add/2025-03-10" {
		t.Fatalf("expected redirect back to the form, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(dir.Events()) != 1 {
		t.Fatalf("expected 1 event")
	}
}

func TestAdd_InvalidDateFromPath(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := do(t, srv.Handler(), http.MethodGet, "/add/2025-13-40", nil)
	if !strings.Contains(rr.Body.String(), "Invalid date format. Please ensure the date is in YYYY-MM-DD format.") {
		t.Fatalf("expected invalid date toast")
	}
}

func TestAdd_ValidationError(t *testing.T) {
	srv, dir := newTestServer(t, nil)
	rr := do(t, srv.Handler(), http.MethodPost, "/add", url.Values{
		"title": {"No date"}, "category": {"Work"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid or missing date.") {
		t.Fatalf("expected validation message")
	}
	if !strings.Contains(rr.Body.String(), `value="No date"`) {
		t.Fatalf("expected title to be kept in the form")
	}
	if len(dir.Events()) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestDetail(t *testing.T) {
	srv, _ := newTestServer(t, seedEvents())
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/detail/ev-p1", nil)
	body := rr.Body.String()
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	for _, want := range []string{"Dentist", "March 10, 2025", "Personal", "<strong>insurance</strong>", `href="/update/ev-p1"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected detail page to contain %q", want)
		}
	}

	rr = do(t, h, http.MethodGet, "/detail/nope", nil)
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), "Event not found.") {
		t.Fatalf("expected 404 with message, got %d", rr.Code)
	}
}

func TestUpdate(t *testing.T) {
	srv, dir := newTestServer(t, seedEvents())
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/update/ev-w1", nil)
	if !strings.Contains(rr.Body.String(), `value="Standup"`) {
		t.Fatalf("expected form prefilled with current title")
	}

	rr = do(t, h, http.MethodPost, "/update/ev-w1", url.Values{
		"title": {"Daily standup"}, "desc": {"10 minutes"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	got, ok := dir.Find("ev-w1")
	if !ok || got.Title != "Daily standup" || got.Desc != "10 minutes" {
		t.Fatalf("unexpected event after update: %+v", got)
	}
	if got.Date.String() != "2025-03-10" || got.Category != model.CategoryWork {
		t.Fatalf("date and category should be unchanged: %+v", got)
	}

	// Blank date and category keep the stored values; a bad date is still a 400.
	rr = do(t, h, http.MethodPost, "/update/ev-w1", url.Values{
		"title": {"Daily standup"}, "desc": {""}, "date": {"  "}, "category": {""},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	got, _ = dir.Find("ev-w1")
	if got.Date.String() != "2025-03-10" || got.Category != model.CategoryWork || got.Desc != "" {
		t.Fatalf("blank fields should keep date and category: %+v", got)
	}
	rr = do(t, h, http.MethodPost, "/update/ev-w1", url.Values{
		"title": {"Daily standup"}, "date": {"2025-02-30"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for impossible date, got %d", rr.Code)
	}
	rr = do(t, h, http.MethodPost, "/update/ev-w1", url.Values{
		"title": {"Daily standup"}, "date": {"2025-03-11"}, "category": {"Personal"},
	})
	got, _ = dir.Find("ev-w1")
	if rr.Code != http.StatusSeeOther || got.Date.String() != "2025-03-11" || got.Category != model.CategoryPersonal {
		t.Fatalf("expected date and category change, got %d %+v", rr.Code, got)
	}

	rr = do(t, h, http.MethodPost, "/update/missing", url.Values{"title": {"x"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDelete(t *testing.T) {
	srv, dir := newTestServer(t, seedEvents())
	h := srv.Handler()

	rr := do(t, h, http.MethodPost, "/delete/ev-w1", url.Values{"next": {"/?month=2025-03"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/?month=2025-03" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if _, ok := dir.Find("ev-w1"); ok {
		t.Fatalf("expected event to be gone")
	}
	if len(dir.Events()) != 3 {
		t.Fatalf("expected 3 events left, got %d", len(dir.Events()))
	}

	rr = do(t, h, http.MethodPost, "/delete/ev-p1", url.Values{"next": {"/detail/ev-p1"}})
	if rr.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect away from the deleted detail page, got %q", rr.Header().Get("Location"))
	}

	rr = do(t, h, http.MethodPost, "/delete/ev-p1", url.Values{})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestView_FiltersAndGroups(t *testing.T) {
	srv, _ := newTestServer(t, seedEvents())
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/view?year=2025&category=Work", nil)
	body := rr.Body.String()
	if !strings.Contains(body, "Quarterly review") {
		t.Fatalf("expected upcoming work event")
	}
	if strings.Contains(body, "Standup") {
		t.Fatalf("past events must not be listed")
	}
	if !strings.Contains(body, "Events in 2025") || !strings.Contains(body, "April 2025 (1 events)") {
		t.Fatalf("expected year and month group headings, got:\n%s", body)
	}

	rr = do(t, h, http.MethodGet, "/view?year=2024", nil)
	if !strings.Contains(rr.Body.String(), "No upcoming events.") {
		t.Fatalf("expected nothing upcoming in a past year")
	}
	if !strings.Contains(rr.Body.String(), "All Categories") {
		t.Fatalf("expected the category selector")
	}
}

func TestEventList(t *testing.T) {
	srv, _ := newTestServer(t, seedEvents())
	rr := do(t, srv.Handler(), http.MethodGet, "/eventlist", nil)
	body := rr.Body.String()
	for _, want := range []string{"Standup", "Dentist", "Quarterly review", "Concert"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in list", want)
		}
	}
}

func TestICSAndHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, seedEvents())
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/events.ics", nil)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "BEGIN:VCALENDAR") || !strings.Contains(rr.Body.String(), "Quarterly review") {
		t.Fatalf("unexpected ics body:\n%s", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "ok" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rr.Body.String(), "eventcal_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}

	rr = do(t, h, http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestStream_PatchesCalendarOnChange(t *testing.T) {
	srv, dir := newTestServer(t, seedEvents())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream?month=2025-03", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	go func() {
		evs := dir.Events()
		evs = append(evs, model.Event{ID: "ev-new", Title: "Streamed", Date: model.MustDate("2025-03-21"), Category: model.CategoryOthers})
		dir.Set(evs)
	}()

	buf := make([]byte, 0, 64*1024)
	chunk := make([]byte, 4096)
	for !strings.Contains(string(buf), "Streamed") {
		n, err := resp.Body.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			t.Fatalf("stream ended before patch: %v\n%s", err, buf)
		}
	}
	if !strings.Contains(string(buf), "#calendar") {
		t.Fatalf("expected patch to target #calendar:\n%s", buf)
	}
}

func TestMarkdownExcerpt(t *testing.T) {
	got := markdownExcerpt("# Heading\n\nSome *emphasis* and `code`.")
	if got != "Heading Some emphasis and code." {
		t.Fatalf("unexpected excerpt %q", got)
	}
	long := strings.Repeat("a ", 200)
	if r := []rune(markdownExcerpt(long)); r[len(r)-1] != '…' {
		t.Fatalf("expected truncated excerpt")
	}
}

func TestSafeLocalPath(t *testing.T) {
	cases := map[string]string{
		"":                  "/",
		"https://evil.test": "/",
		"//evil.test":       "/",
		"/detail/ev-1":      "/",
		"/view?year=2025":   "/view?year=2025",
	}
	for in, want := range cases {
		if got := safeLocalPath(in); got != want {
			t.Fatalf("safeLocalPath(%q) = %q, want %q", in, got, want)
		}
	}
}
