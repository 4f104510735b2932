package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/model"
	"eventcal/internal/mutate"
	"eventcal/internal/store"
)

type baseVM struct {
	PageTitle string
	Now       string
	Toast     *toast
}

func (s *Server) base(w http.ResponseWriter, r *http.Request, title string) baseVM {
	return baseVM{
		PageTitle: title,
		Now:       s.now().Format(time.RFC3339),
		Toast:     takeFlash(w, r),
	}
}

type eventRow struct {
	model.Event
	DetailURL string
	EditURL   string
	DeleteURL string
	Color     string
}

func rowsFor(events []model.Event) []eventRow {
	out := make([]eventRow, 0, len(events))
	for _, e := range events {
		esc := url.PathEscape(e.ID)
		out = append(out, eventRow{
			Event:     e,
			DetailURL: "/detail/" + esc,
			EditURL:   "/update/" + esc,
			DeleteURL: "/delete/" + esc,
			Color:     model.NormalizeCategory(string(e.Category)).Color(),
		})
	}
	return out
}

type calendarVM struct {
	Grid      calendar.Grid
	Title     string
	Weekdays  []string
	Weeks     [][]cellVM
	PrevURL   string
	NextURL   string
	TodayURL  string
	StreamURL string

	PanelTitle   string
	PanelEmpty   string
	PanelEvents  []eventRow
	SelectedLong string
	AddURL       string
	ReturnTo     string
}

type cellVM struct {
	calendar.Cell
	Day      int
	URL      string
	Dots     []dotVM
	ISODate  string
	Weekday  string
	HasEvent bool
}

type dotVM struct {
	Color     string
	Category  string
	DetailURL string
}

type homeVM struct {
	baseVM
	Calendar calendarVM
}

// monthAndSelection reads ?month=YYYY-MM and ?selected=YYYY-MM-DD. Invalid values
// fall back to the current month and no selection.
func (s *Server) monthAndSelection(q url.Values) (model.Date, *model.Date) {
	var selected *model.Date
	if v := strings.TrimSpace(q.Get("selected")); v != "" {
		if d, err := model.ParseDate(v); err == nil {
			selected = &d
		}
	}
	month := calendar.MonthStart(s.today())
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if t, err := time.Parse("2006-01", v); err == nil {
			month = model.DateOf(t)
		}
	} else if selected != nil {
		month = calendar.MonthStart(*selected)
	}
	return month, selected
}

func homeURL(month model.Date, selected *model.Date) string {
	q := url.Values{}
	q.Set("month", monthParam(month))
	if selected != nil {
		q.Set("selected", selected.String())
	}
	return "/?" + q.Encode()
}

func monthParam(d model.Date) string {
	return d.Time(time.UTC).Format("2006-01")
}

func (s *Server) buildCalendarVM(month model.Date, selected *model.Date) calendarVM {
	evs := s.dir.Events()
	g := calendar.BuildGrid(month.Time(s.cfg.Location), evs, selected, calendar.GridOptions{
		WeekStart:    s.cfg.WeekStart,
		Today:        s.today(),
		IndicatorCap: s.cfg.IndicatorCap,
	})

	vm := calendarVM{
		Grid:     g,
		Title:    g.Title(),
		Weekdays: g.Weekdays(),
		PrevURL:  homeURL(calendar.AddMonths(month, -1), selected),
		NextURL:  homeURL(calendar.AddMonths(month, 1), selected),
		TodayURL: "/",
		ReturnTo: homeURL(month, selected),
	}
	q := url.Values{}
	q.Set("month", monthParam(month))
	if selected != nil {
		q.Set("selected", selected.String())
	}
	vm.StreamURL = "/stream?" + q.Encode()

	for _, week := range g.Weeks {
		row := make([]cellVM, 0, len(week))
		for _, c := range week {
			d := c.Date
			cv := cellVM{
				Cell:     c,
				Day:      d.Day,
				URL:      homeURL(month, &d),
				ISODate:  d.String(),
				Weekday:  d.Weekday().String(),
				HasEvent: len(c.Events) > 0,
			}
			for _, ind := range c.Indicators {
				cv.Dots = append(cv.Dots, dotVM{Color: ind.Color, Category: string(ind.Category), DetailURL: "/detail/" + url.PathEscape(ind.EventID)})
			}
			row = append(row, cv)
		}
		vm.Weeks = append(vm.Weeks, row)
	}

	if selected != nil {
		vm.SelectedLong = longDate(*selected)
		vm.PanelTitle = "Events on " + vm.SelectedLong
		vm.PanelEmpty = "No events for this date."
		vm.PanelEvents = rowsFor(calendar.EventsOnDay(evs, *selected))
		vm.AddURL = "/add/" + selected.String()
	} else {
		vm.PanelTitle = "Events in " + g.Title()
		vm.PanelEmpty = "No events for this month."
		vm.PanelEvents = rowsFor(calendar.EventsInMonth(evs, month))
		vm.AddURL = "/add"
	}
	return vm
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	month, selected := s.monthAndSelection(r.URL.Query())
	s.writeHTMLTemplate(w, http.StatusOK, "home.html", homeVM{
		baseVM:   s.base(w, r, "Calendar"),
		Calendar: s.buildCalendarVM(month, selected),
	})
}

type formVM struct {
	baseVM
	Heading    string
	Action     string
	Submit     string
	Title      string
	Desc       string
	Date       string
	Category   string
	Categories []model.Category
	ShowDate   bool
	CancelURL  string
}

func (s *Server) addAction(r *http.Request) string {
	if d := strings.TrimSpace(r.PathValue("date")); d != "" {
		return "/add/" + url.PathEscape(d)
	}
	return "/add"
}

func (s *Server) handleAddGet(w http.ResponseWriter, r *http.Request) {
	vm := formVM{
		baseVM:     s.base(w, r, "Add Event"),
		Heading:    "Add New Event",
		Action:     s.addAction(r),
		Submit:     "Add Event",
		Categories: model.Categories(),
		ShowDate:   true,
		CancelURL:  "/",
	}
	if raw := strings.TrimSpace(r.PathValue("date")); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			vm.Toast = &toast{Kind: "error", Message: "Invalid date format. Please ensure the date is in YYYY-MM-DD format."}
		} else {
			vm.Date = d.String()
			vm.CancelURL = homeURL(calendar.MonthStart(d), &d)
		}
	}
	s.writeHTMLTemplate(w, http.StatusOK, "form.html", vm)
}

func (s *Server) handleAddPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	draft := mutate.Draft{
		Title:    r.PostFormValue("title"),
		Desc:     r.PostFormValue("desc"),
		Date:     r.PostFormValue("date"),
		Category: r.PostFormValue("category"),
	}
	_, err := s.svc.Add(r.Context(), draft)
	if err != nil {
		s.renderFormError(w, r, err, formVM{
			baseVM:     s.base(w, r, "Add Event"),
			Heading:    "Add New Event",
			Action:     s.addAction(r),
			Submit:     "Add Event",
			Title:      draft.Title,
			Desc:       draft.Desc,
			Date:       draft.Date,
			Category:   draft.Category,
			Categories: model.Categories(),
			ShowDate:   true,
			CancelURL:  "/",
		})
		return
	}
	setFlash(w, "success", "Event added successfully!")
	// /add/{date} keeps the user on the form for the same day.
	if r.PathValue("date") != "" {
		http.Redirect(w, r, s.addAction(r), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, err error, vm formVM) {
	var ve mutate.ValidationError
	var nf mutate.NotFoundError
	switch {
	case errors.As(err, &ve):
		vm.Toast = &toast{Kind: "error", Message: ve.Message}
		s.writeHTMLTemplate(w, http.StatusBadRequest, "form.html", vm)
	case errors.As(err, &nf):
		s.writeNotFound(w, r)
	case errors.Is(err, store.ErrConflict):
		vm.Toast = &toast{Kind: "error", Message: "Events changed in another window. Reloaded; please try again."}
		s.writeHTMLTemplate(w, http.StatusConflict, "form.html", vm)
	default:
		vm.Toast = &toast{Kind: "error", Message: "Could not save: " + err.Error()}
		s.writeHTMLTemplate(w, http.StatusInternalServerError, "form.html", vm)
	}
}

type notFoundVM struct {
	baseVM
	Message string
}

func (s *Server) writeNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeHTMLTemplate(w, http.StatusNotFound, "notfound.html", notFoundVM{
		baseVM:  s.base(w, r, "Event not found"),
		Message: "Event not found.",
	})
}

type detailVM struct {
	baseVM
	Event    eventRow
	DateLong string
	BackURL  string
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	e, ok := s.dir.Find(r.PathValue("id"))
	if !ok {
		s.writeNotFound(w, r)
		return
	}
	back := "/"
	if !e.Date.IsZero() {
		back = homeURL(calendar.MonthStart(e.Date), &e.Date)
	}
	s.writeHTMLTemplate(w, http.StatusOK, "detail.html", detailVM{
		baseVM:   s.base(w, r, e.Title),
		Event:    rowsFor([]model.Event{e})[0],
		DateLong: longDate(e.Date),
		BackURL:  back,
	})
}

func (s *Server) updateFormVM(w http.ResponseWriter, r *http.Request, e model.Event) formVM {
	return formVM{
		baseVM:     s.base(w, r, "Edit Event"),
		Heading:    "Edit Event",
		Action:     "/update/" + url.PathEscape(e.ID),
		Submit:     "Update Event",
		Title:      e.Title,
		Desc:       e.Desc,
		Date:       e.Date.String(),
		Category:   string(e.Category),
		Categories: model.Categories(),
		ShowDate:   true,
		CancelURL:  "/detail/" + url.PathEscape(e.ID),
	}
}

func (s *Server) handleUpdateGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.dir.Find(r.PathValue("id"))
	if !ok {
		s.writeNotFound(w, r)
		return
	}
	s.writeHTMLTemplate(w, http.StatusOK, "form.html", s.updateFormVM(w, r, e))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := s.dir.Find(id)
	if !ok {
		s.writeNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var p mutate.Patch
	title := r.PostFormValue("title")
	desc := r.PostFormValue("desc")
	p.Title, p.Desc = &title, &desc
	// A missing or blank date or category keeps the stored value.
	if v := strings.TrimSpace(r.PostFormValue("date")); v != "" {
		p.Date = &v
	}
	if v := strings.TrimSpace(r.PostFormValue("category")); v != "" {
		p.Category = &v
	}
	if _, err := s.svc.Update(r.Context(), id, p); err != nil {
		vm := s.updateFormVM(w, r, e)
		vm.Title, vm.Desc = title, desc
		if p.Date != nil {
			vm.Date = *p.Date
		}
		if p.Category != nil {
			vm.Category = *p.Category
		}
		s.renderFormError(w, r, err, vm)
		return
	}
	setFlash(w, "success", "Event updated successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_ = r.ParseForm()
	next := safeLocalPath(r.PostFormValue("next"))
	if _, err := s.svc.Delete(r.Context(), id); err != nil {
		var nf mutate.NotFoundError
		if errors.As(err, &nf) {
			s.writeNotFound(w, r)
			return
		}
		setFlash(w, "error", "Could not delete: "+err.Error())
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	setFlash(w, "success", "Event deleted successfully!")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// safeLocalPath only allows same-site absolute paths; anything else goes home.
func safeLocalPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/detail/") || strings.HasPrefix(p, "/update/") {
		return "/"
	}
	return p
}

type viewVM struct {
	baseVM
	Year       int
	PrevURL    string
	NextURL    string
	Category   string
	Categories []model.Category
	Groups     []yearGroupVM
	Total      int
}

type yearGroupVM struct {
	Label  string
	Months []monthGroupVM
}

type monthGroupVM struct {
	Label  string
	Count  int
	Events []eventRow
}

func viewURL(year int, category string) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	if category != "" {
		q.Set("category", category)
	}
	return "/view?" + q.Encode()
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year := now.Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 10000 {
			year = n
		}
	}
	var category model.Category
	if c, ok := model.ParseCategory(r.URL.Query().Get("category")); ok {
		category = c
	}

	filtered := calendar.FilterUpcoming(s.dir.Events(), year, category, now)
	groups := calendar.GroupByYearThenMonth(filtered)

	vm := viewVM{
		baseVM:     s.base(w, r, "My Events"),
		Year:       year,
		PrevURL:    viewURL(year-1, string(category)),
		NextURL:    viewURL(year+1, string(category)),
		Category:   string(category),
		Categories: model.Categories(),
		Total:      groups.Count(),
	}
	for _, yg := range groups {
		yv := yearGroupVM{Label: yg.Label}
		for _, mg := range yg.Months {
			yv.Months = append(yv.Months, monthGroupVM{Label: mg.Label, Count: len(mg.Events), Events: rowsFor(mg.Events)})
		}
		vm.Groups = append(vm.Groups, yv)
	}
	s.writeHTMLTemplate(w, http.StatusOK, "view.html", vm)
}

type eventListVM struct {
	baseVM
	Events []eventRow
}

// handleEventList lists every stored event in storage order.
func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	s.writeHTMLTemplate(w, http.StatusOK, "eventlist.html", eventListVM{
		baseVM: s.base(w, r, "All Events"),
		Events: rowsFor(s.dir.Events()),
	})
}

func longDate(d model.Date) string {
	if d.IsZero() {
		return "No date"
	}
	return d.Time(time.UTC).Format("January 2, 2006")
}

func categoryClass(c model.Category) string {
	return "cat-" + strings.ToLower(string(model.NormalizeCategory(string(c))))
}
