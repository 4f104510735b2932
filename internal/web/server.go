package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/directory"
	"eventcal/internal/events"
	appLog "eventcal/internal/log"
	"eventcal/internal/metrics"
	"eventcal/internal/model"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr         string
	Location     *time.Location
	WeekStart    time.Weekday
	IndicatorCap int

	// Now is the clock used for "today" and the upcoming filter. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	cfg     ServerConfig
	tmpl    *template.Template
	dir     *directory.Directory
	svc     *events.Service
	metrics *metrics.Metrics
}

func NewServer(cfg ServerConfig, dir *directory.Directory, svc *events.Service, m *metrics.Metrics) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if dir == nil || svc == nil {
		return nil, errors.New("web: directory and service are required")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.IndicatorCap <= 0 {
		cfg.IndicatorCap = calendar.DefaultIndicatorCap
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim":     strings.TrimSpace,
		"markdown": renderMarkdownHTML,
		"excerpt":  markdownExcerpt,
		"longDate": longDate,
		"catClass": categoryClass,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, dir: dir, svc: svc, metrics: m}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) now() time.Time { return s.cfg.Now().In(s.cfg.Location) }

func (s *Server) today() model.Date { return model.DateOf(s.now()) }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(pattern, h))
	}
	handle("GET /health", s.handleHealth)
	handle("GET /static/app.css", s.handleAppCSS)
	handle("GET /{$}", s.handleHome)
	handle("GET /stream", s.handleStream)
	handle("GET /add", s.handleAddGet)
	handle("POST /add", s.handleAddPost)
	handle("GET /add/{date}", s.handleAddGet)
	handle("POST /add/{date}", s.handleAddPost)
	handle("GET /detail/{id}", s.handleDetail)
	handle("GET /update/{id}", s.handleUpdateGet)
	handle("POST /update/{id}", s.handleUpdatePost)
	handle("POST /delete/{id}", s.handleDelete)
	handle("GET /view", s.handleView)
	handle("GET /eventlist", s.handleEventList)
	handle("GET /events.ics", s.handleICS)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// Serve runs the HTTP server until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			appLog.Error("web shutdown", err)
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(rec, r)
		s.metrics.Request(route, rec.status)
		appLog.Debug("http", "route", route, "path", r.URL.Path, "status", rec.status, "dur", time.Since(start))
	})
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, status int, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		appLog.Error("render template", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeHTMLTemplate(w, http.StatusNotFound, "notfound.html", notFoundVM{
		baseVM:  s.base(w, r, "Not found"),
		Message: "Page not found.",
	})
}
