// Package metrics exposes Prometheus collectors for the event directory, the
// store and the web server.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

type Metrics struct {
	reg *prometheus.Registry

	events       *prometheus.GaugeVec
	storeWrite   prometheus.Gauge
	mutations    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	backups      *prometheus.CounterVec
	sseClients   prometheus.Gauge
}

// New registers every collector on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{reg: reg}

	m.events = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eventcal_events",
		Help: "Number of stored events by category",
	}, []string{"category"}))
	m.storeWrite = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eventcal_store_write_microsec",
		Help: "Latency of the last event collection write in microseconds",
	}))
	m.mutations = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_mutations_total",
		Help: "Event mutations by operation and result",
	}, []string{"op", "result"}))
	m.httpRequests = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_http_requests_total",
		Help: "Web requests by route pattern and status code class",
	}, []string{"route", "code"}))
	m.backups = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcal_backups_total",
		Help: "Backup snapshots by result",
	}, []string{"result"}))
	m.sseClients = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eventcal_sse_clients",
		Help: "Connected live-update streams",
	}))

	register(reg, collectors.NewGoCollector())
	register(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// register tolerates a collector that is already registered and returns the existing one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
			return c
		}
		appLog.Error("can't register metric", err)
	}
	return c
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveEvents sets the per-category gauge from the current collection.
func (m *Metrics) ObserveEvents(events []model.Event) {
	if m == nil {
		return
	}
	counts := map[model.Category]int{}
	for _, e := range events {
		counts[model.NormalizeCategory(string(e.Category))]++
	}
	for _, c := range model.Categories() {
		m.events.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
}

func (m *Metrics) ObserveStoreWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.storeWrite.Set(float64(d.Microseconds()))
}

func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Request(route string, status int) {
	if m == nil {
		return
	}
	code := "2xx"
	switch {
	case status >= 500:
		code = "5xx"
	case status >= 400:
		code = "4xx"
	case status >= 300:
		code = "3xx"
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

func (m *Metrics) Backup(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.backups.WithLabelValues("error").Inc()
		return
	}
	m.backups.WithLabelValues("ok").Inc()
}

func (m *Metrics) StreamOpened() {
	if m != nil {
		m.sseClients.Inc()
	}
}

func (m *Metrics) StreamClosed() {
	if m != nil {
		m.sseClients.Dec()
	}
}
