package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "household_app"

// Metrics holds the application collectors. It satisfies the metrics
// interfaces of the balances and chores services.
type Metrics struct {
	registry *prometheus.Registry

	settlements        prometheus.Counter
	settledSplits      prometheus.Counter
	settlementConflict prometheus.Counter
	recurringRuns      *prometheus.CounterVec
	recurringDuration  prometheus.Histogram
	recurringTemplates *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(registry)
}

func newMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlements applied.",
		}),
		settledSplits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_splits_touched_total",
			Help:      "Expense splits reduced or settled by settlements.",
		}),
		settlementConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_conflicts_total",
			Help:      "Settlements rejected because balances changed concurrently.",
		}),
		recurringRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_runs_total",
			Help:      "Recurring chore batch runs by outcome.",
		}, []string{"status"}),
		recurringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recurring_run_duration_seconds",
			Help:      "Recurring chore batch run latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		recurringTemplates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_templates_processed_total",
			Help:      "Recurring templates processed by result.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.settlements,
		m.settledSplits,
		m.settlementConflict,
		m.recurringRuns,
		m.recurringDuration,
		m.recurringTemplates,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) SettlementApplied(splitsTouched int) {
	m.settlements.Inc()
	m.settledSplits.Add(float64(splitsTouched))
}

func (m *Metrics) SettlementConflict() {
	m.settlementConflict.Inc()
}

func (m *Metrics) RecurringRun(status string, duration time.Duration) {
	m.recurringRuns.WithLabelValues(status).Inc()
	m.recurringDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecurringTemplate(status string) {
	m.recurringTemplates.WithLabelValues(status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
	})
}
