package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/reqcheck/pkg/observability"
)

// Metrics holds the service's Prometheus collectors. It implements every
// hook interface of pkg/observability; [Metrics.Install] registers it.
type Metrics struct {
	// Checks
	ChecksTotal    *prometheus.CounterVec
	CheckDuration  prometheus.Histogram
	FindingsTotal  prometheus.Counter
	ChecksInFlight prometheus.Gauge

	// Project declarations
	SourceSelectedTotal  *prometheus.CounterVec
	DeclaredRequirements *prometheus.GaugeVec
	BuildScriptTotal     *prometheus.CounterVec
	BuildScriptDuration  prometheus.Histogram

	// Caches
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheWriteBytes  *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_checks_total",
				Help: "Total number of checked source files",
			},
			[]string{"status"},
		),
		CheckDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reqcheck_check_duration_seconds",
				Help:    "Time spent classifying the imports of one file",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		FindingsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reqcheck_findings_total",
				Help: "Total number of undeclared imports reported",
			},
		),
		ChecksInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reqcheck_checks_in_flight",
				Help: "Number of files being checked",
			},
		),

		SourceSelectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_declaration_source_selected_total",
				Help: "Number of times each declaration source supplied the requirements",
			},
			[]string{"source"},
		),
		DeclaredRequirements: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reqcheck_declared_requirements",
				Help: "Number of requirements read from the last selected source",
			},
			[]string{"source"},
		),
		BuildScriptTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_build_script_evaluations_total",
				Help: "Total number of setup.py evaluations",
			},
			[]string{"detected"},
		),
		BuildScriptDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reqcheck_build_script_duration_seconds",
				Help:    "Time spent evaluating setup.py",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"op"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"op"},
		),
		CacheWriteBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_cache_write_bytes_total",
				Help: "Total number of bytes written to caches",
			},
			[]string{"op"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqcheck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reqcheck_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reqcheck_http_requests_in_flight",
				Help: "Number of HTTP requests being served",
			},
		),
	}

	registry.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.FindingsTotal,
		m.ChecksInFlight,
		m.SourceSelectedTotal,
		m.DeclaredRequirements,
		m.BuildScriptTotal,
		m.BuildScriptDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheWriteBytes,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPInFlight,
	)
	return m
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetCheckHooks(m)
	observability.SetResolverHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnCheckStart(context.Context, string) {
	m.ChecksInFlight.Inc()
}

func (m *Metrics) OnCheckComplete(_ context.Context, _ string, findings int, d time.Duration, err error) {
	m.ChecksInFlight.Dec()
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ChecksTotal.WithLabelValues(status).Inc()
	m.CheckDuration.Observe(d.Seconds())
	m.FindingsTotal.Add(float64(findings))
}

func (m *Metrics) OnSourceSelected(_ context.Context, source string, n int) {
	m.SourceSelectedTotal.WithLabelValues(source).Inc()
	m.DeclaredRequirements.WithLabelValues(source).Set(float64(n))
}

func (m *Metrics) OnBuildScript(_ context.Context, detected bool, d time.Duration) {
	m.BuildScriptTotal.WithLabelValues(strconv.FormatBool(detected)).Inc()
	m.BuildScriptDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, op string) {
	m.CacheHitsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, op string) {
	m.CacheMissesTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, op string, size int) {
	m.CacheWriteBytes.WithLabelValues(op).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
