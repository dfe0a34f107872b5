// Package metrics defines the Prometheus instruments for the cleansing
// pipeline and the HTTP layer.
//
// Instruments are registered on an injected prometheus.Registerer so tests
// can use a private registry. All Observe methods are safe on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "csvclean"

// File load outcomes.
const (
	LoadOK         = "ok"
	LoadParseError = "parse_error"
	LoadEmpty      = "empty"
	LoadOther      = "error"
)

// Metrics holds all Prometheus instruments.
type Metrics struct {
	FilesLoaded    *prometheus.CounterVec
	RowsClassified *prometheus.CounterVec
	Corrections    *prometheus.CounterVec
	Exports        prometheus.Counter
	ExportedRows   prometheus.Counter
	ActiveSessions prometheus.Gauge

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		FilesLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_loaded_total",
			Help:      "Uploaded files by load outcome.",
		}, []string{"result"}),
		RowsClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_classified_total",
			Help:      "Rows placed in each classification group.",
		}, []string{"group"}),
		Corrections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrections_total",
			Help:      "Recorded corrections by whether they resolved the row.",
		}, []string{"resolved"}),
		Exports: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Cleaned CSV downloads.",
		}),
		ExportedRows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_rows_total",
			Help:      "Rows written to cleaned CSV downloads.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open in-memory sessions.",
		}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveLoad records one file load outcome.
func (m *Metrics) ObserveLoad(result string) {
	if m == nil {
		return
	}
	m.FilesLoaded.WithLabelValues(result).Inc()
}

// ObserveClassification records group sizes of a fresh classification.
func (m *Metrics) ObserveClassification(valid, invalid, duplicate int) {
	if m == nil {
		return
	}
	m.RowsClassified.WithLabelValues("valid").Add(float64(valid))
	m.RowsClassified.WithLabelValues("invalid").Add(float64(invalid))
	m.RowsClassified.WithLabelValues("duplicate").Add(float64(duplicate))
}

// ObserveCorrection records one correction attempt.
func (m *Metrics) ObserveCorrection(resolved bool) {
	if m == nil {
		return
	}
	m.Corrections.WithLabelValues(strconv.FormatBool(resolved)).Inc()
}

// ObserveExport records one export and its row count.
func (m *Metrics) ObserveExport(rows int) {
	if m == nil {
		return
	}
	m.Exports.Inc()
	m.ExportedRows.Add(float64(rows))
}

// SetActiveSessions records the open session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
