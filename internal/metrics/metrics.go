// Package metrics exposes Prometheus metrics for the crop health service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fasalvaidya/crop-health/internal/health"
)

// Metrics holds the service collectors. It implements health.Observer so the
// engine reports classifications and reports directly.
type Metrics struct {
	classificationsTotal *prometheus.CounterVec
	reportsTotal         *prometheus.CounterVec
	reloadsTotal         *prometheus.CounterVec
	thresholdsInfo       *prometheus.GaugeVec
	cacheLookupsTotal    *prometheus.CounterVec
	importsTotal         *prometheus.CounterVec
	importedRowsTotal    prometheus.Counter
	requestDuration      *prometheus.HistogramVec
}

var _ health.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crop_health_classifications_total",
				Help: "Total number of overall health classifications by tier",
			},
			[]string{"status"},
		),
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crop_health_reports_total",
				Help: "Total number of generated reports",
			},
			[]string{"status", "has_history"},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crop_health_threshold_reloads_total",
				Help: "Total number of threshold reloads by trigger",
			},
			[]string{"trigger"}, // api, watcher, startup
		),
		thresholdsInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crop_health_thresholds_info",
				Help: "Version of the thresholds currently in effect (value is always 1)",
			},
			[]string{"version"},
		),
		cacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crop_health_report_cache_lookups_total",
				Help: "Total number of report cache lookups",
			},
			[]string{"result"}, // hit, miss
		),
		importsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crop_health_scan_imports_total",
				Help: "Total number of scan CSV imports by outcome",
			},
			[]string{"status"},
		),
		importedRowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crop_health_imported_scans_total",
				Help: "Total number of scans stored by CSV imports",
			},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crop_health_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.classificationsTotal.Describe(ch)
	m.reportsTotal.Describe(ch)
	m.reloadsTotal.Describe(ch)
	m.thresholdsInfo.Describe(ch)
	m.cacheLookupsTotal.Describe(ch)
	m.importsTotal.Describe(ch)
	m.importedRowsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.classificationsTotal.Collect(ch)
	m.reportsTotal.Collect(ch)
	m.reloadsTotal.Collect(ch)
	m.thresholdsInfo.Collect(ch)
	m.cacheLookupsTotal.Collect(ch)
	m.importsTotal.Collect(ch)
	m.importedRowsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
}

func (m *Metrics) ObserveClassification(status health.Status) {
	m.classificationsTotal.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObserveReport(status health.Status, hasHistory bool) {
	m.reportsTotal.WithLabelValues(string(status), strconv.FormatBool(hasHistory)).Inc()
}

// RecordReload counts a reload and marks cfg's version as current.
func (m *Metrics) RecordReload(trigger string, cfg *health.Config) {
	m.reloadsTotal.WithLabelValues(trigger).Inc()
	m.SetThresholdsVersion(cfg)
}

// SetThresholdsVersion marks cfg's version as the one in effect.
func (m *Metrics) SetThresholdsVersion(cfg *health.Config) {
	m.thresholdsInfo.Reset()
	m.thresholdsInfo.WithLabelValues(cfg.Version).Set(1)
}

// RecordCacheLookup counts a report cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordImport counts an import outcome and the scans it stored.
func (m *Metrics) RecordImport(status string, rows int) {
	m.importsTotal.WithLabelValues(status).Inc()
	if rows > 0 {
		m.importedRowsTotal.Add(float64(rows))
	}
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
