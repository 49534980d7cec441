package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/models"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

// TestNewMetrics_DoubleRegistration verifies registering twice on one registry fails.
func TestNewMetrics_DoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewMetrics(registry)
	require.NoError(t, err)

	_, err = NewMetrics(registry)
	assert.Error(t, err, "duplicate collectors must be rejected")
}

// TestMetrics_EngineObserver verifies the engine reports through the observer.
func TestMetrics_EngineObserver(t *testing.T) {
	m := newTestMetrics(t)
	store := health.NewStore(nil, nil)
	engine := health.NewEngine(store, health.WithObserver(m))

	engine.ClassifyHealth(20)
	engine.ClassifyHealth(90)
	engine.ClassifyHealth(95)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.classificationsTotal.WithLabelValues("critical")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.classificationsTotal.WithLabelValues("healthy")))

	scan := &models.Scan{ID: 1, CropID: 1, NScore: 10, PScore: 10, KScore: 10, CreatedAt: time.Now()}
	engine.GenerateReportData(scan, models.CropOrDefault(1), nil, nil, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.reportsTotal.WithLabelValues("healthy", "false")))
}

// TestMetrics_RecordReload verifies only the current version is exported.
func TestMetrics_RecordReload(t *testing.T) {
	m := newTestMetrics(t)

	first := health.DefaultConfig()
	m.RecordReload("startup", first)
	second := health.DefaultConfig()
	second.Version = "2.0"
	m.RecordReload("watcher", second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloadsTotal.WithLabelValues("watcher")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.thresholdsInfo), "old versions are dropped")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.thresholdsInfo.WithLabelValues("2.0")))
}

// TestMetrics_CacheAndImports verifies cache and import counters.
func TestMetrics_CacheAndImports(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordImport("completed", 12)
	m.RecordImport("failed", 0)
	m.ObserveRequest("GET", "/api/v1/crops", 200, 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.importedRowsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.importsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}
