package health

import (
	"log/slog"
	"math"
	"time"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// Status is a health tier.
type Status string

const (
	StatusCritical  Status = "critical"
	StatusAttention Status = "attention"
	StatusHealthy   Status = "healthy"
)

// DateLayout is the rendering of every date the engine produces.
const DateLayout = "2006-01-02"

// Observer receives engine events, typically for metrics.
type Observer interface {
	ObserveClassification(status Status)
	ObserveReport(status Status, hasHistory bool)
}

// Engine classifies scans, compares them against history and assembles
// reports and chart data. It holds no state besides the config store, so a
// single Engine is safe for concurrent use.
type Engine struct {
	store    *Store
	now      func() time.Time
	logger   *slog.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine reading thresholds from store, or from the
// process-wide store when store is nil.
func NewEngine(store *Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "health_engine"))
	return e
}

// WithRequestLogger returns a copy of e that logs through logger, typically a
// request logger already carrying the correlation id. The copy shares the
// store, clock and observer.
func (e *Engine) WithRequestLogger(logger *slog.Logger) *Engine {
	if logger == nil {
		return e
	}
	cp := *e
	cp.logger = logger.With(slog.String("component", "health_engine"))
	return &cp
}

// Config returns the thresholds currently in effect.
func (e *Engine) Config() *Config {
	if e.store == nil {
		return GetConfig()
	}
	return e.store.Get()
}

// NormalizeScore converts a deficiency score to the 0-100 scale. Values at or
// below 1 are read as fractions, so a genuine 1.0% is read as 100%.
func NormalizeScore(value float64) float64 {
	if value <= 1 {
		return value * 100
	}
	return value
}

// HealthScore inverts a raw deficiency score into a 0-100 health score.
func HealthScore(deficiency float64) float64 {
	return 100 - NormalizeScore(deficiency)
}

// CalculateOverallScore is the unweighted mean health over the nutrients the
// scan carries: n, p, k, plus mg when present.
func CalculateOverallScore(scan *models.Scan) float64 {
	nutrients := scan.Nutrients()
	var total float64
	for _, n := range nutrients {
		raw, _ := scan.Score(n)
		total += HealthScore(raw)
	}
	return total / float64(len(nutrients))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
