package health

import (
	"math"

	"github.com/fasalvaidya/crop-health/internal/models"
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionStable   Direction = "stable"
)

type Significance string

const (
	SignificanceNoChange    Significance = "no_change"
	SignificanceMinor       Significance = "minor"
	SignificanceSignificant Significance = "significant"
)

const (
	ArrowUp     = "↑"
	ArrowDown   = "↓"
	ArrowSteady = "→"
)

// Trend describes the change between two values.
type Trend struct {
	Delta        float64      `json:"delta"`
	DeltaPercent float64      `json:"delta_percent"`
	Direction    Direction    `json:"direction"`
	Significance Significance `json:"significance"`
	Arrow        string       `json:"arrow"`
}

// NutrientComparison compares one nutrient of the current scan against the
// previous and baseline scans. Values are normalized deficiency scores.
type NutrientComparison struct {
	Current       float64  `json:"current"`
	VsPrevious    *Trend   `json:"vs_previous"`
	VsBaseline    *Trend   `json:"vs_baseline"`
	PreviousValue *float64 `json:"previous_value,omitempty"`
	PreviousDate  string   `json:"previous_date,omitempty"`
	BaselineValue *float64 `json:"baseline_value,omitempty"`
	BaselineDate  string   `json:"baseline_date,omitempty"`
}

// Comparison is the historical comparison of a scan.
type Comparison struct {
	HasHistory   bool                                   `json:"has_history"`
	HasBaseline  bool                                   `json:"has_baseline"`
	Comparisons  map[models.Nutrient]NutrientComparison `json:"comparisons"`
	OverallTrend *Trend                                 `json:"overall_trend,omitempty"`
}

// CalculateTrend classifies current-previous. A change within epsilon, in
// either direction, is stable. The delta is rounded to two decimals before it
// is classified, so direction and arrow always agree with the reported delta
// (0.07 vs 0.02 normalizes to 7.000000000000001 vs 2 and is still stable).
func (e *Engine) CalculateTrend(current, previous float64) Trend {
	ta := e.Config().TrendAnalysis
	delta := round(current-previous, 2)

	t := Trend{Delta: delta}
	if previous != 0 {
		t.DeltaPercent = round((current-previous)/previous*100, 2)
	}

	switch {
	case math.Abs(delta) <= ta.Epsilon:
		t.Direction = DirectionStable
		t.Significance = SignificanceNoChange
	case delta > 0:
		t.Direction = DirectionIncrease
		t.Significance = SignificanceMinor
		if delta >= ta.SignificantIncrease {
			t.Significance = SignificanceSignificant
		}
	default:
		t.Direction = DirectionDecrease
		t.Significance = SignificanceMinor
		if delta <= ta.SignificantDecrease {
			t.Significance = SignificanceSignificant
		}
	}

	switch {
	case delta > ta.Epsilon:
		t.Arrow = ArrowUp
	case delta < -ta.Epsilon:
		t.Arrow = ArrowDown
	default:
		t.Arrow = ArrowSteady
	}
	return t
}

// CompareScans compares current against optional previous and baseline scans.
// has_history and has_baseline only record whether those scans were given.
func (e *Engine) CompareScans(current, previous, baseline *models.Scan) Comparison {
	c := Comparison{
		HasHistory:  previous != nil,
		HasBaseline: baseline != nil,
		Comparisons: make(map[models.Nutrient]NutrientComparison),
	}

	for _, n := range current.Nutrients() {
		raw, _ := current.Score(n)
		nc := NutrientComparison{Current: NormalizeScore(raw)}

		if previous != nil {
			if prevRaw, ok := previous.Score(n); ok {
				prev := NormalizeScore(prevRaw)
				trend := e.CalculateTrend(nc.Current, prev)
				nc.VsPrevious = &trend
				nc.PreviousValue = &prev
				nc.PreviousDate = formatDate(previous.CreatedAt)
			}
		}
		if baseline != nil {
			if baseRaw, ok := baseline.Score(n); ok {
				base := NormalizeScore(baseRaw)
				trend := e.CalculateTrend(nc.Current, base)
				nc.VsBaseline = &trend
				nc.BaselineValue = &base
				nc.BaselineDate = formatDate(baseline.CreatedAt)
			}
		}
		c.Comparisons[n] = nc
	}

	if previous != nil {
		overall := e.CalculateTrend(CalculateOverallScore(current), CalculateOverallScore(previous))
		c.OverallTrend = &overall
	}
	return c
}
