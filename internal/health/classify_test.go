package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHealth_BoundaryExactness(t *testing.T) {
	// Lower bounds are inclusive: a score exactly on a boundary takes the higher tier
	e, _ := newTestEngine(t)

	cases := map[float64]Status{
		0:     StatusCritical,
		49.99: StatusCritical,
		50.0:  StatusAttention,
		65.0:  StatusAttention,
		79.99: StatusAttention,
		80.0:  StatusHealthy,
		95.0:  StatusHealthy,
		100:   StatusHealthy,
	}
	for score, want := range cases {
		assert.Equal(t, want, e.ClassifyHealth(score).Status, "score %.2f", score)
	}
}

func TestClassifyHealth_DisplayAttributes(t *testing.T) {
	e, _ := newTestEngine(t)

	hc := e.ClassifyHealth(30)
	assert.Equal(t, "Critical", hc.Label)
	assert.Equal(t, "गंभीर", hc.LabelHi)
	assert.Equal(t, "#FF6363", hc.Color)
	assert.Equal(t, "critical", hc.Severity)
	assert.Equal(t, "7-10 days", hc.RescanInterval)
	assert.Equal(t, "7-10 दिन", hc.RescanIntervalHi)
}

func TestClassifyHealth_RecommendedNextScan(t *testing.T) {
	// Next scan is now plus the floor of the interval midpoint
	e, _ := newTestEngine(t)

	critical := e.ClassifyHealth(10)
	assert.Equal(t, "2024-03-18", critical.RecommendedNextScan, "(7+10)/2 = 8 days")
	assert.Equal(t, "2024-03-17", critical.RecommendedNextScanMin)
	assert.Equal(t, "2024-03-20", critical.RecommendedNextScanMax)

	attention := e.ClassifyHealth(60)
	assert.Equal(t, "2024-03-27", attention.RecommendedNextScan, "(15+20)/2 = 17 days")

	healthy := e.ClassifyHealth(90)
	assert.Equal(t, "2024-04-06", healthy.RecommendedNextScan, "(25+30)/2 = 27 days")
	assert.Equal(t, "2024-04-09", healthy.RecommendedNextScanMax)
}

func TestClassifyHealth_Deterministic(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, e.ClassifyHealth(72.5), e.ClassifyHealth(72.5))
}

func TestClassifyHealth_FallbackLabels(t *testing.T) {
	// A tier without display attributes gets title-cased status, grey and "{avg} days"
	e, store := newTestEngine(t)

	cfg := DefaultConfig()
	cfg.HealthClassification.Thresholds.Critical = TierThreshold{MaxScore: 49}
	cfg.RescanIntervals.Critical.Label = ""
	cfg.RescanIntervals.Critical.LabelHi = ""
	store.Set(cfg)

	hc := e.ClassifyHealth(20)
	assert.Equal(t, "Critical", hc.Label)
	assert.Equal(t, "Critical", hc.LabelHi)
	assert.Equal(t, "#6B7280", hc.Color)
	assert.Equal(t, "critical", hc.Severity)
	assert.Equal(t, "8 days", hc.RescanInterval)
	assert.Equal(t, "8 दिन", hc.RescanIntervalHi)
}

func TestClassifyHealth_CustomThresholds(t *testing.T) {
	e, store := newTestEngine(t)

	cfg := DefaultConfig()
	cfg.HealthClassification.Thresholds.Attention.MinScore = 40
	cfg.HealthClassification.Thresholds.Healthy.MinScore = 70
	store.Set(cfg)

	assert.Equal(t, StatusAttention, e.ClassifyHealth(45).Status)
	assert.Equal(t, StatusHealthy, e.ClassifyHealth(70).Status)
}

func TestClassifyNutrient_SevereDeficiencyIsDeficient(t *testing.T) {
	// A raw deficiency of 90 is 10 health, which must be deficient and never excess
	e, _ := newTestEngine(t)

	nc := e.ClassifyNutrient(90)
	assert.Equal(t, NutrientDeficient, nc.Status)
	assert.True(t, nc.NeedsFertilizer)
	assert.Equal(t, ActionRecommendFertilizer, nc.Action)
	assert.Equal(t, "Deficient", nc.Label)
	assert.Equal(t, "कमी", nc.LabelHi)
	assert.InDelta(t, 10.0, nc.HealthScore, 1e-9)
}

func TestClassifyNutrient_FractionAgreesWithPercentage(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, pair := range [][2]float64{{0.9, 90}, {0.5, 50}, {0.1, 10}, {0.65, 65}} {
		frac := e.ClassifyNutrient(pair[0])
		pct := e.ClassifyNutrient(pair[1])
		assert.Equal(t, pct.Status, frac.Status, "%v vs %v", pair[0], pair[1])
		assert.Equal(t, pct.NeedsFertilizer, frac.NeedsFertilizer)
		assert.InDelta(t, pct.HealthScore, frac.HealthScore, 1e-9)
	}
}

func TestClassifyNutrient_TierBoundaries(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.Equal(t, NutrientDeficient, e.ClassifyNutrient(60).Status, "health 40 is deficient")
	assert.Equal(t, NutrientOptimal, e.ClassifyNutrient(59).Status, "health 41 is optimal")
	assert.Equal(t, NutrientOptimal, e.ClassifyNutrient(20).Status, "health 80 is optimal")

	excess := e.ClassifyNutrient(19)
	assert.Equal(t, NutrientExcess, excess.Status, "health 81 is excess")
	assert.False(t, excess.NeedsFertilizer)
	assert.Equal(t, ActionAvoidFertilization, excess.Action)
	assert.Equal(t, "Avoid additional fertilization", excess.Warning)
}

func TestClassifyNutrient_OptimalHasNoAction(t *testing.T) {
	e, _ := newTestEngine(t)

	nc := e.ClassifyNutrient(40)
	assert.Equal(t, NutrientOptimal, nc.Status)
	assert.Equal(t, ActionNoAction, nc.Action)
	assert.Equal(t, "उचित", nc.LabelHi)
	assert.Empty(t, nc.Warning)
}
