package health

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStatus_Synonyms(t *testing.T) {
	cases := map[string]Status{
		"critical":  StatusCritical,
		"Unhealthy": StatusCritical,
		"healthy":   StatusHealthy,
		" GOOD ":    StatusHealthy,
		"attention": StatusAttention,
		"average":   StatusAttention,
		"":          StatusAttention,
		"bogus":     StatusAttention,
	}
	for in, want := range cases {
		assert.Equal(t, want, ResolveStatus(in), "input %q", in)
	}
}

func TestGenerateRescanRecommendation_FromLastScan(t *testing.T) {
	e, _ := newTestEngine(t)
	last := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	rec := e.GenerateRescanRecommendation("critical", last)
	assert.Equal(t, "7-10 days", rec.IntervalLabel)
	assert.Equal(t, "7-10 दिन", rec.IntervalLabelHi)
	assert.Equal(t, "2024-01-08", rec.MinDate)
	assert.Equal(t, "2024-01-11", rec.MaxDate)
	assert.Equal(t, "2024-01-09", rec.RecommendedDate)
	assert.Equal(t, UrgencyHigh, rec.Urgency)
}

func TestGenerateRescanRecommendation_ZeroTimeUsesNow(t *testing.T) {
	e, _ := newTestEngine(t)

	rec := e.GenerateRescanRecommendation("healthy", time.Time{})
	assert.Equal(t, "2024-04-04", rec.MinDate)
	assert.Equal(t, "2024-04-06", rec.RecommendedDate)
	assert.Equal(t, UrgencyLow, rec.Urgency)
}

func TestGenerateRescanRecommendation_SynonymsAndUnknown(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.Equal(t, UrgencyHigh, e.GenerateRescanRecommendation("unhealthy", fixedNow).Urgency)
	assert.Equal(t, UrgencyLow, e.GenerateRescanRecommendation("good", fixedNow).Urgency)

	unknown := e.GenerateRescanRecommendation("mystery", fixedNow)
	assert.Equal(t, UrgencyMedium, unknown.Urgency, "unknown statuses fall back to attention")
	assert.Equal(t, "15-20 days", unknown.IntervalLabel)
}

func TestGenerateRescanRecommendation_LabelFallsBackToRange(t *testing.T) {
	e, store := newTestEngine(t)

	cfg := DefaultConfig()
	cfg.RescanIntervals.Attention = RescanInterval{MinDays: 12, MaxDays: 18}
	store.Set(cfg)

	rec := e.GenerateRescanRecommendation("attention", fixedNow)
	assert.Equal(t, "12-18 days", rec.IntervalLabel)
	assert.Equal(t, "12-18 दिन", rec.IntervalLabelHi)
	assert.Equal(t, "2024-03-25", rec.RecommendedDate)
}

func TestGenerateFertilizerRecommendations_CriticalNitrogen(t *testing.T) {
	e, _ := newTestEngine(t)

	scan := scanWith(1, 85, 10, 10)
	scan.NSeverity = "critical"

	recs := e.GenerateFertilizerRecommendations(scan, scan.CropID)
	require.Len(t, recs, 3)

	assert.Equal(t, "N", recs[0].Nutrient)
	assert.Equal(t, ActionApplyFertilizer, recs[0].Action)
	assert.Equal(t, PriorityHigh, recs[0].Priority)
	assert.Equal(t, 85.0, recs[0].Score)
	assert.Equal(t, "Apply Nitrogen fertilizer", recs[0].ActionLabel)
	assert.Equal(t, "नाइट्रोजन उर्वरक डालें", recs[0].ActionLabelHi)

	for _, r := range recs[1:] {
		assert.Equal(t, ActionAvoidFertilization, r.Action, "nutrient %s", r.Nutrient)
		assert.Equal(t, PriorityLow, r.Priority)
		assert.Equal(t, "excess", r.Severity)
	}
	assert.Equal(t, "P", recs[1].Nutrient)
	assert.Equal(t, "K", recs[2].Nutrient)
}

func TestGenerateFertilizerRecommendations_HealthyCropOnlyAvoids(t *testing.T) {
	// 5/5/5 is excess everywhere: no apply action may appear
	e, _ := newTestEngine(t)

	recs := e.GenerateFertilizerRecommendations(scanWith(1, 5, 5, 5), 1)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, ActionAvoidFertilization, r.Action)
		assert.Equal(t, PriorityLow, r.Priority)
	}
	assert.Equal(t, 0, Summarize(recs).TotalIssues)
}

func TestGenerateFertilizerRecommendations_AttentionSeverity(t *testing.T) {
	// An upstream attention flag asks for fertilizer even when the score is optimal
	e, _ := newTestEngine(t)

	scan := scanWith(1, 40, 40, 40)
	scan.PSeverity = "attention"

	recs := e.GenerateFertilizerRecommendations(scan, 1)
	require.Len(t, recs, 1)
	assert.Equal(t, "P", recs[0].Nutrient)
	assert.Equal(t, PriorityMedium, recs[0].Priority)
	assert.Equal(t, "attention", recs[0].Severity)
}

func TestGenerateFertilizerRecommendations_FractionScores(t *testing.T) {
	e, _ := newTestEngine(t)

	scan := scanWith(1, 0.9, 0.4, 0.4)
	recs := e.GenerateFertilizerRecommendations(scan, 1)
	require.Len(t, recs, 1)
	assert.Equal(t, "N", recs[0].Nutrient)
	assert.Equal(t, 90.0, recs[0].Score, "reported on the percentage scale")
	assert.Equal(t, "healthy", recs[0].Severity, "missing severity defaults to healthy")
	assert.Equal(t, PriorityMedium, recs[0].Priority)
}

func TestGenerateFertilizerRecommendations_Magnesium(t *testing.T) {
	e, _ := newTestEngine(t)

	scan := scanWith(1, 40, 40, 40)
	scan.MgScore = floatPtr(70)
	scan.MgSeverity = "critical"

	recs := e.GenerateFertilizerRecommendations(scan, 1)
	require.Len(t, recs, 1)
	assert.Equal(t, "MG", recs[0].Nutrient)
	assert.Equal(t, "Magnesium", recs[0].NutrientName)
	assert.Equal(t, PriorityHigh, recs[0].Priority)
}

func TestSortByPriority_Stable(t *testing.T) {
	recs := []FertilizerRecommendation{
		{Nutrient: "N", Priority: PriorityMedium},
		{Nutrient: "P", Priority: PriorityHigh},
		{Nutrient: "K", Priority: PriorityLow},
		{Nutrient: "MG", Priority: PriorityHigh},
	}
	sortByPriority(recs)

	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = r.Nutrient
	}
	if diff := cmp.Diff([]string{"P", "MG", "N", "K"}, got); diff != "" {
		t.Errorf("priority order mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_CountsApplyActions(t *testing.T) {
	recs := []FertilizerRecommendation{
		{Nutrient: "N", Action: ActionApplyFertilizer, Priority: PriorityHigh},
		{Nutrient: "P", Action: ActionApplyFertilizer, Priority: PriorityMedium},
		{Nutrient: "K", Action: ActionAvoidFertilization, Priority: PriorityLow},
	}

	s := Summarize(recs)
	assert.Equal(t, 2, s.TotalIssues)
	assert.Equal(t, []string{"N"}, s.CriticalNutrients)
	assert.Equal(t, []string{"P"}, s.AttentionNutrients)

	empty := Summarize(nil)
	assert.NotNil(t, empty.CriticalNutrients, "empty lists serialize as []")
	assert.Empty(t, empty.CriticalNutrients)
}
