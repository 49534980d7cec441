package health

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fasalvaidya/crop-health/internal/models"
)

type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityOrder = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// RescanRecommendation is the window in which the next scan should happen.
type RescanRecommendation struct {
	IntervalLabel   string  `json:"interval_label"`
	IntervalLabelHi string  `json:"interval_label_hi"`
	MinDate         string  `json:"min_date"`
	MaxDate         string  `json:"max_date"`
	RecommendedDate string  `json:"recommended_date"`
	Urgency         Urgency `json:"urgency"`
}

// FertilizerRecommendation is one nutrient action.
type FertilizerRecommendation struct {
	Nutrient       string   `json:"nutrient"`
	NutrientName   string   `json:"nutrient_name"`
	NutrientNameHi string   `json:"nutrient_name_hi"`
	Score          float64  `json:"score"`
	Severity       string   `json:"severity"`
	Action         string   `json:"action"`
	ActionLabel    string   `json:"action_label"`
	ActionLabelHi  string   `json:"action_label_hi"`
	Priority       Priority `json:"priority"`
}

type nutrientInfo struct {
	Name     string
	NameHi   string
	ReportAs string
}

var nutrientNames = map[models.Nutrient]nutrientInfo{
	models.Nitrogen:   {Name: "Nitrogen", NameHi: "नाइट्रोजन", ReportAs: "nitrogen"},
	models.Phosphorus: {Name: "Phosphorus", NameHi: "फॉस्फोरस", ReportAs: "phosphorus"},
	models.Potassium:  {Name: "Potassium", NameHi: "पोटेशियम", ReportAs: "potassium"},
	models.Magnesium:  {Name: "Magnesium", NameHi: "मैग्नीशियम", ReportAs: "magnesium"},
}

// ResolveStatus maps a status or one of its synonyms (unhealthy, average,
// good) to a tier, case-insensitively. Anything else is attention.
func ResolveStatus(status string) Status {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "critical", "unhealthy":
		return StatusCritical
	case "healthy", "good":
		return StatusHealthy
	default:
		return StatusAttention
	}
}

// GenerateRescanRecommendation computes the rescan window from lastScan, or
// from now when lastScan is the zero time.
func (e *Engine) GenerateRescanRecommendation(status string, lastScan time.Time) RescanRecommendation {
	tier := ResolveStatus(status)
	interval := e.Config().RescanIntervals.For(tier)

	base := lastScan
	if base.IsZero() {
		base = e.now()
	}

	urgency := UrgencyMedium
	switch tier {
	case StatusCritical:
		urgency = UrgencyHigh
	case StatusHealthy:
		urgency = UrgencyLow
	}

	rangeLabel := fmt.Sprintf("%d-%d", interval.MinDays, interval.MaxDays)
	return RescanRecommendation{
		IntervalLabel:   orDefault(interval.Label, rangeLabel+" days"),
		IntervalLabelHi: orDefault(interval.LabelHi, rangeLabel+" दिन"),
		MinDate:         formatDate(addDays(base, interval.MinDays)),
		MaxDate:         formatDate(addDays(base, interval.MaxDays)),
		RecommendedDate: formatDate(addDays(base, interval.AverageDays())),
		Urgency:         urgency,
	}
}

// GenerateFertilizerRecommendations lists an action for every nutrient that is
// deficient or flagged attention/critical upstream, and an avoid action for
// nutrients in excess. Results are ordered high, medium, low, keeping nutrient
// order within a priority.
func (e *Engine) GenerateFertilizerRecommendations(scan *models.Scan, cropID int) []FertilizerRecommendation {
	recs := make([]FertilizerRecommendation, 0, 4)

	for _, n := range scan.Nutrients() {
		raw, _ := scan.Score(n)
		score := NormalizeScore(raw)
		severity := orDefault(scan.Severity(n), string(StatusHealthy))
		status := e.ClassifyNutrient(raw)
		info := nutrientNames[n]

		switch {
		case status.NeedsFertilizer || severity == string(StatusAttention) || severity == string(StatusCritical):
			priority := PriorityMedium
			if severity == string(StatusCritical) {
				priority = PriorityHigh
			}
			recs = append(recs, FertilizerRecommendation{
				Nutrient:       strings.ToUpper(string(n)),
				NutrientName:   info.Name,
				NutrientNameHi: info.NameHi,
				Score:          round(score, 1),
				Severity:       severity,
				Action:         ActionApplyFertilizer,
				ActionLabel:    fmt.Sprintf("Apply %s fertilizer", info.Name),
				ActionLabelHi:  fmt.Sprintf("%s उर्वरक डालें", info.NameHi),
				Priority:       priority,
			})
		case status.Status == NutrientExcess:
			recs = append(recs, FertilizerRecommendation{
				Nutrient:       strings.ToUpper(string(n)),
				NutrientName:   info.Name,
				NutrientNameHi: info.NameHi,
				Score:          round(score, 1),
				Severity:       string(NutrientExcess),
				Action:         ActionAvoidFertilization,
				ActionLabel:    fmt.Sprintf("Avoid %s fertilization", info.Name),
				ActionLabelHi:  fmt.Sprintf("%s उर्वरक न डालें", info.NameHi),
				Priority:       PriorityLow,
			})
		}
	}

	sortByPriority(recs)
	e.logger.Debug("fertilizer recommendations",
		"scan_id", scan.ID,
		"crop_id", cropID,
		"count", len(recs),
	)
	return recs
}

func sortByPriority(recs []FertilizerRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return rank(recs[i].Priority) < rank(recs[j].Priority)
	})
}

func rank(p Priority) int {
	if r, ok := priorityOrder[p]; ok {
		return r
	}
	return priorityOrder[PriorityMedium]
}
