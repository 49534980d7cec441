package health

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultTierColor = "#6B7280"

// HealthClassification is the tier an overall health score falls into, with
// its display attributes and the recommended rescan window.
type HealthClassification struct {
	Status                 Status `json:"status"`
	Label                  string `json:"label"`
	LabelHi                string `json:"label_hi"`
	Color                  string `json:"color"`
	Severity               string `json:"severity"`
	RescanInterval         string `json:"rescan_interval"`
	RescanIntervalHi       string `json:"rescan_interval_hi"`
	RecommendedNextScan    string `json:"recommended_next_scan"`
	RecommendedNextScanMin string `json:"recommended_next_scan_min"`
	RecommendedNextScanMax string `json:"recommended_next_scan_max"`
}

// NutrientStatus is the tier of a single nutrient.
type NutrientStatus string

const (
	NutrientDeficient NutrientStatus = "deficient"
	NutrientOptimal   NutrientStatus = "optimal"
	NutrientExcess    NutrientStatus = "excess"
)

const (
	ActionRecommendFertilizer = "recommend_fertilizer"
	ActionNoAction            = "no_action"
	ActionAvoidFertilization  = "avoid_fertilization"
	ActionApplyFertilizer     = "apply_fertilizer"
)

// NutrientClassification is the tier of one nutrient on the health scale.
type NutrientClassification struct {
	Status          NutrientStatus `json:"status"`
	Action          string         `json:"action"`
	Label           string         `json:"label"`
	LabelHi         string         `json:"label_hi"`
	NeedsFertilizer bool           `json:"needs_fertilizer"`
	Warning         string         `json:"warning,omitempty"`
	HealthScore     float64        `json:"health_score"`
}

var titleCaser = cases.Title(language.English)

// tierFor applies the half-open boundaries: below attention.min_score is
// critical, below healthy.min_score is attention, anything else is healthy.
func tierFor(cfg *Config, overallScore float64) Status {
	t := cfg.HealthClassification.Thresholds
	switch {
	case overallScore < t.Attention.MinScore:
		return StatusCritical
	case overallScore < t.Healthy.MinScore:
		return StatusAttention
	default:
		return StatusHealthy
	}
}

// ClassifyHealth maps an overall health score (0-100, higher is healthier)
// to a tier and computes the next scan window from now.
func (e *Engine) ClassifyHealth(overallScore float64) HealthClassification {
	cfg := e.Config()
	status := tierFor(cfg, overallScore)
	threshold := cfg.HealthClassification.Thresholds.For(status)
	interval := cfg.RescanIntervals.For(status)
	avgDays := interval.AverageDays()
	now := e.now()

	hc := HealthClassification{
		Status:                 status,
		Label:                  orDefault(threshold.Label, titleCaser.String(string(status))),
		LabelHi:                orDefault(threshold.LabelHi, titleCaser.String(string(status))),
		Color:                  orDefault(threshold.Color, defaultTierColor),
		Severity:               orDefault(threshold.Severity, string(status)),
		RescanInterval:         orDefault(interval.Label, fmt.Sprintf("%d days", avgDays)),
		RescanIntervalHi:       orDefault(interval.LabelHi, fmt.Sprintf("%d दिन", avgDays)),
		RecommendedNextScan:    formatDate(addDays(now, avgDays)),
		RecommendedNextScanMin: formatDate(addDays(now, interval.MinDays)),
		RecommendedNextScanMax: formatDate(addDays(now, interval.MaxDays)),
	}

	if e.observer != nil {
		e.observer.ObserveClassification(status)
	}
	e.logger.Debug("classified health",
		slog.Float64("overall_score", overallScore),
		slog.String("status", string(status)),
	)
	return hc
}

// ClassifyNutrient classifies one raw deficiency score. The score is
// normalized and inverted first, so a deficiency of 90 (or 0.9) is deficient.
func (e *Engine) ClassifyNutrient(score float64) NutrientClassification {
	t := e.Config().NutrientThresholds
	health := HealthScore(score)

	switch {
	case health <= t.Deficient.MaxScore:
		return NutrientClassification{
			Status:          NutrientDeficient,
			Action:          ActionRecommendFertilizer,
			Label:           orDefault(t.Deficient.Label, "Deficient"),
			LabelHi:         orDefault(t.Deficient.LabelHi, "कमी"),
			NeedsFertilizer: true,
			HealthScore:     health,
		}
	case health <= t.Optimal.MaxScore:
		return NutrientClassification{
			Status:      NutrientOptimal,
			Action:      ActionNoAction,
			Label:       orDefault(t.Optimal.Label, "Optimal"),
			LabelHi:     orDefault(t.Optimal.LabelHi, "उचित"),
			HealthScore: health,
		}
	default:
		return NutrientClassification{
			Status:      NutrientExcess,
			Action:      ActionAvoidFertilization,
			Label:       orDefault(t.Excess.Label, "Excess"),
			LabelHi:     orDefault(t.Excess.LabelHi, "अधिक"),
			Warning:     "Avoid additional fertilization",
			HealthScore: health,
		}
	}
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
