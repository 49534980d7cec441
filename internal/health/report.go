package health

import (
	"log/slog"
	"time"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// ReportVersion is stamped on every generated report.
const ReportVersion = "1.0"

// Report aggregates everything known about one scan.
type Report struct {
	GeneratedAt          string               `json:"generated_at"`
	ReportVersion        string               `json:"report_version"`
	FarmerInfo           models.FarmerInfo    `json:"farmer_info"`
	FieldInfo            FieldInfo            `json:"field_info"`
	CurrentScan          CurrentScan          `json:"current_scan"`
	HealthClassification ScoredClassification `json:"health_classification"`
	HistoricalComparison Comparison           `json:"historical_comparison"`
	Recommendations      Recommendations      `json:"recommendations"`
}

// FieldInfo is crop metadata copied from the crop record.
type FieldInfo struct {
	CropID     int    `json:"crop_id"`
	CropName   string `json:"crop_name"`
	CropNameHi string `json:"crop_name_hi"`
	CropIcon   string `json:"crop_icon"`
	Season     string `json:"season"`
}

type CurrentScan struct {
	ScanID    int64                      `json:"scan_id"`
	ScanUUID  string                     `json:"scan_uuid"`
	ScanDate  string                     `json:"scan_date"`
	Nutrients map[string]NutrientReading `json:"nutrients"`
}

// NutrientReading is the per-nutrient breakdown: normalized deficiency score
// and its health inverse, both rounded to one decimal.
type NutrientReading struct {
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Severity    string  `json:"severity"`
	HealthScore float64 `json:"health_score"`
}

// ScoredClassification is the overall score merged with its classification.
type ScoredClassification struct {
	OverallScore float64 `json:"overall_score"`
	HealthClassification
	RescanDate string `json:"rescan_date,omitempty"`
}

type Recommendations struct {
	Rescan     RescanRecommendation       `json:"rescan"`
	Fertilizer []FertilizerRecommendation `json:"fertilizer"`
	Summary    RecommendationSummary      `json:"summary"`
}

type RecommendationSummary struct {
	TotalIssues        int      `json:"total_issues"`
	CriticalNutrients  []string `json:"critical_nutrients"`
	AttentionNutrients []string `json:"attention_nutrients"`
}

// Summarize counts fertilizer actions by priority.
func Summarize(recs []FertilizerRecommendation) RecommendationSummary {
	s := RecommendationSummary{
		CriticalNutrients:  []string{},
		AttentionNutrients: []string{},
	}
	for _, r := range recs {
		if r.Action == ActionApplyFertilizer {
			s.TotalIssues++
		}
		switch r.Priority {
		case PriorityHigh:
			s.CriticalNutrients = append(s.CriticalNutrients, r.Nutrient)
		case PriorityMedium:
			s.AttentionNutrients = append(s.AttentionNutrients, r.Nutrient)
		}
	}
	return s
}

// GenerateReportData builds the full report for scan. previous, baseline and
// farmer are optional; a nil farmer yields the guest block.
func (e *Engine) GenerateReportData(
	scan *models.Scan,
	crop models.Crop,
	previous, baseline *models.Scan,
	farmer *models.FarmerInfo,
) *Report {
	start := e.now()
	logger := e.logger.With(slog.Int64("scan_id", scan.ID))

	overall := CalculateOverallScore(scan)
	classification := e.ClassifyHealth(overall)
	comparison := e.CompareScans(scan, previous, baseline)
	rescan := e.GenerateRescanRecommendation(string(classification.Status), scan.CreatedAt)
	fertilizer := e.GenerateFertilizerRecommendations(scan, crop.ID)

	farmerInfo := models.GuestFarmer()
	if farmer != nil {
		farmerInfo = *farmer
	}

	nutrients := make(map[string]NutrientReading, 4)
	for _, n := range scan.Nutrients() {
		raw, _ := scan.Score(n)
		pct := NormalizeScore(raw)
		nutrients[nutrientNames[n].ReportAs] = NutrientReading{
			Score:       round(pct, 1),
			Confidence:  scan.Confidence(n),
			Severity:    orDefault(scan.Severity(n), string(StatusHealthy)),
			HealthScore: round(100-pct, 1),
		}
	}

	report := &Report{
		GeneratedAt:   start.Format(time.RFC3339),
		ReportVersion: ReportVersion,
		FarmerInfo:    farmerInfo,
		FieldInfo: FieldInfo{
			CropID:     crop.ID,
			CropName:   crop.Name,
			CropNameHi: crop.NameHi,
			CropIcon:   crop.Icon,
			Season:     crop.Season,
		},
		CurrentScan: CurrentScan{
			ScanID:    scan.ID,
			ScanUUID:  scan.UUID,
			ScanDate:  formatDate(scan.CreatedAt),
			Nutrients: nutrients,
		},
		HealthClassification: ScoredClassification{
			OverallScore:         round(overall, 1),
			HealthClassification: classification,
		},
		HistoricalComparison: comparison,
		Recommendations: Recommendations{
			Rescan:     rescan,
			Fertilizer: fertilizer,
			Summary:    Summarize(fertilizer),
		},
	}

	if e.observer != nil {
		e.observer.ObserveReport(classification.Status, comparison.HasHistory)
	}
	logger.Info("report generated",
		slog.Float64("overall_score", report.HealthClassification.OverallScore),
		slog.String("status", string(classification.Status)),
		slog.Bool("has_history", comparison.HasHistory),
		slog.Bool("has_baseline", comparison.HasBaseline),
	)
	return report
}
