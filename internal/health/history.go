package health

import (
	"time"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// HistoryItem is one scan in a history listing.
type HistoryItem struct {
	ScanID       int64     `json:"scan_id"`
	ScanUUID     string    `json:"scan_uuid"`
	CropID       int       `json:"crop_id"`
	CropName     string    `json:"crop_name"`
	CreatedAt    time.Time `json:"created_at"`
	NScore       float64   `json:"n_score"`
	PScore       float64   `json:"p_score"`
	KScore       float64   `json:"k_score"`
	OverallScore float64   `json:"overall_score"`
	HealthStatus Status    `json:"health_status"`
	HealthLabel  string    `json:"health_label"`
	HealthColor  string    `json:"health_color"`
	Trend        *Trend    `json:"trend,omitempty"`
}

// BuildHistory annotates scans, given newest first, with their classification
// and the overall trend against the scan that preceded each of them in the
// list. The result is newest first.
func (e *Engine) BuildHistory(scans []models.Scan) []HistoryItem {
	items := make([]HistoryItem, len(scans))
	var prev *models.Scan

	for i := len(scans) - 1; i >= 0; i-- {
		scan := &scans[i]
		overall := CalculateOverallScore(scan)
		hc := e.ClassifyHealth(overall)

		cropName := "Unknown"
		if crop, ok := models.LookupCrop(scan.CropID); ok {
			cropName = crop.Name
		}

		item := HistoryItem{
			ScanID:       scan.ID,
			ScanUUID:     scan.UUID,
			CropID:       scan.CropID,
			CropName:     cropName,
			CreatedAt:    scan.CreatedAt,
			NScore:       scan.NScore,
			PScore:       scan.PScore,
			KScore:       scan.KScore,
			OverallScore: round(overall, 1),
			HealthStatus: hc.Status,
			HealthLabel:  hc.Label,
			HealthColor:  hc.Color,
		}
		if prev != nil {
			item.Trend = e.CompareScans(scan, prev, nil).OverallTrend
		}

		items[i] = item
		prev = scan
	}
	return items
}

// ScanRecommendations is the action summary for a single scan.
type ScanRecommendations struct {
	ScanID       int64                      `json:"scan_id"`
	CropID       int                        `json:"crop_id"`
	CropName     string                     `json:"crop_name"`
	OverallScore float64                    `json:"overall_score"`
	HealthStatus Status                     `json:"health_status"`
	HealthLabel  string                     `json:"health_label"`
	Rescan       RescanRecommendation       `json:"rescan"`
	Fertilizer   []FertilizerRecommendation `json:"fertilizer"`
	Summary      ActionSummary              `json:"summary"`
}

type ActionSummary struct {
	NeedsAction    bool `json:"needs_action"`
	CriticalCount  int  `json:"critical_count"`
	AttentionCount int  `json:"attention_count"`
}

// BuildRecommendations classifies scan and lists its rescan and fertilizer actions.
func (e *Engine) BuildRecommendations(scan *models.Scan) *ScanRecommendations {
	overall := CalculateOverallScore(scan)
	hc := e.ClassifyHealth(overall)
	fertilizer := e.GenerateFertilizerRecommendations(scan, scan.CropID)
	summary := Summarize(fertilizer)

	cropName := "Unknown"
	if crop, ok := models.LookupCrop(scan.CropID); ok {
		cropName = crop.Name
	}

	return &ScanRecommendations{
		ScanID:       scan.ID,
		CropID:       scan.CropID,
		CropName:     cropName,
		OverallScore: round(overall, 1),
		HealthStatus: hc.Status,
		HealthLabel:  hc.Label,
		Rescan:       e.GenerateRescanRecommendation(string(hc.Status), scan.CreatedAt),
		Fertilizer:   fertilizer,
		Summary: ActionSummary{
			NeedsAction:    summary.TotalIssues > 0,
			CriticalCount:  len(summary.CriticalNutrients),
			AttentionCount: len(summary.AttentionNutrients),
		},
	}
}
