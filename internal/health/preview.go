package health

import (
	"github.com/fasalvaidya/crop-health/internal/models"
)

// Preview is a report flattened for direct display: headline fields are
// lifted to the top level, recommendations become the fertilizer list and
// bar/radar charts are attached.
type Preview struct {
	*Report

	ScanID       int64   `json:"scan_id"`
	ScanDate     string  `json:"scan_date"`
	ScanUUID     string  `json:"scan_uuid"`
	CropName     string  `json:"crop_name"`
	CropNameHi   string  `json:"crop_name_hi"`
	CropIcon     string  `json:"crop_icon"`
	NScore       float64 `json:"n_score"`
	PScore       float64 `json:"p_score"`
	KScore       float64 `json:"k_score"`
	NSeverity    string  `json:"n_severity"`
	PSeverity    string  `json:"p_severity"`
	KSeverity    string  `json:"k_severity"`
	OverallScore float64 `json:"overall_score"`

	Recommendations []FertilizerRecommendation `json:"recommendations"`
	Comparison      *PreviewComparison         `json:"comparison,omitempty"`
	GraphData       PreviewGraphs              `json:"graph_data"`
}

// PreviewComparison summarizes the comparison block in health terms.
type PreviewComparison struct {
	Trend        Direction          `json:"trend"`
	TrendLabel   string             `json:"trend_label"`
	Changes      map[string]float64 `json:"changes"`
	BaselineDate string             `json:"baseline_date"`
}

type PreviewGraphs struct {
	BarChart      ChartData `json:"bar_chart"`
	RadarChart    ChartData `json:"radar_chart"`
	HasComparison bool      `json:"has_comparison"`
}

// BuildPreview generates the report for scan and flattens it.
func (e *Engine) BuildPreview(scan *models.Scan, crop models.Crop, previous, baseline *models.Scan, farmer *models.FarmerInfo) *Preview {
	report := e.GenerateReportData(scan, crop, previous, baseline, farmer)
	report.HealthClassification.RescanDate = report.HealthClassification.RecommendedNextScan

	nutrients := report.CurrentScan.Nutrients
	p := &Preview{
		Report:          report,
		ScanID:          report.CurrentScan.ScanID,
		ScanDate:        report.CurrentScan.ScanDate,
		ScanUUID:        report.CurrentScan.ScanUUID,
		CropName:        report.FieldInfo.CropName,
		CropNameHi:      report.FieldInfo.CropNameHi,
		CropIcon:        report.FieldInfo.CropIcon,
		NScore:          nutrients["nitrogen"].HealthScore,
		PScore:          nutrients["phosphorus"].HealthScore,
		KScore:          nutrients["potassium"].HealthScore,
		NSeverity:       nutrients["nitrogen"].Severity,
		PSeverity:       nutrients["phosphorus"].Severity,
		KSeverity:       nutrients["potassium"].Severity,
		OverallScore:    report.HealthClassification.OverallScore,
		Recommendations: report.Recommendations.Fertilizer,
	}

	if previous != nil || baseline != nil {
		p.Comparison = previewComparison(report)
	}

	scans := make([]models.Scan, 0, 2)
	if previous != nil {
		scans = append(scans, *previous)
	}
	scans = append(scans, *scan)

	p.GraphData.HasComparison = len(scans) >= 2
	if p.GraphData.HasComparison {
		p.GraphData.BarChart = e.GenerateGraphData(scans, GraphBar)
	} else {
		p.GraphData.BarChart = ChartData{Type: GraphBar, Error: "Need previous scan for comparison"}
	}
	p.GraphData.RadarChart = e.GenerateGraphData(scans, GraphRadar)
	return p
}

func previewComparison(report *Report) *PreviewComparison {
	hist := report.HistoricalComparison

	direction := DirectionStable
	if hist.OverallTrend != nil {
		direction = hist.OverallTrend.Direction
	}
	label := "Stable"
	switch direction {
	case DirectionIncrease:
		label = "Improving"
	case DirectionDecrease:
		label = "Declining"
	}

	// Comparisons hold deficiency deltas; a falling deficiency is a health gain.
	changes := make(map[string]float64, 3)
	for _, n := range models.PrimaryNutrients {
		var change float64
		comp := hist.Comparisons[n]
		trend := comp.VsPrevious
		if trend == nil {
			trend = comp.VsBaseline
		}
		if trend != nil {
			change = round(-trend.Delta, 1)
		}
		changes[string(n)+"_change"] = change
	}

	baselineDate := ""
	for _, n := range models.PrimaryNutrients {
		comp := hist.Comparisons[n]
		if comp.BaselineDate != "" {
			baselineDate = comp.BaselineDate
			break
		}
		if comp.PreviousDate != "" {
			baselineDate = comp.PreviousDate
			break
		}
	}
	if baselineDate == "" {
		baselineDate = report.CurrentScan.ScanDate
	}

	return &PreviewComparison{
		Trend:        direction,
		TrendLabel:   label,
		Changes:      changes,
		BaselineDate: baselineDate,
	}
}
