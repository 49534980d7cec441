package health

import (
	"fmt"

	"github.com/fasalvaidya/crop-health/internal/models"
)

type GraphType string

const (
	GraphLine  GraphType = "line"
	GraphBar   GraphType = "bar"
	GraphRadar GraphType = "radar"
)

// Radar zone cut-points. These are display bands and deliberately do not
// follow the classification thresholds.
const (
	radarHealthyMin   = 70.0
	radarAttentionMin = 50.0
	radarCriticalMax  = 50.0
)

const previousSeriesColor = "#9CA3AF"

// ChartData is a chart-ready series set. On failure only Type and Error are set.
type ChartData struct {
	Type     GraphType      `json:"type"`
	Labels   []string       `json:"labels,omitempty"`
	Datasets []Dataset      `json:"datasets,omitempty"`
	Metadata *ChartMetadata `json:"metadata,omitempty"`
	Zones    *ChartZones    `json:"zones,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
	Color string    `json:"color"`
}

type ChartMetadata struct {
	ScoreType string             `json:"score_type"`
	Scale     string             `json:"scale"`
	Changes   map[string]float64 `json:"changes"`
}

type ChartZones struct {
	Healthy   Zone `json:"healthy"`
	Attention Zone `json:"attention"`
	Critical  Zone `json:"critical"`
}

type Zone struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Color string   `json:"color"`
}

var chartNutrientLabels = []string{"Nitrogen", "Phosphorus", "Potassium"}

// GenerateGraphData charts health scores (100 - normalized deficiency) for
// scans, which the caller supplies in chronological order.
func (e *Engine) GenerateGraphData(scans []models.Scan, graphType GraphType) ChartData {
	cfg := e.Config()

	switch graphType {
	case GraphLine:
		labels := make([]string, len(scans))
		series := [3][]float64{}
		for i := range series {
			series[i] = make([]float64, len(scans))
		}
		for i := range scans {
			labels[i] = formatDate(scans[i].CreatedAt)
			for j, v := range primaryHealth(&scans[i]) {
				series[j][i] = v
			}
		}
		return ChartData{
			Type:   GraphLine,
			Labels: labels,
			Datasets: []Dataset{
				{Label: "Nitrogen Health", Data: series[0], Color: cfg.Color("nitrogen", "#E53935")},
				{Label: "Phosphorus Health", Data: series[1], Color: cfg.Color("phosphorus", "#FB8C00")},
				{Label: "Potassium Health", Data: series[2], Color: cfg.Color("potassium", "#43A047")},
			},
		}

	case GraphBar:
		if len(scans) < 2 {
			return ChartData{Type: GraphBar, Error: "Need at least 2 scans for comparison"}
		}
		prev := primaryHealth(&scans[len(scans)-2])
		curr := primaryHealth(&scans[len(scans)-1])
		return ChartData{
			Type:   GraphBar,
			Labels: append([]string(nil), chartNutrientLabels...),
			Datasets: []Dataset{
				{Label: "Previous", Data: prev[:], Color: previousSeriesColor},
				{Label: "Current", Data: curr[:], Color: cfg.Color("healthy_zone", "#4C763B")},
			},
			Metadata: &ChartMetadata{
				ScoreType: "health",
				Scale:     "0-100 (higher is healthier)",
				Changes: map[string]float64{
					"nitrogen":   round(curr[0]-prev[0], 1),
					"phosphorus": round(curr[1]-prev[1], 1),
					"potassium":  round(curr[2]-prev[2], 1),
				},
			},
		}

	case GraphRadar:
		if len(scans) == 0 {
			return ChartData{Type: GraphRadar, Error: "No scan data available"}
		}
		latest := primaryHealth(&scans[len(scans)-1])
		healthyMin, attentionMin, attentionMax, criticalMax := radarHealthyMin, radarAttentionMin, radarHealthyMin, radarCriticalMax
		return ChartData{
			Type:   GraphRadar,
			Labels: append([]string(nil), chartNutrientLabels...),
			Datasets: []Dataset{
				{Label: "Nutrient Health", Data: latest[:], Color: cfg.Color("healthy_zone", "#4C763B")},
			},
			Zones: &ChartZones{
				Healthy:   Zone{Min: &healthyMin, Color: cfg.Color("healthy_zone", "#4C763B")},
				Attention: Zone{Min: &attentionMin, Max: &attentionMax, Color: cfg.Color("attention_zone", "#FA8112")},
				Critical:  Zone{Max: &criticalMax, Color: cfg.Color("critical_zone", "#FF6363")},
			},
		}
	}

	return ChartData{Type: graphType, Error: fmt.Sprintf("Unknown graph type: %s", graphType)}
}

// primaryHealth returns n, p, k health scores rounded to one decimal.
func primaryHealth(scan *models.Scan) [3]float64 {
	var out [3]float64
	for i, n := range models.PrimaryNutrients {
		raw, _ := scan.Score(n)
		out[i] = round(HealthScore(raw), 1)
	}
	return out
}
