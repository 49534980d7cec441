package health

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config holds classification thresholds, rescan intervals, trend sensitivity
// and chart colors. A loaded Config is never mutated; reloads swap in a new one.
type Config struct {
	Version              string                     `json:"version,omitempty" yaml:"version,omitempty"`
	HealthClassification HealthClassificationConfig `json:"health_classification" yaml:"health_classification"`
	RescanIntervals      RescanIntervals            `json:"rescan_intervals" yaml:"rescan_intervals"`
	TrendAnalysis        TrendAnalysis              `json:"trend_analysis" yaml:"trend_analysis"`
	NutrientThresholds   NutrientThresholds         `json:"nutrient_thresholds" yaml:"nutrient_thresholds"`
	GraphColors          map[string]string          `json:"graph_colors" yaml:"graph_colors"`
}

type HealthClassificationConfig struct {
	Thresholds HealthThresholds `json:"thresholds" yaml:"thresholds"`
}

type HealthThresholds struct {
	Critical  TierThreshold `json:"critical" yaml:"critical"`
	Attention TierThreshold `json:"attention" yaml:"attention"`
	Healthy   TierThreshold `json:"healthy" yaml:"healthy"`
}

// For returns the threshold block of a tier.
func (t HealthThresholds) For(status Status) TierThreshold {
	switch status {
	case StatusCritical:
		return t.Critical
	case StatusHealthy:
		return t.Healthy
	default:
		return t.Attention
	}
}

// TierThreshold bounds one health tier on the 0-100 health scale.
type TierThreshold struct {
	MinScore float64 `json:"min_score,omitempty" yaml:"min_score,omitempty"`
	MaxScore float64 `json:"max_score,omitempty" yaml:"max_score,omitempty"`
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"`
	LabelHi  string  `json:"label_hi,omitempty" yaml:"label_hi,omitempty"`
	Color    string  `json:"color,omitempty" yaml:"color,omitempty"`
	Severity string  `json:"severity,omitempty" yaml:"severity,omitempty"`
}

type RescanIntervals struct {
	Critical  RescanInterval `json:"critical" yaml:"critical"`
	Attention RescanInterval `json:"attention" yaml:"attention"`
	Healthy   RescanInterval `json:"healthy" yaml:"healthy"`
}

// RescanInterval is the window, in days, before the next scan is due.
type RescanInterval struct {
	MinDays int    `json:"min_days" yaml:"min_days"`
	MaxDays int    `json:"max_days" yaml:"max_days"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	LabelHi string `json:"label_hi,omitempty" yaml:"label_hi,omitempty"`
}

// For returns the interval of a tier.
func (r RescanIntervals) For(status Status) RescanInterval {
	switch status {
	case StatusCritical:
		return r.Critical
	case StatusHealthy:
		return r.Healthy
	default:
		return r.Attention
	}
}

// AverageDays is the floor of the midpoint of the window.
func (r RescanInterval) AverageDays() int {
	return (r.MinDays + r.MaxDays) / 2
}

type TrendAnalysis struct {
	Epsilon             float64 `json:"epsilon" yaml:"epsilon"`
	SignificantIncrease float64 `json:"significant_increase" yaml:"significant_increase"`
	SignificantDecrease float64 `json:"significant_decrease" yaml:"significant_decrease"`
}

type NutrientThresholds struct {
	Deficient NutrientTier `json:"deficient" yaml:"deficient"`
	Optimal   NutrientTier `json:"optimal" yaml:"optimal"`
	Excess    NutrientTier `json:"excess" yaml:"excess"`
}

// NutrientTier bounds one nutrient tier on the health scale.
type NutrientTier struct {
	MinScore float64 `json:"min_score,omitempty" yaml:"min_score,omitempty"`
	MaxScore float64 `json:"max_score,omitempty" yaml:"max_score,omitempty"`
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"`
	LabelHi  string  `json:"label_hi,omitempty" yaml:"label_hi,omitempty"`
}

// DefaultConfig returns the built-in thresholds used whenever no valid
// document is available: critical <50, attention 50-79, healthy >=80,
// rescan 7-10/15-20/25-30 days, epsilon 5.
func DefaultConfig() *Config {
	return &Config{
		Version: "default",
		HealthClassification: HealthClassificationConfig{
			Thresholds: HealthThresholds{
				Critical: TierThreshold{
					MaxScore: 49,
					Label:    "Critical",
					LabelHi:  "गंभीर",
					Color:    "#FF6363",
					Severity: "critical",
				},
				Attention: TierThreshold{
					MinScore: 50,
					MaxScore: 79,
					Label:    "Needs Attention",
					LabelHi:  "ध्यान दें",
					Color:    "#FA8112",
					Severity: "attention",
				},
				Healthy: TierThreshold{
					MinScore: 80,
					Label:    "Healthy",
					LabelHi:  "स्वस्थ",
					Color:    "#4C763B",
					Severity: "healthy",
				},
			},
		},
		RescanIntervals: RescanIntervals{
			Critical:  RescanInterval{MinDays: 7, MaxDays: 10, Label: "7-10 days", LabelHi: "7-10 दिन"},
			Attention: RescanInterval{MinDays: 15, MaxDays: 20, Label: "15-20 days", LabelHi: "15-20 दिन"},
			Healthy:   RescanInterval{MinDays: 25, MaxDays: 30, Label: "25-30 days", LabelHi: "25-30 दिन"},
		},
		TrendAnalysis: TrendAnalysis{
			Epsilon:             5,
			SignificantIncrease: 10,
			SignificantDecrease: -10,
		},
		NutrientThresholds: NutrientThresholds{
			Deficient: NutrientTier{MaxScore: 40, Label: "Deficient", LabelHi: "कमी"},
			Optimal:   NutrientTier{MinScore: 41, MaxScore: 80, Label: "Optimal", LabelHi: "उचित"},
			Excess:    NutrientTier{MinScore: 81, Label: "Excess", LabelHi: "अधिक"},
		},
		GraphColors: map[string]string{
			"nitrogen":       "#E53935",
			"phosphorus":     "#FB8C00",
			"potassium":      "#43A047",
			"healthy_zone":   "#4C763B",
			"attention_zone": "#FA8112",
			"critical_zone":  "#FF6363",
		},
	}
}

// DecodeJSON decodes a thresholds document over the defaults, so fields the
// document omits keep their default values.
func DecodeJSON(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeYAML is DecodeJSON for YAML documents.
func DecodeYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse thresholds YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid health thresholds")

// Validate checks that tiers are ordered and intervals are usable.
func (c *Config) Validate() error {
	var problems []error

	t := c.HealthClassification.Thresholds
	if t.Attention.MinScore >= t.Healthy.MinScore {
		problems = append(problems, fmt.Errorf("attention.min_score (%.1f) must be below healthy.min_score (%.1f)",
			t.Attention.MinScore, t.Healthy.MinScore))
	}
	if t.Attention.MinScore < 0 || t.Healthy.MinScore > 100 {
		problems = append(problems, errors.New("health tier boundaries must lie within 0-100"))
	}

	n := c.NutrientThresholds
	if n.Deficient.MaxScore >= n.Optimal.MaxScore {
		problems = append(problems, fmt.Errorf("deficient.max_score (%.1f) must be below optimal.max_score (%.1f)",
			n.Deficient.MaxScore, n.Optimal.MaxScore))
	}

	for _, status := range []Status{StatusCritical, StatusAttention, StatusHealthy} {
		r := c.RescanIntervals.For(status)
		if r.MinDays <= 0 || r.MinDays > r.MaxDays {
			problems = append(problems, fmt.Errorf("rescan_intervals.%s: need 0 < min_days <= max_days, got %d-%d",
				status, r.MinDays, r.MaxDays))
		}
	}

	ta := c.TrendAnalysis
	if ta.Epsilon < 0 {
		problems = append(problems, errors.New("trend_analysis.epsilon must not be negative"))
	}
	if ta.SignificantIncrease < 0 || ta.SignificantDecrease > 0 {
		problems = append(problems, errors.New("trend_analysis: significant_decrease <= 0 <= significant_increase required"))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
}

// Color returns a graph color, falling back to the given default.
func (c *Config) Color(key, fallback string) string {
	if v, ok := c.GraphColors[key]; ok && v != "" {
		return v
	}
	return fallback
}
