package models

// Nutrient identifies a nutrient channel of a scan.
type Nutrient string

const (
	Nitrogen   Nutrient = "n"
	Phosphorus Nutrient = "p"
	Potassium  Nutrient = "k"
	Magnesium  Nutrient = "mg"
)

// PrimaryNutrients are always present on a scan.
var PrimaryNutrients = []Nutrient{Nitrogen, Phosphorus, Potassium}

// HasMagnesium reports whether the scan carries a magnesium score.
func (s *Scan) HasMagnesium() bool {
	return s.MgScore != nil
}

// Nutrients returns n, p, k and, when scored, mg.
func (s *Scan) Nutrients() []Nutrient {
	if s.HasMagnesium() {
		return []Nutrient{Nitrogen, Phosphorus, Potassium, Magnesium}
	}
	return PrimaryNutrients
}

// Score returns the raw deficiency score of a nutrient and whether the scan has it.
func (s *Scan) Score(n Nutrient) (float64, bool) {
	switch n {
	case Nitrogen:
		return s.NScore, true
	case Phosphorus:
		return s.PScore, true
	case Potassium:
		return s.KScore, true
	case Magnesium:
		if s.MgScore == nil {
			return 0, false
		}
		return *s.MgScore, true
	}
	return 0, false
}

// Confidence returns the model confidence of a nutrient, 0 when absent.
func (s *Scan) Confidence(n Nutrient) float64 {
	switch n {
	case Nitrogen:
		return s.NConfidence
	case Phosphorus:
		return s.PConfidence
	case Potassium:
		return s.KConfidence
	case Magnesium:
		if s.MgConfidence != nil {
			return *s.MgConfidence
		}
	}
	return 0
}

// Severity returns the upstream severity label of a nutrient, "" when absent.
func (s *Scan) Severity(n Nutrient) string {
	switch n {
	case Nitrogen:
		return s.NSeverity
	case Phosphorus:
		return s.PSeverity
	case Potassium:
		return s.KSeverity
	case Magnesium:
		return s.MgSeverity
	}
	return ""
}
