package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// ColumnType is the kind of value a diagnosis column holds.
type ColumnType string

const (
	TypeScore      ColumnType = "score"      // deficiency, 0-1 fraction or 0-100 percentage
	TypeConfidence ColumnType = "confidence" // 0-1
	TypeCropID     ColumnType = "crop_id"
	TypeSeverity   ColumnType = "severity"
	TypeTimestamp  ColumnType = "timestamp"
	TypeUUID       ColumnType = "uuid"
	TypeText       ColumnType = "text"
)

// Column describes one accepted CSV column.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool
}

// Columns is the accepted diagnosis CSV layout, in validation order.
var Columns = []Column{
	{Name: "crop_id", Type: TypeCropID, Required: true},
	{Name: "n_score", Type: TypeScore, Required: true},
	{Name: "p_score", Type: TypeScore, Required: true},
	{Name: "k_score", Type: TypeScore, Required: true},
	{Name: "mg_score", Type: TypeScore},
	{Name: "n_confidence", Type: TypeConfidence},
	{Name: "p_confidence", Type: TypeConfidence},
	{Name: "k_confidence", Type: TypeConfidence},
	{Name: "mg_confidence", Type: TypeConfidence},
	{Name: "n_severity", Type: TypeSeverity},
	{Name: "p_severity", Type: TypeSeverity},
	{Name: "k_severity", Type: TypeSeverity},
	{Name: "mg_severity", Type: TypeSeverity},
	{Name: "overall_status", Type: TypeSeverity},
	{Name: "detected_class", Type: TypeText},
	{Name: "created_at", Type: TypeTimestamp},
	{Name: "scan_uuid", Type: TypeUUID},
}

var columnIndex = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c
	}
	return m
}()

var severities = map[string]bool{"healthy": true, "attention": true, "critical": true}

// ValidateHeaders checks that required columns are present and flags unexpected columns
func ValidateHeaders(headers []string) (warnings []string, errors []string) {
	headerSet := make(map[string]bool, len(headers))
	for _, h := range headers {
		headerSet[h] = true
	}

	for _, col := range Columns {
		if col.Required && !headerSet[col.Name] {
			errors = append(errors, fmt.Sprintf("required column '%s' not found in headers", col.Name))
		}
	}

	for _, h := range headers {
		if _, ok := columnIndex[h]; !ok {
			warnings = append(warnings, fmt.Sprintf("unexpected column '%s' ignored", h))
		}
	}

	return warnings, errors
}

// ValidateRow checks every known column of a row. Empty optional values are skipped.
func ValidateRow(row map[string]string, rowNum int) (errors []string) {
	for _, col := range Columns {
		value, exists := row[col.Name]
		if !exists || value == "" {
			if col.Required {
				errors = append(errors, fmt.Sprintf("row %d: required column '%s' is empty", rowNum, col.Name))
			}
			continue
		}
		if err := validateValue(col, value, rowNum); err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func validateValue(col Column, value string, rowNum int) error {
	switch col.Type {
	case TypeScore:
		return validateRange(col.Name, value, 0, 100, rowNum)
	case TypeConfidence:
		return validateRange(col.Name, value, 0, 1, rowNum)
	case TypeCropID:
		id, err := strconv.Atoi(value)
		if err != nil || id <= 0 {
			return fmt.Errorf("row %d: column '%s' must be a positive whole number, got '%s'", rowNum, col.Name, value)
		}
		return nil
	case TypeSeverity:
		if !severities[strings.ToLower(value)] {
			return fmt.Errorf("row %d: column '%s' must be healthy, attention or critical, got '%s'", rowNum, col.Name, value)
		}
		return nil
	case TypeTimestamp:
		if _, err := models.ParseTimestamp(value); err != nil {
			return fmt.Errorf("row %d: column '%s': %v", rowNum, col.Name, err)
		}
		return nil
	case TypeUUID:
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("row %d: column '%s' must be a UUID, got '%s'", rowNum, col.Name, value)
		}
		return nil
	}
	return nil
}

func validateRange(name, value string, min, max float64, rowNum int) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("row %d: column '%s' must be a valid number, got '%s'", rowNum, name, value)
	}
	if f < min || f > max {
		return fmt.Errorf("row %d: column '%s' must be between %v and %v, got %v", rowNum, name, min, max, f)
	}
	return nil
}
