package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// ParseScans reads a diagnosis CSV into scans owned by farmerID. Rows that fail
// validation are skipped and reported as warnings; a missing required column
// or an unreadable file is fatal. Rows without created_at are stamped with now.
func ParseScans(reader io.Reader, farmerID uuid.UUID, now time.Time) (
	scans []models.Scan,
	warnings []string,
	err error,
) {
	scans = make([]models.Scan, 0)
	warnings = make([]string, 0)

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields
	csvReader.TrimLeadingSpace = true

	headers, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return scans, warnings, fmt.Errorf("CSV file is empty")
		}
		return scans, warnings, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	headerWarnings, headerErrors := ValidateHeaders(headers)
	warnings = append(warnings, headerWarnings...)
	if len(headerErrors) > 0 {
		return scans, warnings, fmt.Errorf("header validation failed: %s", strings.Join(headerErrors, "; "))
	}

	seen := make(map[string]int)
	lineNum := 2 // line 1 is headers

	for ; ; lineNum++ {
		csvRow, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return scans, warnings, fmt.Errorf("line %d: failed to read CSV row: %w", lineNum, err)
		}

		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(csvRow) {
				row[header] = strings.TrimSpace(csvRow[i])
			}
		}

		if rowErrors := ValidateRow(row, lineNum); len(rowErrors) > 0 {
			for _, re := range rowErrors {
				warnings = append(warnings, fmt.Sprintf("row %d skipped: %s", lineNum, re))
			}
			continue
		}

		scan := buildScan(row, farmerID, now)
		if first, dup := seen[scan.UUID]; dup {
			warnings = append(warnings, fmt.Sprintf("row %d skipped: scan_uuid duplicates row %d", lineNum, first))
			continue
		}
		seen[scan.UUID] = lineNum
		scans = append(scans, scan)
	}

	return scans, warnings, nil
}

// buildScan converts a validated row.
func buildScan(row map[string]string, farmerID uuid.UUID, now time.Time) models.Scan {
	scan := models.Scan{
		UUID:          row["scan_uuid"],
		FarmerID:      farmerID,
		CreatedAt:     now,
		NSeverity:     strings.ToLower(row["n_severity"]),
		PSeverity:     strings.ToLower(row["p_severity"]),
		KSeverity:     strings.ToLower(row["k_severity"]),
		MgSeverity:    strings.ToLower(row["mg_severity"]),
		OverallStatus: strings.ToLower(row["overall_status"]),
		DetectedClass: row["detected_class"],
	}
	if scan.UUID == "" {
		scan.UUID = uuid.NewString()
	}
	if ts := row["created_at"]; ts != "" {
		scan.CreatedAt, _ = models.ParseTimestamp(ts)
	}

	scan.CropID, _ = strconv.Atoi(row["crop_id"])
	scan.NScore = parseFloat(row["n_score"])
	scan.PScore = parseFloat(row["p_score"])
	scan.KScore = parseFloat(row["k_score"])
	scan.NConfidence = parseFloat(row["n_confidence"])
	scan.PConfidence = parseFloat(row["p_confidence"])
	scan.KConfidence = parseFloat(row["k_confidence"])
	scan.MgScore = parseOptional(row["mg_score"])
	scan.MgConfidence = parseOptional(row["mg_confidence"])
	return scan
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	f := parseFloat(s)
	return &f
}
