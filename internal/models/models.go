package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scan is one diagnosed leaf scan: the leaf_scans row joined with its diagnosis.
// Scores are deficiency scores (0 = healthy) and may be stored either as a
// 0-1 fraction or as a 0-100 percentage.
// DB columns: leaf_scans(id, scan_uuid, farmer_id, crop_id, status, created_at)
//
//	diagnoses(scan_id, n/p/k/mg_score, n/p/k/mg_confidence, n/p/k/mg_severity,
//	overall_status, detected_class)
type Scan struct {
	ID            int64     `json:"scan_id"`
	UUID          string    `json:"scan_uuid"`
	FarmerID      uuid.UUID `json:"farmer_id"`
	CropID        int       `json:"crop_id"`
	CreatedAt     time.Time `json:"created_at"`
	NScore        float64   `json:"n_score"`
	PScore        float64   `json:"p_score"`
	KScore        float64   `json:"k_score"`
	MgScore       *float64  `json:"mg_score,omitempty"`
	NConfidence   float64   `json:"n_confidence"`
	PConfidence   float64   `json:"p_confidence"`
	KConfidence   float64   `json:"k_confidence"`
	MgConfidence  *float64  `json:"mg_confidence,omitempty"`
	NSeverity     string    `json:"n_severity,omitempty"`
	PSeverity     string    `json:"p_severity,omitempty"`
	KSeverity     string    `json:"k_severity,omitempty"`
	MgSeverity    string    `json:"mg_severity,omitempty"`
	OverallStatus string    `json:"overall_status,omitempty"`
	DetectedClass string    `json:"detected_class,omitempty"`
}

// Crop is crop metadata passed through to reports untouched.
type Crop struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	NameHi string `json:"name_hi"`
	Season string `json:"season"`
	Icon   string `json:"icon"`
}

// FarmerInfo is the farmer block of a report. Nil fields render as null.
type FarmerInfo struct {
	FarmerID    *uuid.UUID `json:"farmer_id"`
	Name        string     `json:"name"`
	ContactInfo *string    `json:"contact_info"`
	Location    *string    `json:"location"`
}

// GuestFarmer is used when a report is generated without farmer details.
func GuestFarmer() FarmerInfo {
	return FarmerInfo{Name: "Guest User"}
}

// Farmer is a registered farmer.
// DB columns: id, name, contact_info, location, created_at
type Farmer struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactInfo *string   `json:"contact_info,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Info converts the farmer into the report block.
func (f *Farmer) Info() FarmerInfo {
	id := f.ID
	return FarmerInfo{
		FarmerID:    &id,
		Name:        f.Name,
		ContactInfo: f.ContactInfo,
		Location:    f.Location,
	}
}

// ThresholdConfig is one stored version of the health thresholds document.
// DB columns: id, version, config, description, is_active, created_by, created_at
type ThresholdConfig struct {
	ID          uuid.UUID       `json:"id"`
	Version     int             `json:"version"`
	Config      json.RawMessage `json:"config"`
	Description string          `json:"description"`
	IsActive    bool            `json:"is_active"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ScanImport tracks one CSV import of diagnosis rows.
// DB columns: id, farmer_id, filename, file_size, status, row_count, warnings,
//
//	idempotency_key, content_hash, created_at, updated_at
type ScanImport struct {
	ID             uuid.UUID       `json:"import_id"`
	FarmerID       uuid.UUID       `json:"farmer_id"`
	Filename       string          `json:"filename"`
	FileSize       int64           `json:"file_size"`
	Status         string          `json:"status"`
	RowCount       int             `json:"row_count"`
	Warnings       json.RawMessage `json:"warnings"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	ContentHash    *string         `json:"content_hash,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// timestampLayouts covers RFC 3339 and the SQLite CURRENT_TIMESTAMP forms.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats found in scan records.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
