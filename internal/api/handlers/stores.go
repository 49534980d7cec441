package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/models"
	"github.com/fasalvaidya/crop-health/internal/repository"
)

// ImportStore persists scan import records.
type ImportStore interface {
	Create(ctx context.Context, imp *models.ScanImport) error
	GetByID(ctx context.Context, farmerID, importID uuid.UUID) (*models.ScanImport, error)
	GetByContentHash(ctx context.Context, farmerID uuid.UUID, hash string) (*models.ScanImport, error)
	Update(ctx context.Context, imp *models.ScanImport) error
}

// ScanWriter stores parsed scans.
type ScanWriter interface {
	BulkInsert(ctx context.Context, scans []models.Scan, batchSize int) error
}

// IdempotencyClaimer claims Idempotency-Key header values.
type IdempotencyClaimer interface {
	Claim(ctx context.Context, farmerID uuid.UUID, key, resourceType string, resourceID uuid.UUID) (*repository.IdempotencyResult, error)
}

// ThresholdActivator stores a new active thresholds version.
type ThresholdActivator interface {
	Activate(ctx context.Context, cfg *health.Config, description string, createdBy *uuid.UUID) (*models.ThresholdConfig, error)
}

// Recorder receives handler-level metrics. Every method must be safe to call
// concurrently.
type Recorder interface {
	RecordCacheLookup(hit bool)
	RecordReload(trigger string, cfg *health.Config)
	RecordImport(status string, rows int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheLookup(bool)              {}
func (nopRecorder) RecordReload(string, *health.Config) {}
func (nopRecorder) RecordImport(string, int)            {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// importResponse is the body returned for both new and duplicate imports.
func importResponse(imp *models.ScanImport, warnings []string, duplicate bool) map[string]interface{} {
	body := map[string]interface{}{
		"import_id":  imp.ID,
		"farmer_id":  imp.FarmerID,
		"filename":   imp.Filename,
		"row_count":  imp.RowCount,
		"status":     imp.Status,
		"created_at": imp.CreatedAt.UTC().Format(time.RFC3339),
		"duplicate":  duplicate,
	}
	if warnings != nil {
		body["warnings"] = warnings
	} else {
		body["warnings"] = imp.Warnings
	}
	return body
}
