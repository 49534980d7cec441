package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// ScanStore is the read side shared by the Postgres and SQLite scan stores.
// Every lookup is scoped to a farmer.
type ScanStore interface {
	GetByID(ctx context.Context, farmerID uuid.UUID, scanID int64) (*models.Scan, error)
	GetPrevious(ctx context.Context, scan *models.Scan) (*models.Scan, error)
	GetBaseline(ctx context.Context, scan *models.Scan) (*models.Scan, error)
	GetLatest(ctx context.Context, farmerID uuid.UUID, cropID *int) (*models.Scan, error)
	ListRecent(ctx context.Context, farmerID uuid.UUID, cropID *int, limit int) ([]models.Scan, error)
}

// ScanRepository handles data access for diagnosed leaf scans
type ScanRepository struct {
	pool *pgxpool.Pool
}

// NewScanRepository creates a new scan repository
func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

// scanColumns is the canonical select list for a scan joined with its diagnosis.
const scanColumns = `s.id, s.scan_uuid::text, s.farmer_id, s.crop_id, s.created_at,
	d.n_score, d.p_score, d.k_score, d.mg_score,
	d.n_confidence, d.p_confidence, d.k_confidence, d.mg_confidence,
	d.n_severity, d.p_severity, d.k_severity, d.mg_severity,
	d.overall_status, d.detected_class`

const scanFrom = ` FROM leaf_scans s JOIN diagnoses d ON d.scan_id = s.id `

// scanRow scans a row into a Scan using the canonical column order.
func scanRow(row pgx.Row, scan *models.Scan) error {
	return row.Scan(
		&scan.ID,
		&scan.UUID,
		&scan.FarmerID,
		&scan.CropID,
		&scan.CreatedAt,
		&scan.NScore,
		&scan.PScore,
		&scan.KScore,
		&scan.MgScore,
		&scan.NConfidence,
		&scan.PConfidence,
		&scan.KConfidence,
		&scan.MgConfidence,
		&scan.NSeverity,
		&scan.PSeverity,
		&scan.KSeverity,
		&scan.MgSeverity,
		&scan.OverallStatus,
		&scan.DetectedClass,
	)
}

func (r *ScanRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Scan, error) {
	scan := &models.Scan{}
	if err := scanRow(r.pool.QueryRow(ctx, query, args...), scan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return scan, nil
}

// GetByID retrieves a scan by ID, scoped to the farmer
func (r *ScanRepository) GetByID(ctx context.Context, farmerID uuid.UUID, scanID int64) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + scanFrom + `WHERE s.id = $1 AND s.farmer_id = $2`
	return r.queryOne(ctx, query, scanID, farmerID)
}

// GetPrevious retrieves the most recent earlier scan of the same farmer and crop.
func (r *ScanRepository) GetPrevious(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + scanFrom + `
		WHERE s.farmer_id = $1 AND s.crop_id = $2 AND s.id < $3
		ORDER BY s.id DESC
		LIMIT 1`
	return r.queryOne(ctx, query, scan.FarmerID, scan.CropID, scan.ID)
}

// GetBaseline retrieves the first scan of the same farmer and crop, or nil
// when that scan is the given one.
func (r *ScanRepository) GetBaseline(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + scanFrom + `
		WHERE s.farmer_id = $1 AND s.crop_id = $2
		ORDER BY s.id ASC
		LIMIT 1`
	baseline, err := r.queryOne(ctx, query, scan.FarmerID, scan.CropID)
	if err != nil || baseline == nil || baseline.ID == scan.ID {
		return nil, err
	}
	return baseline, nil
}

// GetLatest retrieves the farmer's newest scan, optionally for one crop.
func (r *ScanRepository) GetLatest(ctx context.Context, farmerID uuid.UUID, cropID *int) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + scanFrom + `WHERE s.farmer_id = $1`
	args := []interface{}{farmerID}
	if cropID != nil {
		query += ` AND s.crop_id = $2`
		args = append(args, *cropID)
	}
	query += ` ORDER BY s.id DESC LIMIT 1`
	return r.queryOne(ctx, query, args...)
}

// ListRecent retrieves up to limit scans, newest first, optionally for one crop.
func (r *ScanRepository) ListRecent(ctx context.Context, farmerID uuid.UUID, cropID *int, limit int) ([]models.Scan, error) {
	query := `SELECT ` + scanColumns + scanFrom + `WHERE s.farmer_id = $1`
	args := []interface{}{farmerID}
	if cropID != nil {
		query += ` AND s.crop_id = $2`
		args = append(args, *cropID)
	}
	query += fmt.Sprintf(` ORDER BY s.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]models.Scan, 0, limit)
	for rows.Next() {
		var scan models.Scan
		if err := scanRow(rows, &scan); err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scans, nil
}

// BulkInsert stores imported scans and their diagnoses in batches of
// batchSize, each scan and diagnosis written by a single statement. IDs are
// assigned by the database and written back into scans.
func (r *ScanRepository) BulkInsert(ctx context.Context, scans []models.Scan, batchSize int) error {
	if len(scans) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = len(scans)
	}

	query := `
		WITH s AS (
			INSERT INTO leaf_scans (scan_uuid, farmer_id, crop_id, status, created_at)
			VALUES ($1, $2, $3, 'completed', $4)
			RETURNING id
		)
		INSERT INTO diagnoses (
			scan_id, n_score, p_score, k_score, mg_score,
			n_confidence, p_confidence, k_confidence, mg_confidence,
			n_severity, p_severity, k_severity, mg_severity,
			overall_status, detected_class
		)
		SELECT s.id, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18 FROM s
		RETURNING scan_id
	`

	for start := 0; start < len(scans); start += batchSize {
		end := start + batchSize
		if end > len(scans) {
			end = len(scans)
		}

		batch := &pgx.Batch{}
		for _, scan := range scans[start:end] {
			batch.Queue(
				query,
				scan.UUID,
				scan.FarmerID,
				scan.CropID,
				scan.CreatedAt,
				scan.NScore,
				scan.PScore,
				scan.KScore,
				scan.MgScore,
				scan.NConfidence,
				scan.PConfidence,
				scan.KConfidence,
				scan.MgConfidence,
				scan.NSeverity,
				scan.PSeverity,
				scan.KSeverity,
				scan.MgSeverity,
				scan.OverallStatus,
				scan.DetectedClass,
			)
		}

		results := r.pool.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			if err := results.QueryRow().Scan(&scans[i].ID); err != nil {
				results.Close()
				return fmt.Errorf("insert scan row %d: %w", i+1, err)
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}

	return nil
}
