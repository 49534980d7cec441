package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// ImportRepository handles data access for CSV scan import records
type ImportRepository struct {
	pool *pgxpool.Pool
}

// NewImportRepository creates a new import repository
func NewImportRepository(pool *pgxpool.Pool) *ImportRepository {
	return &ImportRepository{pool: pool}
}

// importColumns is the canonical column list for scan_imports, used across all queries.
const importColumns = `id, farmer_id, filename, file_size, status, row_count, warnings,
	idempotency_key, content_hash, created_at, updated_at`

func scanImport(row pgx.Row, imp *models.ScanImport) error {
	return row.Scan(
		&imp.ID,
		&imp.FarmerID,
		&imp.Filename,
		&imp.FileSize,
		&imp.Status,
		&imp.RowCount,
		&imp.Warnings,
		&imp.IdempotencyKey,
		&imp.ContentHash,
		&imp.CreatedAt,
		&imp.UpdatedAt,
	)
}

// Create inserts a new import record
func (r *ImportRepository) Create(ctx context.Context, imp *models.ScanImport) error {
	if imp == nil {
		return errors.New("scan import cannot be nil")
	}

	query := `
		INSERT INTO scan_imports (
			id, farmer_id, filename, file_size, status, row_count, warnings,
			idempotency_key, content_hash, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING ` + importColumns

	return scanImport(r.pool.QueryRow(
		ctx, query,
		imp.ID, imp.FarmerID, imp.Filename, imp.FileSize, imp.Status, imp.RowCount,
		imp.Warnings, imp.IdempotencyKey, imp.ContentHash, imp.CreatedAt, imp.UpdatedAt,
	), imp)
}

// GetByID retrieves an import by ID, scoped to the farmer
func (r *ImportRepository) GetByID(ctx context.Context, farmerID, importID uuid.UUID) (*models.ScanImport, error) {
	query := `SELECT ` + importColumns + ` FROM scan_imports WHERE id = $1 AND farmer_id = $2`
	return r.queryOne(ctx, query, importID, farmerID)
}

// GetByContentHash retrieves a completed import by SHA-256 content hash,
// scoped to the farmer. Returns nil, nil if no match found.
func (r *ImportRepository) GetByContentHash(ctx context.Context, farmerID uuid.UUID, hash string) (*models.ScanImport, error) {
	query := `SELECT ` + importColumns + ` FROM scan_imports
		WHERE farmer_id = $1 AND content_hash = $2 AND status = 'completed'
		ORDER BY created_at DESC LIMIT 1`
	return r.queryOne(ctx, query, farmerID, hash)
}

// Update updates an import record
func (r *ImportRepository) Update(ctx context.Context, imp *models.ScanImport) error {
	if imp == nil {
		return errors.New("scan import cannot be nil")
	}

	query := `
		UPDATE scan_imports
		SET status = $3, row_count = $4, warnings = $5, updated_at = $6
		WHERE id = $1 AND farmer_id = $2
		RETURNING ` + importColumns

	err := scanImport(r.pool.QueryRow(
		ctx, query,
		imp.ID, imp.FarmerID, imp.Status, imp.RowCount, imp.Warnings, imp.UpdatedAt,
	), imp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("scan import not found")
		}
		return err
	}
	return nil
}

func (r *ImportRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.ScanImport, error) {
	imp := &models.ScanImport{}
	if err := scanImport(r.pool.QueryRow(ctx, query, args...), imp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return imp, nil
}
