package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// SQLiteStore reads scans from a legacy FasalVaidya SQLite database, where
// leaf_scans.user_id holds the farmer id as text and diagnoses carry no
// magnesium columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open SQLite handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sqliteScanColumns = `s.id, s.scan_uuid, s.user_id, COALESCE(s.crop_id, 1), s.created_at,
	d.n_score, d.p_score, d.k_score,
	d.n_confidence, d.p_confidence, d.k_confidence,
	d.n_severity, d.p_severity, d.k_severity,
	d.overall_status, d.detected_class`

const sqliteScanFrom = ` FROM leaf_scans s JOIN diagnoses d ON d.scan_id = s.id `

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteRow(row rowScanner) (*models.Scan, error) {
	var (
		scan                   models.Scan
		userID, createdAt      string
		n, p, k                sql.NullFloat64
		nConf, pConf, kConf    sql.NullFloat64
		nSev, pSev, kSev       sql.NullString
		overall, detectedClass sql.NullString
	)
	err := row.Scan(
		&scan.ID, &scan.UUID, &userID, &scan.CropID, &createdAt,
		&n, &p, &k,
		&nConf, &pConf, &kConf,
		&nSev, &pSev, &kSev,
		&overall, &detectedClass,
	)
	if err != nil {
		return nil, err
	}

	farmerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("scan %d: invalid user_id %q: %w", scan.ID, userID, err)
	}
	scan.FarmerID = farmerID

	if scan.CreatedAt, err = models.ParseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("scan %d: %w", scan.ID, err)
	}

	scan.NScore, scan.PScore, scan.KScore = n.Float64, p.Float64, k.Float64
	scan.NConfidence, scan.PConfidence, scan.KConfidence = nConf.Float64, pConf.Float64, kConf.Float64
	scan.NSeverity, scan.PSeverity, scan.KSeverity = nSev.String, pSev.String, kSev.String
	scan.OverallStatus, scan.DetectedClass = overall.String, detectedClass.String
	return &scan, nil
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Scan, error) {
	scan, err := scanSQLiteRow(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return scan, nil
}

// GetByID retrieves a scan by ID, scoped to the farmer
func (s *SQLiteStore) GetByID(ctx context.Context, farmerID uuid.UUID, scanID int64) (*models.Scan, error) {
	query := `SELECT ` + sqliteScanColumns + sqliteScanFrom + `WHERE s.id = ? AND s.user_id = ?`
	return s.queryOne(ctx, query, scanID, farmerID.String())
}

// GetPrevious retrieves the most recent earlier scan of the same farmer and crop.
func (s *SQLiteStore) GetPrevious(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	query := `SELECT ` + sqliteScanColumns + sqliteScanFrom + `
		WHERE s.user_id = ? AND s.crop_id = ? AND s.id < ?
		ORDER BY s.id DESC LIMIT 1`
	return s.queryOne(ctx, query, scan.FarmerID.String(), scan.CropID, scan.ID)
}

// GetBaseline retrieves the first scan of the same farmer and crop, or nil
// when that scan is the given one.
func (s *SQLiteStore) GetBaseline(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	query := `SELECT ` + sqliteScanColumns + sqliteScanFrom + `
		WHERE s.user_id = ? AND s.crop_id = ?
		ORDER BY s.id ASC LIMIT 1`
	baseline, err := s.queryOne(ctx, query, scan.FarmerID.String(), scan.CropID)
	if err != nil || baseline == nil || baseline.ID == scan.ID {
		return nil, err
	}
	return baseline, nil
}

// GetLatest retrieves the farmer's newest scan, optionally for one crop.
func (s *SQLiteStore) GetLatest(ctx context.Context, farmerID uuid.UUID, cropID *int) (*models.Scan, error) {
	query := `SELECT ` + sqliteScanColumns + sqliteScanFrom + `WHERE s.user_id = ?`
	args := []interface{}{farmerID.String()}
	if cropID != nil {
		query += ` AND s.crop_id = ?`
		args = append(args, *cropID)
	}
	query += ` ORDER BY s.id DESC LIMIT 1`
	return s.queryOne(ctx, query, args...)
}

// ListRecent retrieves up to limit scans, newest first, optionally for one crop.
func (s *SQLiteStore) ListRecent(ctx context.Context, farmerID uuid.UUID, cropID *int, limit int) ([]models.Scan, error) {
	query := `SELECT ` + sqliteScanColumns + sqliteScanFrom + `WHERE s.user_id = ?`
	args := []interface{}{farmerID.String()}
	if cropID != nil {
		query += ` AND s.crop_id = ?`
		args = append(args, *cropID)
	}
	query += ` ORDER BY s.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]models.Scan, 0)
	for rows.Next() {
		scan, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *scan)
	}
	return scans, rows.Err()
}

// GetFarmer always reports an unknown farmer: the legacy schema keeps no
// farmer details, so reports fall back to the guest block.
func (s *SQLiteStore) GetFarmer(ctx context.Context, farmerID uuid.UUID) (*models.FarmerInfo, error) {
	return nil, nil
}
