package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/models"
)

// ErrNoActiveThresholds is returned when no threshold version is active.
var ErrNoActiveThresholds = errors.New("no active threshold configuration")

// ThresholdRepository handles versioned health threshold documents
type ThresholdRepository struct {
	pool *pgxpool.Pool
}

// NewThresholdRepository creates a new threshold repository
func NewThresholdRepository(pool *pgxpool.Pool) *ThresholdRepository {
	return &ThresholdRepository{pool: pool}
}

const thresholdColumns = `id, version, config, description, is_active, created_by, created_at`

func scanThreshold(row pgx.Row, tc *models.ThresholdConfig) error {
	return row.Scan(
		&tc.ID,
		&tc.Version,
		&tc.Config,
		&tc.Description,
		&tc.IsActive,
		&tc.CreatedBy,
		&tc.CreatedAt,
	)
}

// GetActive retrieves the active threshold version. Returns nil, nil if none.
func (r *ThresholdRepository) GetActive(ctx context.Context) (*models.ThresholdConfig, error) {
	query := `SELECT ` + thresholdColumns + `
		FROM threshold_configs
		WHERE is_active = true
		ORDER BY version DESC
		LIMIT 1`

	tc := &models.ThresholdConfig{}
	if err := scanThreshold(r.pool.QueryRow(ctx, query), tc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tc, nil
}

// List retrieves every stored version, newest first.
func (r *ThresholdRepository) List(ctx context.Context) ([]models.ThresholdConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+thresholdColumns+` FROM threshold_configs ORDER BY version DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]models.ThresholdConfig, 0)
	for rows.Next() {
		var tc models.ThresholdConfig
		if err := scanThreshold(rows, &tc); err != nil {
			return nil, err
		}
		versions = append(versions, tc)
	}
	return versions, rows.Err()
}

// Activate stores cfg as the next version and makes it the only active one.
// The document is validated before anything is written.
func (r *ThresholdRepository) Activate(
	ctx context.Context,
	cfg *health.Config,
	description string,
	createdBy *uuid.UUID,
) (*models.ThresholdConfig, error) {
	if cfg == nil {
		return nil, errors.New("threshold config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode thresholds: %w", err)
	}

	tc := &models.ThresholdConfig{}
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE threshold_configs IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE threshold_configs SET is_active = false WHERE is_active`); err != nil {
			return err
		}

		query := `
			INSERT INTO threshold_configs (id, version, config, description, is_active, created_by, created_at)
			SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, true, $4, $5
			FROM threshold_configs
			RETURNING ` + thresholdColumns
		return scanThreshold(tx.QueryRow(ctx, query, uuid.New(), doc, description, createdBy, time.Now().UTC()), tc)
	})
	if err != nil {
		return nil, fmt.Errorf("activate thresholds: %w", err)
	}
	return tc, nil
}

// ThresholdSource loads the active database version as a health.Source.
type ThresholdSource struct {
	Repo *ThresholdRepository
}

func (s ThresholdSource) Load(ctx context.Context) (*health.Config, error) {
	tc, err := s.Repo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active thresholds: %w", err)
	}
	if tc == nil {
		return nil, ErrNoActiveThresholds
	}
	cfg, err := health.DecodeJSON(tc.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Version == "" || cfg.Version == "default" {
		cfg.Version = fmt.Sprintf("db-%d", tc.Version)
	}
	return cfg, nil
}
