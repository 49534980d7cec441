package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyResult holds the outcome of an atomic claim attempt.
type IdempotencyResult struct {
	// AlreadyExists is true when the key was already claimed.
	AlreadyExists bool
	// ResourceID is the resource_id associated with the key (existing or newly claimed).
	ResourceID uuid.UUID
}

// IdempotencyRepository handles atomic idempotency key operations.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewIdempotencyRepository creates a new idempotency repository. Claimed keys
// expire after ttl.
func NewIdempotencyRepository(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyRepository{pool: pool, ttl: ttl}
}

// Claim atomically attempts to claim an idempotency key for a resource.
// If an unexpired key already exists (same farmer + key + resource_type), it
// returns AlreadyExists=true with the original resource_id. An expired key is
// taken over by the new resource.
func (r *IdempotencyRepository) Claim(
	ctx context.Context,
	farmerID uuid.UUID,
	key string,
	resourceType string,
	resourceID uuid.UUID,
) (*IdempotencyResult, error) {
	if key == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	// The idempotency_keys table PK is (farmer_id, key, resource_type).
	query := `
		WITH inserted AS (
			INSERT INTO idempotency_keys (key, farmer_id, resource_type, resource_id, expires_at)
			VALUES ($1, $2, $3, $4, NOW() + make_interval(secs => $5))
			ON CONFLICT (farmer_id, key, resource_type) DO UPDATE
				SET resource_id = EXCLUDED.resource_id,
				    created_at = NOW(),
				    expires_at = EXCLUDED.expires_at
				WHERE idempotency_keys.expires_at < NOW()
			RETURNING resource_id, FALSE AS already_exists
		)
		SELECT resource_id, already_exists FROM inserted
		UNION ALL
		SELECT resource_id, TRUE AS already_exists
		FROM idempotency_keys
		WHERE farmer_id = $2 AND key = $1 AND resource_type = $3
		  AND NOT EXISTS (SELECT 1 FROM inserted)
	`

	var result IdempotencyResult
	err := r.pool.QueryRow(ctx, query, key, farmerID, resourceType, resourceID, r.ttl.Seconds()).Scan(
		&result.ResourceID,
		&result.AlreadyExists,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("unexpected empty result from idempotency claim")
		}
		return nil, err
	}

	return &result, nil
}

// CleanExpired removes expired idempotency keys. Call from a background job.
func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
