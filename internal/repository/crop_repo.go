package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasalvaidya/crop-health/internal/models"
)

// CropStore resolves crop metadata.
type CropStore interface {
	GetCrop(ctx context.Context, cropID int) (*models.Crop, error)
	ListCrops(ctx context.Context) ([]models.Crop, error)
}

// FarmerStore resolves farmer details for reports. A nil result means the
// farmer is unknown and the report uses the guest block.
type FarmerStore interface {
	GetFarmer(ctx context.Context, farmerID uuid.UUID) (*models.FarmerInfo, error)
}

// CropRepository handles data access for the crop catalog
type CropRepository struct {
	pool *pgxpool.Pool
}

// NewCropRepository creates a new crop repository
func NewCropRepository(pool *pgxpool.Pool) *CropRepository {
	return &CropRepository{pool: pool}
}

// GetCrop retrieves a crop by ID. Returns nil, nil if not found.
func (r *CropRepository) GetCrop(ctx context.Context, cropID int) (*models.Crop, error) {
	query := `SELECT id, name, name_hi, season, icon FROM crops WHERE id = $1`

	crop := &models.Crop{}
	err := r.pool.QueryRow(ctx, query, cropID).Scan(
		&crop.ID,
		&crop.Name,
		&crop.NameHi,
		&crop.Season,
		&crop.Icon,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return crop, nil
}

// ListCrops retrieves every crop ordered by ID
func (r *CropRepository) ListCrops(ctx context.Context) ([]models.Crop, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, name_hi, season, icon FROM crops ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	crops := make([]models.Crop, 0)
	for rows.Next() {
		var crop models.Crop
		if err := rows.Scan(&crop.ID, &crop.Name, &crop.NameHi, &crop.Season, &crop.Icon); err != nil {
			return nil, err
		}
		crops = append(crops, crop)
	}
	return crops, rows.Err()
}

// FarmerRepository handles data access for farmer records
type FarmerRepository struct {
	pool *pgxpool.Pool
}

// NewFarmerRepository creates a new farmer repository
func NewFarmerRepository(pool *pgxpool.Pool) *FarmerRepository {
	return &FarmerRepository{pool: pool}
}

// GetFarmer retrieves a farmer's report block. Returns nil, nil if not found.
func (r *FarmerRepository) GetFarmer(ctx context.Context, farmerID uuid.UUID) (*models.FarmerInfo, error) {
	query := `SELECT id, name, contact_info, location, created_at FROM farmers WHERE id = $1`

	farmer := &models.Farmer{}
	err := r.pool.QueryRow(ctx, query, farmerID).Scan(
		&farmer.ID,
		&farmer.Name,
		&farmer.ContactInfo,
		&farmer.Location,
		&farmer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	info := farmer.Info()
	return &info, nil
}

// CatalogCrops serves crops from the built-in catalog. It backs the SQLite
// store and the CLI, where no crops table is guaranteed.
type CatalogCrops struct{}

func (CatalogCrops) GetCrop(ctx context.Context, cropID int) (*models.Crop, error) {
	crop, ok := models.LookupCrop(cropID)
	if !ok {
		return nil, nil
	}
	return &crop, nil
}

func (CatalogCrops) ListCrops(ctx context.Context) ([]models.Crop, error) {
	return models.Crops(), nil
}
