package mappings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/repo"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
)

// Repository persists entitlement mappings.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// mappingRow is a mapping joined with the current title of its listing.
type mappingRow struct {
	ID           uuid.UUID
	ListingID    uuid.UUID
	DriveURL     string
	ListingTitle string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("entitlement_mappings m").
		Select("m.id, m.listing_id, m.drive_url, COALESCE(l.title, '') AS listing_title, m.created_at, m.updated_at").
		Joins("LEFT JOIN listings l ON l.id = m.listing_id")
}

// List returns every mapping with its listing title, newest first.
func (r *Repository) List(ctx context.Context) ([]mappingRow, error) {
	var rows []mappingRow
	err := r.joined(ctx).Order("m.created_at DESC").Order("m.id DESC").Scan(&rows).Error
	return rows, err
}

func (r *Repository) FindRowByID(ctx context.Context, id uuid.UUID) (*mappingRow, error) {
	var rows []mappingRow
	if err := r.joined(ctx).Where("m.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.EntitlementMapping, error) {
	var mapping models.EntitlementMapping
	if err := r.DB(ctx).Where("id = ?", id).First(&mapping).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

// FindByListingID returns the single mapping for a listing.
func (r *Repository) FindByListingID(ctx context.Context, listingID uuid.UUID) (*models.EntitlementMapping, error) {
	var mapping models.EntitlementMapping
	if err := r.DB(ctx).Where("listing_id = ?", listingID).First(&mapping).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *Repository) Create(ctx context.Context, mapping *models.EntitlementMapping) error {
	return r.DB(ctx).Create(mapping).Error
}

func (r *Repository) Update(ctx context.Context, mapping *models.EntitlementMapping) error {
	return r.DB(ctx).Model(mapping).Select("listing_id", "drive_url", "updated_at").Updates(mapping).Error
}

// Delete removes a mapping and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.EntitlementMapping{})
	return res.RowsAffected > 0, res.Error
}
