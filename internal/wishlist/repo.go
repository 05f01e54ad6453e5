package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/repo"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
)

// Repository persists wishlist entries keyed by (email, listing_id).
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Remove deletes the entry and reports whether one existed.
func (r *Repository) Remove(ctx context.Context, email string, listingID uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Where("email = ? AND listing_id = ?", email, listingID).
		Delete(&models.WishlistEntry{})
	return res.RowsAffected > 0, res.Error
}

// Add inserts the entry and ignores duplicates. It reports whether a row was
// written.
func (r *Repository) Add(ctx context.Context, email string, listingID uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).Exec(
		`INSERT INTO wishlist_entries (id, email, listing_id, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (email, listing_id) DO NOTHING`,
		uuid.New(), email, listingID, at,
	)
	return res.RowsAffected > 0, res.Error
}

// ListListings returns the listings an email favorited, most recent first.
func (r *Repository) ListListings(ctx context.Context, email string) ([]models.Listing, error) {
	var out []models.Listing
	err := r.DB(ctx).
		Table("wishlist_entries w").
		Select("l.*").
		Joins("JOIN listings l ON l.id = w.listing_id").
		Where("w.email = ?", email).
		Order("w.created_at DESC").
		Order("w.id DESC").
		Scan(&out).Error
	return out, err
}
