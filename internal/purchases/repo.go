package purchases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/repo"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
)

const (
	tripleConstraint  = "purchases_buyer_listing_payment_key"
	paymentConstraint = "purchases_payment_id_key"
)

// Repository persists purchase records. Purchases are insert-only.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.DB(ctx).Create(purchase).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return r.first(r.DB(ctx).Where("id = ?", id))
}

// FindByTriple looks up the purchase a (buyer, listing, payment) request
// already produced.
func (r *Repository) FindByTriple(ctx context.Context, email string, listingID uuid.UUID, paymentID string) (*models.Purchase, error) {
	return r.first(r.DB(ctx).Where("buyer_email = ? AND listing_id = ? AND payment_id = ?", email, listingID, paymentID))
}

// ListByEmail returns a buyer's purchases newest first.
func (r *Repository) ListByEmail(ctx context.Context, email string) ([]models.Purchase, error) {
	var out []models.Purchase
	err := r.DB(ctx).
		Where("buyer_email = ?", email).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) first(query *gorm.DB) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := query.First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}
