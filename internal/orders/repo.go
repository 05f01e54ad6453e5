package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/repo"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("idempotency_key = ?", key))
}

func (r *repository) FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	return r.first(repo.ForUpdate(r.db.WithContext(ctx)).Where("gateway_order_id = ?", gatewayOrderID))
}

func (r *repository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("gateway_payment_id = ?", paymentID))
}

func (r *repository) FindByGatewayPaymentIDForUpdate(ctx context.Context, paymentID string) (*models.Order, error) {
	return r.first(repo.ForUpdate(r.db.WithContext(ctx)).Where("gateway_payment_id = ?", paymentID))
}

func (r *repository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order out of from. It reports false when another
// writer changed the row first.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, update StatusUpdate) (bool, error) {
	values := map[string]any{
		"status":     update.Status,
		"updated_at": update.At,
	}
	switch update.Status {
	case enums.OrderStatusPaid:
		values["paid_at"] = update.At
		if update.GatewayPaymentID != nil {
			values["gateway_payment_id"] = *update.GatewayPaymentID
		}
	case enums.OrderStatusFailed:
		values["failed_at"] = update.At
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(values)
	return res.RowsAffected == 1, res.Error
}

// Consume marks a paid order as spent by a purchase. It reports false when
// the order was already consumed or is not paid.
func (r *repository) Consume(ctx context.Context, id, purchaseID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND consumed_at IS NULL", id, enums.OrderStatusPaid).
		UpdateColumns(map[string]any{
			"consumed_at": at,
			"purchase_id": purchaseID,
			"updated_at":  at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) ListStaleCreated(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusCreated, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
