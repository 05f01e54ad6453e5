package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// Order mirrors a payment gateway order and tracks its reconciliation.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	GatewayOrderID   string            `gorm:"column:gateway_order_id;not null;uniqueIndex:orders_gateway_order_id_key"`
	GatewayPaymentID *string           `gorm:"column:gateway_payment_id;uniqueIndex:orders_gateway_payment_id_key"`
	IdempotencyKey   string            `gorm:"column:idempotency_key;not null;uniqueIndex:orders_idempotency_key_key"`
	AmountMinor      int64             `gorm:"column:amount_minor;not null"`
	Currency         enums.Currency    `gorm:"column:currency;type:text;not null"`
	Receipt          string            `gorm:"column:receipt;not null;uniqueIndex:orders_receipt_key"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:created"`
	ListingID        *uuid.UUID        `gorm:"column:listing_id;type:uuid"`
	BuyerEmail       *string           `gorm:"column:buyer_email"`
	PaidAt           *time.Time        `gorm:"column:paid_at"`
	FailedAt         *time.Time        `gorm:"column:failed_at"`
	ConsumedAt       *time.Time        `gorm:"column:consumed_at"`
	PurchaseID       *uuid.UUID        `gorm:"column:purchase_id;type:uuid"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// IsConsumed reports whether a purchase already spent this order's payment.
func (o *Order) IsConsumed() bool {
	return o.ConsumedAt != nil
}
