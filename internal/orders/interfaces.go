package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// Repository abstracts persistence for the order ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	FindByGatewayPaymentIDForUpdate(ctx context.Context, paymentID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates StatusUpdate) (bool, error)
	Consume(ctx context.Context, id, purchaseID uuid.UUID, at time.Time) (bool, error)
	ListStaleCreated(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// StatusUpdate is applied by UpdateStatus only when the row still holds the
// expected status.
type StatusUpdate struct {
	Status           enums.OrderStatus
	GatewayPaymentID *string
	At               time.Time
}
