package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
)

// CreateOrderInput is a buyer's request to open a gateway order.
type CreateOrderInput struct {
	Amount         decimal.Decimal
	Currency       string
	Receipt        string
	ListingID      *uuid.UUID
	BuyerEmail     string
	IdempotencyKey string
	Actor          *outbox.ActorRef
}

// OrderDTO is the order descriptor handed to the payment widget. Amount is in
// minor units, as the gateway charges it.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	GatewayOrderID   string            `json:"gatewayOrderId"`
	Amount           int64             `json:"amount"`
	DisplayAmount    json.Number       `json:"displayAmount"`
	Currency         enums.Currency    `json:"currency"`
	Receipt          string            `json:"receipt"`
	Status           enums.OrderStatus `json:"status"`
	ListingID        *uuid.UUID        `json:"listingId,omitempty"`
	GatewayPaymentID *string           `json:"paymentId,omitempty"`
	Consumed         bool              `json:"consumed"`
	CreatedAt        time.Time         `json:"createdAt"`
}

func NewOrderDTO(o *models.Order) *OrderDTO {
	return &OrderDTO{
		ID:               o.ID,
		GatewayOrderID:   o.GatewayOrderID,
		Amount:           o.AmountMinor,
		DisplayAmount:    money.Number(money.FromMinorUnits(o.AmountMinor, o.Currency), o.Currency),
		Currency:         o.Currency,
		Receipt:          o.Receipt,
		Status:           o.Status,
		ListingID:        o.ListingID,
		GatewayPaymentID: o.GatewayPaymentID,
		Consumed:         o.IsConsumed(),
		CreatedAt:        o.CreatedAt,
	}
}
