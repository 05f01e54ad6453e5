package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// OrderCreatedEvent is emitted once the gateway accepted a new order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID      `json:"orderId"`
	GatewayOrderID string         `json:"gatewayOrderId"`
	Receipt        string         `json:"receipt"`
	AmountMinor    int64          `json:"amountMinor"`
	Currency       enums.Currency `json:"currency"`
	ListingID      *uuid.UUID     `json:"listingId,omitempty"`
	BuyerEmail     *string        `json:"buyerEmail,omitempty"`
	Attempts       int            `json:"attempts"`
}

// OrderStatusChangedEvent records a created -> paid or created -> failed move.
type OrderStatusChangedEvent struct {
	OrderID          uuid.UUID         `json:"orderId"`
	GatewayOrderID   string            `json:"gatewayOrderId"`
	GatewayPaymentID *string           `json:"gatewayPaymentId,omitempty"`
	From             enums.OrderStatus `json:"from"`
	To               enums.OrderStatus `json:"to"`
	Source           string            `json:"source"`
	ChangedAt        time.Time         `json:"changedAt"`
}

// PurchaseRecordedEvent is emitted in the same transaction that stores the
// purchase and consumes its order.
type PurchaseRecordedEvent struct {
	PurchaseID   uuid.UUID      `json:"purchaseId"`
	OrderID      uuid.UUID      `json:"orderId"`
	ListingID    uuid.UUID      `json:"listingId"`
	ListingTitle string         `json:"listingTitle"`
	BuyerEmail   string         `json:"buyerEmail"`
	PaymentID    string         `json:"paymentId"`
	PricePaid    string         `json:"pricePaid"`
	AmountMinor  int64          `json:"amountMinor"`
	Currency     enums.Currency `json:"currency"`
}

// PaymentVerificationFailedEvent captures a rejected purchase attempt.
type PaymentVerificationFailedEvent struct {
	ListingID     uuid.UUID  `json:"listingId"`
	OrderID       *uuid.UUID `json:"orderId,omitempty"`
	BuyerEmail    string     `json:"buyerEmail"`
	PaymentID     string     `json:"paymentId"`
	Reason        string     `json:"reason"`
	ExpectedMinor int64      `json:"expectedMinor"`
	ActualMinor   *int64     `json:"actualMinor,omitempty"`
}

// ListingDeletedEvent reports a catalog removal and how many dependent rows
// went with it.
type ListingDeletedEvent struct {
	ListingID              uuid.UUID `json:"listingId"`
	Title                  string    `json:"title"`
	MappingRemoved         bool      `json:"mappingRemoved"`
	WishlistEntriesRemoved int64     `json:"wishlistEntriesRemoved"`
	DeletedAt              time.Time `json:"deletedAt"`
}
