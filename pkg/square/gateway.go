package square

import "context"

// Payment statuses reported by Square.
const (
	PaymentStatusApproved  = "APPROVED"
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusCanceled  = "CANCELED"
	PaymentStatusFailed    = "FAILED"
)

// OrderCreateParams is what the order ledger sends when opening a checkout.
type OrderCreateParams struct {
	ReferenceID    string
	ItemName       string
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
}

// GatewayOrder is the gateway-side order descriptor the ledger mirrors.
type GatewayOrder struct {
	ID          string
	ReferenceID string
	AmountMinor int64
	Currency    string
	State       string
}

// GatewayPayment is the subset of a Square payment used for reconciliation.
type GatewayPayment struct {
	ID          string
	OrderID     string
	Status      string
	AmountMinor int64
	Currency    string
}

// Completed reports whether funds were captured.
func (p GatewayPayment) Completed() bool {
	return p.Status == PaymentStatusCompleted
}

// Terminal reports whether the payment can no longer complete.
func (p GatewayPayment) Terminal() bool {
	return p.Status == PaymentStatusFailed || p.Status == PaymentStatusCanceled
}

// Gateway is the payment surface the order ledger and purchase recorder use.
type Gateway interface {
	CreateOrder(ctx context.Context, params OrderCreateParams) (*GatewayOrder, error)
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

var _ Gateway = (*Client)(nil)
