package enums

// OrderStatus tracks the reconciliation state of a gateway order.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

var orderStatuses = []OrderStatus{OrderStatusCreated, OrderStatusPaid, OrderStatusFailed}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool { return known(orderStatuses, s) }

// CanTransitionTo reports whether moving from s to next is allowed. Paid is
// terminal. A failed order can still become paid when the buyer retries the
// payment on the same gateway order.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return next == OrderStatusPaid || next == OrderStatusFailed
	case OrderStatusFailed:
		return next == OrderStatusPaid
	default:
		return false
	}
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse(orderStatuses, value, "order status")
}
