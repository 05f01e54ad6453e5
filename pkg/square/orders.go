package square

import (
	"context"
	"errors"
	"strings"

	sq "github.com/square/square-go-sdk"
)

var errPaymentIDRequired = errors.New("square payment id is required")

// CreateOrder opens a single-line order for the listing being bought. The
// same idempotency key must be reused across retries of one logical request.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*GatewayOrder, error) {
	if c == nil || c.sdk == nil {
		return nil, errSDKMissing
	}
	idempotencyKey := c.ensureIdempotencyKey("order.create", params.IdempotencyKey)
	req := &sq.CreateOrderRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		Order: &sq.Order{
			LocationID:  c.locationID,
			ReferenceID: ptrString(params.ReferenceID),
			LineItems: []*sq.OrderLineItem{
				{
					Name:           ptrString(itemName(params.ItemName, params.ReferenceID)),
					Quantity:       "1",
					BasePriceMoney: moneyPtr(params.AmountMinor, params.Currency),
				},
			},
		},
	}
	done := c.trace(ctx, "create_order", map[string]any{
		"reference_id":    params.ReferenceID,
		"amount_minor":    params.AmountMinor,
		"currency":        params.Currency,
		"idempotency_key": idempotencyKey,
	})

	resp, err := c.sdk.Orders.Create(ctx, req)
	if err != nil {
		done(err, nil)
		return nil, mapError(err, "create order")
	}
	order := toGatewayOrder(resp.GetOrder())
	if order == nil || order.ID == "" {
		err := mapError(errors.New("empty order in response"), "create order")
		done(err, nil)
		return nil, err
	}
	if order.AmountMinor == 0 {
		order.AmountMinor = params.AmountMinor
		order.Currency = strings.ToUpper(params.Currency)
	}
	done(nil, map[string]any{"order_id": order.ID, "state": order.State})
	return order, nil
}

// GetPayment fetches the current state of a payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	if c == nil || c.sdk == nil {
		return nil, errSDKMissing
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, errPaymentIDRequired
	}
	done := c.trace(ctx, "get_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Get(ctx, &sq.GetPaymentsRequest{PaymentID: paymentID})
	if err != nil {
		done(err, nil)
		return nil, mapError(err, "get payment")
	}
	payment := toGatewayPayment(resp.GetPayment())
	if payment == nil {
		err := mapError(errors.New("empty payment in response"), "get payment")
		done(err, nil)
		return nil, err
	}
	done(nil, map[string]any{"order_id": payment.OrderID, "status": payment.Status})
	return payment, nil
}

func toGatewayOrder(order *sq.Order) *GatewayOrder {
	if order == nil {
		return nil
	}
	out := &GatewayOrder{
		ID:          stringValue(order.GetID()),
		ReferenceID: stringValue(order.GetReferenceID()),
	}
	if state := order.GetState(); state != nil {
		out.State = string(*state)
	}
	out.AmountMinor, out.Currency = moneyValue(order.GetTotalMoney())
	return out
}

func toGatewayPayment(payment *sq.Payment) *GatewayPayment {
	if payment == nil {
		return nil
	}
	out := &GatewayPayment{
		ID:      stringValue(payment.GetID()),
		OrderID: stringValue(payment.GetOrderID()),
		Status:  stringValue(payment.GetStatus()),
	}
	out.AmountMinor, out.Currency = moneyValue(payment.GetAmountMoney())
	return out
}

func moneyValue(m *sq.Money) (int64, string) {
	if m == nil {
		return 0, ""
	}
	var amount int64
	if a := m.GetAmount(); a != nil {
		amount = *a
	}
	var currency string
	if cur := m.GetCurrency(); cur != nil {
		currency = string(*cur)
	}
	return amount, currency
}

func itemName(name, fallback string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	if fallback != "" {
		return "Order " + fallback
	}
	return "Marketplace project"
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func moneyPtr(amount int64, currency string) *sq.Money {
	code := sq.Currency(strings.ToUpper(strings.TrimSpace(currency)))
	return &sq.Money{
		Amount:   &amount,
		Currency: &code,
	}
}
