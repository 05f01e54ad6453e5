package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the base64 HMAC-SHA256 Square computes over the
// notification URL followed by the raw body.
const SignatureHeader = "x-square-hmacsha256-signature"

const (
	EventPaymentCreated = "payment.created"
	EventPaymentUpdated = "payment.updated"
)

var (
	ErrInvalidSignature = errors.New("invalid square webhook signature")
	errMissingEventID   = errors.New("square webhook event_id missing")
)

// WebhookEvent is the envelope Square posts for every subscription event.
type WebhookEvent struct {
	MerchantID string           `json:"merchant_id"`
	Type       string           `json:"type"`
	EventID    string           `json:"event_id"`
	CreatedAt  string           `json:"created_at"`
	Data       webhookEventData `json:"data"`
}

type webhookEventData struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Object json.RawMessage `json:"object"`
}

type webhookPaymentObject struct {
	Payment *struct {
		ID          string `json:"id"`
		OrderID     string `json:"order_id"`
		Status      string `json:"status"`
		AmountMoney *struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"amount_money"`
	} `json:"payment"`
}

// VerifySignature checks a delivery against the configured signature key and
// notification URL.
func (c *Client) VerifySignature(body []byte, signature string) error {
	if c == nil {
		return ErrInvalidSignature
	}
	return VerifySignature(c.webhookSecret, c.notificationURL, body, signature)
}

// VerifySignature is the stateless form used by tests and the client.
func VerifySignature(secret, notificationURL string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(provided, Sign(secret, notificationURL, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the raw HMAC Square would send for body.
func Sign(secret, notificationURL string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	return mac.Sum(nil)
}

// ParseWebhookEvent decodes the envelope and requires an event id.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode square webhook: %w", err)
	}
	if strings.TrimSpace(event.EventID) == "" {
		return nil, errMissingEventID
	}
	return &event, nil
}

// IsPaymentEvent reports whether the event carries a payment object.
func (e *WebhookEvent) IsPaymentEvent() bool {
	return e != nil && (e.Type == EventPaymentCreated || e.Type == EventPaymentUpdated)
}

// Payment extracts the payment snapshot from a payment event.
func (e *WebhookEvent) Payment() (*GatewayPayment, error) {
	if !e.IsPaymentEvent() {
		return nil, fmt.Errorf("event %q does not carry a payment", e.Type)
	}
	var obj webhookPaymentObject
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("decode payment object: %w", err)
	}
	if obj.Payment == nil || obj.Payment.ID == "" {
		return nil, errors.New("payment object missing")
	}
	out := &GatewayPayment{
		ID:      obj.Payment.ID,
		OrderID: obj.Payment.OrderID,
		Status:  strings.ToUpper(obj.Payment.Status),
	}
	if obj.Payment.AmountMoney != nil {
		out.AmountMinor = obj.Payment.AmountMoney.Amount
		out.Currency = strings.ToUpper(obj.Payment.AmountMoney.Currency)
	}
	return out, nil
}
