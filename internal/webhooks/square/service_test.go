package squarewebhook

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
)

const (
	testSecret = "whsec_test"
	testURL    = "https://api.bazaar.test/api/webhooks/square"
)

type hmacVerifier struct{}

func (hmacVerifier) VerifySignature(body []byte, signature string) error {
	return square.VerifySignature(testSecret, testURL, body, signature)
}

type memoryGuard struct {
	seen     map[string]bool
	released []string
}

func (g *memoryGuard) CheckAndMarkProcessed(_ context.Context, consumer, id string) (bool, error) {
	key := consumer + ":" + id
	if g.seen[key] {
		return true, nil
	}
	g.seen[key] = true
	return false, nil
}

func (g *memoryGuard) Release(_ context.Context, consumer, id string) error {
	delete(g.seen, consumer+":"+id)
	g.released = append(g.released, id)
	return nil
}

type stubReconciler struct {
	calls []square.GatewayPayment
	err   error
}

func (r *stubReconciler) ReconcilePayment(_ context.Context, p square.GatewayPayment, source string) (*models.Order, error) {
	if source != SourceWebhook {
		return nil, fmt.Errorf("unexpected source %q", source)
	}
	r.calls = append(r.calls, p)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid}, nil
}

func newTestService(t *testing.T) (*Service, *stubReconciler, *memoryGuard) {
	t.Helper()
	orders := &stubReconciler{}
	guard := &memoryGuard{seen: map[string]bool{}}
	svc, err := NewService(ServiceParams{
		Verifier:    hmacVerifier{},
		Orders:      orders,
		Idempotency: guard,
		Logger:      logger.Nop(),
	})
	require.NoError(t, err)
	return svc, orders, guard
}

func paymentEvent(eventID, status string) []byte {
	return []byte(fmt.Sprintf(`{
  "merchant_id": "M1",
  "type": "payment.updated",
  "event_id": %q,
  "data": {"type": "payment", "id": "pay_1", "object": {"payment": {
    "id": "pay_1", "order_id": "sq_order_1", "status": %q,
    "amount_money": {"amount": 85000, "currency": "INR"}
  }}}
}`, eventID, status))
}

func sign(body []byte) string {
	return base64.StdEncoding.EncodeToString(square.Sign(testSecret, testURL, body))
}

func TestHandleReconcilesPayment(t *testing.T) {
	svc, orders, _ := newTestService(t)
	body := paymentEvent("evt_1", "completed")

	outcome, err := svc.Handle(context.Background(), body, sign(body))
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, outcome)
	require.Len(t, orders.calls, 1)
	require.Equal(t, square.GatewayPayment{
		ID: "pay_1", OrderID: "sq_order_1", Status: square.PaymentStatusCompleted, AmountMinor: 85000, Currency: "INR",
	}, orders.calls[0])

	outcome, err = svc.Handle(context.Background(), body, sign(body))
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, outcome)
	require.Len(t, orders.calls, 1)
}

func TestHandleRejectsBadSignature(t *testing.T) {
	svc, orders, _ := newTestService(t)
	body := paymentEvent("evt_2", "COMPLETED")

	_, err := svc.Handle(context.Background(), body, base64.StdEncoding.EncodeToString([]byte("forged")))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = svc.Handle(context.Background(), body, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.Empty(t, orders.calls)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	svc, orders, _ := newTestService(t)
	body := []byte(`{"type":"refund.created","event_id":"evt_3","data":{"type":"refund","id":"r1","object":{}}}`)

	outcome, err := svc.Handle(context.Background(), body, sign(body))
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, outcome)
	require.Empty(t, orders.calls)
}

func TestHandleUnknownOrderIsIgnored(t *testing.T) {
	svc, orders, guard := newTestService(t)
	orders.err = pkgerrors.NotFound("order")
	body := paymentEvent("evt_4", "COMPLETED")

	outcome, err := svc.Handle(context.Background(), body, sign(body))
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, outcome)
	require.Empty(t, guard.released)
}

func TestHandleReleasesClaimOnFailure(t *testing.T) {
	svc, orders, guard := newTestService(t)
	orders.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "reconcile order")
	body := paymentEvent("evt_5", "COMPLETED")

	_, err := svc.Handle(context.Background(), body, sign(body))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.Equal(t, []string{"evt_5"}, guard.released)

	orders.err = nil
	outcome, err := svc.Handle(context.Background(), body, sign(body))
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, outcome)
}

func TestHandleMalformedPayload(t *testing.T) {
	svc, _, _ := newTestService(t)
	body := []byte(`{"type":"payment.updated"}`)

	_, err := svc.Handle(context.Background(), body, sign(body))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
