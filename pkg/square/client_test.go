package square

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
)

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}
	if got := c.ensureIdempotencyKey("order.create", "receipt_order_1"); got != "receipt_order_1" {
		t.Fatalf("expected provided key, got %q", got)
	}
	if got := c.ensureIdempotencyKey("order.create", ""); !strings.HasPrefix(got, "order.create-") {
		t.Fatalf("generated idempotency key %q missing prefix", got)
	}
	if got := c.NewIdempotencyKey(" "); !strings.HasPrefix(got, "bazaar-") {
		t.Fatalf("default prefix missing from %q", got)
	}
}

func TestRedact(t *testing.T) {
	for _, key := range []string{"payment_token", "buyer_email"} {
		if out := redact(key, "abc123"); out != "[REDACTED]" {
			t.Fatalf("expected %s redacted, got %v", key, out)
		}
	}
	fields := redactFields(map[string]any{"idempotency_key": "k", "order_id": "o"})
	if fields["order_id"] != "o" || fields["idempotency_key"] != "k" {
		t.Fatalf("unexpected redaction %v", fields)
	}
	if v := redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeDependency},
		{http.StatusForbidden, pkgerrors.CodeDependency},
		{http.StatusPaymentRequired, pkgerrors.CodePaymentVerification},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := codeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestMapError(t *testing.T) {
	table := []struct {
		name     string
		status   int
		payload  string
		wantCode pkgerrors.Code
	}{
		{
			name:     "authentication error",
			status:   http.StatusUnauthorized,
			payload:  `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			wantCode: pkgerrors.CodeDependency,
		},
		{
			name:     "card declined",
			status:   http.StatusBadRequest,
			payload:  `{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED"}]}`,
			wantCode: pkgerrors.CodePaymentVerification,
		},
		{
			name:     "unparseable body",
			status:   http.StatusNotFound,
			payload:  `not json`,
			wantCode: pkgerrors.CodeNotFound,
		},
		{
			name:     "idempotency key reused",
			status:   http.StatusConflict,
			payload:  `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			wantCode: pkgerrors.CodeIdempotency,
		},
	}
	for _, tt := range table {
		err := sqcore.NewAPIError(tt.status, errors.New(tt.payload))
		mapped := mapError(err, "operation")
		if mapped == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		typed := pkgerrors.As(mapped)
		if typed == nil {
			t.Fatalf("%s: result is not pkgerror", tt.name)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.wantCode, typed.Code())
		}
	}
}

func TestAPIErrors(t *testing.T) {
	payload := `{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"oops"}]}`
	apiErr := sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload))
	got := apiErrors(apiErr)
	if len(got) != 1 {
		t.Fatalf("expected 1 error, got %d", len(got))
	}
	if got[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected error code %s", got[0].GetCode())
	}
}

func TestMapErrorNonAPI(t *testing.T) {
	mapped := mapError(errors.New("dial tcp: timeout"), "create order")
	if !pkgerrors.IsCode(mapped, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", mapped)
	}
	if !pkgerrors.IsRetryable(mapped) {
		t.Fatal("transport failures should be retryable")
	}
}

func TestNormalizeEnv(t *testing.T) {
	if env, err := normalizeEnv(""); err != nil || env != sandboxEnv {
		t.Fatalf("expected sandbox default, got %q %v", env, err)
	}
	if env, err := normalizeEnv(" Production "); err != nil || env != productionEnv {
		t.Fatalf("expected production, got %q %v", env, err)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatal("expected invalid env error")
	}
}

func TestToGatewayPayment(t *testing.T) {
	amount := int64(85000)
	currency := sq.Currency("INR")
	id, orderID, status := "pay_1", "ord_1", PaymentStatusCompleted
	got := toGatewayPayment(&sq.Payment{
		ID:          &id,
		OrderID:     &orderID,
		Status:      &status,
		AmountMoney: &sq.Money{Amount: &amount, Currency: &currency},
	})
	if got.ID != "pay_1" || got.OrderID != "ord_1" || got.AmountMinor != 85000 || got.Currency != "INR" {
		t.Fatalf("unexpected payment %+v", got)
	}
	if !got.Completed() || got.Terminal() {
		t.Fatalf("completed payment misclassified %+v", got)
	}
	if toGatewayPayment(nil) != nil {
		t.Fatal("nil payment should map to nil")
	}
}

func TestToGatewayOrder(t *testing.T) {
	amount := int64(1999)
	currency := sq.Currency("USD")
	id, ref := "ord_9", "receipt_order_9"
	got := toGatewayOrder(&sq.Order{
		ID:          &id,
		ReferenceID: &ref,
		TotalMoney:  &sq.Money{Amount: &amount, Currency: &currency},
	})
	if got.ID != "ord_9" || got.ReferenceID != ref || got.AmountMinor != 1999 || got.Currency != "USD" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestMoneyPtrUppercasesCurrency(t *testing.T) {
	m := moneyPtr(500, " inr ")
	if *m.Amount != 500 || string(*m.Currency) != "INR" {
		t.Fatalf("unexpected money %+v", m)
	}
}
