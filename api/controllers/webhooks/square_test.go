package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	squarewebhook "github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/webhooks/square"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

type fakeSquareWebhookService struct {
	calls     int
	body      []byte
	signature string
	outcome   squarewebhook.Outcome
	err       error
}

func (f *fakeSquareWebhookService) Handle(ctx context.Context, body []byte, signature string) (squarewebhook.Outcome, error) {
	f.calls++
	f.body = body
	f.signature = signature
	return f.outcome, f.err
}

func postWebhook(handler http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/square", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSquareWebhookPassesRawBodyAndSignature(t *testing.T) {
	svc := &fakeSquareWebhookService{outcome: squarewebhook.OutcomeProcessed}
	handler := SquareWebhook(svc, logger.Nop())

	body := []byte(`{"event_id":"evt_1","type":"payment.updated"}`)
	rec := postWebhook(handler, body, "sig")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.calls)
	require.Equal(t, body, svc.body)
	require.Equal(t, "sig", svc.signature)

	var ack webhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Equal(t, squarewebhook.OutcomeProcessed, ack.Status)
}

func TestSquareWebhookRejectsMissingSignature(t *testing.T) {
	svc := &fakeSquareWebhookService{}
	rec := postWebhook(SquareWebhook(svc, logger.Nop()), []byte(`{}`), "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, svc.calls)
}

func TestSquareWebhookAcknowledgesDuplicates(t *testing.T) {
	svc := &fakeSquareWebhookService{outcome: squarewebhook.OutcomeDuplicate}
	rec := postWebhook(SquareWebhook(svc, logger.Nop()), []byte(`{}`), "sig")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSquareWebhookMapsServiceErrors(t *testing.T) {
	svc := &fakeSquareWebhookService{err: pkgerrors.Wrap(pkgerrors.CodeUnauthorized, errors.New("bad mac"), "invalid webhook signature")}
	rec := postWebhook(SquareWebhook(svc, logger.Nop()), []byte(`{}`), "sig")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	svc = &fakeSquareWebhookService{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "reconcile")}
	rec = postWebhook(SquareWebhook(svc, logger.Nop()), []byte(`{}`), "sig")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
