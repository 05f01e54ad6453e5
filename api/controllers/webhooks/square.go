package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	squarewebhook "github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/webhooks/square"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// SignatureHeader carries the base64 HMAC-SHA256 Square computes over the
// notification URL and the raw body.
const SignatureHeader = "x-square-hmacsha256-signature"

const maxWebhookBody = 1 << 20

type SquareWebhookService interface {
	Handle(ctx context.Context, body []byte, signature string) (squarewebhook.Outcome, error)
}

type webhookAck struct {
	Status squarewebhook.Outcome `json:"status"`
}

// SquareWebhook handles Square payment notifications. Duplicates and
// unrelated event types are acknowledged with 200 so Square stops retrying;
// retryable failures surface as 5xx so it tries again.
func SquareWebhook(svc SquareWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		signature := r.Header.Get(SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "square signature missing"))
			return
		}

		outcome, err := svc.Handle(ctx, payload, signature)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, webhookAck{Status: outcome})
	}
}
