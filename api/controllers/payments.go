package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/middleware"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/validators"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/orders"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

type createOrderRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Receipt   string          `json:"receipt"`
	ProjectID string          `json:"projectId"`
}

type verifyPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required"`
}

// CreateOrder opens a gateway order for the amount the buyer is about to pay.
// The Idempotency-Key header doubles as the gateway idempotency key.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			Amount:         payload.Amount,
			Currency:       payload.Currency,
			Receipt:        payload.Receipt,
			BuyerEmail:     middleware.EmailFromContext(r.Context()),
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
			Actor:          actorFromRequest(r),
		}
		if strings.TrimSpace(payload.ProjectID) != "" {
			listingID, err := parseUUIDField("projectId", payload.ProjectID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ListingID = &listingID
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// VerifyPayment reconciles a payment with the gateway and returns its order.
func VerifyPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.VerifyPayment(r.Context(), strings.TrimSpace(payload.PaymentID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
