package controllers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/middleware"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/validators"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/delivery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/purchases"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

type storePurchaseRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	ProjectID string `json:"projectId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
}

// StorePurchase records the purchase funded by paymentId and returns the
// delivery link. Replays of the same purchase answer exactly like the first
// call.
func StorePurchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		var payload storePurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		email, err := requireBuyer(r, payload.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := parseUUIDField("projectId", payload.ProjectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Store(r.Context(), purchases.StoreInput{
			Username:  strings.TrimSpace(payload.Username),
			Email:     email,
			ListingID: listingID,
			PaymentID: strings.TrimSpace(payload.PaymentID),
			Actor:     actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListUserPurchases returns every purchase made with the path email.
func ListUserPurchases(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		email, err := requireBuyer(r, chi.URLParam(r, "email"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// DownloadPurchase streams the purchase's delivery folder as a zip archive.
// Errors can only be reported before the first byte is written.
func DownloadPurchase(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		purchaseID, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		bundle, err := svc.Prepare(ctx, purchaseID, delivery.Requester{
			Email: middleware.EmailFromContext(ctx),
			Admin: middleware.IsAdmin(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": bundle.Filename}))
		w.WriteHeader(http.StatusOK)

		if err := svc.WriteZip(ctx, bundle, w); err != nil && logg != nil {
			logg.Error(logg.WithField(ctx, "purchase_id", purchaseID.String()), "zip stream aborted", err)
		}
	}
}
