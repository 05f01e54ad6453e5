package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/validators"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/wishlist"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

var errWishlistUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable")

type toggleWishlistRequest struct {
	Email     string `json:"email"`
	ProjectID string `json:"projectId" validate:"required"`
}

// target resolves whose wishlist and which listing a toggle touches.
func (p toggleWishlistRequest) target(r *http.Request) (string, uuid.UUID, error) {
	email, err := requireBuyer(r, p.Email)
	if err != nil {
		return "", uuid.Nil, err
	}
	listingID, err := parseUUIDField("projectId", p.ProjectID)
	return email, listingID, err
}

// WishlistToggle flips membership of one listing and reports the new state.
func WishlistToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(err error) { responses.WriteError(r.Context(), logg, w, err) }
		if svc == nil {
			fail(errWishlistUnavailable)
			return
		}

		var payload toggleWishlistRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			fail(err)
			return
		}
		email, listingID, err := payload.target(r)
		if err != nil {
			fail(err)
			return
		}
		result, err := svc.Toggle(r.Context(), email, listingID)
		if err != nil {
			fail(err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WishlistList returns the buyer's saved listings, newest first.
func WishlistList(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errWishlistUnavailable)
			return
		}
		listings, err := wishlistFor(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings)
	}
}

func wishlistFor(r *http.Request, svc wishlist.Service) ([]catalog.ListingDTO, error) {
	email, err := requireBuyer(r, chi.URLParam(r, "email"))
	if err != nil {
		return nil, err
	}
	return svc.List(r.Context(), email)
}
