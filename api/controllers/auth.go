package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/middleware"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/validators"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/auth"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// googleSignInPayload accepts the Google ID token as "credential" (Google
// Identity Services) or "token" (older storefront builds).
type googleSignInPayload struct {
	Credential string `json:"credential"`
	Token      string `json:"token"`
}

// AuthGoogle exchanges a Google ID token for a session token.
func AuthGoogle(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body googleSignInPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		credential := strings.TrimSpace(body.Credential)
		if credential == "" {
			credential = strings.TrimSpace(body.Token)
		}
		if credential == "" {
			err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"credential": "is required"})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SignInWithGoogle(r.Context(), credential)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthMe returns the user behind the session.
func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "user context missing"))
			return
		}

		user, err := svc.CurrentUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthLogout revokes the session backing the presented token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if err := svc.Logout(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Logged out")
	}
}
