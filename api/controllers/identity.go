package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/middleware"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
)

// actorFromRequest describes the caller for outbox events. Anonymous callers
// produce a nil actor.
func actorFromRequest(r *http.Request) *outbox.ActorRef {
	ctx := r.Context()
	email := middleware.EmailFromContext(ctx)
	if email == "" {
		return nil
	}
	actor := &outbox.ActorRef{Email: email, Role: middleware.RoleFromContext(ctx)}
	if id, err := uuid.Parse(middleware.UserIDFromContext(ctx)); err == nil {
		actor.UserID = &id
	}
	return actor
}

// requireBuyer returns the caller's email. Buyers may only act on their own
// email; admins may act on anyone's.
func requireBuyer(r *http.Request, email string) (string, error) {
	caller := middleware.EmailFromContext(r.Context())
	if caller == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	email = normalizeEmail(email)
	if email == "" {
		return caller, nil
	}
	if email != caller && !middleware.IsAdmin(r) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "email does not match session")
	}
	return email, nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]string{field: "must be a valid id"})
	}
	return id, nil
}
