package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
)

var (
	errClientIDRequired = errors.New("google client id is required")
	ErrEmailMissing     = errors.New("identity token carries no email")
	ErrEmailUnverified  = errors.New("identity token email is not verified")
)

// Identity is the profile extracted from a verified Google ID token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier checks ID tokens against the configured OAuth client id.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type tokenValidator interface {
	Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

type identityVerifier struct {
	clientID  string
	validator tokenValidator
}

// NewIdentityVerifier builds a verifier backed by Google's published signing
// keys. Key sets are cached by the idtoken package.
func NewIdentityVerifier(ctx context.Context, cfg config.GoogleConfig) (IdentityVerifier, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating id token validator: %w", err)
	}
	return &identityVerifier{clientID: clientID, validator: validator}, nil
}

func (v *identityVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("identity token is required")
	}
	payload, err := v.validator.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]any) (*Identity, error) {
	email := strings.ToLower(strings.TrimSpace(claimString(claims, "email")))
	if email == "" {
		return nil, ErrEmailMissing
	}
	if verified, ok := claims["email_verified"]; ok && !truthy(verified) {
		return nil, ErrEmailUnverified
	}
	name := strings.TrimSpace(claimString(claims, "name"))
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	return &Identity{
		Subject: subject,
		Email:   email,
		Name:    name,
		Picture: strings.TrimSpace(claimString(claims, "picture")),
	}, nil
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Google has sent email_verified both as a bool and as the string "true".
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
