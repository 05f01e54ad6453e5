package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
)

// Tokens are HS256 only; a token signed with anything else is rejected
// before the key is consulted.
var signingMethod = jwt.SigningMethodHS256

// clockSkew tolerates small drift between API replicas.
const clockSkew = 30 * time.Second

// MintAccessToken signs the session credential returned by Google sign-in.
// It expires after cfg.Expiry() (24h by default). An empty JTI is filled
// with a fresh uuid.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkSigningConfig(cfg, true); err != nil {
		return "", err
	}
	if err := payload.validate(); err != nil {
		return "", err
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Email:  payload.Email,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry())),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the
// claims. Whether the session behind the jti is still live is checked
// separately against Redis.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if err := checkSigningConfig(cfg, false); err != nil {
		return nil, err
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil || !claims.Role.IsValid() {
		return nil, fmt.Errorf("token carries an incomplete identity (user %s, role %q)", claims.UserID, claims.Role)
	}
	return claims, nil
}

func checkSigningConfig(cfg config.JWTConfig, minting bool) error {
	if cfg.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if minting && cfg.Issuer == "" {
		return errors.New("jwt issuer is required")
	}
	return nil
}

func (p AccessTokenPayload) validate() error {
	var errs []error
	if p.UserID == uuid.Nil {
		errs = append(errs, errors.New("user id is required"))
	}
	if strings.TrimSpace(p.Email) == "" {
		errs = append(errs, errors.New("email is required"))
	}
	if !p.Role.IsValid() {
		errs = append(errs, fmt.Errorf("invalid user role %q", p.Role))
	}
	return errors.Join(errs...)
}
