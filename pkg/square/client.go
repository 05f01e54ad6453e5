package square

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqclient "github.com/square/square-go-sdk/client"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	idempotencyKeyPrefix = "bazaar"
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Client is the marketplace's payment gateway: order creation, payment
// lookup and webhook verification against one Square location.
type Client struct {
	sdk             *sqclient.Client
	environment     string
	locationID      string
	webhookSecret   string
	notificationURL string
	logger          *logger.Logger
}

func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errors.New("square logger is required")
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	location := strings.TrimSpace(cfg.LocationID)
	secret := strings.TrimSpace(cfg.WebhookSecret)
	switch {
	case token == "":
		return nil, errors.New("square access token is required")
	case location == "":
		return nil, errors.New("square location id is required")
	case secret == "":
		return nil, errors.New("square webhook secret is required")
	}

	c := &Client{
		sdk: sqclient.NewClient(
			sqoption.WithBaseURL(baseURLs[env]),
			sqoption.WithToken(token),
		),
		environment:     env,
		locationID:      location,
		webhookSecret:   secret,
		notificationURL: strings.TrimSpace(cfg.WebhookNotificationURL),
		logger:          logg,
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"square_env":      env,
		"square_location": c.locationID,
	}), "square client initialized")
	return c, nil
}

// Environment is "sandbox" or "production".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// NewIdempotencyKey mints a Square idempotency key. Square caps keys at 45
// characters for orders, which a prefix plus a uuid fits.
func (c *Client) NewIdempotencyKey(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = idempotencyKeyPrefix
	}
	return prefix + "-" + uuid.NewString()
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

// trace logs a gateway call before it is sent and returns the closer that
// logs its outcome and latency.
func (c *Client) trace(ctx context.Context, op string, fields map[string]any) func(err error, result map[string]any) {
	if c == nil || c.logger == nil {
		return func(error, map[string]any) {}
	}
	started := time.Now()
	ctx = c.logger.WithFields(ctx, redactFields(fields))
	ctx = c.logger.WithField(ctx, "square_op", op)
	c.logger.Debug(ctx, "square request")

	return func(err error, result map[string]any) {
		done := c.logger.WithField(ctx, "latency_ms", time.Since(started).Milliseconds())
		if err != nil {
			c.logger.Error(done, "square "+op+" failed", err)
			return
		}
		c.logger.Info(c.logger.WithFields(done, redactFields(result)), "square "+op+" ok")
	}
}

var sensitiveKeys = []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func redactFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = redact(k, v)
	}
	return out
}

func normalizeEnv(raw string) (string, error) {
	env := strings.ToLower(strings.TrimSpace(raw))
	if env == "" {
		return sandboxEnv, nil
	}
	if _, ok := baseURLs[env]; !ok {
		return "", fmt.Errorf("square environment must be %q or %q, got %q", sandboxEnv, productionEnv, raw)
	}
	return env, nil
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
