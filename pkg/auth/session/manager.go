package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	redisclient "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
)

var (
	ErrAccessIDRequired = errors.New("access id is required")
	ErrNoSession        = errors.New("session not found")
)

// Store is the Redis surface sessions need: plain string keys with a TTL.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager maps a token jti to the user it was issued for. Deleting the key
// revokes the token before its exp.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager keeps sessions exactly as long as the access token they back.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, cfg.Expiry()), nil
}

func newManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Open stores a session for userID and returns the jti to sign into the token.
func (m *Manager) Open(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("open session: user id is required")
	}
	accessID := NewAccessID()
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), userID.String(), m.ttl); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return accessID, nil
}

// Owner returns the user a live session belongs to, or ErrNoSession.
func (m *Manager) Owner(ctx context.Context, accessID string) (uuid.UUID, error) {
	key, err := m.keyFor(accessID)
	if err != nil {
		return uuid.Nil, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return uuid.Nil, ErrNoSession
	case err != nil:
		return uuid.Nil, fmt.Errorf("read session: %w", err)
	}
	owner, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session %s: %w", accessID, err)
	}
	return owner, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, err := m.Owner(ctx, accessID)
	if errors.Is(err, ErrNoSession) {
		return false, nil
	}
	return err == nil, err
}

// Revoke is idempotent; revoking a missing session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.keyFor(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) keyFor(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrAccessIDRequired
	}
	return m.store.AccessSessionKey(accessID), nil
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}
