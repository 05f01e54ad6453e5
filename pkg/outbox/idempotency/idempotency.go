// Package idempotency dedupes at-least-once deliveries: Pub/Sub messages in
// the analytics worker and Square webhook retries in the API.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
)

const defaultTTL = 24 * time.Hour

var ErrInvalidDelivery = errors.New("consumer and delivery id are required")

// Manager claims a delivery id per consumer with SETNX. Claims expire after
// the TTL so the keyspace stays bounded.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager rejects a negative ttl; zero selects a day.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, fmt.Errorf("ttl must be non-negative, got %s", ttl)
	case ttl == 0:
		ttl = defaultTTL
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// CheckAndMarkProcessed returns true for a duplicate. On first sight it
// claims id for consumer and returns false.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, id string) (bool, error) {
	key, err := m.claimKey(consumer, id)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return !claimed, nil
}

// Release drops the claim so the next redelivery is processed again.
func (m *Manager) Release(ctx context.Context, consumer, id string) error {
	key, err := m.claimKey(consumer, id)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) claimKey(consumer, id string) (string, error) {
	consumer, id = strings.TrimSpace(consumer), strings.TrimSpace(id)
	if consumer == "" || id == "" {
		return "", ErrInvalidDelivery
	}
	return m.store.IdempotencyKey("processed:"+consumer, id), nil
}
