package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type eventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	StripeEventKey(eventID string) string
}

// IdempotencyGuard remembers processed payment event ids so provider retries
// are acknowledged without being applied twice.
type IdempotencyGuard struct {
	store eventStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store eventStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark claims eventID and reports whether it was already claimed.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.StripeEventKey(eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set event key: %w", err)
	}
	return !set, nil
}

// Delete releases eventID so a failed delivery can be retried.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.StripeEventKey(eventID))
}
