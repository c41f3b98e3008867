package cart

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/freshbox/freshbox-backend/pkg/redis"
)

// Store persists cart states by cart id.
type Store interface {
	Load(ctx context.Context, cartID string) (State, error)
	Save(ctx context.Context, cartID string, state State) error
	Delete(ctx context.Context, cartID string) error
}

// RedisStore keeps guest carts in Redis with a sliding TTL.
type RedisStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisStore builds a store that expires idle carts after ttl.
func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, cartID string) (State, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(cartID))
	if err != nil {
		if redisclient.IsNil(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load cart: %w", err)
	}
	return Unmarshal([]byte(raw))
}

func (s *RedisStore) Save(ctx context.Context, cartID string, state State) error {
	if state.IsEmpty() && state.DiscountCode == nil {
		return s.Delete(ctx, cartID)
	}
	payload, err := Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.client.CartKey(cartID), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(cartID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
