// Package redis implements the OAuth state store over Redis. States are
// single-use: consumption is a GETDEL, so two racing callbacks resolve to one
// winner without any locking.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakward/identity/internal/auth"
)

const statePrefix = "oauth:state:"

// StateStore implements auth.StateStore.
type StateStore struct {
	client redis.UniversalClient
}

// NewStateStore creates the state store.
func NewStateStore(client redis.UniversalClient) *StateStore {
	return &StateStore{client: client}
}

// StoreState records the state with its TTL; the value is the provider name
// so the callback can verify the state belongs to the requested provider.
func (s *StateStore) StoreState(ctx context.Context, state, providerName string, ttl time.Duration) error {
	if err := s.client.Set(ctx, statePrefix+state, providerName, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// ConsumeState atomically reads and deletes the state. A miss (never stored,
// expired, or already consumed) is ErrInvalidState.
func (s *StateStore) ConsumeState(ctx context.Context, state string) (string, error) {
	providerName, err := s.client.GetDel(ctx, statePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrInvalidState
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return providerName, nil
}

var _ auth.StateStore = (*StateStore)(nil)
