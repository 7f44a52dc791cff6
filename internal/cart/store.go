package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/lapzone/lapzone-backend/pkg/config"
	redisclient "github.com/lapzone/lapzone-backend/pkg/redis"
)

type cartSlotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type cartKeyer interface {
	CartKey(sessionID string) string
}

// RedisStore persists cart snapshots as JSON in per-session Redis slots.
// Prices travel as quoted decimal strings, so the snapshot survives the
// round trip without losing a cent.
type RedisStore struct {
	store cartSlotStore
	keyer cartKeyer
	ttl   time.Duration
}

// NewRedisStore builds the store backed by the shared Redis client.
func NewRedisStore(client *redisclient.Client, cfg config.CartConfig) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("cart session ttl must be positive")
	}
	return &RedisStore{store: client, keyer: client, ttl: cfg.SessionTTL}, nil
}

// Load returns the decoded snapshot, or nil when no slot exists.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (map[string]Line, error) {
	raw, err := s.store.Get(ctx, s.keyer.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart slot: %w", err)
	}

	var lines map[string]Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart slot: %w", err)
	}
	return lines, nil
}

// Save encodes and writes the snapshot, refreshing the slot TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, lines map[string]Line) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart slot: %w", err)
	}
	if err := s.store.Set(ctx, s.keyer.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart slot: %w", err)
	}
	return nil
}

// Delete removes the session slot entirely.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, s.keyer.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart slot: %w", err)
	}
	return nil
}
