package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/investcalc/calc-engine/internal/model"
)

// RedisStore keeps the quote in Redis so that several server instances
// resolve and serve the same rate. The quote is written as a single JSON
// value, so readers see either the old or the new quote.
//
// Upstream quotes expire from Redis after ttl; freshness is still decided by
// the caller from ResolvedAt. Manual quotes are written without expiry.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed store for the base/quote pair.
func NewRedisStore(rdb *redis.Client, base, quote string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: quoteKey(base, quote),
		ttl: ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context) (model.Quote, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Quote{}, ErrNotFound
	}
	if err != nil {
		return model.Quote{}, fmt.Errorf("load quote %s: %w", s.key, err)
	}

	var q model.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		// A corrupt entry is treated as absent so the next refresh overwrites it.
		return model.Quote{}, ErrNotFound
	}
	return q, nil
}

func (s *RedisStore) Save(ctx context.Context, q model.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}

	ttl := s.ttl
	if q.IsManual() {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save quote %s: %w", s.key, err)
	}
	return nil
}

func quoteKey(base, quote string) string { return fmt.Sprintf("fx:quote:%s:%s", base, quote) }
