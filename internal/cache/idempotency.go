package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BruksfildServices01/meeting-sync/internal/meetingprovider"
)

const (
	keyPrefix  = "meeting-sync:idem:"
	defaultTTL = 24 * time.Hour
)

// IdempotencyCache guarda respostas de criação de reunião por chave de
// idempotência, para que um webhook reenviado após rollback reaproveite a
// reunião já criada no provedor. Um *IdempotencyCache nil é um cache vazio.
type IdempotencyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyCache(rdb *redis.Client, ttl time.Duration) *IdempotencyCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &IdempotencyCache{rdb: rdb, ttl: ttl}
}

func NewRedisClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func (c *IdempotencyCache) GetMeeting(ctx context.Context, key string) (*meetingprovider.Meeting, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency get: %w", err)
	}

	var m meetingprovider.Meeting
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return &m, true, nil
}

func (c *IdempotencyCache) PutMeeting(ctx context.Context, key string, m *meetingprovider.Meeting) error {
	if c == nil || m == nil {
		return nil
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency set: %w", err)
	}
	return nil
}
