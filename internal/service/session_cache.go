package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SessionCache mirrors in-progress session state so an interrupted session
// can be resumed. Save is cheap from the caller's perspective; Load
// self-heals stale or corrupt snapshots by clearing them.
type SessionCache interface {
	Save(ctx context.Context, session *model.Session) error
	Load(ctx context.Context, id string) (*model.Session, error)
	Clear(ctx context.Context, id string) error
}

const (
	sessionCacheKeyPrefix = "bespoke:session:"

	// Abandoned snapshots expire on their own; an active session refreshes
	// the TTL on every save.
	sessionCacheTTL = 7 * 24 * time.Hour
)

// RedisSessionCache is the production snapshot slot, one JSON blob per
// session id.
type RedisSessionCache struct {
	rdb *redis.Client
}

func NewRedisSessionCache(rdb *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{rdb: rdb}
}

func (c *RedisSessionCache) Save(ctx context.Context, session *model.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, sessionCacheKeyPrefix+session.ID, payload, sessionCacheTTL).Err()
}

// Load returns nil (no error) when no usable snapshot exists. A snapshot
// that fails to parse or represents an already-completed session is cleared
// and never resurrected.
func (c *RedisSessionCache) Load(ctx context.Context, id string) (*model.Session, error) {
	payload, err := c.rdb.Get(ctx, sessionCacheKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		logger.Log.Warn("Clearing corrupt session snapshot", zap.String("session_id", id), zap.Error(err))
		c.Clear(ctx, id)
		return nil, nil
	}

	if session.Status == model.StatusCompleted {
		c.Clear(ctx, id)
		return nil, nil
	}

	return &session, nil
}

func (c *RedisSessionCache) Clear(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, sessionCacheKeyPrefix+id).Err()
}
