package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/models"
)

// ForecastCache keeps computed forecast snapshots in Redis, keyed by the
// table snapshot version. The forecast is deterministic per snapshot, so
// a hit is always valid; entries for superseded snapshots simply age out.
// A nil *ForecastCache is a no-op, so callers need no nil checks beyond
// construction.
type ForecastCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to Redis. Returns nil if Redis is not
// configured (host is empty).
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewForecastCache wraps a Redis client. Returns nil when client is nil.
func NewForecastCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ForecastCache {
	if client == nil {
		return nil
	}
	return &ForecastCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("forecast-cache"),
	}
}

func forecastKey(snapshotVersion string) string {
	return "forecast:" + snapshotVersion
}

// Get returns the cached forecast for a snapshot version, or nil on miss.
// Cache errors degrade to a miss; the forecast is recomputable.
func (c *ForecastCache) Get(ctx context.Context, snapshotVersion string) []models.ForecastRecord {
	if c == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, forecastKey(snapshotVersion)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("forecast cache read failed", zap.Error(err))
		}
		return nil
	}

	var records []models.ForecastRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Warn("forecast cache entry corrupt, ignoring", zap.Error(err))
		return nil
	}
	return records
}

// Put stores the forecast for a snapshot version.
func (c *ForecastCache) Put(ctx context.Context, snapshotVersion string, records []models.ForecastRecord) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("forecast cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, forecastKey(snapshotVersion), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("forecast cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached forecast for a snapshot version.
func (c *ForecastCache) Invalidate(ctx context.Context, snapshotVersion string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, forecastKey(snapshotVersion)).Err(); err != nil {
		c.logger.Warn("forecast cache invalidation failed", zap.Error(err))
	}
}
