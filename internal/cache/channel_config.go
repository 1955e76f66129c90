// Package cache holds the Redis-backed read cache for per-theater channel
// configuration. Channel claims check the config on every call, and the
// config only changes by administrative action, so a short TTL keeps the
// claim path off the database without serving stale flags for long.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/showsewa/seat-inventory/internal/domain"
)

const configTTL = 30 * time.Second

// sentinel cached for theaters without a config row, so repeated claims for
// an un-onboarded theater don't stampede the database either.
const missingMarker = "__missing__"

type ChannelConfigCache struct {
	repo   domain.ChannelConfigRepository
	redis  redis.UniversalClient
	logger *slog.Logger
}

func NewChannelConfigCache(
	repo domain.ChannelConfigRepository,
	client redis.UniversalClient,
	logger *slog.Logger) *ChannelConfigCache {

	return &ChannelConfigCache{
		repo:   repo,
		redis:  client,
		logger: logger,
	}
}

// Get returns the theater's channel config, serving from Redis within the
// TTL and falling through to the repository on a miss. Cache failures
// degrade to the repository; they never fail a claim.
func (c *ChannelConfigCache) Get(ctx context.Context, theaterID int64) (*domain.TheaterChannelConfig, error) {
	if c.redis != nil {
		cached, err := c.redis.Get(ctx, configKey(theaterID)).Bytes()
		if err == nil {
			if string(cached) == missingMarker {
				return nil, domain.ErrRecordNotFound
			}

			var config domain.TheaterChannelConfig
			if err := json.Unmarshal(cached, &config); err == nil {
				return &config, nil
			}

			c.logger.Warn("discarding malformed cached channel config", "theater_id", theaterID)
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("channel config cache read failed", "theater_id", theaterID, "error", err)
		}
	}

	config, err := c.repo.Get(ctx, theaterID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.store(ctx, theaterID, []byte(missingMarker))
		}

		return nil, err
	}

	if payload, err := json.Marshal(config); err == nil {
		c.store(ctx, theaterID, payload)
	}

	return config, nil
}

// Invalidate drops the cached entry after an administrative update so the
// new flags take effect immediately rather than after the TTL.
func (c *ChannelConfigCache) Invalidate(ctx context.Context, theaterID int64) {
	if c.redis == nil {
		return
	}

	if err := c.redis.Del(ctx, configKey(theaterID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate channel config cache", "theater_id", theaterID, "error", err)
	}
}

func (c *ChannelConfigCache) store(ctx context.Context, theaterID int64, payload []byte) {
	if c.redis == nil {
		return
	}

	if err := c.redis.Set(ctx, configKey(theaterID), payload, configTTL).Err(); err != nil {
		c.logger.Warn("failed to cache channel config", "theater_id", theaterID, "error", err)
	}
}

func configKey(theaterID int64) string {
	return fmt.Sprintf("channel_config:%d", theaterID)
}
