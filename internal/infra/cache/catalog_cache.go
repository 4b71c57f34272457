// Package cache implements the Redis-backed catalog cache.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"coursehub/config"
	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/service"
)

const (
	publishedKey = "catalog:published"
	defaultTTL   = 5 * time.Minute
)

type redisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisCatalogCache) GetPublished(ctx context.Context) ([]*entity.Course, error) {
	raw, err := c.client.Get(ctx, publishedKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog cache")
	}

	var courses []*entity.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, errors.Wrap(err, "failed to decode cached catalog")
	}

	return courses, nil
}

func (c *redisCatalogCache) SetPublished(ctx context.Context, courses []*entity.Course) error {
	raw, err := json.Marshal(courses)
	if err != nil {
		return errors.Wrap(err, "failed to encode catalog")
	}

	if err := c.client.Set(ctx, publishedKey, raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write catalog cache")
	}

	return nil
}

func (c *redisCatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, publishedKey).Err(); err != nil {
		return errors.Wrap(err, "failed to invalidate catalog cache")
	}

	return nil
}

// noopCatalogCache always misses, so every read hits the database.
type noopCatalogCache struct{}

func (noopCatalogCache) GetPublished(_ context.Context) ([]*entity.Course, error) { return nil, nil }

func (noopCatalogCache) SetPublished(_ context.Context, _ []*entity.Course) error { return nil }

func (noopCatalogCache) Invalidate(_ context.Context) error { return nil }

// CacheParams holds dependencies for CatalogCache, injected by Fx
type CacheParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewCatalogCache creates a Redis-backed cache, or a no-op cache when
// Redis is not configured.
func NewCatalogCache(params CacheParams) service.CatalogCache {
	cfg := params.Config.Redis
	logger := params.Logger

	if cfg == nil || cfg.Addr == "" {
		logger.Info("Redis not configured, catalog cache disabled")

		return noopCatalogCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	logger.Info("Using Redis catalog cache", slog.String("addr", cfg.Addr))

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing Redis client")

			return client.Close()
		},
	})

	return &redisCatalogCache{client: client, ttl: ttl}
}
