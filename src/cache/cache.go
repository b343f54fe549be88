// Package cache keeps analytics summaries behind a minutes-scale staleness
// window with explicit invalidation on mutation. Redis backs it when
// REDIS_ADDR is set; otherwise a no-op cache keeps the service standalone.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

type Config struct {
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"5m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Cache is the summary cache consumed by the analytics handler.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// SummaryKey names the cached analytics summary of one account.
func SummaryKey(userID, accountID uint) string {
	return fmt.Sprintf("analytics:summary:%d:%d", userID, accountID)
}

// NewFromConfig returns a Redis-backed cache, or the no-op cache when no
// Redis address is configured.
func NewFromConfig(config Config) Cache {
	if config.RedisAddr == "" {
		logger.Info("[cache] REDIS_ADDR not set, analytics cache disabled")
		return Noop{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	logger.WithField("addr", config.RedisAddr).Info("[cache] Redis cache enabled")

	return &RedisCache{client: client, ttl: config.TTL}
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}

	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Noop satisfies Cache with cache-miss semantics.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (Noop) Set(ctx context.Context, key string, value interface{}) error {
	return nil
}

func (Noop) Delete(ctx context.Context, keys ...string) error {
	return nil
}
