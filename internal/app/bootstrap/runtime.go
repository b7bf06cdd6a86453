package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/bentacars/qualifier/internal/config"
	"github.com/bentacars/qualifier/internal/memory"
	"github.com/bentacars/qualifier/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, slot memory disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildMemoryStore returns the Redis slot store, or nil without a client.
func BuildMemoryStore(client *redis.Client, cfg *appconfig.Config) memory.Store {
	if client == nil {
		return nil
	}
	ttl := memory.DefaultTTL
	if cfg != nil && cfg.MemoryTTL > 0 {
		ttl = cfg.MemoryTTL
	}
	return memory.NewRedisStore(client, ttl, nil)
}
