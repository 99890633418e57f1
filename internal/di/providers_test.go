package di

import (
	"testing"
	"time"

	"FXRisk/pkg/cache"
	"FXRisk/pkg/config"

	"github.com/stretchr/testify/assert"
)

func applyRedis(opts []cache.RedisOption) cache.RedisConfig {
	var rc cache.RedisConfig
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

func TestRedisOptionsCarryPool(t *testing.T) {
	cfg := config.Defaults()
	cfg.Redis.Host = "redis.internal"
	cfg.Redis.DB = 3
	cfg.Redis.Pool.Size = 32
	cfg.Redis.Pool.MinIdle = 8
	cfg.Redis.Pool.WaitTimeout = 750 * time.Millisecond

	rc := applyRedis(redisOptions(cfg))
	assert.Equal(t, "redis.internal", rc.Host)
	assert.Equal(t, 6379, rc.Port)
	assert.Equal(t, 3, rc.DB)
	assert.Equal(t, "fxrisk", rc.Prefix)
	assert.Equal(t, 32, rc.PoolSize)
	assert.Equal(t, 8, rc.MinIdleConns)
	assert.Equal(t, 750*time.Millisecond, rc.PoolTimeout)
}

func TestRedisOptionsKeepClientPoolDefaults(t *testing.T) {
	cfg := config.Defaults()
	cfg.Redis.Pool.Size = 0

	rc := applyRedis(redisOptions(cfg))
	assert.Zero(t, rc.PoolSize)
	assert.Zero(t, rc.PoolTimeout)
}
