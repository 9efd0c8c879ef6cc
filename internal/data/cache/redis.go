package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// MaxMemory and Policy are applied with CONFIG SET on connect.
	MaxMemory string `yaml:"max_memory"`
	Policy    string `yaml:"policy"`
	// TTL of zero keeps entries until evicted or invalidated.
	TTL time.Duration `yaml:"ttl"`
}

const (
	DefaultMaxMemory = "512mb"
	DefaultPolicy    = "allkeys-lru"
)

type redisCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisCache(ctx context.Context, cfg RedisConfig, log *logger.Logger) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := &redisCache{rdb: rdb, ttl: cfg.TTL, log: log.With("cache", "RedisCache")}
	c.configureEviction(ctx, cfg)
	return c, nil
}

// configureEviction is best-effort: managed Redis often refuses CONFIG.
func (c *redisCache) configureEviction(ctx context.Context, cfg RedisConfig) {
	maxMemory := strings.TrimSpace(cfg.MaxMemory)
	if maxMemory == "" {
		maxMemory = DefaultMaxMemory
	}
	policy := strings.TrimSpace(cfg.Policy)
	if policy == "" {
		policy = DefaultPolicy
	}
	if err := c.rdb.ConfigSet(ctx, "maxmemory", maxMemory).Err(); err != nil {
		c.log.Warn("redis maxmemory not applied (continuing)", "error", err)
		return
	}
	if err := c.rdb.ConfigSet(ctx, "maxmemory-policy", policy).Err(); err != nil {
		c.log.Warn("redis eviction policy not applied (continuing)", "error", err)
		return
	}
	c.log.Info("redis eviction configured", "maxmemory", maxMemory, "policy", policy)
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, key, value, c.ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
