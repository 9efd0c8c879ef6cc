package cache

import (
	"context"
	"encoding/json"

	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

// Aside runs the read-through and invalidate halves of cache-aside over a
// Cache. Backend failures are logged and never returned.
type Aside struct {
	c   Cache
	log *logger.Logger
}

func NewAside(c Cache, log *logger.Logger) *Aside {
	return &Aside{c: c, log: log.With("component", "CacheAside")}
}

// Load returns the cached value at key, or calls loader on a miss and
// caches its result when found is true.
func Load[T any](ctx context.Context, a *Aside, key string, loader func() (T, bool, error)) (T, bool, error) {
	if a != nil && a.c != nil {
		raw, hit, err := a.c.Get(ctx, key)
		if err != nil {
			a.log.Warn("cache get failed, reading store", "key", key, "error", err)
		} else if hit {
			var v T
			decodeErr := json.Unmarshal(raw, &v)
			if decodeErr == nil {
				a.log.Debug("cache hit", "key", key)
				return v, true, nil
			}
			a.log.Warn("cache decode failed, reading store", "key", key, "error", decodeErr)
		}
	}

	v, found, err := loader()
	if err != nil || !found {
		return v, found, err
	}
	if a != nil && a.c != nil {
		a.log.Debug("cache miss", "key", key)
		raw, err := json.Marshal(v)
		if err != nil {
			a.log.Warn("cache encode failed", "key", key, "error", err)
			return v, true, nil
		}
		if err := a.c.Set(ctx, key, raw); err != nil {
			a.log.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return v, true, nil
}

// Invalidate deletes keys. Errors are logged: a stale entry outlives the
// write until evicted, which the weak consistency contract already allows.
func (a *Aside) Invalidate(ctx context.Context, keys ...string) {
	if a == nil || a.c == nil || len(keys) == 0 {
		return
	}
	if err := a.c.Delete(ctx, keys...); err != nil {
		a.log.Error("cache invalidation failed", "keys", keys, "error", err)
	}
}
