// Package cache is the cache-aside side channel in front of the record
// store. It is never the source of truth: a miss, an eviction or a backend
// error all fall through to the store.
//
// Writers invalidate after the store commits, so a concurrent reader can
// observe the pre-write value until the delete lands. Callers that need
// read-after-write consistency pass a transaction in dbctx.Context, which
// bypasses the cache on read.
package cache

import (
	"context"
	"strconv"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key returns "<entity>:<id>".
func Key(entity string, id int64) string {
	return entity + ":" + strconv.FormatInt(id, 10)
}

// AllKey returns "<entity>:all", the collection key.
func AllKey(entity string) string {
	return entity + ":all"
}
