package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

func TestKeys(t *testing.T) {
	if got := Key("report", 42); got != "report:42" {
		t.Fatalf("Key: got %q", got)
	}
	if got := AllKey("report"); got != "report:all" {
		t.Fatalf("AllKey: got %q", got)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2, logger.NewNop())
	if err != nil {
		t.Fatalf("NewMemoryCache: %v", err)
	}
	defer c.Close()

	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a present")
	}
	_ = c.Set(ctx, "c", []byte("3"))

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Fatalf("expected b evicted as least recently used")
	}
	if v, ok, _ := c.Get(ctx, "a"); !ok || string(v) != "1" {
		t.Fatalf("expected a retained, got %q %v", v, ok)
	}

	_ = c.Delete(ctx, "a", "c")
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expected a deleted")
	}
}

type failingCache struct {
	getErr, setErr, delErr error
	sets                   int
}

func (f *failingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.getErr }
func (f *failingCache) Set(context.Context, string, []byte) error {
	f.sets++
	return f.setErr
}
func (f *failingCache) Delete(context.Context, ...string) error { return f.delErr }
func (f *failingCache) Close() error                            { return nil }

func TestLoadReadsThroughAndCaches(t *testing.T) {
	ctx := context.Background()
	mem, _ := NewMemoryCache(8, logger.NewNop())
	a := NewAside(mem, logger.NewNop())

	calls := 0
	loader := func() ([]int, bool, error) {
		calls++
		return []int{1, 2}, true, nil
	}
	for i := 0; i < 3; i++ {
		v, found, err := Load(ctx, a, "n:all", loader)
		if err != nil || !found || len(v) != 2 {
			t.Fatalf("Load: %v %v %v", v, found, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	a.Invalidate(ctx, "n:all")
	_, _, _ = Load(ctx, a, "n:all", loader)
	if calls != 2 {
		t.Fatalf("loader should run again after invalidation, calls=%d", calls)
	}
}

func TestLoadDoesNotCacheAbsent(t *testing.T) {
	ctx := context.Background()
	mem, _ := NewMemoryCache(8, logger.NewNop())
	a := NewAside(mem, logger.NewNop())

	_, found, err := Load(ctx, a, "n:1", func() (*int, bool, error) { return nil, false, nil })
	if err != nil || found {
		t.Fatalf("expected absent, got found=%v err=%v", found, err)
	}
	if _, ok, _ := mem.Get(ctx, "n:1"); ok {
		t.Fatalf("absent results must not be cached")
	}
}

func TestLoadToleratesBackendFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend down")
	fc := &failingCache{getErr: boom, setErr: boom, delErr: boom}
	a := NewAside(fc, logger.NewNop())

	v, found, err := Load(ctx, a, "n:1", func() (string, bool, error) { return "x", true, nil })
	if err != nil || !found || v != "x" {
		t.Fatalf("Load should fall through to the loader: %q %v %v", v, found, err)
	}
	if fc.sets != 1 {
		t.Fatalf("expected one set attempt, got %d", fc.sets)
	}
	a.Invalidate(ctx, "n:1")
}

func TestLoadPropagatesLoaderError(t *testing.T) {
	a := NewAside(nil, logger.NewNop())
	boom := errors.New("store down")
	_, _, err := Load(context.Background(), a, "n:1", func() (int, bool, error) { return 0, false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "roadwatch-test:1"
	_ = c.Delete(ctx, key)
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, key, []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, key)
	if err != nil || !ok || string(v) != `{"id":1}` {
		t.Fatalf("Get: %q %v %v", v, ok, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
