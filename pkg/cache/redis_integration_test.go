//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GRAPHCP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GRAPHCP_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	key := NewScopedKeyer(nil, "graphcp:test:").ArtifactKey(Hash([]byte(t.Name())), ArtifactKeyOpts{Format: "png"})
	t.Cleanup(func() { c.Delete(context.Background(), key) })

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get before Set = hit %v, err %v; want miss", hit, err)
	}
	if err := c.Set(ctx, key, []byte("png-bytes"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "png-bytes" {
		t.Fatalf("Get = (%q, %v, %v), want png-bytes hit", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}
