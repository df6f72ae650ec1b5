package cache

import (
	"context"
	"testing"
)

func TestNilCacheIsSafe(t *testing.T) {
	var c *TagCache
	ctx := context.Background()

	if tags, ok := c.Get(ctx, "http://img/1.jpg"); ok || tags != nil {
		t.Fatalf("nil cache hit: %v %v", tags, ok)
	}
	// must not panic
	c.Set(ctx, "http://img/1.jpg", []string{"pool"})
}
