package cache

import (
	"context"
	"testing"
	"time"

	"github.com/practicedesk/billing/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCacheAddIsSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig())

	assert.True(t, c.Add(ctx, "k", 1, time.Minute))
	assert.False(t, c.Add(ctx, "k", 2, time.Minute))

	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestInMemoryCacheDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg)

	c.Set(ctx, "k", 1, time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	// forced access and Add bypass the flag
	c.ForceCacheSet(ctx, "forced", 2, time.Minute)
	v, ok := c.ForceCacheGet(ctx, "forced")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.True(t, c.Add(ctx, "added", 3, time.Minute))
}

func TestDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig())

	c.Set(ctx, GenerateKey(PrefixNotificationKey, "a"), 1, time.Minute)
	c.Set(ctx, GenerateKey(PrefixNotificationKey, "b"), 1, time.Minute)
	c.Set(ctx, GenerateKey(PrefixNotificationDay, "all"), 1, time.Minute)

	c.DeleteByPrefix(ctx, PrefixNotificationKey)

	_, ok := c.Get(ctx, GenerateKey(PrefixNotificationKey, "a"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixNotificationDay, "all"))
	assert.True(t, ok)
}
