package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/internal/cache"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := cache.NewTTLCache(time.Minute, 8)

	c.Set("latency", 123.4)

	v, ok := c.Get("latency")
	require.True(t, ok)
	assert.Equal(t, 123.4, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := cache.NewTTLCache(10*time.Millisecond, 8)

	c.Set("latency", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("latency")
	assert.False(t, ok)
	assert.Zero(t, c.Len(), "expired entry is removed on read")
}

func TestTTLCache_CapacityEviction(t *testing.T) {
	c := cache.NewTTLCache(time.Minute, 4)

	for i := 0; i < 6; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	assert.LessOrEqual(t, c.Len(), 4)

	// The most recent entry always survives eviction.
	_, ok := c.Get("k5")
	assert.True(t, ok)
}

func TestTTLCache_OverwriteDoesNotEvict(t *testing.T) {
	c := cache.NewTTLCache(time.Minute, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestTTLCache_Clear(t *testing.T) {
	c := cache.NewTTLCache(time.Minute, 8)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	assert.Zero(t, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
