package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/broseidonlordofthebrocean/hedge/internal/config"
)

func TestMemory_SetGetRoundTrip(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "key", []byte("value"), time.Minute)
	got, ok := c.Get(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), got)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	c.Set(ctx, "key", []byte("value"), 0)

	got, ok := c.Get(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), got)
}

func TestMemory_ExpiredEntryIsAMiss(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	c.Set(ctx, "key", []byte("value"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestMemory_SetCopiesValue(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	v := []byte("value")
	c.Set(ctx, "key", v, time.Minute)
	v[0] = 'X'

	got, _ := c.Get(ctx, "key")
	assert.Equal(t, []byte("value"), got)
}

func TestNew_FallsBackToMemoryWithNoAddr(t *testing.T) {
	backend := New(config.CacheConfig{})
	_, ok := backend.(*Memory)
	assert.True(t, ok)
}

func TestNew_PicksRedisWhenAddrConfigured(t *testing.T) {
	backend := New(config.CacheConfig{Addr: "localhost:6379"})
	_, ok := backend.(*Redis)
	assert.True(t, ok)
}
