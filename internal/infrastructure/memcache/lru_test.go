package memcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/avatarctic/headless-gateway/internal/infrastructure/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_ExpiresByTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := memcache.MustNewLRU(8, memcache.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_StoresCopy(t *testing.T) {
	c := memcache.MustNewLRU(8)
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestLRU_ZeroTTLNotStored(t *testing.T) {
	c := memcache.MustNewLRU(8)
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 0, c.Len())
}

func TestLRU_NonPositiveSizeUsesDefault(t *testing.T) {
	for _, size := range []int{0, -1} {
		var c *memcache.LRU
		require.NotPanics(t, func() { c = memcache.MustNewLRU(size) })
		require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
		assert.Equal(t, 1, c.Len())
	}
}
