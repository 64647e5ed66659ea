package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.True(t, mr.Exists("ordertrack:k"))

	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_Delete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "missing"))
	require.NoError(t, c.Delete(ctx))

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_ErrorWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), "k", nil, time.Minute))
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)

	mr.FastForward(61 * time.Second)
	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}
