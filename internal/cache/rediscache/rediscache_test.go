package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "report:acme", []byte("v"), time.Minute))
	require.True(t, mr.Exists("scorebox:report:acme"))

	b, ok, err := c.Get(ctx, "report:acme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	require.NoError(t, c.Delete(ctx, "report:acme"))
	_, ok, err = c.Get(ctx, "report:acme")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Delete(ctx))
}

func TestRedisCache_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.ErrorContains(t, err, "redis get")
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())
	t.Cleanup(func() { _ = rl.Close() })

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "client:1", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "client:1", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "client:1", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)

	// другое окно после истечения TTL
	mr.FastForward(time.Minute + time.Second)
	ok, n, _ = rl.Allow(ctx, "client:1", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}

func TestRateLimiter_Disabled(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())

	ok, n, err := rl.Allow(context.Background(), "client:1", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, n)
}
