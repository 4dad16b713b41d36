package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*JSON, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSON(client, "test:", time.Minute), mr
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []int64{1, 2}))
	assert.True(t, mr.Exists("test:a"))

	var got []int64
	ok, err := c.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{1, 2}, got)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONDeleteAndFlush(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	for _, k := range []string{"1", "2", "3"} {
		require.NoError(t, c.Set(ctx, k, k))
	}
	require.NoError(t, mr.Set("other:1", "keep"))

	n, err := c.Delete(ctx, "1", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("other:1"))
}

func TestNilClientAlwaysMisses(t *testing.T) {
	c := NewJSON(nil, "x:", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1))
	var v int
	ok, err := c.Get(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountersSurviveFlush(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	counters := c.Counters("test-version:")

	n, err := counters.Get(ctx, "role:1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = counters.Incr(ctx, "role:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, c.Set(ctx, "a", 1))

	_, err = c.Flush(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test-version:role:1"))
	n, err = counters.Get(ctx, "role:1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var nilCache *JSON
	n, err = nilCache.Counters("x:").Incr(ctx, "role:1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
