package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *UnreadCounts) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewUnreadCounts(rdb, ttl)
}

func TestUnreadCounts(t *testing.T) {
	mr, c := newCache(t, 30*time.Second)
	ctx := context.Background()
	user := uuid.New()

	_, ok, version, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, version)

	require.NoError(t, c.Set(ctx, user, 7, version))
	n, ok, _, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, 30*time.Second, mr.TTL(unreadKey(user)))

	require.NoError(t, c.Invalidate(ctx, user))
	_, ok, version, err = c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, version)

	require.NoError(t, c.Set(ctx, user, 1, version))
	mr.FastForward(time.Minute)
	_, ok, _, err = c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetAfterInvalidateIsDropped(t *testing.T) {
	_, c := newCache(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	_, _, seen, err := c.Get(ctx, user)
	require.NoError(t, err)

	// a writer lands between the reader's Get and its Set
	require.NoError(t, c.Invalidate(ctx, user))
	require.NoError(t, c.Set(ctx, user, 3, seen))

	_, ok, current, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, user, 4, current))
	n, ok, _, err := c.Get(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 4, n)
}

func TestUnreadCountsGarbageIsMiss(t *testing.T) {
	mr, c := newCache(t, time.Minute)
	user := uuid.New()
	require.NoError(t, mr.Set(unreadKey(user), "not-a-number"))

	_, ok, _, err := c.Get(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, ok)
}
