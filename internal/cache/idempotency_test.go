package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/meeting-sync/internal/meetingprovider"
)

func newTestCache(t *testing.T) (*IdempotencyCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewIdempotencyCache(rdb, time.Hour), mr
}

func TestIdempotencyCache_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetMeeting(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutMeeting(ctx, "k1", &meetingprovider.Meeting{ID: 77, Topic: "Appointment with jane"}))

	m, ok, err := c.GetMeeting(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(77), m.ID)

	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"k1"))
}

func TestIdempotencyCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutMeeting(ctx, "k1", &meetingprovider.Meeting{ID: 1}))
	mr.FastForward(2 * time.Hour)

	_, ok, err := c.GetMeeting(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdempotencyCache_NilIsNoop(t *testing.T) {
	var c *IdempotencyCache

	require.NoError(t, c.PutMeeting(context.Background(), "k", &meetingprovider.Meeting{ID: 1}))
	_, ok, err := c.GetMeeting(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Nil(t, NewIdempotencyCache(nil, time.Minute))
	assert.Nil(t, NewRedisClient("", ""))
}

func TestIdempotencyCache_RedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, _, err := c.GetMeeting(context.Background(), "k")
	assert.Error(t, err)
}
