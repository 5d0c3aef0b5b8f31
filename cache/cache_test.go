package cache

import (
	"context"
	"testing"
	"time"

	"Playshare/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTagCache_SetGet(t *testing.T) {
	_, client := newRedis(t)
	c := NewTagCache(client, time.Minute)
	ctx := context.Background()

	_, _, ok, err := c.Get(ctx, "ro")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, 0, "ro", []model.Tag{{ID: 1, Name: "Rock"}}))

	tags, _, ok, err := c.Get(ctx, " RO ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, "Rock", tags[0].Name)
	assert.Equal(t, int64(1), tags[0].ID)
}

func TestTagCache_EmptyResultIsCached(t *testing.T) {
	_, client := newRedis(t)
	c := NewTagCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, "zz", nil))

	tags, _, ok, err := c.Get(ctx, "zz")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, tags)
}

func TestTagCache_Invalidate(t *testing.T) {
	_, client := newRedis(t)
	c := NewTagCache(client, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 0, "", []model.Tag{{ID: 1, Name: "Rock"}}))

	require.NoError(t, c.Invalidate(ctx))

	_, _, ok, err := c.Get(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTagCache_SetAfterInvalidateIsNotServed(t *testing.T) {
	_, client := newRedis(t)
	c := NewTagCache(client, time.Minute)
	ctx := context.Background()

	_, version, ok, err := c.Get(ctx, "ro")
	require.NoError(t, err)
	require.False(t, ok)

	// A tag is created while the miss is being loaded from the database.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, version, "ro", []model.Tag{{ID: 1, Name: "Rock"}}))

	_, current, ok, err := c.Get(ctx, "ro")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, version+1, current)
}

func TestTagCache_Expires(t *testing.T) {
	mr, client := newRedis(t)
	c := NewTagCache(client, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 0, "ro", []model.Tag{{ID: 1, Name: "Rock"}}))

	mr.FastForward(2 * time.Minute)

	_, _, ok, err := c.Get(ctx, "ro")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTagCache_Disabled(t *testing.T) {
	mr, client := newRedis(t)
	c := NewTagCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, "ro", []model.Tag{{ID: 1, Name: "Rock"}}))
	_, _, ok, err := c.Get(ctx, "ro")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, mr.Keys())
}

func TestTagCache_RedisDown(t *testing.T) {
	mr, client := newRedis(t)
	c := NewTagCache(client, time.Minute)
	mr.Close()

	_, _, _, err := c.Get(context.Background(), "ro")
	assert.Error(t, err)
}

func TestTokenStore(t *testing.T) {
	mr, client := newRedis(t)
	s := NewTokenStore(client)
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "abc", time.Hour))
	revoked, err = s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenStore_ExpiredTokenNotStored(t *testing.T) {
	mr, client := newRedis(t)
	s := NewTokenStore(client)

	require.NoError(t, s.Revoke(context.Background(), "old", 0))
	assert.Empty(t, mr.Keys())
}
