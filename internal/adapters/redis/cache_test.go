package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "staybook/internal/adapters/redis"
	"staybook/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	in := []domain.Location{{ID: 1, Name: "Paris"}, {ID: 2, Name: "Rome"}}
	require.NoError(t, c.Set(ctx, "locations:all", in, 60))
	assert.True(t, mr.Exists("staybook:locations:all"))

	var out []domain.Location
	ok, err := c.Get(ctx, "locations:all", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, c.Del(ctx, "locations:all"))
	ok, err = c.Get(ctx, "locations:all", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", domain.User{ID: 1, Favorites: domain.Favorites{3}}, 10))
	mr.FastForward(11 * time.Second)

	var u domain.User
	ok, err := c.Get(ctx, "k", &u)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("staybook:bad", "{not json"))

	var u domain.User
	ok, err := c.Get(context.Background(), "bad", &u)
	assert.False(t, ok)
	assert.Error(t, err)
}
