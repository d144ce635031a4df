package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
}

func TestJSONCacheFetchAndBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewJSONCache(client, "test", time.Minute)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return doc{Name: "acme"}, nil
	}

	key, err := c.BuildKey(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "test:settings:1", key)

	var got doc
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Bump(ctx))
	key, err = c.BuildKey(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "test:settings:2", key)
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, 2, calls)
}

func TestJSONCacheWithoutClientCallsLoader(t *testing.T) {
	c := NewJSONCache(nil, "test", time.Minute)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "test:settings", key)

	var got doc
	require.NoError(t, c.FetchJSON(ctx, key, &got, func(context.Context) (any, error) {
		return doc{Name: "direct"}, nil
	}))
	assert.Equal(t, "direct", got.Name)

	boom := errors.New("boom")
	err = c.FetchJSON(ctx, key, &got, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, c.Bump(ctx))
}

func TestOptions(t *testing.T) {
	opts, err := Options("127.0.0.1:6379")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = Options("redis://:s3cret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "s3cret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = Options("redis://cache.internal:6380/notanumber")
	assert.Error(t, err)
}

func TestNewFailsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), addr)
	assert.ErrorContains(t, err, "platform/cache: ping")
}
