package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTrip(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// Keys carry the bucket separator; they must survive the path escaping.
	key := "margin_sh|exchange=sh|20260828"
	require.NoError(t, fc.Set(ctx, key, []byte(`{"rows":[]}`)))

	got, err := fc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"rows":[]}`, string(got))

	ok, err := fc.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileCacheMiss(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	_, err = fc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFileCacheKeysByPrefix(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fc.Set(ctx, "activity|-|2026082810", []byte("a")))
	require.NoError(t, fc.Set(ctx, "activity|-|2026082811", []byte("b")))
	require.NoError(t, fc.Set(ctx, "congestion|-|20260828", []byte("c")))

	keys, err := fc.Keys(ctx, "activity|")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	all, err := fc.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileCacheDelete(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fc.Set(ctx, "k1", []byte("v")))
	require.NoError(t, fc.Delete(ctx, "k1", "never-existed"))

	_, err = fc.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLayeredCacheReadsThroughToPersistent(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// Entry written by a previous process exists only in the persistent tier.
	require.NoError(t, fc.Set(ctx, "base|index_daily_sh", []byte("series")))

	lc := NewLayeredCache(fc)
	got, err := lc.Get(ctx, "base|index_daily_sh")
	require.NoError(t, err)
	assert.Equal(t, "series", string(got))
}
