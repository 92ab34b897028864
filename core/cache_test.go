package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := NewMemoryCache().WithClock(func() time.Time { return now })

	require.NoError(t, cache.Set(ctx, "mapping", map[string]string{"FTU": "Hanoi"}, time.Minute))

	var got map[string]string
	found, err := cache.Get(ctx, "mapping", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]string{"FTU": "Hanoi"}, got)

	// expired
	now = now.Add(time.Minute)
	found, err = cache.Get(ctx, "mapping", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// invalidated
	require.NoError(t, cache.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, cache.Set(ctx, "b", 2, time.Hour))
	require.NoError(t, cache.Invalidate(ctx, "a"))

	var n int
	found, _ = cache.Get(ctx, "a", &n)
	assert.False(t, found)
	found, _ = cache.Get(ctx, "b", &n)
	assert.True(t, found)
	assert.Equal(t, 2, n)

	// invalidate all
	require.NoError(t, cache.Invalidate(ctx))
	found, _ = cache.Get(ctx, "b", &n)
	assert.False(t, found)
}

func TestMemoryCache_Miss(t *testing.T) {
	var v []string
	found, err := NewMemoryCache().Get(context.Background(), "nope", &v)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestFetchAll(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		wantCalls int
	}{
		{name: "empty", total: 0, size: 10, wantCalls: 1},
		{name: "partial page", total: 7, size: 10, wantCalls: 1},
		{name: "exact multiple", total: 20, size: 10, wantCalls: 3},
		{name: "several pages", total: 25, size: 10, wantCalls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls, seen int
			err := FetchAll(context.Background(), tt.size, func(_ context.Context, p Page) (int, error) {
				calls++
				n := tt.total - p.Offset
				if n > p.Limit {
					n = p.Limit
				}
				if n < 0 {
					n = 0
				}
				seen += n
				return n, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.total, seen)
		})
	}
}
