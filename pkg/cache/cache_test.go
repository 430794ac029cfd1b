package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	_, err := mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	time.Sleep(time.Millisecond)
	_, _ = mc.Get(ctx, "a")
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Minute))

	assert.Equal(t, 2, mc.Len())
	_, err := mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	for _, k := range []string{"resp:1:a", "resp:1:b", "resp:2:a"} {
		require.NoError(t, mc.Set(ctx, k, []byte(k), time.Minute))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("resp:1:")))
	assert.Equal(t, 1, mc.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	type payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, SetJSON(ctx, mc, "p", payload{Count: 3}, time.Minute))
	got, err := GetJSON[payload](ctx, mc, "p")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)

	_, err = GetJSON[payload](ctx, Nop{}, "p")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLayeredCacheFillsMemoryFromRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, time.Minute)
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, remote.Delete(ctx, "k"))
	got, err = lc.Get(ctx, "k")
	require.NoError(t, err, "served from L1")
	assert.Equal(t, []byte("v"), got)
}

type failingCache struct {
	Nop
	calls int
}

func (f *failingCache) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	remote := &failingCache{}
	var opened bool
	b := NewBreaker(remote, func(_ string, _, to gobreaker.State) {
		if to == gobreaker.StateOpen {
			opened = true
		}
	}, WithBreakerThreshold(3), WithBreakerTimeout(time.Hour))

	for i := 0; i < 3; i++ {
		_, err := b.Get(ctx, "k")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	}
	assert.True(t, opened)
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 3, remote.calls, "open breaker short-circuits the remote")
	assert.NoError(t, b.Set(ctx, "k", []byte("v"), time.Minute))
}

func TestBreakerTreatsMissAsSuccess(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(Nop{}, nil, WithBreakerThreshold(1))
	for i := 0; i < 5; i++ {
		_, err := b.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrCacheMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestResponseKeySharesGenerationPrefix(t *testing.T) {
	a := ResponseKey("resp", "statistics", 3, "2020-01-01..-")
	b := ResponseKey("resp", "statistics", 3, "2020-01-01..-")
	c := ResponseKey("resp", "statistics", 3, "-..-")
	d := ResponseKey("resp", "statistics", 4, "2020-01-01..-")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, matchPattern(BuildPattern("resp:statistics:3:"), a))
	assert.False(t, matchPattern(BuildPattern("resp:statistics:3:"), d))
}

func TestMemoryCacheSweepsExpired(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(time.Hour))
	defer mc.Close()

	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, mc.Set(ctx, "long", []byte("2"), time.Hour))
	now = now.Add(time.Minute)
	mc.removeExpired()

	assert.Equal(t, 1, mc.Len())
	_, err := mc.Get(ctx, "long")
	assert.NoError(t, err)
}

func TestResponseKeyKeepsListBoundaries(t *testing.T) {
	joined := ResponseKey("resp", "breakdown", 1, "-..-", []string{"OPEC_Decision Geopolitical"})
	split := ResponseKey("resp", "breakdown", 1, "-..-", []string{"OPEC_Decision", "Geopolitical"})
	assert.NotEqual(t, joined, split)
}

func TestLayeredCacheBackfillUsesConfiguredTTL(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, time.Minute)
	defer lc.Close()

	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	lc.memCache.now = func() time.Time { return now }

	require.NoError(t, remote.Set(ctx, "k", []byte("v"), time.Hour))
	_, err := lc.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, remote.Delete(ctx, "k"))
	now = now.Add(2 * time.Minute)
	_, err = lc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss, "L1 copy expires with the configured ttl")
}
