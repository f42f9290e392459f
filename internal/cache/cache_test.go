package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/movie-mate/internal/metrics"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache(t *testing.T, size int) (*Cache, *clock, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	c, err := New(size, 30*time.Second, zaptest.NewLogger(t), m)
	require.NoError(t, err)
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.Now
	return c, clk, m
}

func counting(v any) (Fetcher, *atomic.Int32) {
	var n atomic.Int32
	return func(context.Context) (any, error) {
		n.Add(1)
		return v, nil
	}, &n
}

func TestNew_RejectsBadSize(t *testing.T) {
	t.Parallel()
	_, err := New(0, time.Second, nil, nil)
	require.Error(t, err)
}

func TestKey_EncodingAndPrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, `["movies",1,10]`, K("movies", 1, 10).String())
	require.Equal(t, `["watchlist-movies",["m1","m2"]]`, K("watchlist-movies", []string{"m1", "m2"}).String())
	require.NotEqual(t, K("a", 1).String(), K("a", "1").String())

	require.True(t, K("watchlists", "devuser", 1, 10).HasPrefix(K("watchlists", "devuser")))
	require.True(t, K("watchlists").HasPrefix(nil))
	require.False(t, K("watchlists", "bob", 1).HasPrefix(K("watchlists", "devuser")))
	require.False(t, K("watchlists").HasPrefix(K("watchlists", "devuser")))
}

func TestRead_HitMissAndStale(t *testing.T) {
	t.Parallel()

	c, clk, m := newCache(t, 8)
	ctx := context.Background()
	fetch, n := counting("v1")

	v, err := c.Read(ctx, K("movie", "m1"), fetch)
	require.NoError(t, err)
	require.Equal(t, "v1", v)
	_, err = c.Read(ctx, K("movie", "m1"), fetch)
	require.NoError(t, err)
	require.Equal(t, int32(1), n.Load())

	clk.Advance(31 * time.Second)
	_, err = c.Read(ctx, K("movie", "m1"), fetch)
	require.NoError(t, err)
	require.Equal(t, int32(2), n.Load())

	clk.Advance(31 * time.Second)
	_, err = c.Read(ctx, K("movie", "m1"), fetch, WithStaleAfter(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int32(2), n.Load(), "per-query staleness wins")

	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("stale")))
}

func TestRead_ErrorKeepsPreviousData(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	ctx := context.Background()
	key := K("movie", "m1")

	_, err := c.Read(ctx, key, func(context.Context) (any, error) { return "old", nil })
	require.NoError(t, err)
	c.Invalidate(key)

	boom := errors.New("boom")
	_, err = c.Read(ctx, key, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	e, ok := c.Entry(key)
	require.True(t, ok)
	require.Equal(t, StatusError, e.Status)
	require.Equal(t, boom, e.Err)
	require.Equal(t, "old", e.Data)
	require.True(t, e.HasData)
}

func TestRead_ConcurrentFetchesShareOneCall(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	var n atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		n.Add(1)
		<-release
		return 42, nil
	}

	const readers = 6
	var wg sync.WaitGroup
	started := make(chan struct{}, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			v, err := c.Read(context.Background(), K("genres"), fetch)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	for i := 0; i < readers; i++ {
		<-started
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	require.Equal(t, int32(1), n.Load())
}

func TestRead_WriteDuringFetchWins(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	key := K("watchlists", "devuser", 1, 10)
	c.Write(key, "server-v1")
	c.Invalidate(key)

	inFetch := make(chan struct{})
	release := make(chan struct{})
	done := make(chan any)
	go func() {
		v, _ := c.Read(context.Background(), key, func(context.Context) (any, error) {
			close(inFetch)
			<-release
			return "server-v1-refetched", nil
		})
		done <- v
	}()

	<-inFetch
	c.Patch(key, func(any, bool) (any, bool) { return "optimistic", true })
	close(release)

	require.Equal(t, "optimistic", <-done)
	got, _ := c.Peek(key)
	require.Equal(t, "optimistic", got)
}

func TestRead_InvalidateDuringFetchKeepsResult(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	key := K("watchlists", "devuser", 1, 10)
	c.Write(key, "old")
	c.Invalidate(key)

	inFetch := make(chan struct{})
	release := make(chan struct{})
	done := make(chan any)
	go func() {
		v, _ := c.Read(context.Background(), key, func(context.Context) (any, error) {
			close(inFetch)
			<-release
			return "fresh", nil
		})
		done <- v
	}()

	<-inFetch
	c.Invalidate(key)
	close(release)

	require.Equal(t, "fresh", <-done)
	e, ok := c.Entry(key)
	require.True(t, ok)
	require.Equal(t, "fresh", e.Data)
	require.True(t, e.Invalidated, "the invalidation after the fetch began still applies")

	v, err := c.Read(context.Background(), key, func(context.Context) (any, error) { return "newer", nil })
	require.NoError(t, err)
	require.Equal(t, "newer", v)
	e, _ = c.Entry(key)
	require.False(t, e.Invalidated)
}

func TestPatchRestore_IsExact(t *testing.T) {
	t.Parallel()

	c, clk, _ := newCache(t, 8)
	key := K("ratings", "m1")
	c.Write(key, []string{"r1"})
	c.Invalidate(key)
	before, _ := c.Entry(key)

	clk.Advance(time.Minute)
	snap := PatchOf(c, key, func(old []string) []string { return append(append([]string{}, old...), "r2") })
	snap = snap.Add(c.Patch(K("ratings", "m2"), func(any, bool) (any, bool) { return []string{"x"}, true }))

	got, _ := Get[[]string](c, key)
	require.Equal(t, []string{"r1", "r2"}, got)

	c.Restore(snap)
	after, ok := c.Entry(key)
	require.True(t, ok)
	require.Equal(t, before, after)
	_, ok = c.Entry(K("ratings", "m2"))
	require.False(t, ok, "entries created by the patch are removed")
}

func TestPatch_SkipsAbsentOrMistyped(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	require.True(t, PatchOf(c, K("movie", "m1"), func(s string) string { return s + "!" }).Empty())
	c.Write(K("movie", "m1"), 7)
	require.True(t, PatchOf(c, K("movie", "m1"), func(s string) string { return s + "!" }).Empty())
	v, _ := Get[int](c, K("movie", "m1"))
	require.Equal(t, 7, v)
}

func TestPatchPrefixAndKeys(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	c.Write(K("watchlists", "devuser", 1, 10), 1)
	c.Write(K("watchlists", "devuser", 2, 10), 2)
	c.Write(K("watchlists", "bob", 1, 10), 3)

	require.Len(t, c.Keys(K("watchlists", "devuser")), 2)
	require.Len(t, c.Keys(nil), 3)

	snap := PatchPrefixOf(c, K("watchlists", "devuser"), func(_ Key, v int) int { return v * 10 })
	a, _ := Get[int](c, K("watchlists", "devuser", 2, 10))
	b, _ := Get[int](c, K("watchlists", "bob", 1, 10))
	require.Equal(t, 20, a)
	require.Equal(t, 3, b)

	c.Restore(snap)
	a, _ = Get[int](c, K("watchlists", "devuser", 2, 10))
	require.Equal(t, 2, a)
}

func TestInvalidatePrefixAndRemove(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	ctx := context.Background()
	fetch, n := counting("v")
	_, _ = c.Read(ctx, K("search", "ma", 1, 10), fetch)
	_, _ = c.Read(ctx, K("search", "ma", 2, 10), fetch)
	require.Equal(t, int32(2), n.Load())

	c.InvalidatePrefix(K("search"))
	e, _ := c.Entry(K("search", "ma", 1, 10))
	require.True(t, e.Invalidated)
	_, _ = c.Read(ctx, K("search", "ma", 1, 10), fetch)
	require.Equal(t, int32(3), n.Load())

	snap := c.Remove(K("search", "ma", 2, 10))
	_, ok := c.Peek(K("search", "ma", 2, 10))
	require.False(t, ok)
	c.Restore(snap)
	_, ok = c.Peek(K("search", "ma", 2, 10))
	require.True(t, ok)
}

func TestLRUEviction(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 2)
	c.Write(K("a"), 1)
	c.Write(K("b"), 2)
	_, _ = c.Read(context.Background(), K("a"), func(context.Context) (any, error) { return 0, nil })
	c.Write(K("c"), 3)

	require.Equal(t, 2, c.Len())
	_, ok := c.Peek(K("b"))
	require.False(t, ok, "least recently used goes first")
}

func TestQuery_Typed(t *testing.T) {
	t.Parallel()

	c, _, _ := newCache(t, 8)
	v, err := Query(context.Background(), c, K("n"), func(context.Context) (int, error) { return 5, nil })
	require.NoError(t, err)
	require.Equal(t, 5, v)

	c.Write(K("s"), "text")
	_, err = Query(context.Background(), c, K("s"), func(context.Context) (int, error) { return 1, nil })
	require.Error(t, err)
}
