package distance

import (
	"context"
	"testing"
	"time"
	"trip-planner-service/internal/adapters/cache"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(n int) []domain.Coordinates {
	out := make([]domain.Coordinates, n)
	for i := range out {
		out[i] = domain.Coordinates{Lat: 41 + float64(i)*0.01, Lon: 2.1}
	}
	return out
}

func constFallback(v float64) func(from, to domain.Coordinates) *float64 {
	return func(from, to domain.Coordinates) *float64 { return ptr(v) }
}

func newMemoryCache() *cache.DurationCache {
	return cache.NewDurationCache(cache.NewMemoryStore(), cache.Options{MaxEntries: 1000})
}

func TestFetchSplitsIntoBatches(t *testing.T) {
	svc := NewMockMatrixService(nil)
	svc.BatchSize = 2
	svc.Fallback = constFallback(30)

	p := NewCachedMatrixProvider(svc, nil, 0, nil)
	start := domain.Coordinates{Lat: 40, Lon: 2}
	ends := grid(5)

	out, err := p.FetchDurationsFromStart(context.Background(), start, ends, domain.ModeDriving)
	require.NoError(t, err)
	require.Len(t, out, 5)

	calls := svc.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[0], 2)
	assert.Len(t, calls[1], 2)
	assert.Len(t, calls[2], 1)
}

func TestFetchSelfPairIsZeroAndDuplicatesCollapse(t *testing.T) {
	svc := NewMockMatrixService(nil)
	svc.BatchSize = 10
	svc.Fallback = constFallback(5)

	p := NewCachedMatrixProvider(svc, nil, 0, nil)
	start := domain.Coordinates{Lat: 40, Lon: 2}
	other := domain.Coordinates{Lat: 40.1, Lon: 2}

	out, err := p.FetchDurationsFromStart(context.Background(), start,
		[]domain.Coordinates{start, other, other}, domain.ModeDriving)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.0, *out[domain.Pair{From: start, To: start}], 1e-9)

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []domain.Coordinates{other}, calls[0])
}

func TestFetchUsesCacheAndWritesBack(t *testing.T) {
	svc := NewMockMatrixService(nil)
	svc.BatchSize = 10
	svc.Fallback = constFallback(42)

	c := newMemoryCache()
	p := NewCachedMatrixProvider(svc, c, 0, nil)
	start := domain.Coordinates{Lat: 40, Lon: 2}
	ends := grid(3)
	ctx := context.Background()

	_, err := p.FetchDurationsFromStart(ctx, start, ends, domain.ModeWalking)
	require.NoError(t, err)
	require.Len(t, svc.Calls(), 1)

	e, ok := c.Get(ctx, start, ends[1], domain.ModeWalking)
	require.True(t, ok)
	assert.InDelta(t, 42.0, e.DurationSeconds, 1e-9)

	out, err := p.FetchDurationsFromStart(ctx, start, ends, domain.ModeWalking)
	require.NoError(t, err)
	assert.Len(t, svc.Calls(), 1, "second fetch must be served from cache")
	for _, end := range ends {
		assert.InDelta(t, 42.0, *out[domain.Pair{From: start, To: end}], 1e-9)
	}

	// Another mode is a different cache key.
	_, err = p.FetchDurationsFromStart(ctx, start, ends, domain.ModeDriving)
	require.NoError(t, err)
	assert.Len(t, svc.Calls(), 2)
}

func TestFetchDoesNotCacheUnresolvedPairs(t *testing.T) {
	start := domain.Coordinates{Lat: 40, Lon: 2}
	ends := grid(2)

	svc := NewMockMatrixService([]MockPair{{From: start, To: ends[0], Seconds: 11}})
	svc.BatchSize = 10

	c := newMemoryCache()
	p := NewCachedMatrixProvider(svc, c, 0, nil)
	ctx := context.Background()

	out, err := p.FetchDurationsFromStart(ctx, start, ends, domain.ModeDriving)
	require.NoError(t, err)
	assert.NotNil(t, out[domain.Pair{From: start, To: ends[0]}])

	v, present := out[domain.Pair{From: start, To: ends[1]}]
	assert.True(t, present)
	assert.Nil(t, v)

	_, ok := c.Get(ctx, start, ends[1], domain.ModeDriving)
	assert.False(t, ok)
}

func TestFetchFailedBatchYieldsNilForWholeBatch(t *testing.T) {
	start := domain.Coordinates{Lat: 40, Lon: 2}
	svc := NewMockMatrixService(nil)
	svc.BatchSize = 2
	svc.Fallback = constFallback(9)
	svc.FailOrigins[start] = true

	p := NewCachedMatrixProvider(svc, nil, 0, nil)
	ends := grid(3)

	out, err := p.FetchDurationsFromStart(context.Background(), start, ends, domain.ModeDriving)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, end := range ends {
		assert.Nil(t, out[domain.Pair{From: start, To: end}])
	}
	assert.Len(t, svc.Calls(), 2, "later batches still run after a failure")
}

func TestFetchRespectsMinimumCallInterval(t *testing.T) {
	svc := NewMockMatrixService(nil)
	svc.BatchSize = 1
	svc.Fallback = constFallback(1)

	interval := 40 * time.Millisecond
	p := NewCachedMatrixProvider(svc, nil, interval, nil)

	began := time.Now()
	_, err := p.FetchDurationsFromStart(context.Background(),
		domain.Coordinates{Lat: 40, Lon: 2}, grid(3), domain.ModeDriving)
	require.NoError(t, err)

	// First call passes immediately, the next two wait one interval each.
	assert.GreaterOrEqual(t, time.Since(began), 2*interval-5*time.Millisecond)
}

func TestFetchCancelledContextReturnsError(t *testing.T) {
	svc := NewMockMatrixService(nil)
	svc.BatchSize = 1
	svc.Fallback = constFallback(1)

	p := NewCachedMatrixProvider(svc, nil, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchDurationsFromStart(ctx, domain.Coordinates{Lat: 40, Lon: 2}, grid(2), domain.ModeDriving)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchEmptyEnds(t *testing.T) {
	p := NewCachedMatrixProvider(NewMockMatrixService(nil), nil, 0, nil)
	out, err := p.FetchDurationsFromStart(context.Background(), domain.Coordinates{}, nil, domain.ModeDriving)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEstimateMatrixService(t *testing.T) {
	s := EstimateMatrixService{BatchSize: 10}
	a := domain.Coordinates{Lat: 48.8584, Lon: 2.2945}
	b := domain.Coordinates{Lat: 48.8606, Lon: 2.3376}

	walk, err := s.Query(context.Background(), a, []domain.Coordinates{b, a}, domain.ModeWalking)
	require.NoError(t, err)
	drive, err := s.Query(context.Background(), a, []domain.Coordinates{b}, domain.ModeDriving)
	require.NoError(t, err)

	assert.Greater(t, *walk[0], *drive[0])
	assert.InDelta(t, 0.0, *walk[1], 1e-9)

	unknown, err := s.Query(context.Background(), a, []domain.Coordinates{b}, domain.TransportMode("boat"))
	require.NoError(t, err)
	assert.Nil(t, unknown[0])
}
