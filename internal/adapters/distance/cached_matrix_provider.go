package distance

import (
	"context"
	"fmt"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/platform/metrics"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CachedMatrixProvider implements DurationMatrixProvider.
//
// It coordinates:
//   - Persistent duration caching (cache first, write back fresh results)
//   - Splitting misses into batches the service accepts
//   - A minimum delay between successive external calls
//
// Batches run one after another; the limiter is shared by every request
// using this provider.
type CachedMatrixProvider struct {
	service ports.DistanceMatrixService
	cache   ports.DurationCache
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ ports.DurationMatrixProvider = (*CachedMatrixProvider)(nil)

// A nil cache disables caching. A non-positive minCallInterval disables throttling.
func NewCachedMatrixProvider(
	service ports.DistanceMatrixService,
	cache ports.DurationCache,
	minCallInterval time.Duration,
	logger *zap.Logger,
) *CachedMatrixProvider {
	limit := rate.Inf
	if minCallInterval > 0 {
		limit = rate.Every(minCallInterval)
	}

	return &CachedMatrixProvider{
		service: service,
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.OrNop(logger),
	}
}

// FetchDurationsFromStart resolves start->end durations for every end.
// Entries that could not be determined are present with a nil value.
func (p *CachedMatrixProvider) FetchDurationsFromStart(
	ctx context.Context,
	start domain.Coordinates,
	ends []domain.Coordinates,
	mode domain.TransportMode,
) (_ map[domain.Pair]*float64, err error) {
	defer obs.Time(ctx, "matrix.FetchDurationsFromStart")(&err)

	out := make(map[domain.Pair]*float64, len(ends))
	if len(ends) == 0 {
		return out, nil
	}

	seen := make(map[domain.Coordinates]struct{}, len(ends))
	misses := make([]domain.Coordinates, 0, len(ends))
	for _, end := range ends {
		if _, ok := seen[end]; ok {
			continue
		}
		seen[end] = struct{}{}

		pair := domain.Pair{From: start, To: end}
		if end == start {
			out[pair] = ptr(0)
			continue
		}

		// Check the duration cache before issuing external calls.
		if p.cache != nil {
			if e, ok := p.cache.Get(ctx, start, end, mode); ok {
				out[pair] = ptr(e.DurationSeconds)
				metrics.MatrixPairs.WithLabelValues("cache").Inc()
				continue
			}
		}
		misses = append(misses, end)
	}

	if len(misses) == 0 {
		return out, nil
	}

	batchSize := p.service.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = len(misses)
	}

	for i := 0; i < len(misses); i += batchSize {
		batch := misses[i:min(i+batchSize, len(misses))]

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch durations: wait for rate limiter: %w", err)
		}

		durations, err := p.service.Query(ctx, start, batch, mode)
		if err == nil && len(durations) != len(batch) {
			err = fmt.Errorf("service returned %d durations for %d destinations", len(durations), len(batch))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("fetch durations: %w", ctxErr)
			}

			// A failed batch leaves every pair in it undetermined.
			metrics.MatrixCalls.WithLabelValues(string(mode), "error").Inc()
			p.logger.Warn("distance matrix batch failed",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.Stringer("origin", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			for _, end := range batch {
				out[domain.Pair{From: start, To: end}] = nil
			}
			continue
		}

		metrics.MatrixCalls.WithLabelValues(string(mode), "ok").Inc()
		for j, end := range batch {
			d := durations[j]
			out[domain.Pair{From: start, To: end}] = d
			if d == nil {
				metrics.MatrixPairs.WithLabelValues("unresolved").Inc()
				continue
			}
			metrics.MatrixPairs.WithLabelValues("service").Inc()
			if p.cache != nil {
				p.cache.Save(ctx, start, end, *d, mode)
			}
		}
	}

	return out, nil
}

func ptr(v float64) *float64 { return &v }
