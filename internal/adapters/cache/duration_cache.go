package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/platform/metrics"
	"trip-planner-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultOpTimeout = 2 * time.Second

type Options struct {
	// Decimal places kept when rounding coordinates for keys.
	Precision int
	// Eviction trims the store back to this many entries.
	MaxEntries int
	// Upper bound for a single store call.
	OpTimeout time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
}

// DurationCache is a fail-open LRU cache of directional travel durations
// over any CacheStore backend.
//
// The store is the only source of truth, so several instances may share
// one backend. Each mutation is a single atomic store call (Set, Touch,
// Delete) and the mutex only guards the access clock, so no lock is held
// while waiting on the network.
type DurationCache struct {
	store      ports.CacheStore
	precision  int
	maxEntries int
	opTimeout  time.Duration
	now        func() time.Time
	logger     *zap.Logger

	mu sync.Mutex
	// Last access time handed out; stamps from one instance never repeat.
	lastStamp time.Time

	evictions singleflight.Group
}

var _ ports.DurationCache = (*DurationCache)(nil)

func NewDurationCache(store ports.CacheStore, opts Options) *DurationCache {
	if opts.Precision <= 0 {
		opts.Precision = DefaultPrecision
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &DurationCache{
		store:      store,
		precision:  opts.Precision,
		maxEntries: opts.MaxEntries,
		opTimeout:  opts.OpTimeout,
		now:        opts.Now,
		logger:     logging.OrNop(opts.Logger),
	}
}

// Key returns the store key used for start->end in mode.
func (c *DurationCache) Key(start, end domain.Coordinates, mode domain.TransportMode) string {
	return Key(start, end, mode, c.precision)
}

// Get returns the cached entry and refreshes its last-access time.
// Any backend failure is reported as a miss.
func (c *DurationCache) Get(
	ctx context.Context,
	start, end domain.Coordinates,
	mode domain.TransportMode,
) (domain.CacheEntry, bool) {
	key := c.Key(start, end, mode)

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	entry, ok, err := c.store.Get(opCtx, key)
	if err != nil {
		c.fail("get", key, err)
		metrics.CacheMisses.WithLabelValues(string(mode)).Inc()
		return domain.CacheEntry{}, false
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(string(mode)).Inc()
		return domain.CacheEntry{}, false
	}

	entry.LastAccess = c.stamp()
	if err := c.store.Touch(opCtx, key, entry.LastAccess); err != nil {
		c.fail("touch", key, err)
	}

	metrics.CacheHits.WithLabelValues(string(mode)).Inc()
	return entry, true
}

// Save stores a duration for start->end in mode, then evicts if the store
// holds more than the maximum. Write failures are logged and dropped.
func (c *DurationCache) Save(
	ctx context.Context,
	start, end domain.Coordinates,
	durationSeconds float64,
	mode domain.TransportMode,
) {
	key := c.Key(start, end, mode)
	entry := domain.CacheEntry{
		Start:           start.Round(c.precision),
		End:             end.Round(c.precision),
		Mode:            mode,
		DurationSeconds: durationSeconds,
		LastAccess:      c.stamp(),
	}

	if c.save(ctx, key, entry) {
		c.EnforceEviction(ctx)
	}
}

func (c *DurationCache) save(ctx context.Context, key string, entry domain.CacheEntry) (overflow bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.store.Set(opCtx, key, entry); err != nil {
		c.fail("set", key, err)
		return false
	}
	if c.maxEntries <= 0 {
		return false
	}

	n, err := c.store.Count(opCtx)
	if err != nil {
		c.fail("count", key, err)
		return false
	}
	return n > c.maxEntries
}

// stamp returns the next access time, strictly after the previous one at
// microsecond resolution so ordering survives stores that truncate.
func (c *DurationCache) stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	if prev := c.lastStamp.Truncate(time.Microsecond); !c.lastStamp.IsZero() && !t.Truncate(time.Microsecond).After(prev) {
		t = prev.Add(time.Microsecond)
	}
	c.lastStamp = t
	return t
}

// EnforceEviction removes exactly count-max entries, oldest last access
// first. Concurrent calls on the same instance collapse into one sweep.
func (c *DurationCache) EnforceEviction(ctx context.Context) {
	if c.maxEntries <= 0 {
		return
	}

	_, _, _ = c.evictions.Do("evict", func() (any, error) {
		c.evict(ctx)
		return nil, nil
	})
}

func (c *DurationCache) evict(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	keys, err := c.store.List(opCtx)
	if err != nil {
		c.fail("list", "", err)
		return
	}

	excess := len(keys) - c.maxEntries
	if excess <= 0 {
		return
	}

	slices.SortFunc(keys, func(a, b ports.StoredKey) int {
		if n := a.LastAccess.Compare(b.LastAccess); n != 0 {
			return n
		}
		return strings.Compare(a.Key, b.Key)
	})

	victims := make([]string, 0, excess)
	for _, k := range keys[:excess] {
		victims = append(victims, k.Key)
	}

	if err := c.store.Delete(opCtx, victims...); err != nil {
		c.fail("delete", "", err)
		return
	}

	metrics.CacheEvictions.Add(float64(len(victims)))
	c.logger.Debug("duration cache evicted", zap.Int("removed", len(victims)), zap.Int("remaining", len(keys)-len(victims)))
}

func (c *DurationCache) fail(op, key string, err error) {
	metrics.CacheErrors.WithLabelValues(op).Inc()
	c.logger.Warn("duration cache backend error",
		zap.String("operation", op),
		zap.String("key", key),
		zap.Error(err),
	)
}
