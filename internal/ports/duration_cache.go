package ports

import (
	"context"
	"time"
	"trip-planner-service/internal/domain"
)

// Shared directional duration cache with LRU eviction.
// Implementations fail open: backend errors surface as misses.
type DurationCache interface {
	Get(ctx context.Context, start, end domain.Coordinates, mode domain.TransportMode) (domain.CacheEntry, bool)
	Save(ctx context.Context, start, end domain.Coordinates, durationSeconds float64, mode domain.TransportMode)
	EnforceEviction(ctx context.Context)
}

// Key plus last-access metadata, as returned by CacheStore.List.
type StoredKey struct {
	Key        string
	LastAccess time.Time
}

// Durable key/value persistence used by a DurationCache.
type CacheStore interface {
	// Return the entry for key; ok is false when absent.
	Get(ctx context.Context, key string) (entry domain.CacheEntry, ok bool, err error)
	// Insert or replace the entry for key.
	Set(ctx context.Context, key string, entry domain.CacheEntry) error
	// Set LastAccess of an existing entry in one atomic step.
	// A missing key is left missing.
	Touch(ctx context.Context, key string, at time.Time) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) ([]StoredKey, error)
	// Number of entries currently held, across every writer.
	Count(ctx context.Context) (int, error)
}
