package cache

import (
	"context"
	"testing"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every CacheStore must share.
func runStoreContract(t *testing.T, store ports.CacheStore) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := func(lat float64, at time.Time) domain.CacheEntry {
		return domain.CacheEntry{
			Start:           domain.Coordinates{Lat: lat, Lon: 2.294},
			End:             domain.Coordinates{Lat: 48.861, Lon: 2.336},
			Mode:            domain.ModeWalking,
			DurationSeconds: 1234.5,
			LastAccess:      at,
		}
	}

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		want := entry(48.858, base)
		require.NoError(t, store.Set(ctx, "a", want))

		got, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want.Start, got.Start)
		assert.Equal(t, want.End, got.End)
		assert.Equal(t, want.Mode, got.Mode)
		assert.InDelta(t, want.DurationSeconds, got.DurationSeconds, 1e-9)
		assert.True(t, want.LastAccess.Equal(got.LastAccess), "last access %v != %v", got.LastAccess, want.LastAccess)
	})

	t.Run("set replaces", func(t *testing.T) {
		updated := entry(48.858, base.Add(time.Minute))
		updated.DurationSeconds = 99
		require.NoError(t, store.Set(ctx, "a", updated))

		got, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 99, got.DurationSeconds, 1e-9)
	})

	t.Run("list and delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "b", entry(48.1, base.Add(2*time.Minute))))
		require.NoError(t, store.Set(ctx, "c", entry(48.2, base.Add(3*time.Minute))))

		keys, err := store.List(ctx)
		require.NoError(t, err)
		got := map[string]time.Time{}
		for _, k := range keys {
			got[k.Key] = k.LastAccess
		}
		require.Len(t, got, 3)
		assert.True(t, got["c"].After(got["b"]))
		assert.True(t, got["b"].After(got["a"]))

		require.NoError(t, store.Delete(ctx, "a", "b", "unknown"))
		require.NoError(t, store.Delete(ctx))

		keys, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, "c", keys[0].Key)

		_, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("touch and count", func(t *testing.T) {
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		later := base.Add(10 * time.Minute)
		require.NoError(t, store.Touch(ctx, "c", later))

		got, ok, err := store.Get(ctx, "c")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, later.Equal(got.LastAccess), "last access %v != %v", got.LastAccess, later)
		assert.InDelta(t, 1234.5, got.DurationSeconds, 1e-9)

		keys, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.True(t, later.Equal(keys[0].LastAccess))

		// Touching an absent key must not create it.
		require.NoError(t, store.Touch(ctx, "gone", later))
		_, ok, err = store.Get(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, ok)

		n, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}
