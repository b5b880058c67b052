package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"
)

// Postgres backed CacheStore, shared by every service instance.
// Uses the pgx stdlib driver; call InitPostgresSchema before first use.
type PostgresStore struct {
	DB *sql.DB
}

var _ ports.CacheStore = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Fetch the cached entry for key.
func (s *PostgresStore) Get(ctx context.Context, key string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "duration.cache.postgres.Get")(&err)

	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("duration cache: db is nil")
	}

	row := s.DB.QueryRowContext(ctx, `
	SELECT start_lat, start_lon, end_lat, end_lon, mode, duration_seconds, last_access
	FROM duration_cache
	WHERE cache_key = $1;
	`, key)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get duration cache key=%q: %w", key, err)
	}

	return entry, true, nil
}

// Insert or replace the entry for key.
func (s *PostgresStore) Set(ctx context.Context, key string, e domain.CacheEntry) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert duration cache: empty key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO duration_cache (cache_key, start_lat, start_lon, end_lat, end_lon, mode, duration_seconds, last_access)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (cache_key) DO UPDATE
	SET duration_seconds = EXCLUDED.duration_seconds,
		last_access = EXCLUDED.last_access;
	`, key, e.Start.Lat, e.Start.Lon, e.End.Lat, e.End.Lon, string(e.Mode), e.DurationSeconds, e.LastAccess.UnixNano())
	if err != nil {
		return fmt.Errorf("insert duration cache key=%q: %w", key, err)
	}

	return nil
}

// Refresh last access of an existing row. Missing keys are a no-op.
func (s *PostgresStore) Touch(ctx context.Context, key string, at time.Time) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `UPDATE duration_cache SET last_access = $1 WHERE cache_key = $2;`, at.UnixNano(), key)
	if err != nil {
		return fmt.Errorf("touch duration cache key=%q: %w", key, err)
	}

	return nil
}

// Remove the given keys in one statement.
func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if len(keys) == 0 {
		return nil
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM duration_cache WHERE cache_key = ANY($1::text[]);`, keys); err != nil {
		return fmt.Errorf("delete duration cache: %w", err)
	}

	return nil
}

// List every key with its last access time.
func (s *PostgresStore) List(ctx context.Context) (_ []ports.StoredKey, err error) {
	defer obs.Time(ctx, "duration.cache.postgres.List")(&err)

	if s.DB == nil {
		return nil, errors.New("duration cache: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT cache_key, last_access FROM duration_cache;`)
	if err != nil {
		return nil, fmt.Errorf("list duration cache: query duration_cache table: %w", err)
	}
	defer rows.Close()

	return scanKeys(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (n int, err error) {
	defer obs.Time(ctx, "duration.cache.postgres.Count")(&err)

	if s.DB == nil {
		return 0, errors.New("duration cache: db is nil")
	}

	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM duration_cache;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count duration cache: %w", err)
	}
	return n, nil
}
