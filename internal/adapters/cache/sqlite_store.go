package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"
)

// SQLite backed CacheStore, the local file-backed backend.
// Call InitSQLiteSchema before first use.
type SQLiteStore struct {
	DB *sql.DB
}

var _ ports.CacheStore = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

// Fetch the cached entry for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	if s.DB == nil {
		return domain.CacheEntry{}, false, errors.New("duration cache: db is nil")
	}

	row := s.DB.QueryRowContext(ctx, `
	SELECT
		start_lat,
		start_lon,
		end_lat,
		end_lon,
		mode,
		duration_seconds,
		last_access
	FROM duration_cache
	WHERE cache_key = ?;
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
func (s *SQLiteStore) Set(ctx context.Context, key string, e domain.CacheEntry) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert duration cache: empty key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO duration_cache (
		cache_key,
		start_lat,
		start_lon,
		end_lat,
		end_lon,
		mode,
		duration_seconds,
		last_access
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, key, e.Start.Lat, e.Start.Lon, e.End.Lat, e.End.Lon, string(e.Mode), e.DurationSeconds, e.LastAccess.UnixNano())
	if err != nil {
		return fmt.Errorf("insert duration cache key=%q: %w", key, err)
	}

	return nil
}

// Refresh last access of an existing row. Missing keys are a no-op.
func (s *SQLiteStore) Touch(ctx context.Context, key string, at time.Time) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `UPDATE duration_cache SET last_access = ? WHERE cache_key = ?;`, at.UnixNano(), key)
	if err != nil {
		return fmt.Errorf("touch duration cache key=%q: %w", key, err)
	}

	return nil
}

// Remove the given keys. Unknown keys are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if len(keys) == 0 {
		return nil
	}

	ph := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		ph = append(ph, "?")
		args = append(args, k)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`DELETE FROM duration_cache WHERE cache_key IN (%s);`, strings.Join(ph, ","))

	if _, err := s.DB.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete duration cache: %w", err)
	}

	return nil
}

// List every key with its last access time.
func (s *SQLiteStore) List(ctx context.Context) ([]ports.StoredKey, error) {
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

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("duration cache: db is nil")
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM duration_cache;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count duration cache: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.CacheEntry, error) {
	var (
		e          domain.CacheEntry
		mode       string
		lastAccess int64
	)
	if err := row.Scan(&e.Start.Lat, &e.Start.Lon, &e.End.Lat, &e.End.Lon, &mode, &e.DurationSeconds, &lastAccess); err != nil {
		return domain.CacheEntry{}, err
	}
	e.Mode = domain.TransportMode(mode)
	e.LastAccess = time.Unix(0, lastAccess)
	return e, nil
}

func scanKeys(rows *sql.Rows) ([]ports.StoredKey, error) {
	out := make([]ports.StoredKey, 0, 64)
	for rows.Next() {
		var (
			key        string
			lastAccess int64
		)
		if err := rows.Scan(&key, &lastAccess); err != nil {
			return nil, fmt.Errorf("list duration cache: scan rows: %w", err)
		}
		out = append(out, ports.StoredKey{Key: key, LastAccess: time.Unix(0, lastAccess)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list duration cache: row iteration: %w", err)
	}
	return out, nil
}
