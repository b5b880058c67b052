package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// Redis backed CacheStore shared across instances.
//
// Each entry is a hash at <prefix>:e:<key>; a sorted set at <prefix>:idx
// scores every key by last access (unix microseconds) for List.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.CacheStore = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tripplanner:duration"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) entryKey(key string) string { return s.prefix + ":e:" + key }
func (s *RedisStore) indexKey() string           { return s.prefix + ":idx" }

// Fetch the cached entry for key.
func (s *RedisStore) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	if s.client == nil {
		return domain.CacheEntry{}, false, errors.New("duration cache: redis client is nil")
	}

	fields, err := s.client.HGetAll(ctx, s.entryKey(key)).Result()
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get duration cache key=%q: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.CacheEntry{}, false, nil
	}

	entry, err := decodeEntry(fields)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get duration cache key=%q: %w", key, err)
	}
	return entry, true, nil
}

// Insert or replace the entry for key and its index score atomically.
func (s *RedisStore) Set(ctx context.Context, key string, e domain.CacheEntry) error {
	if s.client == nil {
		return errors.New("duration cache: redis client is nil")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.entryKey(key), encodeEntry(e))
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(e.LastAccess.UnixMicro()),
			Member: key,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert duration cache key=%q: %w", key, err)
	}
	return nil
}

// Refresh last access of an existing entry. The EXISTS check and both
// writes run as one script so a concurrent delete is never undone.
var touchScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "last_access", ARGV[1])
redis.call("ZADD", KEYS[2], "XX", ARGV[2], ARGV[3])
return 1
`)

func (s *RedisStore) Touch(ctx context.Context, key string, at time.Time) error {
	if s.client == nil {
		return errors.New("duration cache: redis client is nil")
	}

	err := touchScript.Run(ctx, s.client,
		[]string{s.entryKey(key), s.indexKey()},
		strconv.FormatInt(at.UnixNano(), 10),
		strconv.FormatInt(at.UnixMicro(), 10),
		key,
	).Err()
	if err != nil {
		return fmt.Errorf("touch duration cache key=%q: %w", key, err)
	}
	return nil
}

// Remove entries and their index members.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if s.client == nil {
		return errors.New("duration cache: redis client is nil")
	}

	if len(keys) == 0 {
		return nil
	}

	entryKeys := make([]string, 0, len(keys))
	members := make([]any, 0, len(keys))
	for _, k := range keys {
		entryKeys = append(entryKeys, s.entryKey(k))
		members = append(members, k)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKeys...)
		pipe.ZRem(ctx, s.indexKey(), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete duration cache: %w", err)
	}
	return nil
}

// List every key with its last access time, read from the index.
func (s *RedisStore) List(ctx context.Context) ([]ports.StoredKey, error) {
	if s.client == nil {
		return nil, errors.New("duration cache: redis client is nil")
	}

	zs, err := s.client.ZRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list duration cache: %w", err)
	}

	out := make([]ports.StoredKey, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, ports.StoredKey{
			Key:        member,
			LastAccess: time.UnixMicro(int64(z.Score)),
		})
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	if s.client == nil {
		return 0, errors.New("duration cache: redis client is nil")
	}

	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count duration cache: %w", err)
	}
	return int(n), nil
}

func encodeEntry(e domain.CacheEntry) map[string]any {
	return map[string]any{
		"start_lat":        strconv.FormatFloat(e.Start.Lat, 'f', -1, 64),
		"start_lon":        strconv.FormatFloat(e.Start.Lon, 'f', -1, 64),
		"end_lat":          strconv.FormatFloat(e.End.Lat, 'f', -1, 64),
		"end_lon":          strconv.FormatFloat(e.End.Lon, 'f', -1, 64),
		"mode":             string(e.Mode),
		"duration_seconds": strconv.FormatFloat(e.DurationSeconds, 'f', -1, 64),
		"last_access":      strconv.FormatInt(e.LastAccess.UnixNano(), 10),
	}
}

func decodeEntry(fields map[string]string) (domain.CacheEntry, error) {
	var (
		e    domain.CacheEntry
		errs []error
	)

	parse := func(name string) float64 {
		v, err := strconv.ParseFloat(fields[name], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", name, err))
		}
		return v
	}

	e.Start = domain.Coordinates{Lat: parse("start_lat"), Lon: parse("start_lon")}
	e.End = domain.Coordinates{Lat: parse("end_lat"), Lon: parse("end_lon")}
	e.DurationSeconds = parse("duration_seconds")
	e.Mode = domain.TransportMode(fields["mode"])

	nanos, err := strconv.ParseInt(fields["last_access"], 10, 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("field last_access: %w", err))
	}
	e.LastAccess = time.Unix(0, nanos)

	if len(errs) > 0 {
		return domain.CacheEntry{}, fmt.Errorf("decode entry: %w", errors.Join(errs...))
	}
	return e, nil
}
