// Package app assembles the planning pipeline from configuration. It is
// shared by the server and the command line tools.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"trip-planner-service/internal/adapters/cache"
	"trip-planner-service/internal/adapters/distance"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/db"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/ports"
	"trip-planner-service/internal/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenCacheStore connects the configured cache backend, creating the SQL
// schema when needed. The returned close func releases the connection.
func OpenCacheStore(ctx context.Context, cfg config.CacheConfig) (ports.CacheStore, func() error, error) {
	switch cfg.Backend {
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache store: %w", err)
		}
		return sqlStore(conn, cache.InitSQLiteSchema, cache.NewSQLiteStore(conn))

	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache store: %w", err)
		}
		return sqlStore(conn, cache.InitPostgresSchema, cache.NewPostgresStore(conn))

	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("open cache store: ping redis %q: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisStore(client, cfg.RedisPrefix), client.Close, nil

	case "memory":
		return cache.NewMemoryStore(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("open cache store: unknown backend %q", cfg.Backend)
	}
}

func sqlStore(conn *sql.DB, initSchema func(*sql.DB) error, store ports.CacheStore) (ports.CacheStore, func() error, error) {
	if err := initSchema(conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open cache store: %w", err)
	}
	return store, conn.Close, nil
}

func NewDurationCache(store ports.CacheStore, cfg config.CacheConfig, logger *zap.Logger) *cache.DurationCache {
	return cache.NewDurationCache(store, cache.Options{
		Precision:  cfg.Precision,
		MaxEntries: cfg.MaxEntries,
		Logger:     logger,
	})
}

// NewMatrixService returns the ORS client, or the straight-line estimator
// when no API key is configured.
func NewMatrixService(cfg config.MatrixConfig, logger *zap.Logger) (ports.DistanceMatrixService, error) {
	if cfg.ORSAPIKey == "" {
		logging.OrNop(logger).Warn("ORS_API_KEY not set, durations are straight-line estimates")
		return distance.EstimateMatrixService{BatchSize: cfg.BatchSize}, nil
	}

	svc, err := distance.NewORSMatrixService(cfg.ORSAPIKey, cfg.ORSBaseURL, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new matrix service: %w", err)
	}
	return svc, nil
}

func ScheduleParams(cfg config.ScheduleConfig) domain.ScheduleParams {
	return domain.ScheduleParams{
		DayStart:               cfg.DayStart,
		DayEnd:                 cfg.DayEnd,
		PauseBetweenActivities: cfg.Pause,
	}
}

func OptimizerConfig(cfg config.OptimizerConfig) services.OptimizerConfig {
	return services.OptimizerConfig{
		Strategy:      services.Strategy(cfg.Strategy),
		MaxLocations:  cfg.MaxLocations,
		FullMatrixMax: cfg.FullMatrixMax,
		BeamWidth:     cfg.BeamWidth,
		Weights: services.PenaltyWeights{
			Duration: cfg.WeightDuration,
			Zigzag:   cfg.WeightZigzag,
			Density:  cfg.WeightDensity,
			Center:   cfg.WeightCenter,
		},
	}
}

// Pipeline is the assembled planner plus the resources it holds.
type Pipeline struct {
	Planner  *services.Planner
	Cache    *cache.DurationCache
	Schedule domain.ScheduleParams
	close    func() error
}

func (p *Pipeline) Close() error { return p.close() }

// Build wires cache, matrix provider, optimizer and planner from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	store, closeStore, err := OpenCacheStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	svc, err := NewMatrixService(cfg.Matrix, logger)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	durations := NewDurationCache(store, cfg.Cache, logger)
	provider := distance.NewCachedMatrixProvider(svc, durations, cfg.Matrix.MinCallInterval, logger)
	optimizer := services.NewRouteOptimizer(provider, OptimizerConfig(cfg.Optimizer), logger)
	schedule := ScheduleParams(cfg.Schedule)

	return &Pipeline{
		Planner:  services.NewPlanner(optimizer, schedule, logger),
		Cache:    durations,
		Schedule: schedule,
		close:    closeStore,
	}, nil
}
