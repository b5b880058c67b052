package main

import (
	"context"
	"flag"
	"log"
	"time"
	"trip-planner-service/internal/app"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/logging"

	"go.uber.org/zap"
)

// cachetool prepares the configured duration cache backend (creating the SQL
// schema when needed) and can run an LRU eviction sweep against it.
func main() {
	evict := flag.Bool("evict", false, "trim the cache to CACHE_MAX_ENTRIES")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger.Info("initializing cache store", zap.String("backend", cfg.Cache.Backend))
	store, closeStore, err := app.OpenCacheStore(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal("cache store initialization failed", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	n, err := store.Count(ctx)
	if err != nil {
		logger.Fatal("count cache entries", zap.Error(err))
	}
	logger.Info("cache store ready", zap.Int("entries", n))

	if !*evict {
		return
	}

	app.NewDurationCache(store, cfg.Cache, logger).EnforceEviction(ctx)

	n, err = store.Count(ctx)
	if err != nil {
		logger.Fatal("count cache entries", zap.Error(err))
	}
	logger.Info("eviction complete",
		zap.Int("entries", n),
		zap.Int("max_entries", cfg.Cache.MaxEntries),
	)
}
