package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	Cache     CacheConfig
	Matrix    MatrixConfig
	Optimizer OptimizerConfig
	Schedule  ScheduleConfig
}

type CacheConfig struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
	RedisAddr   string
	RedisPrefix string
	MaxEntries  int
	Precision   int
}

type MatrixConfig struct {
	ORSAPIKey       string
	ORSBaseURL      string
	BatchSize       int
	MinCallInterval time.Duration
}

type OptimizerConfig struct {
	Strategy       string
	MaxLocations   int
	FullMatrixMax  int
	BeamWidth      int
	WeightDuration float64
	WeightZigzag   float64
	WeightDensity  float64
	WeightCenter   float64
}

type ScheduleConfig struct {
	DayStart time.Duration
	DayEnd   time.Duration
	Pause    time.Duration
}

// Load reads an optional .env file and then environment variables.
func Load() (*Config, error) {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	dayStart, err := ParseClock(v.GetString("SCHEDULE_DAY_START"))
	if err != nil {
		return nil, fmt.Errorf("load config: SCHEDULE_DAY_START: %w", err)
	}
	dayEnd, err := ParseClock(v.GetString("SCHEDULE_DAY_END"))
	if err != nil {
		return nil, fmt.Errorf("load config: SCHEDULE_DAY_END: %w", err)
	}

	cfg := &Config{
		Port:      v.GetString("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		Cache: CacheConfig{
			Backend:     strings.ToLower(v.GetString("CACHE_BACKEND")),
			SQLitePath:  v.GetString("CACHE_SQLITE_PATH"),
			DatabaseURL: v.GetString("DATABASE_URL"),
			RedisAddr:   v.GetString("REDIS_ADDR"),
			RedisPrefix: v.GetString("REDIS_PREFIX"),
			MaxEntries:  v.GetInt("CACHE_MAX_ENTRIES"),
			Precision:   v.GetInt("CACHE_PRECISION"),
		},
		Matrix: MatrixConfig{
			ORSAPIKey:       v.GetString("ORS_API_KEY"),
			ORSBaseURL:      v.GetString("ORS_BASE_URL"),
			BatchSize:       v.GetInt("MATRIX_BATCH_SIZE"),
			MinCallInterval: v.GetDuration("MATRIX_MIN_CALL_INTERVAL"),
		},
		Optimizer: OptimizerConfig{
			Strategy:       strings.ToLower(v.GetString("OPTIMIZER_STRATEGY")),
			MaxLocations:   v.GetInt("OPTIMIZER_MAX_LOCATIONS"),
			FullMatrixMax:  v.GetInt("OPTIMIZER_FULL_MATRIX_MAX"),
			BeamWidth:      v.GetInt("OPTIMIZER_BEAM_WIDTH"),
			WeightDuration: v.GetFloat64("OPTIMIZER_WEIGHT_DURATION"),
			WeightZigzag:   v.GetFloat64("OPTIMIZER_WEIGHT_ZIGZAG"),
			WeightDensity:  v.GetFloat64("OPTIMIZER_WEIGHT_DENSITY"),
			WeightCenter:   v.GetFloat64("OPTIMIZER_WEIGHT_CENTER"),
		},
		Schedule: ScheduleConfig{
			DayStart: dayStart,
			DayEnd:   dayEnd,
			Pause:    v.GetDuration("SCHEDULE_PAUSE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CACHE_BACKEND", "sqlite")
	v.SetDefault("CACHE_SQLITE_PATH", "data/duration_cache.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PREFIX", "tripplanner:duration")
	v.SetDefault("CACHE_MAX_ENTRIES", 50000)
	v.SetDefault("CACHE_PRECISION", 3)
	v.SetDefault("ORS_BASE_URL", "https://api.openrouteservice.org")
	v.SetDefault("MATRIX_BATCH_SIZE", 25)
	v.SetDefault("MATRIX_MIN_CALL_INTERVAL", "1500ms")
	v.SetDefault("OPTIMIZER_STRATEGY", "auto")
	v.SetDefault("OPTIMIZER_MAX_LOCATIONS", 60)
	v.SetDefault("OPTIMIZER_FULL_MATRIX_MAX", 12)
	v.SetDefault("OPTIMIZER_BEAM_WIDTH", 5)
	v.SetDefault("OPTIMIZER_WEIGHT_DURATION", 1.0)
	v.SetDefault("OPTIMIZER_WEIGHT_ZIGZAG", 0.05)
	v.SetDefault("OPTIMIZER_WEIGHT_DENSITY", 120.0)
	v.SetDefault("OPTIMIZER_WEIGHT_CENTER", 0.02)
	v.SetDefault("SCHEDULE_DAY_START", "09:00")
	v.SetDefault("SCHEDULE_DAY_END", "18:00")
	v.SetDefault("SCHEDULE_PAUSE", "15m")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch c.Cache.Backend {
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			errs = append(errs, "CACHE_SQLITE_PATH is required for the sqlite backend")
		}
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, "REDIS_ADDR is required for the redis backend")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND must be sqlite, postgres, redis or memory, got %q", c.Cache.Backend))
	}

	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, "CACHE_MAX_ENTRIES must be positive")
	}
	if c.Cache.Precision < 0 || c.Cache.Precision > 8 {
		errs = append(errs, fmt.Sprintf("CACHE_PRECISION must be 0-8, got %d", c.Cache.Precision))
	}
	if c.Matrix.BatchSize <= 0 {
		errs = append(errs, "MATRIX_BATCH_SIZE must be positive")
	}
	if c.Matrix.MinCallInterval < 0 {
		errs = append(errs, "MATRIX_MIN_CALL_INTERVAL must not be negative")
	}
	switch c.Optimizer.Strategy {
	case "auto", "full", "progressive":
	default:
		errs = append(errs, fmt.Sprintf("OPTIMIZER_STRATEGY must be auto, full or progressive, got %q", c.Optimizer.Strategy))
	}
	if c.Optimizer.MaxLocations < 2 {
		errs = append(errs, "OPTIMIZER_MAX_LOCATIONS must be at least 2")
	}
	if c.Optimizer.BeamWidth <= 0 {
		errs = append(errs, "OPTIMIZER_BEAM_WIDTH must be positive")
	}
	if c.Schedule.DayEnd <= c.Schedule.DayStart {
		errs = append(errs, "SCHEDULE_DAY_END must be after SCHEDULE_DAY_START")
	}
	if c.Schedule.Pause < 0 {
		errs = append(errs, "SCHEDULE_PAUSE must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParseClock converts "HH:MM" to an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
