package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/data/db"
	"github.com/yungbote/roadwatch-backend/internal/platform/envutil"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver     string            `yaml:"driver"`
	Postgres   db.PostgresConfig `yaml:"postgres"`
	SQLitePath string            `yaml:"sqlite_path"`
}

// CacheConfig selects Redis when Redis.Addr is set, else an in-process LRU
// of MemoryEntries.
type CacheConfig struct {
	Redis         cache.RedisConfig `yaml:"redis"`
	MemoryEntries int               `yaml:"memory_entries"`
}

type ClusterConfig struct {
	EpsMeters         float64 `yaml:"eps_meters"`
	MinPts            int     `yaml:"min_pts"`
	ParallelThreshold int     `yaml:"parallel_threshold"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Environment string  `yaml:"environment"`
}

type Config struct {
	LogMode    string        `yaml:"log_mode"`
	DB         DBConfig      `yaml:"db"`
	Cache      CacheConfig   `yaml:"cache"`
	Cluster    ClusterConfig `yaml:"cluster"`
	BcryptCost int           `yaml:"bcrypt_cost"`
	Otel       OtelConfig    `yaml:"otel"`
}

// LoadConfig reads the environment, then overlays the YAML file named by
// ROADWATCH_CONFIG. Keys present in the file win over the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development", log),
		DB: DBConfig{
			Driver: strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres, log)),
			Postgres: db.PostgresConfig{
				Host:     envutil.String("POSTGRES_HOST", "localhost", log),
				Port:     envutil.String("POSTGRES_PORT", "5432", log),
				User:     envutil.String("POSTGRES_USER", "postgres", log),
				Password: envutil.String("POSTGRES_PASSWORD", "", log),
				Name:     envutil.String("POSTGRES_NAME", "roadwatch", log),
				SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			},
			SQLitePath: envutil.String("SQLITE_PATH", "roadwatch.db", log),
		},
		Cache: CacheConfig{
			Redis: cache.RedisConfig{
				Addr:      envutil.String("REDIS_ADDR", "", log),
				Password:  envutil.String("REDIS_PASSWORD", "", log),
				DB:        envutil.Int("REDIS_DB", 0, log),
				MaxMemory: envutil.String("REDIS_MAXMEMORY", cache.DefaultMaxMemory, log),
				Policy:    envutil.String("REDIS_MAXMEMORY_POLICY", cache.DefaultPolicy, log),
				TTL:       envutil.Duration("CACHE_TTL", 0, log),
			},
			MemoryEntries: envutil.Int("CACHE_MEMORY_ENTRIES", cache.DefaultMemoryEntries, log),
		},
		Cluster: ClusterConfig{
			EpsMeters:         envutil.Float("DBSCAN_EPS_METERS", 100, log),
			MinPts:            envutil.Int("DBSCAN_MIN_PTS", 2, log),
			ParallelThreshold: envutil.Int("DBSCAN_PARALLEL_THRESHOLD", 2000, log),
		},
		BcryptCost: envutil.Int("BCRYPT_COST", 0, log),
		Otel: OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
			Environment: envutil.String("APP_ENV", "development", log),
		},
	}

	if path := envutil.String("ROADWATCH_CONFIG", "", log); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
		log.Info("config overlay applied", "path", path)
	}
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if strings.TrimSpace(c.DB.SQLitePath) == "" {
			return fmt.Errorf("config: sqlite driver needs a path")
		}
	default:
		return fmt.Errorf("config: unknown db driver %q (want %s or %s)", c.DB.Driver, DriverPostgres, DriverSQLite)
	}
	if c.Cluster.EpsMeters <= 0 {
		return fmt.Errorf("config: cluster eps must be > 0, got %v", c.Cluster.EpsMeters)
	}
	if c.Cluster.MinPts < 1 {
		return fmt.Errorf("config: cluster min_pts must be >= 1, got %d", c.Cluster.MinPts)
	}
	return nil
}
