package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/observability"
	"github.com/yungbote/roadwatch-backend/internal/platform/envutil"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cache    cache.Cache
	Cfg      Config
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
}

// New loads configuration and wires storage, cache, repos and services.
func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development", nil))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return NewWithConfig(ctx, cfg, log)
}

func NewWithConfig(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: observability.DefaultServiceName,
		Environment: cfg.Otel.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	theDB, err := openDB(cfg.DB, log)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, fmt.Errorf("init %s: %w", cfg.DB.Driver, err)
	}

	c, err := wireCache(ctx, cfg.Cache, log)
	if err != nil {
		closeDB(theDB, log)
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, c, log)
	return &App{
		Log:          log,
		DB:           theDB,
		Cache:        c,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     wireServices(log, cfg, reposet),
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.Warn("cache close failed", "error", err)
		}
	}
	if a.DB != nil {
		closeDB(a.DB, a.Log)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}

func closeDB(db *gorm.DB, log *logger.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("db close failed", "error", err)
	}
}
