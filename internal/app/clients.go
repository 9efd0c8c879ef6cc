package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/data/db"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

func openDB(cfg DBConfig, log *logger.Logger) (*gorm.DB, error) {
	var (
		theDB *gorm.DB
		err   error
	)
	switch cfg.Driver {
	case DriverSQLite:
		theDB, err = db.OpenSQLite(cfg.SQLitePath, log)
	default:
		theDB, err = db.OpenPostgres(cfg.Postgres, log)
	}
	if err != nil {
		return nil, err
	}
	// migration also bootstraps the user and admin roles
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, err
	}
	return theDB, nil
}

func wireCache(ctx context.Context, cfg CacheConfig, log *logger.Logger) (cache.Cache, error) {
	log.Info("Wiring cache...")
	if cfg.Redis.Addr != "" {
		c, err := cache.NewRedisCache(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return c, nil
	}
	c, err := cache.NewMemoryCache(cfg.MemoryEntries, log)
	if err != nil {
		return nil, fmt.Errorf("init memory cache: %w", err)
	}
	return c, nil
}
