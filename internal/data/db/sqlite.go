package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

// OpenSQLite opens an embedded database at path. ":memory:" and
// "file:...?mode=memory" paths work for throwaway stores.
func OpenSQLite(path string, logg *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	// a single connection keeps in-memory databases shared and serialises writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	logg.Info("sqlite opened", "path", path)
	return db, nil
}
