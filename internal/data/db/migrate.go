package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Role{},
		&types.User{},
		&types.Report{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureRoles(db)
}

// EnsureRoles creates the bootstrap roles when missing.
func EnsureRoles(db *gorm.DB) error {
	for _, name := range []string{types.RoleUser, types.RoleAdmin} {
		role := types.Role{Name: name}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&role).Error; err != nil {
			return fmt.Errorf("ensure role %q: %w", name, err)
		}
	}
	return nil
}
