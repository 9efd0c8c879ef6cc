package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/data/repos"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type Repos struct {
	Report repos.ReportRepo
	User   repos.UserRepo
	Role   repos.RoleRepo
}

func wireRepos(db *gorm.DB, c cache.Cache, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Report: repos.NewReportRepo(db, c, log),
		User:   repos.NewUserRepo(db, c, log),
		Role:   repos.NewRoleRepo(db, log),
	}
}
