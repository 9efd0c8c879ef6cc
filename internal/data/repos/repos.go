package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/data/repos/reports"
	"github.com/yungbote/roadwatch-backend/internal/data/repos/user"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type ReportRepo = reports.ReportRepo
type UserRepo = user.UserRepo
type RoleRepo = user.RoleRepo

func NewReportRepo(db *gorm.DB, c cache.Cache, baseLog *logger.Logger) ReportRepo {
	return reports.NewReportRepo(db, c, baseLog)
}

func NewUserRepo(db *gorm.DB, c cache.Cache, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, c, baseLog)
}

func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo {
	return user.NewRoleRepo(db, baseLog)
}
