package user

import (
	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/store"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type RoleRepo interface {
	GetByID(dbc dbctx.Context, id int64) (*types.Role, error)
	GetByName(dbc dbctx.Context, name string) (*types.Role, error)
}

type roleRepo struct {
	store store.Store[types.Role]
	log   *logger.Logger
}

func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo {
	return &roleRepo{
		store: store.NewGormStore[types.Role](db, "RoleRepo"),
		log:   baseLog.With("repo", "RoleRepo"),
	}
}

func (rr *roleRepo) GetByID(dbc dbctx.Context, id int64) (*types.Role, error) {
	return rr.store.FindByID(dbc, id)
}

func (rr *roleRepo) GetByName(dbc dbctx.Context, name string) (*types.Role, error) {
	rows, err := rr.store.FindWhere(dbc, "name = ?", name)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}
