package user

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/data/store"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

const CacheEntity = "user"

type UserRepo interface {
	Create(dbc dbctx.Context, user *types.User) error
	GetByID(dbc dbctx.Context, id int64) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	GetAll(dbc dbctx.Context) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	IncrementValidated(dbc dbctx.Context, id int64) (int, error)
	AddCoins(dbc dbctx.Context, id int64, cents int64) error
	Delete(dbc dbctx.Context, id int64) error
}

type userRepo struct {
	db    *gorm.DB
	store store.Store[types.User]
	aside *cache.Aside
	log   *logger.Logger
}

func NewUserRepo(db *gorm.DB, c cache.Cache, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{
		db:    db,
		store: store.NewGormStore[types.User](db, "UserRepo"),
		aside: cache.NewAside(c, repoLog),
		log:   repoLog,
	}
}

func (ur *userRepo) invalidate(dbc dbctx.Context, id int64) {
	ur.aside.Invalidate(dbc.Context(), cache.Key(CacheEntity, id), cache.AllKey(CacheEntity))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores user as given. Password must already be hashed.
func (ur *userRepo) Create(dbc dbctx.Context, user *types.User) error {
	if user == nil {
		return nil
	}
	user.Email = normalizeEmail(user.Email)
	if err := ur.store.Create(dbc, user); err != nil {
		return err
	}
	ur.invalidate(dbc, user.ID)
	return nil
}

// GetByID may serve from cache, where Password is never stored. Credential
// checks go through GetByEmail.
func (ur *userRepo) GetByID(dbc dbctx.Context, id int64) (*types.User, error) {
	if dbc.InTx() {
		return ur.store.FindByID(dbc, id)
	}
	row, _, err := cache.Load(dbc.Context(), ur.aside, cache.Key(CacheEntity, id), func() (*types.User, bool, error) {
		row, err := ur.store.FindByID(dbc, id)
		return row, row != nil, err
	})
	return row, err
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	rows, err := ur.store.FindWhere(dbc, "email = ?", normalizeEmail(email))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (ur *userRepo) GetAll(dbc dbctx.Context) ([]*types.User, error) {
	if dbc.InTx() {
		return ur.store.FindAll(dbc)
	}
	rows, _, err := cache.Load(dbc.Context(), ur.aside, cache.AllKey(CacheEntity), func() ([]*types.User, bool, error) {
		rows, err := ur.store.FindAll(dbc)
		return rows, err == nil, err
	})
	return rows, err
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	n, err := ur.store.Count(dbc, "email = ?", normalizeEmail(email))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementValidated bumps the validated counter and returns the value it
// was bumped to. The update and read share a transaction so the returned
// value is this caller's increment.
func (ur *userRepo) IncrementValidated(dbc dbctx.Context, id int64) (int, error) {
	var next int
	err := dbc.DB(ur.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		ok, err := ur.store.SaveWhere(inner, id, "", nil, map[string]any{
			"validated": gorm.Expr("validated + ?", 1),
		})
		if err != nil {
			return err
		}
		if !ok {
			return types.NotFound("UserRepo.IncrementValidated", "user %d not found", id)
		}
		row, err := ur.store.FindByID(inner, id)
		if err != nil {
			return err
		}
		if row == nil {
			return types.NotFound("UserRepo.IncrementValidated", "user %d not found", id)
		}
		next = row.Validated
		return nil
	})
	if err != nil {
		return 0, store.MapError("UserRepo.IncrementValidated", err)
	}
	ur.invalidate(dbc, id)
	return next, nil
}

func (ur *userRepo) AddCoins(dbc dbctx.Context, id int64, cents int64) error {
	ok, err := ur.store.SaveWhere(dbc, id, "", nil, map[string]any{
		"coin_cents": gorm.Expr("coin_cents + ?", cents),
	})
	if err != nil {
		return err
	}
	if !ok {
		return types.NotFound("UserRepo.AddCoins", "user %d not found", id)
	}
	ur.invalidate(dbc, id)
	return nil
}

func (ur *userRepo) Delete(dbc dbctx.Context, id int64) error {
	if err := ur.store.Delete(dbc, id); err != nil {
		return err
	}
	ur.invalidate(dbc, id)
	return nil
}
