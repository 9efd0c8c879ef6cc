package reports

import (
	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/cache"
	"github.com/yungbote/roadwatch-backend/internal/data/store"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

// CacheEntity prefixes report cache keys.
const CacheEntity = "report"

type ReportRepo interface {
	Create(dbc dbctx.Context, report *types.Report) error
	Exists(dbc dbctx.Context, id int64) (bool, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Report, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Report, error)
	GetAll(dbc dbctx.Context) ([]*types.Report, error)
	GetByUser(dbc dbctx.Context, userID int64) ([]*types.Report, error)
	Update(dbc dbctx.Context, id int64, changes map[string]any) error
	TransitionStatus(dbc dbctx.Context, id int64, from, to types.ReportStatus) (bool, error)
	Delete(dbc dbctx.Context, id int64) error
}

type reportRepo struct {
	store store.Store[types.Report]
	aside *cache.Aside
	log   *logger.Logger
}

// NewReportRepo builds the report repository. c may be nil to run uncached.
func NewReportRepo(db *gorm.DB, c cache.Cache, baseLog *logger.Logger) ReportRepo {
	repoLog := baseLog.With("repo", "ReportRepo")
	return &reportRepo{
		store: store.NewGormStore[types.Report](db, "ReportRepo"),
		aside: cache.NewAside(c, repoLog),
		log:   repoLog,
	}
}

func (r *reportRepo) invalidate(dbc dbctx.Context, id int64) {
	r.aside.Invalidate(dbc.Context(), cache.Key(CacheEntity, id), cache.AllKey(CacheEntity))
}

func (r *reportRepo) Create(dbc dbctx.Context, report *types.Report) error {
	if report == nil {
		return nil
	}
	if err := r.store.Create(dbc, report); err != nil {
		return err
	}
	r.invalidate(dbc, report.ID)
	return nil
}

func (r *reportRepo) Exists(dbc dbctx.Context, id int64) (bool, error) {
	n, err := r.store.Count(dbc, "id = ?", id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID checks the store for the id before consulting the cache, so a
// cached entry for a deleted report is never returned.
func (r *reportRepo) GetByID(dbc dbctx.Context, id int64) (*types.Report, error) {
	exists, err := r.Exists(dbc, id)
	if err != nil || !exists {
		return nil, err
	}
	if dbc.InTx() {
		return r.store.FindByID(dbc, id)
	}
	row, _, err := cache.Load(dbc.Context(), r.aside, cache.Key(CacheEntity, id), func() (*types.Report, bool, error) {
		row, err := r.store.FindByID(dbc, id)
		return row, row != nil, err
	})
	return row, err
}

func (r *reportRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Report, error) {
	if len(ids) == 0 {
		return []*types.Report{}, nil
	}
	return r.store.FindWhere(dbc, "id IN ?", ids)
}

// GetAll caches the collection, including an empty one.
func (r *reportRepo) GetAll(dbc dbctx.Context) ([]*types.Report, error) {
	if dbc.InTx() {
		return r.store.FindAll(dbc)
	}
	rows, _, err := cache.Load(dbc.Context(), r.aside, cache.AllKey(CacheEntity), func() ([]*types.Report, bool, error) {
		rows, err := r.store.FindAll(dbc)
		return rows, err == nil, err
	})
	if rows == nil && err == nil {
		rows = []*types.Report{}
	}
	return rows, err
}

func (r *reportRepo) GetByUser(dbc dbctx.Context, userID int64) ([]*types.Report, error) {
	return r.store.FindWhere(dbc, "user_id = ?", userID)
}

func (r *reportRepo) Update(dbc dbctx.Context, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	if err := r.store.Save(dbc, id, changes); err != nil {
		return err
	}
	r.invalidate(dbc, id)
	return nil
}

// TransitionStatus moves id from one status to another in a single
// conditional update. It returns false, without error, when the stored
// status was not from.
func (r *reportRepo) TransitionStatus(dbc dbctx.Context, id int64, from, to types.ReportStatus) (bool, error) {
	ok, err := r.store.SaveWhere(dbc, id, "status = ?", []any{from}, map[string]any{"status": to})
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(dbc, id)
	}
	return ok, nil
}

func (r *reportRepo) Delete(dbc dbctx.Context, id int64) error {
	if err := r.store.Delete(dbc, id); err != nil {
		return err
	}
	r.invalidate(dbc, id)
	return nil
}
