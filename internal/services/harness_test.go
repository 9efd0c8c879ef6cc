package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/data/repos"
	"github.com/yungbote/roadwatch-backend/internal/data/repos/testutil"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/geo"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

var basePoint = geo.Point{Lat: 42.4642, Lng: 13.19}

type harness struct {
	ctx       context.Context
	db        *gorm.DB
	reports   repos.ReportRepo
	users     repos.UserRepo
	roles     repos.RoleRepo
	rewards   RewardService
	svc       ReportService
	analytics AnalyticsService
	accounts  UserService
}

type harnessOption func(*harness)

// withUsers swaps the user repo seen by the reward service.
func withUsers(wrap func(repos.UserRepo) repos.UserRepo) harnessOption {
	return func(h *harness) { h.users = wrap(h.users) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	c := testutil.Cache(t)

	h := &harness{
		ctx:     context.Background(),
		db:      db,
		reports: repos.NewReportRepo(db, c, log),
		users:   repos.NewUserRepo(db, c, log),
		roles:   repos.NewRoleRepo(db, log),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.rewards = NewRewardService(log, h.users)
	h.svc = NewReportService(log, h.reports, h.users, h.rewards)
	h.analytics = NewAnalyticsService(log, h.reports, ClusterDefaults{EpsMeters: 100, MinPts: 2})
	h.accounts = NewUserService(log, h.users, h.roles, bcrypt.MinCost)
	return h
}

func (h *harness) user(t *testing.T, role string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, h.ctx, h.db, testutil.Email(t), role)
}

func (h *harness) create(t *testing.T, ownerID int64, at geo.Point) *types.Report {
	t.Helper()
	r, err := h.svc.Create(h.ctx, CreateReportInput{
		UserID:   ownerID,
		Date:     "2024-03-01",
		Position: types.NewGeoPoint(at),
		Type:     types.ReportTypePothole,
		Severity: types.SeverityHighPothole,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

// seed inserts a report with a given status and date, bypassing services.
func (h *harness) seed(t *testing.T, ownerID int64, status types.ReportStatus, at geo.Point, date time.Time) *types.Report {
	t.Helper()
	return testutil.SeedReport(t, h.ctx, h.db, ownerID, status, at, date)
}

func (h *harness) freshUser(t *testing.T, id int64) *types.User {
	t.Helper()
	var u types.User
	if err := h.db.Where("id = ?", id).Take(&u).Error; err != nil {
		t.Fatalf("load user %d: %v", id, err)
	}
	return &u
}

func (h *harness) freshReport(t *testing.T, id int64) *types.Report {
	t.Helper()
	var r types.Report
	if err := h.db.Where("id = ?", id).Take(&r).Error; err != nil {
		t.Fatalf("load report %d: %v", id, err)
	}
	return &r
}

var errCoinsDown = errors.New("coin ledger unavailable")

type failingCoins struct {
	repos.UserRepo
}

func (f failingCoins) AddCoins(dbctx.Context, int64, int64) error { return errCoinsDown }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return testutil.Logger(t)
}

func wantCode(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	if !types.IsCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
