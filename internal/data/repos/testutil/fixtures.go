package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/geo"
)

func SeedRole(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Role {
	tb.Helper()
	var role types.Role
	if err := tx.WithContext(ctx).Where("name = ?", name).Take(&role).Error; err != nil {
		tb.Fatalf("seed role %q: %v", name, err)
	}
	return &role
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, roleName string) *types.User {
	tb.Helper()
	role := SeedRole(tb, ctx, tx, roleName)
	u := &types.User{
		Nickname: "nick-" + email,
		Email:    email,
		Password: "pw",
		RoleID:   role.ID,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedReport inserts a report directly, bypassing repository caches.
func SeedReport(tb testing.TB, ctx context.Context, tx *gorm.DB, userID int64, status types.ReportStatus, at geo.Point, date time.Time) *types.Report {
	tb.Helper()
	r := &types.Report{
		UserID:   userID,
		Date:     date,
		Position: datatypes.NewJSONType(types.NewGeoPoint(at)),
		Type:     types.ReportTypePothole,
		Severity: types.SeverityMediumPothole,
		Status:   status,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed report: %v", err)
	}
	return r
}

func Email(tb testing.TB) string {
	tb.Helper()
	return fmt.Sprintf("%d@example.com", dbSeq.Add(1))
}
