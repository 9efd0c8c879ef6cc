package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want types.ErrorCode
	}{
		{"not found", gorm.ErrRecordNotFound, types.CodeNotFound},
		{"wrapped not found", fmt.Errorf("x: %w", gorm.ErrRecordNotFound), types.CodeNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505"}, types.CodeConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: user.email"), types.CodeConflict},
		{"canceled", context.Canceled, types.CodeInternal},
		{"other", errors.New("disk on fire"), types.CodeInternal},
	}
	for _, tc := range cases {
		got := MapError("op", tc.err)
		if types.CodeOf(got) != tc.want {
			t.Fatalf("%s: got %q want %q (%v)", tc.name, types.CodeOf(got), tc.want, got)
		}
	}

	if MapError("op", nil) != nil {
		t.Fatalf("nil must map to nil")
	}
	already := types.NotFound("inner", "missing")
	if MapError("outer", already) != already {
		t.Fatalf("classified errors must pass through")
	}
}
