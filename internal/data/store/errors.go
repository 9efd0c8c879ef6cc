package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
)

// MapError classifies store failures into domain error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if types.CodeOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.Wrap(types.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.Wrap(types.CodeConflict, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.Wrap(types.CodeInternal, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "23505" {
		return types.Wrap(types.CodeConflict, op, err) // unique_violation
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "already exists"):
		return types.Wrap(types.CodeConflict, op, err)
	default:
		return types.Wrap(types.CodeInternal, op, err)
	}
}
