// Package store is the keyed record store the repositories persist through.
// It exposes the minimal surface the cache-aside repositories need and
// nothing about the SQL dialect underneath.
package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
)

type Store[T any] interface {
	FindByID(dbc dbctx.Context, id int64) (*T, error)
	FindAll(dbc dbctx.Context) ([]*T, error)
	FindWhere(dbc dbctx.Context, query string, args ...any) ([]*T, error)
	Create(dbc dbctx.Context, row *T) error
	Save(dbc dbctx.Context, id int64, changes map[string]any) error
	SaveWhere(dbc dbctx.Context, id int64, where string, whereArgs []any, changes map[string]any) (bool, error)
	Delete(dbc dbctx.Context, id int64) error
	Count(dbc dbctx.Context, query string, args ...any) (int64, error)
}

type gormStore[T any] struct {
	db   *gorm.DB
	name string
}

// NewGormStore builds a Store over the table of T. name labels errors.
func NewGormStore[T any](db *gorm.DB, name string) Store[T] {
	return &gormStore[T]{db: db, name: name}
}

func (s *gormStore[T]) op(method string) string { return s.name + "." + method }

func (s *gormStore[T]) FindByID(dbc dbctx.Context, id int64) (*T, error) {
	var row T
	err := dbc.DB(s.db).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, MapError(s.op("FindByID"), err)
	}
	return &row, nil
}

func (s *gormStore[T]) FindAll(dbc dbctx.Context) ([]*T, error) {
	rows := []*T{}
	if err := dbc.DB(s.db).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, MapError(s.op("FindAll"), err)
	}
	return rows, nil
}

func (s *gormStore[T]) FindWhere(dbc dbctx.Context, query string, args ...any) ([]*T, error) {
	rows := []*T{}
	if err := dbc.DB(s.db).Where(query, args...).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, MapError(s.op("FindWhere"), err)
	}
	return rows, nil
}

func (s *gormStore[T]) Create(dbc dbctx.Context, row *T) error {
	if row == nil {
		return nil
	}
	if err := dbc.DB(s.db).Create(row).Error; err != nil {
		return MapError(s.op("Create"), err)
	}
	return nil
}

func (s *gormStore[T]) Save(dbc dbctx.Context, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	var model T
	if err := dbc.DB(s.db).Model(&model).Where("id = ?", id).Updates(changes).Error; err != nil {
		return MapError(s.op("Save"), err)
	}
	return nil
}

// SaveWhere applies changes only if the row with id also matches where (an
// empty where matches any row with id). It reports whether a row was updated.
func (s *gormStore[T]) SaveWhere(dbc dbctx.Context, id int64, where string, whereArgs []any, changes map[string]any) (bool, error) {
	if len(changes) == 0 {
		return false, nil
	}
	var model T
	q := dbc.DB(s.db).Model(&model).Where("id = ?", id)
	if where != "" {
		q = q.Where(where, whereArgs...)
	}
	res := q.Updates(changes)
	if res.Error != nil {
		return false, MapError(s.op("SaveWhere"), res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore[T]) Delete(dbc dbctx.Context, id int64) error {
	var model T
	if err := dbc.DB(s.db).Where("id = ?", id).Delete(&model).Error; err != nil {
		return MapError(s.op("Delete"), err)
	}
	return nil
}

func (s *gormStore[T]) Count(dbc dbctx.Context, query string, args ...any) (int64, error) {
	var (
		model T
		n     int64
	)
	q := dbc.DB(s.db).Model(&model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, MapError(s.op("Count"), err)
	}
	return n, nil
}
