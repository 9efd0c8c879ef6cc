package services

import types "github.com/yungbote/roadwatch-backend/internal/domain"

// Actor is the caller on whose behalf a mutation runs.
type Actor struct {
	UserID int64
	Admin  bool
}

func (a Actor) canModify(r *types.Report) bool {
	return a.Admin || (a.UserID != 0 && a.UserID == r.UserID)
}
