package repository

import (
	"context"

	"profile-service/internal/domain"
)

// MaxList caps GET /api/profiles.
const MaxList = 1000

// ProfileRepository is implemented by the postgres and sqlite stores.
// Create returns xerrors.ErrDuplicate when the id or encrypted id is taken;
// GetByID returns xerrors.ErrNotFound.
type ProfileRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, p *domain.Profile) error
	List(ctx context.Context, limit int) ([]domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxList {
		return MaxList
	}
	return limit
}
