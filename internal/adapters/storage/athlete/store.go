package athlete

import (
	"context"

	domain "clubhouse/internal/domain/athlete"
)

// Store persists Athlete state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Athlete, error)
	Save(ctx context.Context, value domain.Athlete) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Athlete, error)
	SearchByName(ctx context.Context, query string, limit int) ([]domain.Athlete, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit           int
	Offset          int
	Group           string
	IncludeArchived bool
}
