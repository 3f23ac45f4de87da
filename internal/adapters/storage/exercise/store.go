package exercise

import (
	"context"

	domain "clubhouse/internal/domain/exercise"
)

// Store persists the exercise catalog.
type Store interface {
	List(ctx context.Context, includeArchived bool) ([]domain.Exercise, error)
	GetByID(ctx context.Context, id string) (domain.Exercise, error)
	Save(ctx context.Context, value domain.Exercise) error
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string, archived bool) error
}
