package user

import (
	"context"

	domain "clubhouse/internal/domain/user"
)

// Store persists the users allowed to sign in.
type Store interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Save(ctx context.Context, value domain.User) error
	Delete(ctx context.Context, email string) error
}
