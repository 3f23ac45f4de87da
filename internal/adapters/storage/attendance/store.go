package attendance

import (
	"context"

	domain "clubhouse/internal/domain/attendance"
)

// Store persists attendance-by-week state.
type Store interface {
	Week(ctx context.Context, key string) (domain.Week, error)
	Range(ctx context.Context, fromKey, toKey string) (map[string]domain.Week, error)
	Mark(ctx context.Context, date, athleteID string) error
	Unmark(ctx context.Context, date, athleteID string) error
	Toggle(ctx context.Context, date, athleteID string) (bool, error)
	SetSession(ctx context.Context, date string, athleteIDs []string) error
	RemoveAthlete(ctx context.Context, athleteID string) error
}
