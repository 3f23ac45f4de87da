package plan

import (
	"context"

	domain "clubhouse/internal/domain/plan"
)

// Store persists plans-by-athlete-by-day state.
type Store interface {
	Day(ctx context.Context, athleteID, date string) (domain.Day, bool, error)
	SetDay(ctx context.Context, athleteID, date string, day domain.Day) error
	ClearDay(ctx context.Context, athleteID, date string) (bool, error)
	CopyWeek(ctx context.Context, athleteID, fromKey, toKey string) (int, error)
	Range(ctx context.Context, athleteID, from, to string) ([]domain.Dated, error)
	UsesExercise(ctx context.Context, exerciseID string) (bool, error)
	RemoveAthlete(ctx context.Context, athleteID string) error
}
