package traininglog

import (
	"context"

	domain "clubhouse/internal/domain/traininglog"
)

// Store persists training-log state.
type Store interface {
	Day(ctx context.Context, athleteID, date string) (domain.Day, bool, error)
	SetDay(ctx context.Context, athleteID, date string, day domain.Day) error
	// Start stores seed only when no log exists yet for the date and
	// returns the day now stored.
	Start(ctx context.Context, athleteID, date string, seed domain.Day) (domain.Day, bool, error)
	ClearDay(ctx context.Context, athleteID, date string) (bool, error)
	Range(ctx context.Context, athleteID, from, to string) ([]domain.Dated, error)
	RemoveAthlete(ctx context.Context, athleteID string) error
}
