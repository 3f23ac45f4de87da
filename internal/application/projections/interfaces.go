package projections

import (
	"context"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainAttendance "clubhouse/internal/domain/attendance"
	domainExercise "clubhouse/internal/domain/exercise"
	domainPlan "clubhouse/internal/domain/plan"
	domainLog "clubhouse/internal/domain/traininglog"
)

// AthleteStore interface for athlete queries.
type AthleteStore interface {
	GetByID(ctx context.Context, id string) (domainAthlete.Athlete, error)
	List(ctx context.Context, filter athleteStore.ListFilter) ([]domainAthlete.Athlete, error)
}

// AttendanceStore interface for attendance queries.
type AttendanceStore interface {
	Week(ctx context.Context, key string) (domainAttendance.Week, error)
	Range(ctx context.Context, fromKey, toKey string) (map[string]domainAttendance.Week, error)
}

// PlanStore interface for plan queries.
type PlanStore interface {
	Range(ctx context.Context, athleteID, from, to string) ([]domainPlan.Dated, error)
}

// TrainingLogStore interface for training log queries.
type TrainingLogStore interface {
	Range(ctx context.Context, athleteID, from, to string) ([]domainLog.Dated, error)
}

// ExerciseStore interface for catalog queries.
type ExerciseStore interface {
	List(ctx context.Context, includeArchived bool) ([]domainExercise.Exercise, error)
}
