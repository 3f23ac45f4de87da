package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"clubhouse/internal/domain/exercise"
	"clubhouse/internal/domain/plan"
	"clubhouse/internal/domain/week"
)

// PlanStore defines the plan operations used by the orchestrators.
type PlanStore interface {
	Day(ctx context.Context, athleteID, date string) (plan.Day, bool, error)
	SetDay(ctx context.Context, athleteID, date string, day plan.Day) error
	ClearDay(ctx context.Context, athleteID, date string) (bool, error)
	CopyWeek(ctx context.Context, athleteID, fromKey, toKey string) (int, error)
}

// ExerciseLookup resolves catalog entries.
type ExerciseLookup interface {
	GetByID(ctx context.Context, id string) (exercise.Exercise, error)
}

// SavePlanDayInput carries input for the plan editor.
type SavePlanDayInput struct {
	AthleteID string
	Date      string
	Day       plan.Day
}

// SavePlanDayDeps holds dependencies for SavePlanDay.
type SavePlanDayDeps struct {
	AthleteStore  AthleteLookup
	ExerciseStore ExerciseLookup
	PlanStore     PlanStore
}

// ExecuteSavePlanDay stores the plan of one athlete on one date.
// Items naming a catalog exercise get the exercise's current name copied in,
// so plans stay readable after the exercise is renamed or deleted.
// PRE: Date is YYYY-MM-DD; AthleteID refers to an existing athlete
// POST: The day is stored; an empty day clears the date
func ExecuteSavePlanDay(ctx context.Context, input SavePlanDayInput, deps SavePlanDayDeps) (plan.Day, error) {
	if err := checkAthleteDate(ctx, deps.AthleteStore, input.AthleteID, input.Date); err != nil {
		return plan.Day{}, err
	}
	day := input.Day
	day.Items = append([]plan.Item(nil), day.Items...)
	for i := range day.Items {
		it := &day.Items[i]
		if it.ExerciseID == "" {
			continue
		}
		e, err := deps.ExerciseStore.GetByID(ctx, it.ExerciseID)
		if err != nil {
			if errors.Is(err, exercise.ErrNotFound) {
				return plan.Day{}, invalid(err)
			}
			return plan.Day{}, err
		}
		it.ExerciseName = e.Name
	}
	if err := day.Validate(); err != nil {
		return plan.Day{}, invalid(err)
	}

	if err := deps.PlanStore.SetDay(ctx, input.AthleteID, input.Date, day); err != nil {
		return plan.Day{}, err
	}
	stored, _, err := deps.PlanStore.Day(ctx, input.AthleteID, input.Date)
	if err != nil {
		return plan.Day{}, err
	}
	slog.Info("plan_event", "event", "plan_day_saved", "athlete_id", input.AthleteID, "date", input.Date, "items", len(day.Items))
	return stored, nil
}

// ClearPlanDayInput identifies one planned day.
type ClearPlanDayInput struct {
	AthleteID string
	Date      string
}

// ClearPlanDayDeps holds dependencies for ClearPlanDay.
type ClearPlanDayDeps struct {
	PlanStore PlanStore
}

// ExecuteClearPlanDay removes the plan of one athlete on one date.
// POST: Returns whether anything was removed
func ExecuteClearPlanDay(ctx context.Context, input ClearPlanDayInput, deps ClearPlanDayDeps) (bool, error) {
	if input.AthleteID == "" {
		return false, invalid(errors.New("athlete ID is required"))
	}
	if _, err := week.ParseDate(input.Date); err != nil {
		return false, invalid(err)
	}
	removed, err := deps.PlanStore.ClearDay(ctx, input.AthleteID, input.Date)
	if err != nil {
		return false, err
	}
	if removed {
		slog.Info("plan_event", "event", "plan_day_cleared", "athlete_id", input.AthleteID, "date", input.Date)
	}
	return removed, nil
}

// CopyPlanWeekInput carries input for copying a week of plans.
type CopyPlanWeekInput struct {
	AthleteID string
	FromWeek  string
	ToWeek    string
}

// CopyPlanWeekDeps holds dependencies for CopyPlanWeek.
type CopyPlanWeekDeps struct {
	AthleteStore AthleteLookup
	PlanStore    PlanStore
}

// ExecuteCopyPlanWeek copies every planned day of one week onto another.
// PRE: FromWeek and ToWeek are valid, distinct week keys
// POST: Returns the number of days copied
func ExecuteCopyPlanWeek(ctx context.Context, input CopyPlanWeekInput, deps CopyPlanWeekDeps) (int, error) {
	if input.AthleteID == "" {
		return 0, invalid(errors.New("athlete ID is required"))
	}
	for _, key := range []*string{&input.FromWeek, &input.ToWeek} {
		canonical, err := week.Canonical(*key)
		if err != nil {
			return 0, invalid(err)
		}
		*key = canonical
	}
	if input.FromWeek == input.ToWeek {
		return 0, invalid(errors.New("source and target weeks are the same"))
	}
	if _, err := deps.AthleteStore.GetByID(ctx, input.AthleteID); err != nil {
		return 0, err
	}

	n, err := deps.PlanStore.CopyWeek(ctx, input.AthleteID, input.FromWeek, input.ToWeek)
	if err != nil {
		return 0, err
	}
	slog.Info("plan_event", "event", "plan_week_copied", "athlete_id", input.AthleteID, "from", input.FromWeek, "to", input.ToWeek, "days", n)
	return n, nil
}

func checkAthleteDate(ctx context.Context, athletes AthleteLookup, athleteID, date string) error {
	if athleteID == "" {
		return invalid(errors.New("athlete ID is required"))
	}
	if _, err := week.ParseDate(date); err != nil {
		return invalid(err)
	}
	_, err := athletes.GetByID(ctx, athleteID)
	return err
}
