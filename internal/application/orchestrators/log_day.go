package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"clubhouse/internal/domain/plan"
	"clubhouse/internal/domain/traininglog"
	"clubhouse/internal/domain/week"
)

// TrainingLogStore defines the log operations used by the orchestrators.
type TrainingLogStore interface {
	Day(ctx context.Context, athleteID, date string) (traininglog.Day, bool, error)
	SetDay(ctx context.Context, athleteID, date string, day traininglog.Day) error
	Start(ctx context.Context, athleteID, date string, seed traininglog.Day) (traininglog.Day, bool, error)
	ClearDay(ctx context.Context, athleteID, date string) (bool, error)
}

// PlanDayReader reads a single planned day.
type PlanDayReader interface {
	Day(ctx context.Context, athleteID, date string) (plan.Day, bool, error)
}

// ErrNothingPlanned is returned when a log is started for a day without a plan.
var ErrNothingPlanned = errors.New("nothing is planned for that day")

// SaveLogDayInput carries input for the log editor.
type SaveLogDayInput struct {
	AthleteID string
	Date      string
	Day       traininglog.Day
}

// SaveLogDayDeps holds dependencies for SaveLogDay.
type SaveLogDayDeps struct {
	AthleteStore AthleteLookup
	LogStore     TrainingLogStore
}

// ExecuteSaveLogDay stores what an athlete did on one date.
// PRE: Date is YYYY-MM-DD; AthleteID refers to an existing athlete
// POST: The day is stored; an empty day clears the date
func ExecuteSaveLogDay(ctx context.Context, input SaveLogDayInput, deps SaveLogDayDeps) (traininglog.Day, error) {
	if err := checkAthleteDate(ctx, deps.AthleteStore, input.AthleteID, input.Date); err != nil {
		return traininglog.Day{}, err
	}
	if err := input.Day.Validate(); err != nil {
		return traininglog.Day{}, invalid(err)
	}
	if err := deps.LogStore.SetDay(ctx, input.AthleteID, input.Date, input.Day); err != nil {
		return traininglog.Day{}, err
	}
	stored, _, err := deps.LogStore.Day(ctx, input.AthleteID, input.Date)
	if err != nil {
		return traininglog.Day{}, err
	}
	slog.Info("log_event", "event", "log_day_saved", "athlete_id", input.AthleteID, "date", input.Date, "completion", stored.Completion())
	return stored, nil
}

// StartLogFromPlanInput identifies the day to start logging.
type StartLogFromPlanInput struct {
	AthleteID string
	Date      string
}

// StartLogFromPlanDeps holds dependencies for StartLogFromPlan.
type StartLogFromPlanDeps struct {
	AthleteStore AthleteLookup
	PlanStore    PlanDayReader
	LogStore     TrainingLogStore
	GenerateID   func() string
}

// ExecuteStartLogFromPlan seeds the log of a day from its plan.
// PRE: A plan exists for the day
// POST: Returns the log now stored; an existing log is returned unchanged
func ExecuteStartLogFromPlan(ctx context.Context, input StartLogFromPlanInput, deps StartLogFromPlanDeps) (traininglog.Day, error) {
	if err := checkAthleteDate(ctx, deps.AthleteStore, input.AthleteID, input.Date); err != nil {
		return traininglog.Day{}, err
	}
	p, ok, err := deps.PlanStore.Day(ctx, input.AthleteID, input.Date)
	if err != nil {
		return traininglog.Day{}, err
	}
	if !ok || len(p.Items) == 0 {
		return traininglog.Day{}, invalid(ErrNothingPlanned)
	}
	newID := uuid.NewString
	if deps.GenerateID != nil {
		newID = deps.GenerateID
	}

	day, created, err := deps.LogStore.Start(ctx, input.AthleteID, input.Date, traininglog.FromPlan(p, newID))
	if err != nil {
		return traininglog.Day{}, err
	}
	if created {
		slog.Info("log_event", "event", "log_started_from_plan", "athlete_id", input.AthleteID, "date", input.Date, "entries", len(day.Entries))
	}
	return day, nil
}

// ClearLogDayInput identifies one logged day.
type ClearLogDayInput struct {
	AthleteID string
	Date      string
}

// ClearLogDayDeps holds dependencies for ClearLogDay.
type ClearLogDayDeps struct {
	LogStore TrainingLogStore
}

// ExecuteClearLogDay removes the log of one athlete on one date.
func ExecuteClearLogDay(ctx context.Context, input ClearLogDayInput, deps ClearLogDayDeps) (bool, error) {
	if input.AthleteID == "" {
		return false, invalid(errors.New("athlete ID is required"))
	}
	if _, err := week.ParseDate(input.Date); err != nil {
		return false, invalid(err)
	}
	removed, err := deps.LogStore.ClearDay(ctx, input.AthleteID, input.Date)
	if err != nil {
		return false, err
	}
	if removed {
		slog.Info("log_event", "event", "log_day_cleared", "athlete_id", input.AthleteID, "date", input.Date)
	}
	return removed, nil
}
