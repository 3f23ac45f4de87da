package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/week"
)

// Attendance actions.
const (
	ActionMark   = "mark"
	ActionUnmark = "unmark"
	ActionToggle = "toggle"
)

// AttendanceStore defines the attendance operations used by the orchestrators.
type AttendanceStore interface {
	Mark(ctx context.Context, date, athleteID string) error
	Unmark(ctx context.Context, date, athleteID string) error
	Toggle(ctx context.Context, date, athleteID string) (bool, error)
	SetSession(ctx context.Context, date string, athleteIDs []string) error
}

// AthleteLookup resolves athletes for validation.
type AthleteLookup interface {
	GetByID(ctx context.Context, id string) (athlete.Athlete, error)
}

// MarkAttendanceInput carries input for the mark orchestrator.
type MarkAttendanceInput struct {
	AthleteID string
	Date      string
	Action    string
}

// MarkAttendanceDeps holds dependencies for MarkAttendance.
type MarkAttendanceDeps struct {
	AthleteStore    AthleteLookup
	AttendanceStore AttendanceStore
}

// ExecuteMarkAttendance marks, unmarks or toggles one athlete on one date.
// PRE: Date is YYYY-MM-DD; AthleteID refers to an existing athlete
// POST: Returns whether the athlete is now recorded as present
// INVARIANT: Archived athletes cannot be marked present
func ExecuteMarkAttendance(ctx context.Context, input MarkAttendanceInput, deps MarkAttendanceDeps) (bool, error) {
	if input.AthleteID == "" {
		return false, invalid(errors.New("athlete ID is required"))
	}
	if _, err := week.ParseDate(input.Date); err != nil {
		return false, invalid(err)
	}

	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return false, err
	}

	var present bool
	switch input.Action {
	case ActionMark, "":
		if !a.Active {
			return false, invalid(errors.New("archived athletes cannot be marked present"))
		}
		present, err = true, deps.AttendanceStore.Mark(ctx, input.Date, a.ID)
	case ActionUnmark:
		present, err = false, deps.AttendanceStore.Unmark(ctx, input.Date, a.ID)
	case ActionToggle:
		// An archived athlete can only be toggled off.
		if !a.Active {
			present, err = false, deps.AttendanceStore.Unmark(ctx, input.Date, a.ID)
			break
		}
		present, err = deps.AttendanceStore.Toggle(ctx, input.Date, a.ID)
	default:
		return false, invalid(fmt.Errorf("unknown attendance action %q", input.Action))
	}
	if err != nil {
		return false, err
	}

	slog.Info("attendance_event", "event", "attendance_"+actionName(input.Action), "athlete_id", a.ID, "date", input.Date, "present", present)
	return present, nil
}

func actionName(action string) string {
	if action == "" {
		return ActionMark
	}
	return action
}

// SetSessionAttendanceInput carries input for replacing a session's attendees.
type SetSessionAttendanceInput struct {
	Date       string
	AthleteIDs []string
}

// AthleteLister lists athletes in one read.
type AthleteLister interface {
	List(ctx context.Context, filter athleteStore.ListFilter) ([]athlete.Athlete, error)
}

// SetSessionAttendanceDeps holds dependencies for SetSessionAttendance.
type SetSessionAttendanceDeps struct {
	AthleteStore    AthleteLister
	AttendanceStore AttendanceStore
}

// ExecuteSetSessionAttendance replaces the attendee list of one session.
// PRE: Date is YYYY-MM-DD; every ID refers to an existing athlete
// POST: The session holds exactly the given athletes; an empty list clears it
func ExecuteSetSessionAttendance(ctx context.Context, input SetSessionAttendanceInput, deps SetSessionAttendanceDeps) error {
	if _, err := week.ParseDate(input.Date); err != nil {
		return invalid(err)
	}
	all, err := deps.AthleteStore.List(ctx, athleteStore.ListFilter{IncludeArchived: true})
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(all))
	for _, a := range all {
		known[a.ID] = true
	}
	for _, id := range input.AthleteIDs {
		if id != "" && !known[id] {
			return invalid(fmt.Errorf("athlete %q: %w", id, athlete.ErrNotFound))
		}
	}
	if err := deps.AttendanceStore.SetSession(ctx, input.Date, input.AthleteIDs); err != nil {
		return err
	}
	slog.Info("attendance_event", "event", "session_set", "date", input.Date, "count", len(input.AthleteIDs))
	return nil
}
