package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"clubhouse/internal/domain/exercise"
)

// ErrExerciseInUse is returned when deleting an exercise that a plan references.
var ErrExerciseInUse = errors.New("exercise is used by a plan; archive it instead")

// ExerciseStore defines the catalog operations used by the orchestrators.
type ExerciseStore interface {
	List(ctx context.Context, includeArchived bool) ([]exercise.Exercise, error)
	GetByID(ctx context.Context, id string) (exercise.Exercise, error)
	Save(ctx context.Context, e exercise.Exercise) error
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string, archived bool) error
}

// ExerciseUsage reports whether any plan references an exercise.
type ExerciseUsage interface {
	UsesExercise(ctx context.Context, exerciseID string) (bool, error)
}

// SaveExerciseInput carries input for the catalog editor. An empty ID creates.
type SaveExerciseInput struct {
	ID          string
	Name        string
	Category    string
	Description string
	DefaultSets int
	DefaultReps int
}

// SaveExerciseDeps holds dependencies for SaveExercise.
type SaveExerciseDeps struct {
	ExerciseStore ExerciseStore
}

// ExecuteSaveExercise creates or updates a catalog entry. New entries get an
// ID derived from the name, suffixed when the slug is taken.
// POST: Returns the stored exercise
// INVARIANT: Names are unique ignoring case
func ExecuteSaveExercise(ctx context.Context, input SaveExerciseInput, deps SaveExerciseDeps) (exercise.Exercise, error) {
	e := exercise.Exercise{
		ID:          input.ID,
		Name:        strings.TrimSpace(input.Name),
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		Description: input.Description,
		DefaultSets: input.DefaultSets,
		DefaultReps: input.DefaultReps,
	}
	if err := e.Validate(); err != nil {
		return exercise.Exercise{}, invalid(err)
	}

	if e.ID == "" {
		all, err := deps.ExerciseStore.List(ctx, true)
		if err != nil {
			return exercise.Exercise{}, err
		}
		e.ID = uniqueSlug(exercise.Slug(e.Name), all)
	} else {
		existing, err := deps.ExerciseStore.GetByID(ctx, e.ID)
		if err != nil {
			return exercise.Exercise{}, err
		}
		e.Archived = existing.Archived
	}

	if err := deps.ExerciseStore.Save(ctx, e); err != nil {
		if errors.Is(err, exercise.ErrDuplicateName) {
			return exercise.Exercise{}, invalid(err)
		}
		return exercise.Exercise{}, err
	}
	slog.Info("exercise_event", "event", "exercise_saved", "exercise_id", e.ID)
	return e, nil
}

func uniqueSlug(base string, existing []exercise.Exercise) string {
	if base == "" {
		base = "exercise"
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.ID] = true
	}
	id := base
	for n := 2; taken[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// ArchiveExerciseInput carries input for archiving or restoring an exercise.
type ArchiveExerciseInput struct {
	ExerciseID string
	Archived   bool
}

// ArchiveExerciseDeps holds dependencies for ArchiveExercise.
type ArchiveExerciseDeps struct {
	ExerciseStore ExerciseStore
}

// ExecuteArchiveExercise hides or restores an exercise in the catalog picker.
// Plans keep referring to archived exercises.
func ExecuteArchiveExercise(ctx context.Context, input ArchiveExerciseInput, deps ArchiveExerciseDeps) error {
	if input.ExerciseID == "" {
		return invalid(errors.New("exercise ID is required"))
	}
	if err := deps.ExerciseStore.Archive(ctx, input.ExerciseID, input.Archived); err != nil {
		return err
	}
	slog.Info("exercise_event", "event", "exercise_archived", "exercise_id", input.ExerciseID, "archived", input.Archived)
	return nil
}

// DeleteExerciseInput identifies the exercise to delete.
type DeleteExerciseInput struct {
	ExerciseID string
}

// DeleteExerciseDeps holds dependencies for DeleteExercise.
type DeleteExerciseDeps struct {
	ExerciseStore ExerciseStore
	PlanStore     ExerciseUsage
}

// ExecuteDeleteExercise removes an exercise that no plan references.
// The usage check and the delete touch different files, so a plan saved in
// between can still end up referencing the deleted ID; plans keep a copy of
// the exercise name for that case.
// POST: Returns ErrExerciseInUse when a plan references the exercise
func ExecuteDeleteExercise(ctx context.Context, input DeleteExerciseInput, deps DeleteExerciseDeps) error {
	if input.ExerciseID == "" {
		return invalid(errors.New("exercise ID is required"))
	}
	used, err := deps.PlanStore.UsesExercise(ctx, input.ExerciseID)
	if err != nil {
		return err
	}
	if used {
		return invalid(ErrExerciseInUse)
	}
	if err := deps.ExerciseStore.Delete(ctx, input.ExerciseID); err != nil {
		return err
	}
	slog.Info("exercise_event", "event", "exercise_deleted", "exercise_id", input.ExerciseID)
	return nil
}
