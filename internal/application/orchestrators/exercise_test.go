package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/domain/exercise"
	"clubhouse/internal/domain/plan"
)

func TestExecuteSaveExercise_SlugsAndUpdates(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	deps := SaveExerciseDeps{ExerciseStore: s.exercises}

	sq := seedSquat(t, s)
	assert.Equal(t, "back-squat", sq.ID)
	assert.Equal(t, "strength", sq.Category)

	_, err := ExecuteSaveExercise(ctx, SaveExerciseInput{Name: "back squat"}, deps)
	assert.ErrorIs(t, err, exercise.ErrDuplicateName)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Renaming keeps the ID, so a new entry with the old name takes a suffix.
	_, err = ExecuteSaveExercise(ctx, SaveExerciseInput{ID: sq.ID, Name: "Front Squat"}, deps)
	require.NoError(t, err)
	again, err := ExecuteSaveExercise(ctx, SaveExerciseInput{Name: "Back Squat"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "back-squat-2", again.ID)

	_, err = ExecuteSaveExercise(ctx, SaveExerciseInput{ID: "missing", Name: "X"}, deps)
	assert.ErrorIs(t, err, exercise.ErrNotFound)
}

func TestExecuteArchiveExercise_KeepsFlagOnEdit(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	sq := seedSquat(t, s)

	require.NoError(t, ExecuteArchiveExercise(ctx, ArchiveExerciseInput{ExerciseID: sq.ID, Archived: true}, ArchiveExerciseDeps{ExerciseStore: s.exercises}))
	edited, err := ExecuteSaveExercise(ctx, SaveExerciseInput{ID: sq.ID, Name: "Back Squat", Description: "Deep."}, SaveExerciseDeps{ExerciseStore: s.exercises})
	require.NoError(t, err)
	assert.True(t, edited.Archived)

	visible, err := s.exercises.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestExecuteDeleteExercise_RejectsWhenPlanned(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	sq := seedSquat(t, s)
	_, err := ExecuteSavePlanDay(ctx, SavePlanDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: plan.Day{Items: []plan.Item{{ExerciseID: sq.ID}}}},
		SavePlanDayDeps{AthleteStore: s.athletes, ExerciseStore: s.exercises, PlanStore: s.plans})
	require.NoError(t, err)
	deps := DeleteExerciseDeps{ExerciseStore: s.exercises, PlanStore: s.plans}

	err = ExecuteDeleteExercise(ctx, DeleteExerciseInput{ExerciseID: sq.ID}, deps)
	assert.ErrorIs(t, err, ErrExerciseInUse)

	_, err = ExecuteClearPlanDay(ctx, ClearPlanDayInput{AthleteID: a.ID, Date: "2026-10-12"}, ClearPlanDayDeps{PlanStore: s.plans})
	require.NoError(t, err)
	require.NoError(t, ExecuteDeleteExercise(ctx, DeleteExerciseInput{ExerciseID: sq.ID}, deps))
	_, err = s.exercises.GetByID(ctx, sq.ID)
	assert.ErrorIs(t, err, exercise.ErrNotFound)
}
