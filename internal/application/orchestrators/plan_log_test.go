package orchestrators

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/domain/exercise"
	"clubhouse/internal/domain/plan"
	"clubhouse/internal/domain/traininglog"
	"clubhouse/internal/domain/week"
)

func seedSquat(t *testing.T, s *testStores) exercise.Exercise {
	t.Helper()
	e, err := ExecuteSaveExercise(context.Background(), SaveExerciseInput{Name: "Back Squat", Category: "Strength", DefaultSets: 5, DefaultReps: 5}, SaveExerciseDeps{ExerciseStore: s.exercises})
	require.NoError(t, err)
	return e
}

func TestExecuteSavePlanDay_CopiesExerciseNames(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	sq := seedSquat(t, s)
	deps := SavePlanDayDeps{AthleteStore: s.athletes, ExerciseStore: s.exercises, PlanStore: s.plans}

	items := []plan.Item{{ExerciseID: sq.ID, Sets: 5, Reps: 5}, {ExerciseName: "Sled push", DurationMin: 10}}
	day, err := ExecuteSavePlanDay(ctx, SavePlanDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: plan.Day{Title: "Legs", Items: items}}, deps)
	require.NoError(t, err)
	require.Len(t, day.Items, 2)
	assert.Equal(t, "Back Squat", day.Items[0].ExerciseName)
	assert.NotEmpty(t, day.Items[0].ID)
	assert.Empty(t, items[0].ExerciseName, "caller's items must not be modified")

	_, err = ExecuteSavePlanDay(ctx, SavePlanDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: plan.Day{Items: []plan.Item{{ExerciseID: "nope"}}}}, deps)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, exercise.ErrNotFound)

	_, err = ExecuteSavePlanDay(ctx, SavePlanDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: plan.Day{Items: []plan.Item{{ExerciseName: "Run", Reps: -1}}}}, deps)
	assert.ErrorIs(t, err, plan.ErrItemNegative)
}

func TestExecuteClearAndCopyPlanWeek(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	saveDeps := SavePlanDayDeps{AthleteStore: s.athletes, ExerciseStore: s.exercises, PlanStore: s.plans}
	for _, date := range []string{"2026-10-12", "2026-10-15"} {
		_, err := ExecuteSavePlanDay(ctx, SavePlanDayInput{AthleteID: a.ID, Date: date, Day: plan.Day{Items: []plan.Item{{ExerciseName: "Run"}}}}, saveDeps)
		require.NoError(t, err)
	}

	copyDeps := CopyPlanWeekDeps{AthleteStore: s.athletes, PlanStore: s.plans}
	n, err := ExecuteCopyPlanWeek(ctx, CopyPlanWeekInput{AthleteID: a.ID, FromWeek: "2026-W42", ToWeek: "2026-W43"}, copyDeps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	copied, ok, err := s.plans.Day(ctx, a.ID, "2026-10-22")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Run", copied.Items[0].ExerciseName)

	_, err = ExecuteCopyPlanWeek(ctx, CopyPlanWeekInput{AthleteID: a.ID, FromWeek: "2026-W42", ToWeek: "2026-W42"}, copyDeps)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ExecuteCopyPlanWeek(ctx, CopyPlanWeekInput{AthleteID: a.ID, FromWeek: "2026-W42", ToWeek: "2026-w42"}, copyDeps)
	assert.ErrorIs(t, err, ErrInvalidInput, "same week in another spelling")
	_, err = ExecuteCopyPlanWeek(ctx, CopyPlanWeekInput{AthleteID: a.ID, FromWeek: "2026-W42", ToWeek: "2026-W99"}, copyDeps)
	assert.ErrorIs(t, err, week.ErrInvalidWeek)

	clearDeps := ClearPlanDayDeps{PlanStore: s.plans}
	removed, err := ExecuteClearPlanDay(ctx, ClearPlanDayInput{AthleteID: a.ID, Date: "2026-10-12"}, clearDeps)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = ExecuteClearPlanDay(ctx, ClearPlanDayInput{AthleteID: a.ID, Date: "2026-10-12"}, clearDeps)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestExecuteStartLogFromPlan(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	_, err := ExecuteSavePlanDay(ctx, SavePlanDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: plan.Day{Items: []plan.Item{
		{ExerciseName: "Row", Sets: 3}, {ExerciseName: "Plank", DurationMin: 2},
	}}}, SavePlanDayDeps{AthleteStore: s.athletes, ExerciseStore: s.exercises, PlanStore: s.plans})
	require.NoError(t, err)

	deps := StartLogFromPlanDeps{AthleteStore: s.athletes, PlanStore: s.plans, LogStore: s.logs, GenerateID: seqIDs("entry")}
	day, err := ExecuteStartLogFromPlan(ctx, StartLogFromPlanInput{AthleteID: a.ID, Date: "2026-10-12"}, deps)
	require.NoError(t, err)
	require.Len(t, day.Entries, 2)
	assert.Equal(t, "entry-1", day.Entries[0].ID)
	assert.False(t, day.Entries[0].Done)
	assert.NotEmpty(t, day.Entries[0].PlanItemID)

	// Mark one done, then starting again must not reset it.
	day.Entries[0].Done = true
	_, err = ExecuteSaveLogDay(ctx, SaveLogDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: day}, SaveLogDayDeps{AthleteStore: s.athletes, LogStore: s.logs})
	require.NoError(t, err)
	again, err := ExecuteStartLogFromPlan(ctx, StartLogFromPlanInput{AthleteID: a.ID, Date: "2026-10-12"}, deps)
	require.NoError(t, err)
	assert.True(t, again.Entries[0].Done)
	assert.InDelta(t, 0.5, again.Completion(), 1e-9)

	_, err = ExecuteStartLogFromPlan(ctx, StartLogFromPlanInput{AthleteID: a.ID, Date: "2026-10-13"}, deps)
	assert.ErrorIs(t, err, ErrNothingPlanned)
}

func TestExecuteSaveAndClearLogDay(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	deps := SaveLogDayDeps{AthleteStore: s.athletes, LogStore: s.logs}

	_, err := ExecuteSaveLogDay(ctx, SaveLogDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: traininglog.Day{RPE: 11}}, deps)
	assert.ErrorIs(t, err, traininglog.ErrInvalidRPE)

	stored, err := ExecuteSaveLogDay(ctx, SaveLogDayInput{AthleteID: a.ID, Date: "2026-10-12", Day: traininglog.Day{
		RPE:     7,
		Entries: []traininglog.Entry{{ExerciseName: "Swim", Done: true}},
	}}, deps)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Entries[0].ID)

	removed, err := ExecuteClearLogDay(ctx, ClearLogDayInput{AthleteID: a.ID, Date: "2026-10-12"}, ClearLogDayDeps{LogStore: s.logs})
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok, err := s.logs.Day(ctx, a.ID, "2026-10-12")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ExecuteClearLogDay(ctx, ClearLogDayInput{AthleteID: a.ID, Date: "yesterday"}, ClearLogDayDeps{LogStore: s.logs})
	assert.True(t, errors.Is(err, week.ErrInvalidDate))
}
