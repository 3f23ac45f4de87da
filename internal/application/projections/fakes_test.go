package projections

import (
	"context"
	"errors"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainAttendance "clubhouse/internal/domain/attendance"
	domainExercise "clubhouse/internal/domain/exercise"
	domainPlan "clubhouse/internal/domain/plan"
	domainLog "clubhouse/internal/domain/traininglog"
)

var errBoom = errors.New("boom")

type fakeAthletes struct {
	athletes []domainAthlete.Athlete
	err      error
}

func (f *fakeAthletes) GetByID(_ context.Context, id string) (domainAthlete.Athlete, error) {
	for _, a := range f.athletes {
		if a.ID == id {
			return a, nil
		}
	}
	return domainAthlete.Athlete{}, domainAthlete.ErrNotFound
}

func (f *fakeAthletes) List(_ context.Context, _ athleteStore.ListFilter) ([]domainAthlete.Athlete, error) {
	return f.athletes, f.err
}

type fakeAttendance struct {
	weeks map[string]domainAttendance.Week
	err   error
}

func (f *fakeAttendance) Week(_ context.Context, key string) (domainAttendance.Week, error) {
	if f.err != nil {
		return domainAttendance.Week{}, f.err
	}
	if w, ok := f.weeks[key]; ok {
		return w, nil
	}
	return domainAttendance.Week{Sessions: map[string][]string{}}, nil
}

func (f *fakeAttendance) Range(_ context.Context, fromKey, toKey string) (map[string]domainAttendance.Week, error) {
	out := map[string]domainAttendance.Week{}
	for k, w := range f.weeks {
		if k >= fromKey && k <= toKey {
			out[k] = w
		}
	}
	return out, f.err
}

type fakePlans struct{ days map[string]domainPlan.Day }

func (f *fakePlans) Range(_ context.Context, _ string, from, to string) ([]domainPlan.Dated, error) {
	var out []domainPlan.Dated
	for date, d := range f.days {
		if date >= from && date <= to {
			out = append(out, domainPlan.Dated{Date: date, Day: d})
		}
	}
	return out, nil
}

type fakeLogs struct{ days map[string]domainLog.Day }

func (f *fakeLogs) Range(_ context.Context, _ string, from, to string) ([]domainLog.Dated, error) {
	var out []domainLog.Dated
	for date, d := range f.days {
		if date >= from && date <= to {
			out = append(out, domainLog.Dated{Date: date, Day: d})
		}
	}
	return out, nil
}

type fakeExercises struct {
	exercises []domainExercise.Exercise
}

func (f *fakeExercises) List(_ context.Context, includeArchived bool) ([]domainExercise.Exercise, error) {
	var out []domainExercise.Exercise
	for _, e := range f.exercises {
		if includeArchived || !e.Archived {
			out = append(out, e)
		}
	}
	return out, nil
}

func roster() []domainAthlete.Athlete {
	return []domainAthlete.Athlete{
		{ID: "a1", Name: "Ada", Group: "senior", Active: true},
		{ID: "a2", Name: "Bea", Group: "junior", Active: true},
		{ID: "a3", Name: "Cal", Active: false},
		{ID: "a4", Name: "Dee", Active: false},
	}
}
