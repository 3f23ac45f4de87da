package projections

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	domainAttendance "clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/week"
)

// GetDashboardQuery carries input for the dashboard query.
type GetDashboardQuery struct {
	Now time.Time
}

// GetDashboardDeps holds dependencies for the dashboard query.
type GetDashboardDeps struct {
	AthleteStore    AthleteStore
	ExerciseStore   ExerciseStore
	AttendanceStore AttendanceStore
}

// DashboardResult carries the headline counts.
type DashboardResult struct {
	Week              string         `json:"week"`
	Label             string         `json:"label"`
	ActiveAthletes    int            `json:"activeAthletes"`
	ArchivedAthletes  int            `json:"archivedAthletes"`
	Groups            map[string]int `json:"groups"`
	Exercises         int            `json:"exercises"`
	SessionsThisWeek  int            `json:"sessionsThisWeek"`
	AttendanceMarks   int            `json:"attendanceMarks"`
	AttendeesThisWeek int            `json:"attendeesThisWeek"`
}

// QueryGetDashboard loads the three documents concurrently and counts.
// The first failing load cancels the others.
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (DashboardResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	res := DashboardResult{Week: week.KeyOf(now), Groups: map[string]int{}}
	res.Label, _ = week.Label(res.Week)

	var thisWeek domainAttendance.Week
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		athletes, err := deps.AthleteStore.List(gctx, athleteStore.ListFilter{IncludeArchived: true})
		if err != nil {
			return err
		}
		for _, a := range athletes {
			if !a.Active {
				res.ArchivedAthletes++
				continue
			}
			res.ActiveAthletes++
			if a.Group != "" {
				res.Groups[a.Group]++
			}
		}
		return nil
	})
	g.Go(func() error {
		exercises, err := deps.ExerciseStore.List(gctx, false)
		if err != nil {
			return err
		}
		res.Exercises = len(exercises)
		return nil
	})
	g.Go(func() error {
		w, err := deps.AttendanceStore.Week(gctx, res.Week)
		thisWeek = w
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardResult{}, err
	}

	seen := map[string]bool{}
	for _, ids := range thisWeek.Sessions {
		if len(ids) > 0 {
			res.SessionsThisWeek++
		}
		res.AttendanceMarks += len(ids)
		for _, id := range ids {
			seen[id] = true
		}
	}
	res.AttendeesThisWeek = len(seen)
	return res, nil
}
