package projections

import (
	"context"
	"errors"
	"sort"
	"strings"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/domain/week"
)

// MaxSummaryWeeks bounds the range of an attendance summary.
const MaxSummaryWeeks = 104

// ErrRangeTooLong is returned for summaries spanning more than MaxSummaryWeeks.
var ErrRangeTooLong = errors.New("attendance summary range is too long")

// GetAttendanceSummaryQuery carries the inclusive week range.
type GetAttendanceSummaryQuery struct {
	FromWeek string
	ToWeek   string
}

// GetAttendanceSummaryDeps holds dependencies for the attendance summary.
type GetAttendanceSummaryDeps struct {
	AthleteStore    AthleteStore
	AttendanceStore AttendanceStore
}

// AthleteAttendance is one athlete's total over the range.
type AthleteAttendance struct {
	AthleteID string  `json:"athleteId"`
	Name      string  `json:"name"`
	Attended  int     `json:"attended"`
	Rate      float64 `json:"rate"` // Attended / Sessions
}

// AttendanceSummaryResult carries the totals.
type AttendanceSummaryResult struct {
	FromWeek string              `json:"fromWeek"`
	ToWeek   string              `json:"toWeek"`
	Weeks    int                 `json:"weeks"`
	Sessions int                 `json:"sessions"` // dates with at least one attendee
	Athletes []AthleteAttendance `json:"athletes"`
}

// QueryGetAttendanceSummary totals attendance per athlete over a week range.
// Athletes are ordered by attendance, then name. Active athletes with no
// attendance are included with zero.
func QueryGetAttendanceSummary(ctx context.Context, query GetAttendanceSummaryQuery, deps GetAttendanceSummaryDeps) (AttendanceSummaryResult, error) {
	n, err := week.Span(query.FromWeek, query.ToWeek)
	if err != nil {
		return AttendanceSummaryResult{}, err
	}
	if n > MaxSummaryWeeks {
		return AttendanceSummaryResult{}, ErrRangeTooLong
	}
	from, _ := week.Canonical(query.FromWeek)
	to, _ := week.Canonical(query.ToWeek)
	res := AttendanceSummaryResult{FromWeek: from, ToWeek: to, Weeks: n}
	if n == 0 {
		return res, nil
	}

	weeks, err := deps.AttendanceStore.Range(ctx, from, to)
	if err != nil {
		return AttendanceSummaryResult{}, err
	}
	athletes, err := deps.AthleteStore.List(ctx, athleteStore.ListFilter{IncludeArchived: true})
	if err != nil {
		return AttendanceSummaryResult{}, err
	}

	counts := map[string]int{}
	for _, w := range weeks {
		for _, ids := range w.Sessions {
			if len(ids) == 0 {
				continue
			}
			res.Sessions++
			for _, id := range ids {
				counts[id]++
			}
		}
	}

	for _, a := range athletes {
		n := counts[a.ID]
		if n == 0 && !a.Active {
			continue
		}
		row := AthleteAttendance{AthleteID: a.ID, Name: a.Name, Attended: n}
		if res.Sessions > 0 {
			row.Rate = float64(n) / float64(res.Sessions)
		}
		res.Athletes = append(res.Athletes, row)
	}
	sort.SliceStable(res.Athletes, func(i, j int) bool {
		if res.Athletes[i].Attended != res.Athletes[j].Attended {
			return res.Athletes[i].Attended > res.Athletes[j].Attended
		}
		return strings.ToLower(res.Athletes[i].Name) < strings.ToLower(res.Athletes[j].Name)
	})
	return res, nil
}

// AttendanceSummarizer binds deps so callers outside a request can build
// summaries by week range.
func AttendanceSummarizer(deps GetAttendanceSummaryDeps) func(ctx context.Context, fromWeek, toWeek string) (AttendanceSummaryResult, error) {
	return func(ctx context.Context, fromWeek, toWeek string) (AttendanceSummaryResult, error) {
		return QueryGetAttendanceSummary(ctx, GetAttendanceSummaryQuery{FromWeek: fromWeek, ToWeek: toWeek}, deps)
	}
}
