package projections

import (
	"context"
	"time"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/domain/week"
)

// GetAttendanceWeekQuery carries input for the attendance grid. An empty
// Week means the week containing Now.
type GetAttendanceWeekQuery struct {
	Week string
	Now  time.Time
}

// GetAttendanceWeekDeps holds dependencies for the attendance grid.
type GetAttendanceWeekDeps struct {
	AthleteStore    AthleteStore
	AttendanceStore AttendanceStore
}

// AttendanceRow is one athlete's line of the grid.
type AttendanceRow struct {
	AthleteID string `json:"athleteId"`
	Name      string `json:"name"`
	Group     string `json:"group,omitempty"`
	Archived  bool   `json:"archived,omitempty"`
	Present   []bool `json:"present"` // Monday..Sunday
	Count     int    `json:"count"`
}

// AttendanceWeekResult carries the week grid.
type AttendanceWeekResult struct {
	Week      string          `json:"week"`
	Label     string          `json:"label"`
	Prev      string          `json:"prev"`
	Next      string          `json:"next"`
	Days      []string        `json:"days"`
	DayTotals []int           `json:"dayTotals"`
	Rows      []AttendanceRow `json:"rows"`
	// Unknown lists attendee IDs with no athlete record.
	Unknown []string `json:"unknown,omitempty"`
}

// QueryGetAttendanceWeek builds the athletes-by-days grid of one ISO week.
// Active athletes are always listed; archived athletes only when they attended.
func QueryGetAttendanceWeek(ctx context.Context, query GetAttendanceWeekQuery, deps GetAttendanceWeekDeps) (AttendanceWeekResult, error) {
	key := query.Week
	if key == "" {
		now := query.Now
		if now.IsZero() {
			now = time.Now()
		}
		key = week.KeyOf(now)
	}
	key, err := week.Canonical(key)
	if err != nil {
		return AttendanceWeekResult{}, err
	}
	days, err := week.Days(key)
	if err != nil {
		return AttendanceWeekResult{}, err
	}
	res := AttendanceWeekResult{Week: key, Days: days, DayTotals: make([]int, len(days))}
	res.Label, _ = week.Label(key)
	res.Prev, _ = week.Shift(key, -1)
	res.Next, _ = week.Shift(key, 1)

	w, err := deps.AttendanceStore.Week(ctx, key)
	if err != nil {
		return AttendanceWeekResult{}, err
	}
	athletes, err := deps.AthleteStore.List(ctx, athleteStore.ListFilter{IncludeArchived: true})
	if err != nil {
		return AttendanceWeekResult{}, err
	}

	present := map[string][]bool{}
	for i, date := range days {
		for _, id := range w.Sessions[date] {
			if present[id] == nil {
				present[id] = make([]bool, len(days))
			}
			present[id][i] = true
			res.DayTotals[i]++
		}
	}

	known := map[string]bool{}
	for _, a := range athletes {
		known[a.ID] = true
		marks, attended := present[a.ID]
		if !a.Active && !attended {
			continue
		}
		if marks == nil {
			marks = make([]bool, len(days))
		}
		row := AttendanceRow{AthleteID: a.ID, Name: a.Name, Group: a.Group, Archived: !a.Active, Present: marks}
		for _, p := range marks {
			if p {
				row.Count++
			}
		}
		res.Rows = append(res.Rows, row)
	}
	for _, date := range days {
		for _, id := range w.Sessions[date] {
			if !known[id] {
				known[id] = true
				res.Unknown = append(res.Unknown, id)
			}
		}
	}
	return res, nil
}
