package projections

import (
	"context"
	"errors"
	"testing"

	domainAttendance "clubhouse/internal/domain/attendance"
)

func TestQueryGetAttendanceSummary_TotalsAndRates(t *testing.T) {
	deps := GetAttendanceSummaryDeps{
		AthleteStore: &fakeAthletes{athletes: roster()},
		AttendanceStore: &fakeAttendance{weeks: map[string]domainAttendance.Week{
			"2026-W41": {Sessions: map[string][]string{"2026-10-06": {"a1", "a2"}, "2026-10-08": {}}},
			"2026-W42": {Sessions: map[string][]string{"2026-10-13": {"a1"}, "2026-10-15": {"a1", "a3"}}},
			"2026-W44": {Sessions: map[string][]string{"2026-10-27": {"a2"}}},
		}},
	}
	res, err := QueryGetAttendanceSummary(context.Background(), GetAttendanceSummaryQuery{FromWeek: "2026-W41", ToWeek: "2026-W42"}, deps)
	if err != nil {
		t.Fatalf("QueryGetAttendanceSummary: %v", err)
	}
	if res.Weeks != 2 || res.Sessions != 3 {
		t.Fatalf("weeks=%d sessions=%d, want 2 and 3", res.Weeks, res.Sessions)
	}
	want := []AthleteAttendance{
		{AthleteID: "a1", Name: "Ada", Attended: 3, Rate: 1},
		{AthleteID: "a2", Name: "Bea", Attended: 1, Rate: 1.0 / 3},
		{AthleteID: "a3", Name: "Cal", Attended: 1, Rate: 1.0 / 3},
	}
	if len(res.Athletes) != len(want) {
		t.Fatalf("athletes = %+v", res.Athletes)
	}
	for i := range want {
		if res.Athletes[i] != want[i] {
			t.Errorf("athletes[%d] = %+v, want %+v", i, res.Athletes[i], want[i])
		}
	}
}

func TestQueryGetAttendanceSummary_Ranges(t *testing.T) {
	deps := GetAttendanceSummaryDeps{AthleteStore: &fakeAthletes{}, AttendanceStore: &fakeAttendance{}}
	ctx := context.Background()

	res, err := QueryGetAttendanceSummary(ctx, GetAttendanceSummaryQuery{FromWeek: "2026-W42", ToWeek: "2026-W40"}, deps)
	if err != nil || res.Weeks != 0 {
		t.Errorf("reversed range: res=%+v err=%v", res, err)
	}
	_, err = QueryGetAttendanceSummary(ctx, GetAttendanceSummaryQuery{FromWeek: "2020-W01", ToWeek: "2026-W01"}, deps)
	if !errors.Is(err, ErrRangeTooLong) {
		t.Errorf("err = %v, want ErrRangeTooLong", err)
	}
	_, err = QueryGetAttendanceSummary(ctx, GetAttendanceSummaryQuery{FromWeek: "0001-W01", ToWeek: "9999-W01"}, deps)
	if !errors.Is(err, ErrRangeTooLong) {
		t.Errorf("err = %v, want ErrRangeTooLong", err)
	}

	res, err = QueryGetAttendanceSummary(ctx, GetAttendanceSummaryQuery{FromWeek: "2026-w41", ToWeek: "2026-W42"}, deps)
	if err != nil || res.FromWeek != "2026-W41" || res.Weeks != 2 {
		t.Errorf("loose keys: res=%+v err=%v", res, err)
	}
}
