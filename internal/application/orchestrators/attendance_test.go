package orchestrators

import (
	"context"
	"errors"
	"testing"

	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/week"
)

func TestExecuteMarkAttendance_Actions(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	deps := MarkAttendanceDeps{AthleteStore: s.athletes, AttendanceStore: s.attendance}

	steps := []struct {
		action string
		want   bool
	}{
		{ActionMark, true},
		{ActionMark, true},
		{ActionToggle, false},
		{ActionToggle, true},
		{ActionUnmark, false},
		{"", true},
	}
	for i, step := range steps {
		got, err := ExecuteMarkAttendance(ctx, MarkAttendanceInput{AthleteID: a.ID, Date: "2026-10-13", Action: step.action}, deps)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, step.action, err)
		}
		if got != step.want {
			t.Errorf("step %d (%s): present = %v, want %v", i, step.action, got, step.want)
		}
	}
}

func TestExecuteMarkAttendance_ArchivedAthlete(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	deps := MarkAttendanceDeps{AthleteStore: s.athletes, AttendanceStore: s.attendance}
	if _, err := ExecuteMarkAttendance(ctx, MarkAttendanceInput{AthleteID: a.ID, Date: "2026-10-13"}, deps); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := ExecuteArchiveAthlete(ctx, ArchiveAthleteInput{AthleteID: a.ID}, ArchiveAthleteDeps{AthleteStore: s.athletes}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	if _, err := ExecuteMarkAttendance(ctx, MarkAttendanceInput{AthleteID: a.ID, Date: "2026-10-15", Action: ActionMark}, deps); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("marking archived athlete: err = %v", err)
	}
	present, err := ExecuteMarkAttendance(ctx, MarkAttendanceInput{AthleteID: a.ID, Date: "2026-10-13", Action: ActionToggle}, deps)
	if err != nil || present {
		t.Errorf("toggle on archived athlete = %v, %v; want false, nil", present, err)
	}
}

func TestExecuteMarkAttendance_InvalidInput(t *testing.T) {
	s := newTestStores(t)
	a := registerTestAthlete(t, s, "Ada")
	deps := MarkAttendanceDeps{AthleteStore: s.athletes, AttendanceStore: s.attendance}
	tests := []struct {
		name  string
		input MarkAttendanceInput
		want  error
	}{
		{"missing athlete", MarkAttendanceInput{Date: "2026-10-13"}, ErrInvalidInput},
		{"bad date", MarkAttendanceInput{AthleteID: a.ID, Date: "13/10/2026"}, week.ErrInvalidDate},
		{"unknown action", MarkAttendanceInput{AthleteID: a.ID, Date: "2026-10-13", Action: "flip"}, ErrInvalidInput},
		{"unknown athlete", MarkAttendanceInput{AthleteID: "ghost", Date: "2026-10-13"}, athlete.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteMarkAttendance(context.Background(), tt.input, deps)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecuteSetSessionAttendance(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	a := registerTestAthlete(t, s, "Ada")
	b := registerTestAthlete(t, s, "Bea")
	deps := SetSessionAttendanceDeps{AthleteStore: s.athletes, AttendanceStore: s.attendance}

	if err := ExecuteSetSessionAttendance(ctx, SetSessionAttendanceInput{Date: "2026-10-13", AthleteIDs: []string{b.ID, a.ID}}, deps); err != nil {
		t.Fatalf("ExecuteSetSessionAttendance: %v", err)
	}
	err := ExecuteSetSessionAttendance(ctx, SetSessionAttendanceInput{Date: "2026-10-13", AthleteIDs: []string{a.ID, "ghost"}}, deps)
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, athlete.ErrNotFound) {
		t.Errorf("unknown athlete: err = %v", err)
	}

	w, err := s.attendance.Week(ctx, "2026-W42")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if got := w.Sessions["2026-10-13"]; len(got) != 2 {
		t.Errorf("session = %v, want both athletes", got)
	}

	if err := ExecuteSetSessionAttendance(ctx, SetSessionAttendanceInput{Date: "2026-10-13"}, deps); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	w, _ = s.attendance.Week(ctx, "2026-W42")
	if len(w.Sessions["2026-10-13"]) != 0 {
		t.Errorf("session not cleared: %v", w.Sessions)
	}
}
