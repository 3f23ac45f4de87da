package week_test

import (
	"errors"
	"testing"
	"time"

	"clubhouse/internal/domain/week"
)

// TestKeyOf covers year-boundary cases of ISO week numbering.
func TestKeyOf(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"mid year", "2026-10-14", "2026-W42"},
		{"jan 1 2021 belongs to previous year", "2021-01-01", "2020-W53"},
		{"dec 31 2024 belongs to next year", "2024-12-31", "2025-W01"},
		{"first thursday defines week 1", "2026-01-01", "2026-W01"},
		{"sunday closes the week", "2026-10-18", "2026-W42"},
		{"monday opens the week", "2026-10-19", "2026-W43"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := week.ParseDate(tt.date)
			if err != nil {
				t.Fatalf("ParseDate: %v", err)
			}
			if got := week.KeyOf(d); got != tt.want {
				t.Errorf("KeyOf(%s) = %s, want %s", tt.date, got, tt.want)
			}
		})
	}
}

// TestWeeksInYear checks 52 and 53 week years.
func TestWeeksInYear(t *testing.T) {
	tests := map[int]int{2020: 53, 2021: 52, 2026: 53, 2027: 52}
	for year, want := range tests {
		if got := week.WeeksInYear(year); got != want {
			t.Errorf("WeeksInYear(%d) = %d, want %d", year, got, want)
		}
	}
}

// TestParseKey rejects malformed and out-of-range keys.
func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr error
	}{
		{"2026-W42", nil},
		{"2026-w07", nil},
		{"2020-W53", nil},
		{"2021-W53", week.ErrInvalidWeek},
		{"2026-W00", week.ErrInvalidWeek},
		{"2026W42", week.ErrInvalidKey},
		{"26-W42", week.ErrInvalidKey},
		{"2026-Wxx", week.ErrInvalidKey},
		{"", week.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, _, err := week.ParseKey(tt.key)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("ParseKey(%q) unexpected error: %v", tt.key, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseKey(%q) error = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

// TestStartRoundTrip checks KeyOf(Start(y, w)) == Key(y, w) for every week of several years.
func TestStartRoundTrip(t *testing.T) {
	for _, year := range []int{2019, 2020, 2021, 2026, 2032} {
		for w := 1; w <= week.WeeksInYear(year); w++ {
			start := week.Start(year, w)
			if start.Weekday() != time.Monday {
				t.Fatalf("Start(%d, %d) = %s, not a Monday", year, w, start)
			}
			if got, want := week.KeyOf(start), week.Key(year, w); got != want {
				t.Fatalf("KeyOf(Start(%d, %d)) = %s, want %s", year, w, got, want)
			}
		}
	}
}

// TestShift checks shifting across year boundaries and the inverse property.
func TestShift(t *testing.T) {
	tests := []struct {
		key  string
		n    int
		want string
	}{
		{"2026-W42", 1, "2026-W43"},
		{"2026-W42", -1, "2026-W41"},
		{"2020-W53", 1, "2021-W01"},
		{"2021-W01", -1, "2020-W53"},
		{"2026-W01", -52, "2025-W01"},
		{"2026-W42", 0, "2026-W42"},
	}

	for _, tt := range tests {
		got, err := week.Shift(tt.key, tt.n)
		if err != nil {
			t.Fatalf("Shift(%s, %d): %v", tt.key, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("Shift(%s, %d) = %s, want %s", tt.key, tt.n, got, tt.want)
		}
		back, err := week.Shift(got, -tt.n)
		if err != nil {
			t.Fatalf("Shift back: %v", err)
		}
		if back != tt.key {
			t.Errorf("Shift(Shift(%s, %d), %d) = %s, want %s", tt.key, tt.n, -tt.n, back, tt.key)
		}
	}
}

// TestDays checks every day of a week maps back to the same key.
func TestDays(t *testing.T) {
	days, err := week.Days("2020-W53")
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("len(days) = %d, want 7", len(days))
	}
	if days[0] != "2020-12-28" || days[6] != "2021-01-03" {
		t.Errorf("days = %v, want 2020-12-28..2021-01-03", days)
	}
	for _, d := range days {
		if !week.Contains("2020-W53", d) {
			t.Errorf("Contains(2020-W53, %s) = false", d)
		}
	}
	if week.Contains("2020-W53", "2021-01-04") {
		t.Error("Contains(2020-W53, 2021-01-04) = true, want false")
	}
}

// TestBetween lists consecutive weeks.
func TestBetween(t *testing.T) {
	keys, err := week.Between("2020-W52", "2021-W02")
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	want := []string{"2020-W52", "2020-W53", "2021-W01", "2021-W02"}
	if len(keys) != len(want) {
		t.Fatalf("Between = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}

	empty, err := week.Between("2021-W02", "2020-W52")
	if err != nil {
		t.Fatalf("Between reversed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Between reversed = %v, want empty", empty)
	}
}

// TestCanonical normalizes the loose spellings ParseKey accepts.
func TestCanonical(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"2026-W05", "2026-W05"},
		{"2026-w05", "2026-W05"},
		{"2026-W5", "2026-W05"},
		{" 2026-w5 ", "2026-W05"},
	}
	for _, tt := range tests {
		got, err := week.Canonical(tt.key)
		if err != nil {
			t.Fatalf("Canonical(%q): %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
	if _, err := week.Canonical("2026-W54"); !errors.Is(err, week.ErrInvalidWeek) {
		t.Errorf("Canonical(2026-W54) = %v, want ErrInvalidWeek", err)
	}
}

// TestContains_LooseKey accepts the same spellings as ParseKey.
func TestContains_LooseKey(t *testing.T) {
	for _, key := range []string{"2026-W05", "2026-w05", "2026-W5"} {
		if !week.Contains(key, "2026-01-26") {
			t.Errorf("Contains(%q, 2026-01-26) = false", key)
		}
	}
	if week.Contains("garbage", "2026-01-26") {
		t.Error("Contains(garbage) = true")
	}
}

// TestSpan counts weeks without listing them.
func TestSpan(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2020-W52", "2021-W02", 4},
		{"2026-W10", "2026-W10", 1},
		{"2021-W02", "2020-W52", 0},
		{"1900-W01", "2999-W01", 57344},
	}
	for _, tt := range tests {
		got, err := week.Span(tt.from, tt.to)
		if err != nil {
			t.Fatalf("Span(%s, %s): %v", tt.from, tt.to, err)
		}
		if got != tt.want {
			t.Errorf("Span(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

// TestLabel formats a display label.
func TestLabel(t *testing.T) {
	got, err := week.Label("2026-W42")
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if want := "W42 · 12 Oct – 18 Oct 2026"; got != want {
		t.Errorf("Label = %q, want %q", got, want)
	}
}
