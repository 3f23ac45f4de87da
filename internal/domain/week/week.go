package week

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used for every date stored in documents.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrInvalidKey  = errors.New("week key must look like 2026-W42")
	ErrInvalidWeek = errors.New("week number is out of range for that year")
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
)

// ISOWeek returns the ISO-8601 year and week number of t.
// Weeks start on Monday; week 1 is the week containing the year's first Thursday.
func ISOWeek(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// Key formats an ISO year and week as "YYYY-Www".
func Key(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// KeyOf returns the week key containing t.
func KeyOf(t time.Time) string {
	return Key(ISOWeek(t))
}

// WeeksInYear returns 52 or 53. December 28th always falls in the last ISO week.
func WeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// ParseKey splits a week key into its ISO year and week.
// PRE: key is "YYYY-Www" (lowercase w accepted)
// POST: Returns year and week, or an error if malformed or out of range
func ParseKey(key string) (year, week int, err error) {
	yPart, wPart, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(key)), "-W")
	if !ok || len(yPart) != 4 || len(wPart) < 1 || len(wPart) > 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	year, err = strconv.Atoi(yPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	week, err = strconv.Atoi(wPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if week < 1 || week > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWeek, key)
	}
	return year, week, nil
}

// Canonical rewrites an accepted key such as "2026-w5" as "2026-W05".
// Documents are keyed by the canonical form only.
func Canonical(key string) (string, error) {
	y, w, err := ParseKey(key)
	if err != nil {
		return "", err
	}
	return Key(y, w), nil
}

// Start returns Monday 00:00 UTC of the given ISO week.
func Start(year, week int) time.Time {
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := int(jan4.Weekday()+6) % 7 // days since Monday
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7)
}

// StartOf returns Monday 00:00 UTC of the week identified by key.
func StartOf(key string) (time.Time, error) {
	y, w, err := ParseKey(key)
	if err != nil {
		return time.Time{}, err
	}
	return Start(y, w), nil
}

// Days returns the seven dates (Monday..Sunday) of the week.
func Days(key string) ([]string, error) {
	start, err := StartOf(key)
	if err != nil {
		return nil, err
	}
	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return days, nil
}

// Shift moves a week key by n weeks. Negative n moves backwards.
func Shift(key string, n int) (string, error) {
	start, err := StartOf(key)
	if err != nil {
		return "", err
	}
	return KeyOf(start.AddDate(0, 0, 7*n)), nil
}

// Span counts the weeks from `from` to `to` inclusive without listing them.
// It is zero when to is before from.
func Span(from, to string) (int, error) {
	start, err := StartOf(from)
	if err != nil {
		return 0, err
	}
	end, err := StartOf(to)
	if err != nil {
		return 0, err
	}
	if end.Before(start) {
		return 0, nil
	}
	return int((end.Unix()-start.Unix())/(7*24*3600)) + 1, nil
}

// Between returns every week key from `from` to `to` inclusive.
// An empty slice is returned when to is before from.
func Between(from, to string) ([]string, error) {
	n, err := Span(from, to)
	if err != nil || n == 0 {
		return nil, err
	}
	start, _ := StartOf(from)
	keys := make([]string, n)
	for i := range keys {
		keys[i] = KeyOf(start.AddDate(0, 0, 7*i))
	}
	return keys, nil
}

// Contains reports whether date (YYYY-MM-DD) falls inside the week.
func Contains(key, date string) bool {
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	canonical, err := Canonical(key)
	return err == nil && KeyOf(t) == canonical
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Label renders a week for display, e.g. "W42 · 12 Oct – 18 Oct 2026".
func Label(key string) (string, error) {
	y, w, err := ParseKey(key)
	if err != nil {
		return "", err
	}
	start := Start(y, w)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("W%02d · %s – %s", w, start.Format("2 Jan"), end.Format("2 Jan 2006")), nil
}
