package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"clubhouse/internal/domain/week"
)

// DocumentVersion is the advisory version written with every save.
const DocumentVersion = 1

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 120
	MaxNotesLength = 4000
	MaxItems       = 50
)

// Domain errors
var (
	ErrEmptyAthleteID = errors.New("plan must be associated with an athlete")
	ErrTitleTooLong   = errors.New("plan title cannot exceed 120 characters")
	ErrNotesTooLong   = errors.New("plan notes cannot exceed 4000 characters")
	ErrTooManyItems   = errors.New("a day plan cannot hold more than 50 items")
	ErrItemExercise   = errors.New("plan item needs an exercise")
	ErrItemNegative   = errors.New("plan item values cannot be negative")
)

// Item is one prescribed exercise within a day.
type Item struct {
	ID           string  `json:"id"`
	ExerciseID   string  `json:"exerciseId,omitempty"`
	ExerciseName string  `json:"exerciseName,omitempty"`
	Sets         int     `json:"sets,omitempty"`
	Reps         int     `json:"reps,omitempty"`
	Load         float64 `json:"load,omitempty"`
	DurationMin  int     `json:"durationMin,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// Validate checks the item values.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.ExerciseID) == "" && strings.TrimSpace(it.ExerciseName) == "" {
		return ErrItemExercise
	}
	if it.Sets < 0 || it.Reps < 0 || it.Load < 0 || it.DurationMin < 0 {
		return ErrItemNegative
	}
	return nil
}

// Day is the plan for one athlete on one date.
type Day struct {
	Title string `json:"title,omitempty"`
	Notes string `json:"notes,omitempty"`
	Items []Item `json:"items"`
}

// Validate checks if the Day has valid data.
// PRE: Day struct is initialized
// POST: Returns the first validation error, nil otherwise
func (d *Day) Validate() error {
	if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(d.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if len(d.Items) > MaxItems {
		return ErrTooManyItems
	}
	for i := range d.Items {
		if err := d.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return nil
}

// IsEmpty reports whether the day carries nothing worth storing.
func (d *Day) IsEmpty() bool {
	return len(d.Items) == 0 && strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Notes) == ""
}

// UsesExercise reports whether any item references exerciseID.
func (d *Day) UsesExercise(exerciseID string) bool {
	for _, it := range d.Items {
		if it.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// Document is the persisted plans-by-athlete-by-day file.
type Document struct {
	Version  int                       `json:"version"`
	Athletes map[string]map[string]Day `json:"athletes"`
}

// NewDocument returns an empty plans document.
func NewDocument() Document {
	return Document{Version: DocumentVersion, Athletes: map[string]map[string]Day{}}
}

// Day returns the plan for athleteID on date and whether it exists.
func (d *Document) Day(athleteID, date string) (Day, bool) {
	day, ok := d.Athletes[athleteID][date]
	return day, ok
}

// SetDay stores day for athleteID on date. An empty day clears the date.
// PRE: day has been validated
func (d *Document) SetDay(athleteID, date string, day Day) error {
	if athleteID == "" {
		return ErrEmptyAthleteID
	}
	if _, err := week.ParseDate(date); err != nil {
		return err
	}
	if day.IsEmpty() {
		d.ClearDay(athleteID, date)
		return nil
	}
	if day.Items == nil {
		day.Items = []Item{}
	}
	if d.Athletes == nil {
		d.Athletes = map[string]map[string]Day{}
	}
	if d.Athletes[athleteID] == nil {
		d.Athletes[athleteID] = map[string]Day{}
	}
	d.Athletes[athleteID][date] = day
	return nil
}

// ClearDay removes the plan for athleteID on date.
// POST: Returns true when something was removed
func (d *Document) ClearDay(athleteID, date string) bool {
	days, ok := d.Athletes[athleteID]
	if !ok {
		return false
	}
	if _, ok := days[date]; !ok {
		return false
	}
	delete(days, date)
	if len(days) == 0 {
		delete(d.Athletes, athleteID)
	}
	return true
}

// RemoveAthlete drops every plan of athleteID.
func (d *Document) RemoveAthlete(athleteID string) {
	delete(d.Athletes, athleteID)
}

// Dated is a Day with its date, used for range listings.
type Dated struct {
	Date string `json:"date"`
	Day
}

// Range returns the days of athleteID between from and to (inclusive), ascending.
func (d *Document) Range(athleteID, from, to string) []Dated {
	var out []Dated
	for date, day := range d.Athletes[athleteID] {
		if date >= from && date <= to {
			out = append(out, Dated{Date: date, Day: day})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CopyWeek copies every planned day of athleteID from week `from` into week
// `to`, shifted by whole weeks. Target days that receive a copy are
// overwritten; other target days are left alone.
// POST: Returns the number of days copied
func (d *Document) CopyWeek(athleteID, from, to string, newItemID func() string) (int, error) {
	fromDays, err := week.Days(from)
	if err != nil {
		return 0, err
	}
	toDays, err := week.Days(to)
	if err != nil {
		return 0, err
	}
	copied := 0
	for i, date := range fromDays {
		src, ok := d.Day(athleteID, date)
		if !ok {
			continue
		}
		dst := Day{Title: src.Title, Notes: src.Notes, Items: make([]Item, len(src.Items))}
		for j, it := range src.Items {
			it.ID = newItemID()
			dst.Items[j] = it
		}
		if err := d.SetDay(athleteID, toDays[i], dst); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// UsesExercise reports whether any plan references exerciseID.
func (d *Document) UsesExercise(exerciseID string) bool {
	for _, days := range d.Athletes {
		for _, day := range days {
			if day.UsesExercise(exerciseID) {
				return true
			}
		}
	}
	return false
}
