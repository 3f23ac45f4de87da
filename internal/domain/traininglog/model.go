package traininglog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"clubhouse/internal/domain/plan"
	"clubhouse/internal/domain/week"
)

// DocumentVersion is the advisory version written with every save.
const DocumentVersion = 1

// Bounds for user-entered values.
const (
	MaxNotesLength = 4000
	MaxEntries     = 50
	MaxRPE         = 10
)

// Domain errors
var (
	ErrEmptyAthleteID = errors.New("training log must be associated with an athlete")
	ErrNotesTooLong   = errors.New("training log notes cannot exceed 4000 characters")
	ErrTooManyEntries = errors.New("a training log day cannot hold more than 50 entries")
	ErrInvalidRPE     = errors.New("RPE must be between 0 and 10")
	ErrEntryExercise  = errors.New("log entry needs an exercise")
	ErrEntryNegative  = errors.New("log entry values cannot be negative")
)

// Entry records what was actually done for one exercise.
type Entry struct {
	ID           string  `json:"id"`
	ExerciseID   string  `json:"exerciseId,omitempty"`
	ExerciseName string  `json:"exerciseName,omitempty"`
	PlanItemID   string  `json:"planItemId,omitempty"`
	Sets         int     `json:"sets,omitempty"`
	Reps         int     `json:"reps,omitempty"`
	Load         float64 `json:"load,omitempty"`
	DurationMin  int     `json:"durationMin,omitempty"`
	Done         bool    `json:"done"`
	Notes        string  `json:"notes,omitempty"`
}

// Day is the log for one athlete on one date.
type Day struct {
	Notes   string  `json:"notes,omitempty"`
	RPE     int     `json:"rpe,omitempty"`
	Entries []Entry `json:"entries"`
}

// Validate checks if the Day has valid data.
// PRE: Day struct is initialized
// POST: Returns the first validation error, nil otherwise
func (d *Day) Validate() error {
	if utf8.RuneCountInString(d.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if d.RPE < 0 || d.RPE > MaxRPE {
		return ErrInvalidRPE
	}
	if len(d.Entries) > MaxEntries {
		return ErrTooManyEntries
	}
	for i, e := range d.Entries {
		if strings.TrimSpace(e.ExerciseID) == "" && strings.TrimSpace(e.ExerciseName) == "" {
			return fmt.Errorf("entry %d: %w", i+1, ErrEntryExercise)
		}
		if e.Sets < 0 || e.Reps < 0 || e.Load < 0 || e.DurationMin < 0 {
			return fmt.Errorf("entry %d: %w", i+1, ErrEntryNegative)
		}
	}
	return nil
}

// IsEmpty reports whether the day carries nothing worth storing.
func (d *Day) IsEmpty() bool {
	return len(d.Entries) == 0 && strings.TrimSpace(d.Notes) == "" && d.RPE == 0
}

// Completion returns done entries over total entries, 0 when empty.
func (d *Day) Completion() float64 {
	if len(d.Entries) == 0 {
		return 0
	}
	done := 0
	for _, e := range d.Entries {
		if e.Done {
			done++
		}
	}
	return float64(done) / float64(len(d.Entries))
}

// FromPlan seeds a log day from a plan day. Every entry starts not done.
func FromPlan(p plan.Day, newID func() string) Day {
	d := Day{Entries: make([]Entry, 0, len(p.Items))}
	for _, it := range p.Items {
		d.Entries = append(d.Entries, Entry{
			ID:           newID(),
			ExerciseID:   it.ExerciseID,
			ExerciseName: it.ExerciseName,
			PlanItemID:   it.ID,
			Sets:         it.Sets,
			Reps:         it.Reps,
			Load:         it.Load,
			DurationMin:  it.DurationMin,
		})
	}
	return d
}

// Document is the persisted training-log file, keyed by athlete then date.
type Document struct {
	Version  int                       `json:"version"`
	Athletes map[string]map[string]Day `json:"athletes"`
}

// NewDocument returns an empty log document.
func NewDocument() Document {
	return Document{Version: DocumentVersion, Athletes: map[string]map[string]Day{}}
}

// Day returns the log of athleteID on date and whether it exists.
func (d *Document) Day(athleteID, date string) (Day, bool) {
	day, ok := d.Athletes[athleteID][date]
	return day, ok
}

// SetDay stores day; an empty day clears the date.
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
	if day.Entries == nil {
		day.Entries = []Entry{}
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

// ClearDay removes the log of athleteID on date.
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

// RemoveAthlete drops every log of athleteID.
func (d *Document) RemoveAthlete(athleteID string) {
	delete(d.Athletes, athleteID)
}

// Dated is a Day with its date.
type Dated struct {
	Date string `json:"date"`
	Day
}

// Range returns the logs of athleteID between from and to inclusive, ascending.
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

// Normalize decodes the log file in its wrapped form or the legacy form keyed
// directly by athlete ID. Entries without IDs get sequential IDs.
func Normalize(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	doc := NewDocument()
	if len(raw) == 0 || string(raw) == "null" {
		return doc, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Document{}, fmt.Errorf("decode logs: %w", err)
	}
	athletes := top
	if body, ok := top["athletes"]; ok {
		athletes = nil
		if err := json.Unmarshal(body, &athletes); err != nil {
			return Document{}, fmt.Errorf("decode logs athletes: %w", err)
		}
	}

	for athleteID, body := range athletes {
		if athleteID == "version" {
			continue
		}
		var days map[string]Day
		if err := json.Unmarshal(body, &days); err != nil {
			return Document{}, fmt.Errorf("decode logs for %s: %w", athleteID, err)
		}
		for date, day := range days {
			if _, err := week.ParseDate(date); err != nil {
				continue
			}
			for i := range day.Entries {
				if day.Entries[i].ID == "" {
					day.Entries[i].ID = fmt.Sprintf("%s-%s-%d", athleteID, date, i+1)
				}
			}
			if err := doc.SetDay(athleteID, date, day); err != nil {
				return Document{}, err
			}
		}
	}
	return doc, nil
}
