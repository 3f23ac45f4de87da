package attendance

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"clubhouse/internal/domain/week"
)

// DocumentVersion is the advisory version written with every save.
const DocumentVersion = 1

// Domain errors
var (
	ErrEmptyAthleteID = errors.New("attendance must be associated with an athlete")
)

// Week holds the sessions of one ISO week, keyed by date (YYYY-MM-DD).
// Each session lists the IDs of athletes present, sorted and unique.
type Week struct {
	Sessions map[string][]string `json:"sessions"`
}

// Document is the persisted attendance-by-week file.
type Document struct {
	Version int             `json:"version"`
	Weeks   map[string]Week `json:"weeks"`
}

// NewDocument returns an empty attendance document.
func NewDocument() Document {
	return Document{Version: DocumentVersion, Weeks: map[string]Week{}}
}

// Week returns the sessions for key in any spelling ParseKey accepts.
// A missing week yields an empty Week.
// INVARIANT: Document is not mutated
func (d *Document) Week(key string) Week {
	if k, err := week.Canonical(key); err == nil {
		key = k
	}
	if w, ok := d.Weeks[key]; ok {
		return w
	}
	return Week{Sessions: map[string][]string{}}
}

// Attended reports whether athleteID is present on date.
func (d *Document) Attended(date, athleteID string) bool {
	t, err := week.ParseDate(date)
	if err != nil {
		return false
	}
	ids := d.Week(week.KeyOf(t)).Sessions[date]
	_, found := slices.BinarySearch(ids, athleteID)
	return found
}

// Mark records athleteID as present on date.
// PRE: date is YYYY-MM-DD, athleteID non-empty
// POST: athleteID appears once in the session for date
func (d *Document) Mark(date, athleteID string) error {
	key, err := d.prepare(date, athleteID)
	if err != nil {
		return err
	}
	w := d.Weeks[key]
	ids := w.Sessions[date]
	i, found := slices.BinarySearch(ids, athleteID)
	if !found {
		w.Sessions[date] = slices.Insert(ids, i, athleteID)
	}
	return nil
}

// Unmark removes athleteID from the session on date.
// POST: Empty sessions and weeks are dropped from the document
func (d *Document) Unmark(date, athleteID string) error {
	key, err := d.prepare(date, athleteID)
	if err != nil {
		return err
	}
	w := d.Weeks[key]
	ids := w.Sessions[date]
	if i, found := slices.BinarySearch(ids, athleteID); found {
		w.Sessions[date] = slices.Delete(ids, i, i+1)
	}
	d.compact(key)
	return nil
}

// Toggle flips presence of athleteID on date and returns the new state.
func (d *Document) Toggle(date, athleteID string) (bool, error) {
	if d.Attended(date, athleteID) {
		return false, d.Unmark(date, athleteID)
	}
	return true, d.Mark(date, athleteID)
}

// SetSession replaces the attendee list for date.
// POST: The session holds exactly the unique non-empty IDs given
func (d *Document) SetSession(date string, athleteIDs []string) error {
	t, err := week.ParseDate(date)
	if err != nil {
		return err
	}
	key := week.KeyOf(t)
	d.ensureWeek(key)
	d.Weeks[key].Sessions[date] = uniqueSorted(athleteIDs)
	d.compact(key)
	return nil
}

// RemoveAthlete drops athleteID from every session.
// POST: Returns the number of sessions that changed
func (d *Document) RemoveAthlete(athleteID string) int {
	changed := 0
	for key, w := range d.Weeks {
		for date, ids := range w.Sessions {
			if i, found := slices.BinarySearch(ids, athleteID); found {
				w.Sessions[date] = slices.Delete(ids, i, i+1)
				changed++
			}
		}
		d.compact(key)
	}
	return changed
}

// AthleteCount returns how many sessions athleteID attended in week key.
func (d *Document) AthleteCount(key, athleteID string) int {
	n := 0
	for _, ids := range d.Week(key).Sessions {
		if _, found := slices.BinarySearch(ids, athleteID); found {
			n++
		}
	}
	return n
}

// SessionDates returns the dates of week key that have at least one attendee, ascending.
func (d *Document) SessionDates(key string) []string {
	w := d.Week(key)
	dates := make([]string, 0, len(w.Sessions))
	for date, ids := range w.Sessions {
		if len(ids) > 0 {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

func (d *Document) prepare(date, athleteID string) (string, error) {
	if athleteID == "" {
		return "", ErrEmptyAthleteID
	}
	t, err := week.ParseDate(date)
	if err != nil {
		return "", err
	}
	key := week.KeyOf(t)
	d.ensureWeek(key)
	return key, nil
}

func (d *Document) ensureWeek(key string) {
	if d.Weeks == nil {
		d.Weeks = map[string]Week{}
	}
	w, ok := d.Weeks[key]
	if !ok || w.Sessions == nil {
		w.Sessions = map[string][]string{}
		d.Weeks[key] = w
	}
}

func (d *Document) compact(key string) {
	w, ok := d.Weeks[key]
	if !ok {
		return
	}
	for date, ids := range w.Sessions {
		if len(ids) == 0 {
			delete(w.Sessions, date)
		}
	}
	if len(w.Sessions) == 0 {
		delete(d.Weeks, key)
	}
}

func uniqueSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// validateWeekDate checks date belongs to key.
func validateWeekDate(key, date string) error {
	if !week.Contains(key, date) {
		return fmt.Errorf("date %s is not in week %s", date, key)
	}
	return nil
}
