package plan

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/plan"
)

// DocName is the logical name of the plans file.
const DocName = "plans"

// DocumentStore implements Store on top of the plans JSON file.
type DocumentStore struct {
	doc   *docstore.Document[domain.Document]
	newID func() string
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a Store backed by the file fileID.
func NewDocumentStore(api storage.FileAPI, fileID string, opts docstore.Options) *DocumentStore {
	return &DocumentStore{
		doc:   docstore.New(DocName, fileID, api, domain.Normalize, opts),
		newID: uuid.NewString,
	}
}

// Day returns the plan for athleteID on date and whether one exists.
func (s *DocumentStore) Day(ctx context.Context, athleteID, date string) (domain.Day, bool, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return domain.Day{}, false, err
	}
	day, ok := d.Day(athleteID, date)
	return day, ok, nil
}

// SetDay stores day; an empty day clears the date.
// PRE: day has been validated
func (s *DocumentStore) SetDay(ctx context.Context, athleteID, date string, day domain.Day) error {
	day.Items = slices.Clone(day.Items)
	for i := range day.Items {
		if day.Items[i].ID == "" {
			day.Items[i].ID = s.newID()
		}
	}
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.SetDay(athleteID, date, day)
	})
	return err
}

// ClearDay removes the plan for athleteID on date.
// POST: Returns false without writing when nothing was planned
func (s *DocumentStore) ClearDay(ctx context.Context, athleteID, date string) (bool, error) {
	var removed bool
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		removed = d.ClearDay(athleteID, date)
		if !removed {
			return docstore.ErrUnchanged
		}
		return nil
	})
	return removed, err
}

// CopyWeek copies every planned day of fromKey onto toKey.
// POST: Returns the number of days copied; nothing is written when zero
func (s *DocumentStore) CopyWeek(ctx context.Context, athleteID, fromKey, toKey string) (int, error) {
	var copied int
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		var err error
		copied, err = d.CopyWeek(athleteID, fromKey, toKey, s.newID)
		if err == nil && copied == 0 {
			return docstore.ErrUnchanged
		}
		return err
	})
	return copied, err
}

// Range returns the planned days of athleteID between from and to inclusive.
func (s *DocumentStore) Range(ctx context.Context, athleteID, from, to string) ([]domain.Dated, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Range(athleteID, from, to), nil
}

// UsesExercise reports whether any plan references exerciseID.
func (s *DocumentStore) UsesExercise(ctx context.Context, exerciseID string) (bool, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return false, err
	}
	return d.UsesExercise(exerciseID), nil
}

// RemoveAthlete drops every plan of athleteID.
func (s *DocumentStore) RemoveAthlete(ctx context.Context, athleteID string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		if _, ok := d.Athletes[athleteID]; !ok {
			return docstore.ErrUnchanged
		}
		d.RemoveAthlete(athleteID)
		return nil
	})
	return err
}
