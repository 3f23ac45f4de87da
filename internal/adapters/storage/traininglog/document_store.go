package traininglog

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/traininglog"
)

// DocName is the logical name of the training-log file.
const DocName = "logs"

// DocumentStore implements Store on top of the training-log JSON file.
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

// Day returns the log of athleteID on date and whether one exists.
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
	s.assignIDs(&day)
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.SetDay(athleteID, date, day)
	})
	return err
}

// Start stores seed unless a log already exists.
// POST: Returns the stored day and whether seed was written
func (s *DocumentStore) Start(ctx context.Context, athleteID, date string, seed domain.Day) (domain.Day, bool, error) {
	s.assignIDs(&seed)
	var (
		stored  domain.Day
		created bool
	)
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		if existing, ok := d.Day(athleteID, date); ok {
			stored, created = existing, false
			return docstore.ErrUnchanged
		}
		stored, created = seed, true
		return d.SetDay(athleteID, date, seed)
	})
	if err != nil {
		return domain.Day{}, false, err
	}
	return stored, created, nil
}

// ClearDay removes the log of athleteID on date.
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

// Range returns the logged days of athleteID between from and to inclusive.
func (s *DocumentStore) Range(ctx context.Context, athleteID, from, to string) ([]domain.Dated, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Range(athleteID, from, to), nil
}

// RemoveAthlete drops every log of athleteID.
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

func (s *DocumentStore) assignIDs(day *domain.Day) {
	day.Entries = slices.Clone(day.Entries)
	for i := range day.Entries {
		if day.Entries[i].ID == "" {
			day.Entries[i].ID = s.newID()
		}
	}
}
