package attendance

import (
	"context"
	"log/slog"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/week"
)

// DocName is the logical name of the attendance file.
const DocName = "attendance"

// DocumentStore implements Store on top of the attendance JSON file.
type DocumentStore struct {
	doc *docstore.Document[domain.Document]
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a Store backed by the file fileID.
func NewDocumentStore(api storage.FileAPI, fileID string, opts docstore.Options) *DocumentStore {
	return &DocumentStore{doc: docstore.New(DocName, fileID, api, domain.Normalize, opts)}
}

// Week returns the sessions of week key; a week never written is empty.
func (s *DocumentStore) Week(ctx context.Context, key string) (domain.Week, error) {
	key, err := week.Canonical(key)
	if err != nil {
		return domain.Week{}, err
	}
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return domain.Week{}, err
	}
	return d.Week(key), nil
}

// Range returns every week from fromKey to toKey inclusive, keyed by week.
// Weeks without sessions are present and empty.
func (s *DocumentStore) Range(ctx context.Context, fromKey, toKey string) (map[string]domain.Week, error) {
	keys, err := week.Between(fromKey, toKey)
	if err != nil {
		return nil, err
	}
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Week, len(keys))
	for _, k := range keys {
		out[k] = d.Week(k)
	}
	return out, nil
}

// Mark records athleteID as present on date.
func (s *DocumentStore) Mark(ctx context.Context, date, athleteID string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		if d.Attended(date, athleteID) {
			return docstore.ErrUnchanged
		}
		return d.Mark(date, athleteID)
	})
	return err
}

// Unmark removes athleteID from the session on date.
func (s *DocumentStore) Unmark(ctx context.Context, date, athleteID string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		if _, err := week.ParseDate(date); err == nil && athleteID != "" && !d.Attended(date, athleteID) {
			return docstore.ErrUnchanged
		}
		return d.Unmark(date, athleteID)
	})
	return err
}

// Toggle flips presence of athleteID on date and returns the new state.
func (s *DocumentStore) Toggle(ctx context.Context, date, athleteID string) (bool, error) {
	var present bool
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		var err error
		present, err = d.Toggle(date, athleteID)
		return err
	})
	return present, err
}

// SetSession replaces the attendee list for date.
func (s *DocumentStore) SetSession(ctx context.Context, date string, athleteIDs []string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.SetSession(date, athleteIDs)
	})
	return err
}

// RemoveAthlete drops athleteID from every session.
func (s *DocumentStore) RemoveAthlete(ctx context.Context, athleteID string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		changed := d.RemoveAthlete(athleteID)
		if changed == 0 {
			return docstore.ErrUnchanged
		}
		slog.Debug("attendance_athlete_removed", "athlete_id", athleteID, "sessions", changed)
		return nil
	})
	return err
}
