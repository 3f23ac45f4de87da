package athlete

import (
	"context"
	"fmt"
	"strings"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/athlete"
)

// DocName is the logical name of the athletes file.
const DocName = "athletes"

// DocumentStore implements Store on top of the athletes JSON file.
type DocumentStore struct {
	doc *docstore.Document[domain.Document]
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a Store backed by the file fileID.
func NewDocumentStore(api storage.FileAPI, fileID string, opts docstore.Options) *DocumentStore {
	return &DocumentStore{doc: docstore.New(DocName, fileID, api, domain.Normalize, opts)}
}

// GetByID retrieves an Athlete by its ID.
// POST: Returns domain.ErrNotFound when absent
func (s *DocumentStore) GetByID(ctx context.Context, id string) (domain.Athlete, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return domain.Athlete{}, err
	}
	i := d.Find(id)
	if i < 0 {
		return domain.Athlete{}, fmt.Errorf("athlete %q: %w", id, domain.ErrNotFound)
	}
	return d.Athletes[i], nil
}

// Save inserts or replaces value.
// PRE: value.ID is non-empty and value has been validated
func (s *DocumentStore) Save(ctx context.Context, value domain.Athlete) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		d.Upsert(value)
		return nil
	})
	return err
}

// Delete removes the athlete with id.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.Remove(id)
	})
	return err
}

// List returns athletes sorted by name, filtered and paged.
func (s *DocumentStore) List(ctx context.Context, filter ListFilter) ([]domain.Athlete, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Athlete
	for _, a := range d.Athletes {
		if !filter.IncludeArchived && !a.Active {
			continue
		}
		if filter.Group != "" && !strings.EqualFold(a.Group, filter.Group) {
			continue
		}
		out = append(out, a)
	}
	return page(out, filter.Offset, filter.Limit), nil
}

// SearchByName returns up to limit athletes whose name contains query.
// Archived athletes are included.
func (s *DocumentStore) SearchByName(ctx context.Context, query string, limit int) ([]domain.Athlete, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Athlete
	for _, a := range d.Athletes {
		if a.MatchesName(query) {
			out = append(out, a)
		}
	}
	return page(out, 0, limit), nil
}

func page(items []domain.Athlete, offset, limit int) []domain.Athlete {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
