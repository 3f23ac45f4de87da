package exercise

import (
	"context"
	"fmt"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/exercise"
)

// DocName is the logical name of the exercise catalog file.
const DocName = "exercises"

// DocumentStore implements Store on top of the exercises JSON file.
type DocumentStore struct {
	doc *docstore.Document[domain.Document]
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a Store backed by the file fileID.
func NewDocumentStore(api storage.FileAPI, fileID string, opts docstore.Options) *DocumentStore {
	return &DocumentStore{doc: docstore.New(DocName, fileID, api, domain.Normalize, opts)}
}

// List returns the catalog sorted by name.
func (s *DocumentStore) List(ctx context.Context, includeArchived bool) ([]domain.Exercise, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Exercise, 0, len(d.Exercises))
	for _, e := range d.Exercises {
		if e.Archived && !includeArchived {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// GetByID retrieves an Exercise by its ID.
func (s *DocumentStore) GetByID(ctx context.Context, id string) (domain.Exercise, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return domain.Exercise{}, err
	}
	i := d.Find(id)
	if i < 0 {
		return domain.Exercise{}, fmt.Errorf("exercise %q: %w", id, domain.ErrNotFound)
	}
	return d.Exercises[i], nil
}

// Save inserts or replaces value.
// POST: Returns domain.ErrDuplicateName when another exercise has the name
func (s *DocumentStore) Save(ctx context.Context, value domain.Exercise) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.Upsert(value)
	})
	return err
}

// Delete removes the exercise with id.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.Remove(id)
	})
	return err
}

// Archive sets the archived flag of the exercise with id.
func (s *DocumentStore) Archive(ctx context.Context, id string, archived bool) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		i := d.Find(id)
		if i < 0 {
			return fmt.Errorf("exercise %q: %w", id, domain.ErrNotFound)
		}
		if d.Exercises[i].Archived == archived {
			return docstore.ErrUnchanged
		}
		d.Exercises[i].Archived = archived
		return nil
	})
	return err
}
