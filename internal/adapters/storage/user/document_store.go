package user

import (
	"context"
	"fmt"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/user"
)

// DocName is the logical name of the users file.
const DocName = "users"

// DocumentStore implements Store on top of the users JSON file.
type DocumentStore struct {
	doc *docstore.Document[domain.Document]
}

var _ Store = (*DocumentStore)(nil)

// NewDocumentStore creates a Store backed by the file fileID.
func NewDocumentStore(api storage.FileAPI, fileID string, opts docstore.Options) *DocumentStore {
	return &DocumentStore{doc: docstore.New(DocName, fileID, api, domain.Normalize, opts)}
}

// List returns every user sorted by email.
func (s *DocumentStore) List(ctx context.Context) ([]domain.User, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	return d.Users, nil
}

// GetByEmail retrieves a User by email, ignoring case.
func (s *DocumentStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	d, _, err := s.doc.Load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	u, ok := d.Find(email)
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", domain.NormalizeEmail(email), domain.ErrNotFound)
	}
	return u, nil
}

// Save inserts or replaces value. An empty PasswordHash keeps the stored one.
// POST: Returns domain.ErrLastAdmin when demoting the only admin
func (s *DocumentStore) Save(ctx context.Context, value domain.User) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		if prev, ok := d.Find(value.Email); ok && prev.IsAdmin() && !value.IsAdmin() && d.AdminCount() == 1 {
			return domain.ErrLastAdmin
		}
		d.Upsert(value)
		return nil
	})
	return err
}

// Delete removes the user with email.
func (s *DocumentStore) Delete(ctx context.Context, email string) error {
	_, err := s.doc.Update(ctx, func(d *domain.Document) error {
		return d.Remove(email)
	})
	return err
}
