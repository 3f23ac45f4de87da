package user

import (
	"context"
	"errors"
	"testing"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/docstore"
	domain "clubhouse/internal/domain/user"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	api := storage.NewMemoryFileAPI()
	api.Seed("users", "users.json", []byte(`{"Head@Club.org":"admin","coach@club.org":"coach"}`))
	return NewDocumentStore(api, "users", docstore.Options{})
}

func TestDocumentStore_GetByEmailIgnoresCase(t *testing.T) {
	s := newTestStore(t)
	u, err := s.GetByEmail(context.Background(), " HEAD@club.org ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != domain.RoleAdmin || u.Email != "head@club.org" {
		t.Errorf("GetByEmail() = %+v", u)
	}
	if _, err := s.GetByEmail(context.Background(), "who@club.org"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown email = %v, want ErrNotFound", err)
	}
}

func TestDocumentStore_LastAdminProtected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"delete last admin", func() error { return s.Delete(ctx, "head@club.org") }, domain.ErrLastAdmin},
		{"demote last admin", func() error {
			return s.Save(ctx, domain.User{Email: "head@club.org", Role: domain.RoleCoach})
		}, domain.ErrLastAdmin},
		{"delete coach", func() error { return s.Delete(ctx, "coach@club.org") }, nil},
		{"delete missing", func() error { return s.Delete(ctx, "coach@club.org") }, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDocumentStore_SaveKeepsPasswordHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := domain.User{Email: "coach@club.org", Role: domain.RoleCoach}
	if err := u.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := s.Save(ctx, u); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, domain.User{Email: "coach@club.org", Name: "Coach", Role: domain.RoleCoach}); err != nil {
		t.Fatalf("Save without hash: %v", err)
	}
	got, err := s.GetByEmail(ctx, "coach@club.org")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Name != "Coach" || got.CheckPassword("correct horse battery") != nil {
		t.Errorf("hash lost or name not updated: %+v", got)
	}
	users, _ := s.List(ctx)
	if len(users) != 2 {
		t.Errorf("List() = %d users, want 2", len(users))
	}
}
