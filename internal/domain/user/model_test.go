package user_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"clubhouse/internal/domain/user"
)

// TestUserValidation tests user validation rules.
func TestUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		u       user.User
		wantErr error
	}{
		{"valid coach", user.User{Email: "c@club.test", Role: user.RoleCoach}, nil},
		{"empty email", user.User{Role: user.RoleAdmin}, user.ErrEmptyEmail},
		{"missing at", user.User{Email: "coach", Role: user.RoleCoach}, user.ErrInvalidEmail},
		{"bad role", user.User{Email: "c@club.test", Role: "member"}, user.ErrInvalidRole},
		{"accented name at the limit", user.User{Email: "c@club.test", Role: user.RoleCoach, Name: strings.Repeat("ø", user.MaxNameLength)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.u.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestPassword tests hashing and checking passwords.
func TestPassword(t *testing.T) {
	u := user.User{Email: "a@club.test", Role: user.RoleAdmin}
	if err := u.SetPassword("short"); !errors.Is(err, user.ErrPasswordTooShort) {
		t.Fatalf("SetPassword(short) = %v", err)
	}
	if err := u.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := u.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("CheckPassword(right) = %v", err)
	}
	if err := u.CheckPassword("wrong horse battery"); !errors.Is(err, user.ErrWrongPassword) {
		t.Errorf("CheckPassword(wrong) = %v", err)
	}
}

// TestRemoveLastAdmin tests that the last admin cannot be removed.
func TestRemoveLastAdmin(t *testing.T) {
	doc := user.Document{}
	doc.Upsert(user.User{Email: "Admin@Club.test", Role: user.RoleAdmin})
	doc.Upsert(user.User{Email: "coach@club.test", Role: user.RoleCoach})

	if err := doc.Remove("admin@club.test"); !errors.Is(err, user.ErrLastAdmin) {
		t.Fatalf("Remove(last admin) = %v, want ErrLastAdmin", err)
	}
	if err := doc.Remove("COACH@club.test"); err != nil {
		t.Fatalf("Remove(coach) = %v", err)
	}
	if err := doc.Remove("coach@club.test"); !errors.Is(err, user.ErrNotFound) {
		t.Errorf("Remove(missing) = %v, want ErrNotFound", err)
	}
}

// TestUpsertKeepsPasswordHash tests replacing a user without a new password.
func TestUpsertKeepsPasswordHash(t *testing.T) {
	doc := user.Document{}
	doc.Upsert(user.User{Email: "a@club.test", Role: user.RoleCoach, PasswordHash: "hash"})
	doc.Upsert(user.User{Email: "A@club.test", Role: user.RoleAdmin, Name: "Ana"})

	got, ok := doc.Find("a@CLUB.test")
	if !ok {
		t.Fatal("Find: not found")
	}
	want := user.User{Email: "a@club.test", Role: user.RoleAdmin, Name: "Ana", PasswordHash: "hash"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

// TestNormalize_LegacyShapesAgree tests the legacy email-to-role map.
func TestNormalize_LegacyShapesAgree(t *testing.T) {
	want := []user.User{
		{Email: "admin@club.test", Role: user.RoleAdmin},
		{Email: "coach@club.test", Role: user.RoleCoach},
	}
	inputs := map[string]string{
		"wrapped": `{"version":1,"users":[{"email":"coach@club.test","role":"coach"},{"email":"admin@club.test","role":"admin"}]}`,
		"array":   `[{"email":"Coach@Club.test","role":"Coach"},{"email":"admin@club.test","role":"admin"},{"email":"coach@club.test","role":"admin"}]`,
		"legacy":  `{"admin@club.test":"admin","COACH@club.test":"coach"}`,
	}
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			doc, err := user.Normalize([]byte(raw))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if diff := cmp.Diff(want, doc.Users); diff != "" {
				t.Errorf("users mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
