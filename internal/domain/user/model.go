package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DocumentVersion is the advisory version written with every save.
const DocumentVersion = 1

// Max length constants for user-editable fields.
const (
	MaxEmailLength    = 254
	MaxNameLength     = 100
	MinPasswordLength = 12
	bcryptCost        = 12
)

// Role constants
const (
	RoleAdmin   = "admin"
	RoleCoach   = "coach"
	RoleAthlete = "athlete"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleCoach, RoleAthlete}

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrNameTooLong      = errors.New("name cannot exceed 100 characters")
	ErrInvalidRole      = errors.New("role must be one of: admin, coach, athlete")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrNotFound         = errors.New("user not found")
	ErrLastAdmin        = errors.New("cannot remove the last admin")
)

// User is someone allowed to sign in. Athletes may be linked to their
// athlete record so they can read their own plan and write their own log.
type User struct {
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role"`
	AthleteID    string `json:"athleteId,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// NormalizeEmail lower-cases and trims an email for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if len(u.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if utf8.RuneCountInString(u.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !slices.Contains(ValidRoles, u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// IsAdmin reports whether the user administers users.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanCoach reports whether the user may edit club data.
func (u *User) CanCoach() bool { return u.Role == RoleAdmin || u.Role == RoleCoach }

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Document is the persisted users file.
type Document struct {
	Version int    `json:"version"`
	Users   []User `json:"users"`
}

// Find returns the user with email, compared case-insensitively.
func (d *Document) Find(email string) (User, bool) {
	key := NormalizeEmail(email)
	for _, u := range d.Users {
		if NormalizeEmail(u.Email) == key {
			return u, true
		}
	}
	return User{}, false
}

// Upsert inserts u or replaces the user with the same email. An empty
// PasswordHash on replace keeps the stored hash.
func (d *Document) Upsert(u User) {
	u.Email = NormalizeEmail(u.Email)
	for i := range d.Users {
		if NormalizeEmail(d.Users[i].Email) == u.Email {
			if u.PasswordHash == "" {
				u.PasswordHash = d.Users[i].PasswordHash
			}
			d.Users[i] = u
			d.sort()
			return
		}
	}
	d.Users = append(d.Users, u)
	d.sort()
}

// Remove deletes the user with email.
// POST: Returns ErrLastAdmin when email is the only admin
func (d *Document) Remove(email string) error {
	key := NormalizeEmail(email)
	idx := slices.IndexFunc(d.Users, func(u User) bool { return NormalizeEmail(u.Email) == key })
	if idx < 0 {
		return ErrNotFound
	}
	if d.Users[idx].IsAdmin() && d.AdminCount() == 1 {
		return ErrLastAdmin
	}
	d.Users = slices.Delete(d.Users, idx, idx+1)
	return nil
}

// AdminCount returns how many admins exist.
func (d *Document) AdminCount() int {
	n := 0
	for _, u := range d.Users {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}

func (d *Document) sort() {
	sort.Slice(d.Users, func(i, j int) bool { return d.Users[i].Email < d.Users[j].Email })
}

// Normalize decodes the users file. The wrapped form, a bare array and the
// legacy {"<email>":"<role>"} map are accepted. Emails are lower-cased and
// duplicates keep the first occurrence.
func Normalize(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	doc := Document{Version: DocumentVersion, Users: []User{}}
	if len(raw) == 0 || string(raw) == "null" {
		return doc, nil
	}

	var users []User
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &users); err != nil {
			return Document{}, fmt.Errorf("decode users: %w", err)
		}
	case '{':
		var top map[string]json.RawMessage
		if err := json.Unmarshal(raw, &top); err != nil {
			return Document{}, fmt.Errorf("decode users: %w", err)
		}
		if body, ok := top["users"]; ok {
			if err := json.Unmarshal(body, &users); err != nil {
				return Document{}, fmt.Errorf("decode users list: %w", err)
			}
			break
		}
		for email, body := range top {
			if email == "version" {
				continue
			}
			var role string
			if err := json.Unmarshal(body, &role); err == nil {
				users = append(users, User{Email: email, Role: role})
				continue
			}
			var u User
			if err := json.Unmarshal(body, &u); err != nil {
				return Document{}, fmt.Errorf("decode user %s: %w", email, err)
			}
			u.Email = email
			users = append(users, u)
		}
	default:
		return Document{}, fmt.Errorf("decode users: unexpected %q", raw[0])
	}

	seen := map[string]bool{}
	for _, u := range users {
		u.Email = NormalizeEmail(u.Email)
		u.Role = strings.ToLower(strings.TrimSpace(u.Role))
		if u.Email == "" || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		doc.Users = append(doc.Users, u)
	}
	doc.sort()
	return doc, nil
}
