package athlete

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxNotesLength = 2000
	MinBirthYear   = 1900
)

// Domain errors
var (
	ErrEmptyName       = errors.New("athlete name cannot be empty")
	ErrNameTooLong     = errors.New("athlete name cannot exceed 100 characters")
	ErrNotesTooLong    = errors.New("athlete notes cannot exceed 2000 characters")
	ErrInvalidEmail    = errors.New("athlete email must be valid")
	ErrInvalidBirth    = errors.New("birth year is out of range")
	ErrAlreadyArchived = errors.New("athlete is already archived")
	ErrNotArchived     = errors.New("athlete is not archived")
	ErrNotFound        = errors.New("athlete not found")
)

// Athlete is a registered club athlete.
type Athlete struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthYear int       `json:"birthYear,omitempty"`
	Group     string    `json:"group,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Validate checks if the Athlete has valid data.
// PRE: Athlete struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name must not be empty; Email, when set, must contain '@'
func (a *Athlete) Validate(now time.Time) error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(a.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if a.BirthYear != 0 && (a.BirthYear < MinBirthYear || a.BirthYear > now.Year()) {
		return ErrInvalidBirth
	}
	return nil
}

// Archive marks the athlete inactive.
// PRE: Athlete is active
// POST: Active is false
func (a *Athlete) Archive() error {
	if !a.Active {
		return ErrAlreadyArchived
	}
	a.Active = false
	return nil
}

// Restore re-activates an archived athlete.
// PRE: Athlete is archived
// POST: Active is true
func (a *Athlete) Restore() error {
	if a.Active {
		return ErrNotArchived
	}
	a.Active = true
	return nil
}

// MatchesName reports whether the athlete's name contains query, ignoring case.
func (a *Athlete) MatchesName(query string) bool {
	return strings.Contains(strings.ToLower(a.Name), strings.ToLower(strings.TrimSpace(query)))
}
