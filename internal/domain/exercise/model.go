package exercise

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DocumentVersion is the advisory version written with every save.
const DocumentVersion = 1

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 80
	MaxDescriptionLength = 4000
)

// Categories offered by the catalog editor. Unknown categories are allowed.
var Categories = []string{"strength", "conditioning", "mobility", "technique", "warmup"}

// Domain errors
var (
	ErrEmptyName      = errors.New("exercise name cannot be empty")
	ErrNameTooLong    = errors.New("exercise name cannot exceed 80 characters")
	ErrDescTooLong    = errors.New("exercise description cannot exceed 4000 characters")
	ErrNegativeTarget = errors.New("default sets and reps cannot be negative")
	ErrDuplicateName  = errors.New("an exercise with that name already exists")
	ErrNotFound       = errors.New("exercise not found")
)

// Exercise is an entry of the exercise catalog.
// Description is markdown.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	DefaultSets int    `json:"defaultSets,omitempty"`
	DefaultReps int    `json:"defaultReps,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
}

// Validate checks if the Exercise has valid data.
// PRE: Exercise struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (e *Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(e.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if e.DefaultSets < 0 || e.DefaultReps < 0 {
		return ErrNegativeTarget
	}
	return nil
}

// Slug derives a stable identifier from a name: lowercase, ASCII letters and
// digits kept, every other run of characters collapsed to a single dash.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Document is the persisted exercise catalog.
type Document struct {
	Version   int        `json:"version"`
	Exercises []Exercise `json:"exercises"`
}

// Find returns the index of the exercise with id, or -1.
func (d *Document) Find(id string) int {
	for i := range d.Exercises {
		if d.Exercises[i].ID == id {
			return i
		}
	}
	return -1
}

// Upsert inserts or replaces e.
// PRE: e has been validated
// POST: Returns ErrDuplicateName if another exercise has the same name (case-insensitive)
func (d *Document) Upsert(e Exercise) error {
	for _, other := range d.Exercises {
		if other.ID != e.ID && strings.EqualFold(strings.TrimSpace(other.Name), strings.TrimSpace(e.Name)) {
			return ErrDuplicateName
		}
	}
	if i := d.Find(e.ID); i >= 0 {
		d.Exercises[i] = e
	} else {
		d.Exercises = append(d.Exercises, e)
	}
	d.sort()
	return nil
}

// Remove deletes the exercise with id.
func (d *Document) Remove(id string) error {
	i := d.Find(id)
	if i < 0 {
		return ErrNotFound
	}
	d.Exercises = append(d.Exercises[:i], d.Exercises[i+1:]...)
	return nil
}

func (d *Document) sort() {
	sort.SliceStable(d.Exercises, func(i, j int) bool {
		return strings.ToLower(d.Exercises[i].Name) < strings.ToLower(d.Exercises[j].Name)
	})
}

// Normalize decodes any known shape of the exercises file: the wrapped
// document, a bare array of objects, or a bare array of names.
// Exercises without an ID get the slug of their name.
func Normalize(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	doc := Document{Version: DocumentVersion, Exercises: []Exercise{}}
	if len(raw) == 0 || string(raw) == "null" {
		return doc, nil
	}

	var items []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return Document{}, fmt.Errorf("decode exercises array: %w", err)
		}
	} else {
		var wrapped struct {
			Exercises []json.RawMessage `json:"exercises"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return Document{}, fmt.Errorf("decode exercises: %w", err)
		}
		items = wrapped.Exercises
	}

	seen := map[string]bool{}
	for _, item := range items {
		var e Exercise
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			e.Name = name
		} else if err := json.Unmarshal(item, &e); err != nil {
			return Document{}, fmt.Errorf("decode exercise: %w", err)
		}
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		if e.ID == "" {
			e.ID = Slug(e.Name)
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		doc.Exercises = append(doc.Exercises, e)
	}
	doc.sort()
	return doc, nil
}
