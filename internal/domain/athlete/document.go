package athlete

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DocumentVersion is the advisory version written with every save.
const DocumentVersion = 2

// Document is the persisted athletes file.
type Document struct {
	Version  int       `json:"version"`
	Athletes []Athlete `json:"athletes"`
}

// Find returns the index of the athlete with id, or -1.
func (d *Document) Find(id string) int {
	for i := range d.Athletes {
		if d.Athletes[i].ID == id {
			return i
		}
	}
	return -1
}

// Upsert replaces the athlete with the same ID or appends it.
func (d *Document) Upsert(a Athlete) {
	if i := d.Find(a.ID); i >= 0 {
		d.Athletes[i] = a
	} else {
		d.Athletes = append(d.Athletes, a)
	}
	d.sort()
}

// Remove deletes the athlete with id.
// POST: Returns ErrNotFound when no athlete has that id
func (d *Document) Remove(id string) error {
	i := d.Find(id)
	if i < 0 {
		return ErrNotFound
	}
	d.Athletes = append(d.Athletes[:i], d.Athletes[i+1:]...)
	return nil
}

func (d *Document) sort() {
	sort.SliceStable(d.Athletes, func(i, j int) bool {
		ni, nj := strings.ToLower(d.Athletes[i].Name), strings.ToLower(d.Athletes[j].Name)
		if ni != nj {
			return ni < nj
		}
		return d.Athletes[i].ID < d.Athletes[j].ID
	})
}

// legacyAthlete accepts every historical field spelling.
type legacyAthlete struct {
	Athlete
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Active    *bool  `json:"active"`
}

func (l legacyAthlete) normalize(fallbackID string) Athlete {
	a := l.Athlete
	if a.ID == "" {
		a.ID = fallbackID
	}
	if strings.TrimSpace(a.Name) == "" {
		a.Name = strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
	}
	a.Name = strings.TrimSpace(a.Name)
	a.Active = l.Active == nil || *l.Active
	return a
}

// Normalize decodes any known shape of the athletes file.
// Accepted: {"version","athletes":[...]}, a bare array, or an object keyed by athlete ID.
// PRE: raw is the full file body (may be empty)
// POST: Returns a Document sorted by name then ID, with Version set
func Normalize(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	doc := Document{Version: DocumentVersion}
	if len(raw) == 0 || string(raw) == "null" {
		doc.Athletes = []Athlete{}
		return doc, nil
	}

	var items []legacyAthlete
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return Document{}, fmt.Errorf("decode athletes array: %w", err)
		}
		for _, it := range items {
			doc.Athletes = append(doc.Athletes, it.normalize(""))
		}
	case '{':
		var wrapped struct {
			Version  *int            `json:"version"`
			Athletes []legacyAthlete `json:"athletes"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Athletes != nil {
			for _, it := range wrapped.Athletes {
				doc.Athletes = append(doc.Athletes, it.normalize(""))
			}
			break
		}
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return Document{}, fmt.Errorf("decode athletes object: %w", err)
		}
		for id, body := range keyed {
			if id == "version" {
				continue
			}
			var it legacyAthlete
			if err := json.Unmarshal(body, &it); err != nil {
				return Document{}, fmt.Errorf("decode athlete %q: %w", id, err)
			}
			doc.Athletes = append(doc.Athletes, it.normalize(id))
		}
	default:
		return Document{}, fmt.Errorf("decode athletes: unexpected %q", raw[0])
	}

	if doc.Athletes == nil {
		doc.Athletes = []Athlete{}
	}
	doc.sort()
	return doc, nil
}
