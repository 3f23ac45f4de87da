package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"clubhouse/internal/domain/week"
)

// legacyItem accepts the old "exercise" name field.
type legacyItem struct {
	Item
	Exercise string `json:"exercise"`
}

type legacyDay struct {
	Title string       `json:"title"`
	Notes string       `json:"notes"`
	Items []legacyItem `json:"items"`
}

// Normalize decodes the plans file. Both the wrapped form
// {"version":1,"athletes":{...}} and the legacy form keyed directly by athlete
// ID are accepted. Items without IDs get sequential IDs per day; days under
// invalid dates are dropped.
func Normalize(raw []byte) (Document, error) {
	return normalizeDays(raw, func(athleteID, date string, d legacyDay) Day {
		day := Day{Title: d.Title, Notes: d.Notes, Items: make([]Item, 0, len(d.Items))}
		for i, li := range d.Items {
			it := li.Item
			if it.ExerciseID == "" && it.ExerciseName == "" {
				it.ExerciseName = li.Exercise
			}
			if it.ID == "" {
				it.ID = fmt.Sprintf("%s-%s-%d", athleteID, date, i+1)
			}
			day.Items = append(day.Items, it)
		}
		return day
	})
}

func normalizeDays(raw []byte, convert func(athleteID, date string, d legacyDay) Day) (Document, error) {
	raw = bytes.TrimSpace(raw)
	doc := NewDocument()
	if len(raw) == 0 || string(raw) == "null" {
		return doc, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Document{}, fmt.Errorf("decode plans: %w", err)
	}
	athletes := top
	if body, ok := top["athletes"]; ok {
		athletes = nil
		if err := json.Unmarshal(body, &athletes); err != nil {
			return Document{}, fmt.Errorf("decode plans athletes: %w", err)
		}
	}

	for athleteID, body := range athletes {
		if athleteID == "version" {
			continue
		}
		var days map[string]legacyDay
		if err := json.Unmarshal(body, &days); err != nil {
			return Document{}, fmt.Errorf("decode plans for %s: %w", athleteID, err)
		}
		for date, ld := range days {
			if _, err := week.ParseDate(date); err != nil {
				continue
			}
			if err := doc.SetDay(athleteID, date, convert(athleteID, date, ld)); err != nil {
				return Document{}, err
			}
		}
	}
	return doc, nil
}
