package attendance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"clubhouse/internal/domain/week"
)

// Normalize decodes any known shape of the attendance file.
//
// Accepted shapes:
//
//	{"version":1,"weeks":{"2026-W42":{"sessions":{"2026-10-12":["a1"]}}}}
//	{"2026-W42":{"a1":["2026-10-12"]}}            per-athlete date lists
//	{"2026-W42":{"a1":[true,false,false,...]}}    per-athlete weekday flags
//
// Dates outside their week and unparseable week keys are dropped.
func Normalize(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	doc := NewDocument()
	if len(raw) == 0 || string(raw) == "null" {
		return doc, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Document{}, fmt.Errorf("decode attendance: %w", err)
	}

	weeks := top
	if body, ok := top["weeks"]; ok {
		weeks = nil
		if err := json.Unmarshal(body, &weeks); err != nil {
			return Document{}, fmt.Errorf("decode attendance weeks: %w", err)
		}
	}

	for key, body := range weeks {
		if key == "version" {
			continue
		}
		y, w, err := week.ParseKey(key)
		if err != nil {
			slog.Warn("attendance_week_dropped", "week", key, "error", err)
			continue
		}
		key = week.Key(y, w)
		if err := doc.mergeWeek(key, body); err != nil {
			return Document{}, fmt.Errorf("decode attendance week %s: %w", key, err)
		}
	}
	return doc, nil
}

func (d *Document) mergeWeek(key string, body json.RawMessage) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return err
	}

	if sessions, ok := entries["sessions"]; ok {
		var byDate map[string][]string
		if err := json.Unmarshal(sessions, &byDate); err != nil {
			return err
		}
		for date, ids := range byDate {
			if validateWeekDate(key, date) != nil {
				continue
			}
			for _, id := range ids {
				if id != "" {
					_ = d.Mark(date, id)
				}
			}
		}
		return nil
	}

	days, err := week.Days(key)
	if err != nil {
		return err
	}
	for athleteID, list := range entries {
		var values []json.RawMessage
		if err := json.Unmarshal(list, &values); err != nil {
			return fmt.Errorf("athlete %s: %w", athleteID, err)
		}
		for i, v := range values {
			var date string
			var flag bool
			switch {
			case json.Unmarshal(v, &date) == nil:
			case json.Unmarshal(v, &flag) == nil:
				if !flag || i >= len(days) {
					continue
				}
				date = days[i]
			default:
				continue
			}
			if validateWeekDate(key, date) != nil {
				continue
			}
			_ = d.Mark(date, athleteID)
		}
	}
	return nil
}
