package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/http/perf"
)

// DefaultSlowFileCall is used when NewTimedFileAPI is given no threshold.
// File calls usually cross the network, so it sits well above SQL.
const DefaultSlowFileCall = 500 * time.Millisecond

// TimedFileAPI records every backend call as "files.<Method>" and logs the
// slow ones with the file they touched.
type TimedFileAPI struct {
	api       FileAPI
	collector *perf.Collector
	slow      time.Duration
}

var _ FileAPI = (*TimedFileAPI)(nil)

// NewTimedFileAPI wraps api. collector may be nil.
func NewTimedFileAPI(api FileAPI, collector *perf.Collector, slow time.Duration) *TimedFileAPI {
	if slow <= 0 {
		slow = DefaultSlowFileCall
	}
	return &TimedFileAPI{api: api, collector: collector, slow: slow}
}

// Unwrap returns the wrapped backend.
func (t *TimedFileAPI) Unwrap() FileAPI {
	return t.api
}

// observe counts a missing file as an answer, not a backend failure.
func (t *TimedFileAPI) observe(op, id string, start time.Time, err error) {
	failed := err != nil && !errors.Is(err, ErrNotFound)
	d := t.collector.Observe(perf.KindFile, "files."+op, start, 0, failed)
	ms := float64(d.Microseconds()) / 1000
	switch {
	case failed:
		slog.Debug("file_call_failed", "op", op, "file_id", id, "duration_ms", ms, "error", err)
	case d >= t.slow:
		slog.Warn("slow_file_call", "op", op, "file_id", id, "duration_ms", ms)
	}
}

// List wraps FileAPI.List with timing.
func (t *TimedFileAPI) List(ctx context.Context, q ListQuery) ([]File, error) {
	start := time.Now()
	files, err := t.api.List(ctx, q)
	t.observe("List", "", start, err)
	return files, err
}

// Get wraps FileAPI.Get with timing.
func (t *TimedFileAPI) Get(ctx context.Context, id string) (File, error) {
	start := time.Now()
	f, err := t.api.Get(ctx, id)
	t.observe("Get", id, start, err)
	return f, err
}

// Download wraps FileAPI.Download with timing.
func (t *TimedFileAPI) Download(ctx context.Context, id string) ([]byte, File, error) {
	start := time.Now()
	body, f, err := t.api.Download(ctx, id)
	t.observe("Download", id, start, err)
	return body, f, err
}

// Upload wraps FileAPI.Upload with timing.
func (t *TimedFileAPI) Upload(ctx context.Context, id string, content []byte, ifRevision int64) (File, error) {
	start := time.Now()
	f, err := t.api.Upload(ctx, id, content, ifRevision)
	t.observe("Upload", id, start, err)
	return f, err
}

// Create wraps FileAPI.Create with timing.
func (t *TimedFileAPI) Create(ctx context.Context, name string, content []byte) (File, error) {
	start := time.Now()
	f, err := t.api.Create(ctx, name, content)
	t.observe("Create", f.ID, start, err)
	return f, err
}

// Rename wraps FileAPI.Rename with timing.
func (t *TimedFileAPI) Rename(ctx context.Context, id, name string) (File, error) {
	start := time.Now()
	f, err := t.api.Rename(ctx, id, name)
	t.observe("Rename", id, start, err)
	return f, err
}

// Delete wraps FileAPI.Delete with timing.
func (t *TimedFileAPI) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := t.api.Delete(ctx, id)
	t.observe("Delete", id, start, err)
	return err
}
