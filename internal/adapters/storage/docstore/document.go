// Package docstore treats one remote JSON file as a single mutable record:
// it is always read in full, changed in memory and written back in full.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
)

// DefaultMaxAttempts bounds re-applying a mutation after revision conflicts.
const DefaultMaxAttempts = 3

// ErrUnchanged may be returned by a mutation to skip the upload.
var ErrUnchanged = errors.New("document unchanged")

// Normalizer decodes raw file content, tolerating legacy shapes. It must
// return an empty document for empty input.
type Normalizer[T any] func(raw []byte) (T, error)

// Change describes one successful document write.
type Change struct {
	Doc      string    `json:"doc"`
	FileID   string    `json:"fileId"`
	Revision int64     `json:"revision"`
	At       time.Time `json:"at"`
}

// Notifier receives every successful write.
type Notifier interface {
	Publish(Change)
}

// Meta is the file state a document was loaded at.
type Meta struct {
	FileID       string
	Revision     int64
	ModifiedTime time.Time
}

// Options tunes write behaviour.
type Options struct {
	// CheckRevision uploads against the loaded revision and re-applies the
	// mutation on conflict. Off means last write wins.
	CheckRevision bool
	// MaxAttempts bounds re-application when CheckRevision is on.
	MaxAttempts int
	// Notifier is told about every successful write. May be nil.
	Notifier Notifier
}

// Document is a typed handle on one JSON file.
type Document[T any] struct {
	name      string
	fileID    string
	api       storage.FileAPI
	normalize Normalizer[T]
	opts      Options
	now       func() time.Time
}

// New returns a handle for the file fileID holding document name.
// An empty fileID is reported as storage.ErrMissingFileID on first use.
func New[T any](name, fileID string, api storage.FileAPI, normalize Normalizer[T], opts Options) *Document[T] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Document[T]{
		name:      name,
		fileID:    fileID,
		api:       api,
		normalize: normalize,
		opts:      opts,
		now:       time.Now,
	}
}

func (d *Document[T]) resolve() (string, error) {
	if d.fileID == "" {
		return "", fmt.Errorf("%s: %w", d.name, storage.ErrMissingFileID)
	}
	return d.fileID, nil
}

// Load downloads and normalises the document.
// POST: Returns the document and the revision it was read at
func (d *Document[T]) Load(ctx context.Context) (T, Meta, error) {
	var zero T
	id, err := d.resolve()
	if err != nil {
		return zero, Meta{}, err
	}
	raw, f, err := d.api.Download(ctx, id)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("load %s: %w", d.name, err)
	}
	doc, err := d.normalize(bytes.TrimSpace(raw))
	if err != nil {
		return zero, Meta{}, fmt.Errorf("load %s: %w", d.name, err)
	}
	return doc, Meta{FileID: id, Revision: f.Revision, ModifiedTime: f.ModifiedTime}, nil
}

// Update loads the document, applies mutate and uploads the whole result.
// With CheckRevision on, a conflicting write causes a reload and mutate runs
// again, so mutate must depend only on the document it is given.
// POST: Returns the document as written
func (d *Document[T]) Update(ctx context.Context, mutate func(*T) error) (T, error) {
	var zero T
	id, err := d.resolve()
	if err != nil {
		return zero, err
	}

	for attempt := 1; ; attempt++ {
		doc, meta, err := d.Load(ctx)
		if err != nil {
			return zero, err
		}
		if err := mutate(&doc); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return doc, nil
			}
			return zero, err
		}

		content, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return zero, fmt.Errorf("encode %s: %w", d.name, err)
		}
		content = append(content, '\n')

		var ifRevision int64
		if d.opts.CheckRevision {
			ifRevision = meta.Revision
		}
		f, err := d.api.Upload(ctx, id, content, ifRevision)
		if errors.Is(err, storage.ErrConflict) && attempt < d.opts.MaxAttempts {
			slog.Info("document_conflict_retry", "doc", d.name, "file_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return zero, fmt.Errorf("save %s: %w", d.name, err)
		}

		slog.Debug("document_saved", "doc", d.name, "file_id", id, "revision", f.Revision, "bytes", len(content))
		if d.opts.Notifier != nil {
			d.opts.Notifier.Publish(Change{Doc: d.name, FileID: id, Revision: f.Revision, At: d.now().UTC()})
		}
		return doc, nil
	}
}
