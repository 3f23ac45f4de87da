package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// JSONMimeType is the content type of every document file.
const JSONMimeType = "application/json"

// Storage errors shared by every backend.
var (
	ErrNotFound      = errors.New("file not found")
	ErrUnauthorized  = errors.New("file store rejected the credentials")
	ErrConflict      = errors.New("file was modified by someone else")
	ErrMissingFileID = errors.New("file id is not configured")
	ErrNoToken       = errors.New("no access token in context")
)

// HTTPError carries a non-OK response that maps to no sentinel error.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("file store returned %d: %s", e.Status, e.Body)
}

// File is the metadata of one stored file.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Revision     int64     `json:"revision"`
	ModifiedTime time.Time `json:"modifiedTime"`
	Size         int64     `json:"size"`
}

// ListQuery narrows List results. Zero values match everything.
type ListQuery struct {
	NamePrefix string
	Limit      int
}

// FileAPI is the generic cloud-file client every document store is built on.
// Backends map their own failures onto ErrNotFound, ErrUnauthorized and
// ErrConflict; anything else is returned as *HTTPError or a wrapped error.
type FileAPI interface {
	List(ctx context.Context, q ListQuery) ([]File, error)
	Get(ctx context.Context, id string) (File, error)
	Download(ctx context.Context, id string) ([]byte, File, error)
	// Upload replaces the whole content of id. When ifRevision > 0 the
	// write only happens if the stored revision still equals it.
	Upload(ctx context.Context, id string, content []byte, ifRevision int64) (File, error)
	Create(ctx context.Context, name string, content []byte) (File, error)
	Rename(ctx context.Context, id, name string) (File, error)
	Delete(ctx context.Context, id string) error
}

type tokenKey struct{}

// WithTokenSource attaches the signed-in user's token source to ctx.
// Backends that call the cloud API on the user's behalf read it back.
func WithTokenSource(ctx context.Context, ts oauth2.TokenSource) context.Context {
	return context.WithValue(ctx, tokenKey{}, ts)
}

// TokenSourceFromContext returns the token source set by WithTokenSource.
func TokenSourceFromContext(ctx context.Context) (oauth2.TokenSource, error) {
	ts, ok := ctx.Value(tokenKey{}).(oauth2.TokenSource)
	if !ok || ts == nil {
		return nil, ErrNoToken
	}
	return ts, nil
}

// Ensurer is implemented by self-hosted backends that can create a file
// under a fixed id. Cloud backends assign ids themselves and do not.
type Ensurer interface {
	Ensure(ctx context.Context, id, name string, content []byte) (bool, error)
}
