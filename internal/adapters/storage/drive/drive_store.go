// Package drive implements the file API on Google Drive v3. Every call runs
// with the signed-in user's token, taken from the request context.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"clubhouse/internal/adapters/storage"
)

// Scope is the OAuth scope the app requests: files it created or was given.
const Scope = gdrive.DriveFileScope

const fileFields = "id,name,mimeType,version,modifiedTime,size"

// Options configures the Drive backend.
type Options struct {
	// FolderID, when set, is the parent of created files and limits List.
	FolderID string
	// Endpoint overrides the API base path. Used by tests.
	Endpoint string
	// HTTPClient is the transport under the OAuth client. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Store implements storage.FileAPI on Google Drive.
type Store struct {
	opts Options
}

var _ storage.FileAPI = (*Store)(nil)

// NewStore returns a Drive-backed file store.
func NewStore(opts Options) *Store {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Store{opts: opts}
}

// service builds a Drive client authorised with the token source in ctx.
func (s *Store) service(ctx context.Context) (*gdrive.Service, error) {
	ts, err := storage.TokenSourceFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive: %w", storage.ErrUnauthorized)
	}
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, s.opts.HTTPClient), ts)
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.opts.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.opts.Endpoint))
	}
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}
	return svc, nil
}

// mapError translates Drive and token errors into storage errors.
func mapError(op, id string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("drive %s %s: %w", op, id, storage.ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("drive %s %s: %w", op, id, storage.ErrUnauthorized)
		}
		return fmt.Errorf("drive %s %s: %w", op, id, &storage.HTTPError{Status: gerr.Code, Body: gerr.Message})
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("drive %s %s: %v: %w", op, id, rerr, storage.ErrUnauthorized)
	}
	return fmt.Errorf("drive %s %s: %w", op, id, err)
}

func toFile(f *gdrive.File) storage.File {
	out := storage.File{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Revision: f.Version,
		Size:     f.Size,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedTime = t.UTC()
	}
	return out
}

// quote escapes a value for a Drive query string literal.
func quote(v string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// List returns non-trashed files whose name starts with q.NamePrefix. Drive
// only matches name tokens, so the prefix is re-checked here.
func (s *Store) List(ctx context.Context, q storage.ListQuery) ([]storage.File, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}
	clauses := []string{"trashed = false"}
	if q.NamePrefix != "" {
		clauses = append(clauses, "name contains "+quote(q.NamePrefix))
	}
	if s.opts.FolderID != "" {
		clauses = append(clauses, quote(s.opts.FolderID)+" in parents")
	}

	var out []storage.File
	call := svc.Files.List().
		Q(strings.Join(clauses, " and ")).
		OrderBy("name").
		Fields(googleapi.Field("nextPageToken,files(" + fileFields + ")"))
	err = call.Pages(ctx, func(page *gdrive.FileList) error {
		for _, f := range page.Files {
			if strings.HasPrefix(f.Name, q.NamePrefix) {
				out = append(out, toFile(f))
			}
		}
		if q.Limit > 0 && len(out) >= q.Limit {
			return errStopPaging
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return nil, mapError("list", s.opts.FolderID, err)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

var errStopPaging = errors.New("stop paging")

// Get returns the metadata of id.
func (s *Store) Get(ctx context.Context, id string) (storage.File, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return storage.File{}, err
	}
	return s.get(ctx, svc, id)
}

func (s *Store) get(ctx context.Context, svc *gdrive.Service, id string) (storage.File, error) {
	f, err := svc.Files.Get(id).Fields(googleapi.Field(fileFields)).Context(ctx).Do()
	if err != nil {
		return storage.File{}, mapError("get", id, err)
	}
	return toFile(f), nil
}

// Download returns the content and metadata of id.
func (s *Store) Download(ctx context.Context, id string) ([]byte, storage.File, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, storage.File{}, err
	}
	meta, err := s.get(ctx, svc, id)
	if err != nil {
		return nil, storage.File{}, err
	}
	resp, err := svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, storage.File{}, mapError("download", id, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, storage.File{}, fmt.Errorf("drive download %s: read body: %w", id, err)
	}
	return body, meta, nil
}

// Upload replaces the content of id. Drive v3 has no conditional update, so
// with ifRevision > 0 the version is re-read just before the write; a writer
// that lands between the two calls is not detected.
func (s *Store) Upload(ctx context.Context, id string, content []byte, ifRevision int64) (storage.File, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return storage.File{}, err
	}
	if ifRevision > 0 {
		current, err := s.get(ctx, svc, id)
		if err != nil {
			return storage.File{}, err
		}
		if current.Revision != ifRevision {
			return storage.File{}, fmt.Errorf("drive upload %s at revision %d (now %d): %w", id, ifRevision, current.Revision, storage.ErrConflict)
		}
	}
	f, err := svc.Files.Update(id, &gdrive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(storage.JSONMimeType)).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).
		Do()
	if err != nil {
		return storage.File{}, mapError("upload", id, err)
	}
	return toFile(f), nil
}

// Create uploads a new JSON file, inside FolderID when configured.
func (s *Store) Create(ctx context.Context, name string, content []byte) (storage.File, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return storage.File{}, err
	}
	meta := &gdrive.File{Name: name, MimeType: storage.JSONMimeType}
	if s.opts.FolderID != "" {
		meta.Parents = []string{s.opts.FolderID}
	}
	f, err := svc.Files.Create(meta).
		Media(bytes.NewReader(content), googleapi.ContentType(storage.JSONMimeType)).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).
		Do()
	if err != nil {
		return storage.File{}, mapError("create", name, err)
	}
	return toFile(f), nil
}

// Rename patches the name of id.
func (s *Store) Rename(ctx context.Context, id, name string) (storage.File, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return storage.File{}, err
	}
	f, err := svc.Files.Update(id, &gdrive.File{Name: name}).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).
		Do()
	if err != nil {
		return storage.File{}, mapError("rename", id, err)
	}
	return toFile(f), nil
}

// Delete permanently removes id.
func (s *Store) Delete(ctx context.Context, id string) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return mapError("delete", id, err)
	}
	return nil
}
