// Package pgfs stores document files as rows in Postgres.
package pgfs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"clubhouse/internal/adapters/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	revision BIGINT NOT NULL,
	modified_at TIMESTAMPTZ NOT NULL,
	content BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_name ON files(name);
`

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InitDB creates the files table.
// PRE: db is a live pool
// POST: files table and its name index exist
func InitDB(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

// PGStore implements storage.FileAPI using Postgres.
type PGStore struct {
	db  DB
	now func() time.Time
}

var _ storage.FileAPI = (*PGStore)(nil)
var _ storage.Ensurer = (*PGStore)(nil)

// NewPGStore creates a new file store over db.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db, now: time.Now}
}

const fileColumns = "id, name, mime_type, revision, modified_at, octet_length(content)"

func scanFile(row pgx.Row) (storage.File, error) {
	var f storage.File
	var size int32
	if err := row.Scan(&f.ID, &f.Name, &f.MimeType, &f.Revision, &f.ModifiedTime, &size); err != nil {
		return storage.File{}, err
	}
	f.Size = int64(size)
	f.ModifiedTime = f.ModifiedTime.UTC()
	return f, nil
}

// List returns files whose name starts with q.NamePrefix, ordered by name.
func (s *PGStore) List(ctx context.Context, q storage.ListQuery) ([]storage.File, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE starts_with(name, $1) ORDER BY name, id"
	args := []any{q.NamePrefix}
	if q.Limit > 0 {
		query += " LIMIT $2"
		args = append(args, q.Limit)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []storage.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Get returns the metadata of id.
func (s *PGStore) Get(ctx context.Context, id string) (storage.File, error) {
	f, err := scanFile(s.db.QueryRow(ctx, "SELECT "+fileColumns+" FROM files WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.File{}, fmt.Errorf("get %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.File{}, fmt.Errorf("get %s: %w", id, err)
	}
	return f, nil
}

// Download returns the content and metadata of id.
func (s *PGStore) Download(ctx context.Context, id string) ([]byte, storage.File, error) {
	var f storage.File
	var content []byte
	err := s.db.QueryRow(ctx,
		"SELECT id, name, mime_type, revision, modified_at, content FROM files WHERE id = $1", id,
	).Scan(&f.ID, &f.Name, &f.MimeType, &f.Revision, &f.ModifiedTime, &content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.File{}, fmt.Errorf("download %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, storage.File{}, fmt.Errorf("download %s: %w", id, err)
	}
	f.Size = int64(len(content))
	f.ModifiedTime = f.ModifiedTime.UTC()
	return content, f, nil
}

// Upload replaces the content of id; with ifRevision > 0 the update only
// matches the row at that revision.
func (s *PGStore) Upload(ctx context.Context, id string, content []byte, ifRevision int64) (storage.File, error) {
	query := `UPDATE files SET content = $1, revision = revision + 1, modified_at = $2
		WHERE id = $3 AND ($4::bigint = 0 OR revision = $4::bigint)
		RETURNING ` + fileColumns
	f, err := scanFile(s.db.QueryRow(ctx, query, blob(content), s.now().UTC(), id, ifRevision))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := s.Get(ctx, id); gerr != nil {
			return storage.File{}, gerr
		}
		return storage.File{}, fmt.Errorf("upload %s at revision %d: %w", id, ifRevision, storage.ErrConflict)
	}
	if err != nil {
		return storage.File{}, fmt.Errorf("upload %s: %w", id, err)
	}
	return f, nil
}

// Create inserts a new file under a generated id at revision 1.
func (s *PGStore) Create(ctx context.Context, name string, content []byte) (storage.File, error) {
	f, err := scanFile(s.db.QueryRow(ctx,
		`INSERT INTO files (id, name, mime_type, revision, modified_at, content)
		VALUES ($1, $2, $3, 1, $4, $5) RETURNING `+fileColumns,
		uuid.New().String(), name, storage.JSONMimeType, s.now().UTC(), blob(content)))
	if err != nil {
		return storage.File{}, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// Rename changes the name of id.
func (s *PGStore) Rename(ctx context.Context, id, name string) (storage.File, error) {
	f, err := scanFile(s.db.QueryRow(ctx,
		"UPDATE files SET name = $1, modified_at = $2 WHERE id = $3 RETURNING "+fileColumns,
		name, s.now().UTC(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.File{}, fmt.Errorf("rename %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.File{}, fmt.Errorf("rename %s: %w", id, err)
	}
	return f, nil
}

// Delete removes id.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM files WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// Ensure creates a file with a fixed id when it does not exist yet.
func (s *PGStore) Ensure(ctx context.Context, id, name string, content []byte) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO files (id, name, mime_type, revision, modified_at, content)
		VALUES ($1, $2, $3, 1, $4, $5) ON CONFLICT (id) DO NOTHING`,
		id, name, storage.JSONMimeType, s.now().UTC(), blob(content))
	if err != nil {
		return false, fmt.Errorf("ensure %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// blob stores a nil body as an empty one; the content column is NOT NULL.
func blob(content []byte) []byte {
	if content == nil {
		return []byte{}
	}
	return content
}
