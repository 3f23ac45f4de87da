// Package sqlitefs stores document files as rows in SQLite. It is the
// self-hosted alternative to the cloud file store.
package sqlitefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/adapters/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	revision INTEGER NOT NULL,
	modified_at TEXT NOT NULL,
	content BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_name ON files(name);
`

// DSN returns the connection string used for a database file, with WAL mode,
// busy timeout and normal synchronous writes.
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// InitDB creates the files table.
// PRE: db is a valid database connection
// POST: files table and its name index exist
func InitDB(ctx context.Context, db storage.SQLDB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

// SQLiteStore implements storage.FileAPI using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// Compile-time check that *SQLiteStore satisfies storage.FileAPI.
var _ storage.FileAPI = (*SQLiteStore)(nil)
var _ storage.Ensurer = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new file store over db.
// PRE: InitDB has run against db
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

const fileColumns = "id, name, mime_type, revision, modified_at, length(content)"

func scanFile(row interface{ Scan(...any) error }) (storage.File, error) {
	var f storage.File
	var modified string
	if err := row.Scan(&f.ID, &f.Name, &f.MimeType, &f.Revision, &modified, &f.Size); err != nil {
		return storage.File{}, err
	}
	f.ModifiedTime, _ = time.Parse(time.RFC3339Nano, modified)
	return f, nil
}

// List returns files whose name starts with q.NamePrefix, ordered by name.
func (s *SQLiteStore) List(ctx context.Context, q storage.ListQuery) ([]storage.File, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE substr(name, 1, length(?)) = ? ORDER BY name, id"
	args := []any{q.NamePrefix, q.NamePrefix}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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
// PRE: id is non-empty
// POST: Returns the file or storage.ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string) (storage.File, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.File{}, fmt.Errorf("get %s: %w", id, storage.ErrNotFound)
	}
	return f, err
}

// Download returns the content and metadata of id.
func (s *SQLiteStore) Download(ctx context.Context, id string) ([]byte, storage.File, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+", content FROM files WHERE id = ?", id)
	var f storage.File
	var modified string
	var content []byte
	err := row.Scan(&f.ID, &f.Name, &f.MimeType, &f.Revision, &modified, &f.Size, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.File{}, fmt.Errorf("download %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, storage.File{}, fmt.Errorf("download %s: %w", id, err)
	}
	f.ModifiedTime, _ = time.Parse(time.RFC3339Nano, modified)
	return content, f, nil
}

// Upload replaces the content of id. With ifRevision > 0 the update is a
// single compare-and-swap statement on the revision column.
// POST: revision is incremented by one on success
func (s *SQLiteStore) Upload(ctx context.Context, id string, content []byte, ifRevision int64) (storage.File, error) {
	modified := s.now().UTC().Format(time.RFC3339Nano)
	query := "UPDATE files SET content = ?, revision = revision + 1, modified_at = ? WHERE id = ?"
	args := []any{blob(content), modified, id}
	if ifRevision > 0 {
		query += " AND revision = ?"
		args = append(args, ifRevision)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storage.File{}, fmt.Errorf("upload %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return storage.File{}, err
		}
		return storage.File{}, fmt.Errorf("upload %s at revision %d: %w", id, ifRevision, storage.ErrConflict)
	}
	return s.Get(ctx, id)
}

// Create inserts a new file under a generated id at revision 1.
func (s *SQLiteStore) Create(ctx context.Context, name string, content []byte) (storage.File, error) {
	id := uuid.New().String()
	modified := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO files (id, name, mime_type, revision, modified_at, content) VALUES (?, ?, ?, 1, ?, ?)",
		id, name, storage.JSONMimeType, modified, blob(content))
	if err != nil {
		return storage.File{}, fmt.Errorf("create %s: %w", name, err)
	}
	return s.Get(ctx, id)
}

// Rename changes the name of id.
func (s *SQLiteStore) Rename(ctx context.Context, id, name string) (storage.File, error) {
	modified := s.now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, "UPDATE files SET name = ?, modified_at = ? WHERE id = ?", name, modified, id)
	if err != nil {
		return storage.File{}, fmt.Errorf("rename %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.File{}, fmt.Errorf("rename %s: %w", id, storage.ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// Ensure creates a file with a fixed id when it does not exist yet, so
// configured document ids resolve on a fresh database.
// POST: Returns true when the file was created
func (s *SQLiteStore) Ensure(ctx context.Context, id, name string, content []byte) (bool, error) {
	modified := s.now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO files (id, name, mime_type, revision, modified_at, content) VALUES (?, ?, ?, 1, ?, ?) ON CONFLICT(id) DO NOTHING",
		id, name, storage.JSONMimeType, modified, blob(content))
	if err != nil {
		return false, fmt.Errorf("ensure %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// blob stores a nil body as an empty one; the content column is NOT NULL.
func blob(content []byte) []byte {
	if content == nil {
		return []byte{}
	}
	return content
}
