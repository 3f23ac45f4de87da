package sqlitefs

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"clubhouse/internal/adapters/http/perf"
	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/adapters/storage/storagetest"
)

func openTestStore(t *testing.T) (*SQLiteStore, *perf.Collector) {
	t.Helper()
	db, err := sql.Open("sqlite", DSN(filepath.Join(t.TempDir(), "files.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	collector := perf.NewCollector(1000)
	tdb := storage.NewTimedDB(db, collector, 0)
	if err := InitDB(context.Background(), tdb); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewSQLiteStore(tdb), collector
}

func TestSQLiteStore_Conformance(t *testing.T) {
	s, collector := openTestStore(t)
	storagetest.Run(t, s, storagetest.Options{})
	if collector.TotalRecorded() == 0 {
		t.Error("queries should be recorded through the timed db")
	}
}

// TestSQLiteStore_Ensure verifies fixed-id files are created once.
func TestSQLiteStore_Ensure(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	created, err := s.Ensure(ctx, "athletes", "athletes.json", []byte(`{"athletes":[]}`))
	if err != nil || !created {
		t.Fatalf("Ensure first = %v, %v; want true, nil", created, err)
	}
	if _, err := s.Upload(ctx, "athletes", []byte(`{"athletes":[{"id":"a"}]}`), 0); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	created, err = s.Ensure(ctx, "athletes", "athletes.json", []byte(`{}`))
	if err != nil || created {
		t.Fatalf("Ensure again = %v, %v; want false, nil", created, err)
	}
	body, f, err := s.Download(ctx, "athletes")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(body) != `{"athletes":[{"id":"a"}]}` || f.Revision != 2 {
		t.Errorf("Ensure overwrote content: %s at revision %d", body, f.Revision)
	}
}

// TestInitDB_Idempotent verifies the schema can be applied twice.
func TestInitDB_Idempotent(t *testing.T) {
	s, _ := openTestStore(t)
	if err := InitDB(context.Background(), s.db); err != nil {
		t.Fatalf("second InitDB: %v", err)
	}
}
