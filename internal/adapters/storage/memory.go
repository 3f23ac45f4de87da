package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryFileAPI keeps files in process memory. It backs tests and the
// "memory" storage backend.
type MemoryFileAPI struct {
	mu    sync.Mutex
	files map[string]*memFile
	now   func() time.Time
}

type memFile struct {
	meta    File
	content []byte
}

// Compile-time check that *MemoryFileAPI satisfies FileAPI.
var _ FileAPI = (*MemoryFileAPI)(nil)
var _ Ensurer = (*MemoryFileAPI)(nil)

// NewMemoryFileAPI returns an empty in-memory file store.
func NewMemoryFileAPI() *MemoryFileAPI {
	return &MemoryFileAPI{files: map[string]*memFile{}, now: time.Now}
}

// Seed stores content under a fixed id, replacing any existing file.
// POST: the file exists at revision 1
func (m *MemoryFileAPI) Seed(id, name string, content []byte) File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seedLocked(id, name, content)
}

func (m *MemoryFileAPI) seedLocked(id, name string, content []byte) File {
	f := &memFile{
		meta: File{
			ID:           id,
			Name:         name,
			MimeType:     JSONMimeType,
			Revision:     1,
			ModifiedTime: m.now().UTC(),
			Size:         int64(len(content)),
		},
		content: append([]byte(nil), content...),
	}
	m.files[id] = f
	return f.meta
}

// List returns files ordered by name.
func (m *MemoryFileAPI) List(ctx context.Context, q ListQuery) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []File
	for _, f := range m.files {
		if strings.HasPrefix(f.meta.Name, q.NamePrefix) {
			out = append(out, f.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Get returns the metadata of id.
func (m *MemoryFileAPI) Get(ctx context.Context, id string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return File{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return f.meta, nil
}

// Download returns a copy of the content of id.
func (m *MemoryFileAPI) Download(ctx context.Context, id string) ([]byte, File, error) {
	if err := ctx.Err(); err != nil {
		return nil, File{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, File{}, fmt.Errorf("download %s: %w", id, ErrNotFound)
	}
	return append([]byte(nil), f.content...), f.meta, nil
}

// Upload replaces the content of id and bumps its revision.
func (m *MemoryFileAPI) Upload(ctx context.Context, id string, content []byte, ifRevision int64) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return File{}, fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}
	if ifRevision > 0 && f.meta.Revision != ifRevision {
		return File{}, fmt.Errorf("upload %s at revision %d (now %d): %w", id, ifRevision, f.meta.Revision, ErrConflict)
	}
	f.content = append([]byte(nil), content...)
	f.meta.Revision++
	f.meta.Size = int64(len(content))
	f.meta.ModifiedTime = m.now().UTC()
	return f.meta, nil
}

// Create stores a new file under a generated id.
func (m *MemoryFileAPI) Create(ctx context.Context, name string, content []byte) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	return m.Seed(uuid.New().String(), name, content), nil
}

// Rename changes the name of id without touching its content.
func (m *MemoryFileAPI) Rename(ctx context.Context, id, name string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return File{}, fmt.Errorf("rename %s: %w", id, ErrNotFound)
	}
	f.meta.Name = name
	f.meta.ModifiedTime = m.now().UTC()
	return f.meta, nil
}

// Delete removes id.
func (m *MemoryFileAPI) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(m.files, id)
	return nil
}

// Ensure seeds id unless it already exists.
func (m *MemoryFileAPI) Ensure(ctx context.Context, id, name string, content []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.files[id]; exists {
		return false, nil
	}
	m.seedLocked(id, name, content)
	return true, nil
}
