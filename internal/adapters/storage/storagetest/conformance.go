// Package storagetest holds the behaviour every FileAPI backend must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/adapters/storage"
)

// Options adjusts Run for backends with weaker guarantees.
type Options struct {
	// Context is passed to every call. Defaults to context.Background().
	Context context.Context
	// NonAtomicRevisions skips the concurrent compare-and-swap check for
	// backends that check revisions with a separate read.
	NonAtomicRevisions bool
}

// Run exercises api against the FileAPI contract. api must start empty.
func Run(t *testing.T, api storage.FileAPI, opts Options) {
	t.Helper()
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	t.Run("create then download", func(t *testing.T) {
		f, err := api.Create(ctx, "athletes.json", []byte(`{"athletes":[]}`))
		require.NoError(t, err)
		require.NotEmpty(t, f.ID)
		assert.Equal(t, "athletes.json", f.Name)
		assert.Positive(t, f.Revision)

		body, meta, err := api.Download(ctx, f.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"athletes":[]}`, string(body))
		assert.Equal(t, f.Revision, meta.Revision)
	})

	t.Run("empty content", func(t *testing.T) {
		f, err := api.Create(ctx, "empty.json", nil)
		require.NoError(t, err)
		body, _, err := api.Download(ctx, f.ID)
		require.NoError(t, err)
		assert.Empty(t, body)

		_, err = api.Upload(ctx, f.ID, nil, 0)
		require.NoError(t, err)
		body, _, err = api.Download(ctx, f.ID)
		require.NoError(t, err)
		assert.Empty(t, body)
	})

	if e, ok := api.(storage.Ensurer); ok {
		t.Run("ensure creates an empty file once", func(t *testing.T) {
			created, err := e.Ensure(ctx, "logs", "logs.json", nil)
			require.NoError(t, err)
			assert.True(t, created)

			body, f, err := api.Download(ctx, "logs")
			require.NoError(t, err)
			assert.Empty(t, body)
			assert.Equal(t, "logs.json", f.Name)

			created, err = e.Ensure(ctx, "logs", "logs.json", nil)
			require.NoError(t, err)
			assert.False(t, created)
		})
	}

	t.Run("upload bumps revision", func(t *testing.T) {
		f, err := api.Create(ctx, "plans.json", []byte(`{}`))
		require.NoError(t, err)

		next, err := api.Upload(ctx, f.ID, []byte(`{"version":1}`), 0)
		require.NoError(t, err)
		assert.Greater(t, next.Revision, f.Revision)

		got, err := api.Get(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, next.Revision, got.Revision)
		assert.Equal(t, int64(len(`{"version":1}`)), got.Size)
	})

	t.Run("upload with stale revision conflicts", func(t *testing.T) {
		f, err := api.Create(ctx, "logs.json", []byte(`{}`))
		require.NoError(t, err)
		_, err = api.Upload(ctx, f.ID, []byte(`{"a":1}`), f.Revision)
		require.NoError(t, err)

		_, err = api.Upload(ctx, f.ID, []byte(`{"b":2}`), f.Revision)
		require.ErrorIs(t, err, storage.ErrConflict)

		body, _, err := api.Download(ctx, f.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(body))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := api.Download(ctx, "does-not-exist")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = api.Upload(ctx, "does-not-exist", []byte(`{}`), 0)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, api.Delete(ctx, "does-not-exist"), storage.ErrNotFound)
	})

	t.Run("rename keeps content", func(t *testing.T) {
		f, err := api.Create(ctx, "old.json", []byte(`{"x":1}`))
		require.NoError(t, err)
		renamed, err := api.Rename(ctx, f.ID, "new.json")
		require.NoError(t, err)
		assert.Equal(t, "new.json", renamed.Name)

		body, _, err := api.Download(ctx, f.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":1}`, string(body))
	})

	t.Run("list by prefix", func(t *testing.T) {
		_, err := api.Create(ctx, "zz-list-a.json", []byte(`{}`))
		require.NoError(t, err)
		_, err = api.Create(ctx, "zz-list-b.json", []byte(`{}`))
		require.NoError(t, err)

		files, err := api.List(ctx, storage.ListQuery{NamePrefix: "zz-list-"})
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "zz-list-a.json", files[0].Name)

		files, err = api.List(ctx, storage.ListQuery{NamePrefix: "zz-list-", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("delete", func(t *testing.T) {
		f, err := api.Create(ctx, "gone.json", []byte(`{}`))
		require.NoError(t, err)
		require.NoError(t, api.Delete(ctx, f.ID))
		_, err = api.Get(ctx, f.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("concurrent conditional uploads admit one winner", func(t *testing.T) {
		if opts.NonAtomicRevisions {
			t.Skip("backend checks revisions non-atomically")
		}
		f, err := api.Create(ctx, "race.json", []byte(`{}`))
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins, conflicts := 0, 0
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := api.Upload(ctx, f.ID, []byte(`{"w":1}`), f.Revision)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, storage.ErrConflict):
					conflicts++
				default:
					t.Errorf("Upload: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, conflicts)
	})
}
