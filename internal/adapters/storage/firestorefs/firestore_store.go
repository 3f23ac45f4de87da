// Package firestorefs stores document files as Firestore documents, one per
// file, in a single collection. Firestore caps a document at 1 MiB, which
// bounds the size of every stored file.
package firestorefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhouse/internal/adapters/storage"
)

// DefaultCollection is the collection files are stored in.
const DefaultCollection = "clubhouseFiles"

type fileDoc struct {
	Name       string    `firestore:"name"`
	MimeType   string    `firestore:"mimeType"`
	Revision   int64     `firestore:"revision"`
	ModifiedAt time.Time `firestore:"modifiedAt"`
	Content    []byte    `firestore:"content"`
}

func (d fileDoc) file(id string) storage.File {
	return storage.File{
		ID:           id,
		Name:         d.Name,
		MimeType:     d.MimeType,
		Revision:     d.Revision,
		ModifiedTime: d.ModifiedAt.UTC(),
		Size:         int64(len(d.Content)),
	}
}

// FirestoreStore implements storage.FileAPI on Firestore.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

var _ storage.FileAPI = (*FirestoreStore)(nil)
var _ storage.Ensurer = (*FirestoreStore)(nil)

// NewFirestoreStore stores files in collection (DefaultCollection when empty).
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{client: client, collection: collection, now: time.Now}
}

func (s *FirestoreStore) ref(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

// mapError translates gRPC status codes into storage errors.
func mapError(op, id string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s %s: %w", op, id, storage.ErrNotFound)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%s %s: %w", op, id, storage.ErrUnauthorized)
	}
	if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func (s *FirestoreStore) read(ctx context.Context, id string) (fileDoc, error) {
	snap, err := s.ref(id).Get(ctx)
	if err != nil {
		return fileDoc{}, err
	}
	var d fileDoc
	if err := snap.DataTo(&d); err != nil {
		return fileDoc{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return d, nil
}

// List returns files whose name starts with q.NamePrefix, ordered by name.
func (s *FirestoreStore) List(ctx context.Context, q storage.ListQuery) ([]storage.File, error) {
	query := s.client.Collection(s.collection).Query
	if q.NamePrefix != "" {
		query = query.Where("name", ">=", q.NamePrefix).Where("name", "<", q.NamePrefix+"\uf8ff")
	}
	query = query.OrderBy("name", firestore.Asc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()
	var out []storage.File
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError("list", s.collection, err)
		}
		var d fileDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		out = append(out, d.file(snap.Ref.ID))
	}
	return out, nil
}

// Get returns the metadata of id.
func (s *FirestoreStore) Get(ctx context.Context, id string) (storage.File, error) {
	d, err := s.read(ctx, id)
	if err != nil {
		return storage.File{}, mapError("get", id, err)
	}
	return d.file(id), nil
}

// Download returns the content and metadata of id.
func (s *FirestoreStore) Download(ctx context.Context, id string) ([]byte, storage.File, error) {
	d, err := s.read(ctx, id)
	if err != nil {
		return nil, storage.File{}, mapError("download", id, err)
	}
	return d.Content, d.file(id), nil
}

// Upload replaces the content of id inside a transaction so the revision
// check and the write are atomic.
func (s *FirestoreStore) Upload(ctx context.Context, id string, content []byte, ifRevision int64) (storage.File, error) {
	ref := s.ref(id)
	var out fileDoc
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var d fileDoc
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		if ifRevision > 0 && d.Revision != ifRevision {
			return fmt.Errorf("upload %s at revision %d (now %d): %w", id, ifRevision, d.Revision, storage.ErrConflict)
		}
		d.Content = content
		d.Revision++
		d.ModifiedAt = s.now().UTC()
		out = d
		return tx.Set(ref, d)
	})
	if err != nil {
		return storage.File{}, mapError("upload", id, err)
	}
	return out.file(id), nil
}

// Create stores a new file under a generated id at revision 1.
func (s *FirestoreStore) Create(ctx context.Context, name string, content []byte) (storage.File, error) {
	id := uuid.New().String()
	d := fileDoc{Name: name, MimeType: storage.JSONMimeType, Revision: 1, ModifiedAt: s.now().UTC(), Content: content}
	if _, err := s.ref(id).Create(ctx, d); err != nil {
		return storage.File{}, mapError("create", name, err)
	}
	return d.file(id), nil
}

// Rename changes the name of id.
func (s *FirestoreStore) Rename(ctx context.Context, id, name string) (storage.File, error) {
	_, err := s.ref(id).Update(ctx, []firestore.Update{
		{Path: "name", Value: name},
		{Path: "modifiedAt", Value: s.now().UTC()},
	})
	if err != nil {
		return storage.File{}, mapError("rename", id, err)
	}
	return s.Get(ctx, id)
}

// Delete removes id.
func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := s.ref(id).Delete(ctx, firestore.Exists); err != nil {
		return mapError("delete", id, err)
	}
	return nil
}

// Ensure creates a file with a fixed id when it does not exist yet.
func (s *FirestoreStore) Ensure(ctx context.Context, id, name string, content []byte) (bool, error) {
	d := fileDoc{Name: name, MimeType: storage.JSONMimeType, Revision: 1, ModifiedAt: s.now().UTC(), Content: content}
	_, err := s.ref(id).Create(ctx, d)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, mapError("ensure", id, err)
	}
	return true, nil
}
