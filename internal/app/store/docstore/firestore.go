package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ Store = (*Firestore)(nil)

// Firestore stores documents in Cloud Firestore. Paths are used as-is.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a client for the given project. Credentials come from
// the environment (GOOGLE_APPLICATION_CREDENTIALS or the metadata server);
// FIRESTORE_EMULATOR_HOST is honoured by the SDK.
func NewFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	if projectID == "" {
		return nil, errors.New("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

// NewFirestoreFromClient wraps an existing client.
func NewFirestoreFromClient(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) NewID() string {
	return uuid.NewString()
}

func asFirestoreTime(time.Time) any { return firestore.ServerTimestamp }

func (f *Firestore) doc(docPath string) (*firestore.DocumentRef, error) {
	if _, _, err := SplitDoc(docPath); err != nil {
		return nil, err
	}
	ref := f.client.Doc(docPath)
	if ref == nil {
		return nil, ErrInvalidPath
	}
	return ref, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (f *Firestore) Get(ctx context.Context, docPath string) (Doc, error) {
	ref, err := f.doc(docPath)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", docPath, err)
	}
	return Doc(snap.Data()), nil
}

func (f *Firestore) Set(ctx context.Context, docPath string, data Doc) error {
	ref, err := f.doc(docPath)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, map[string]any(resolveTimestamps(data, time.Time{}, asFirestoreTime))); err != nil {
		return fmt.Errorf("set %s: %w", docPath, err)
	}
	return nil
}

func (f *Firestore) update(ctx context.Context, docPath string, updates []firestore.Update) error {
	ref, err := f.doc(docPath)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, updates)
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", docPath, err)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, docPath string, fields Doc) error {
	resolved := resolveTimestamps(fields, time.Time{}, asFirestoreTime)
	updates := make([]firestore.Update, 0, len(resolved))
	for k, v := range resolved {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if len(updates) == 0 {
		return nil
	}
	return f.update(ctx, docPath, updates)
}

func (f *Firestore) Delete(ctx context.Context, docPath string) error {
	ref, err := f.doc(docPath)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", docPath, err)
	}
	return nil
}

func (f *Firestore) ArrayUnion(ctx context.Context, docPath, field string, values ...any) error {
	return f.update(ctx, docPath, []firestore.Update{
		{FieldPath: firestore.FieldPath{field}, Value: firestore.ArrayUnion(values...)},
	})
}

func (f *Firestore) ArrayRemove(ctx context.Context, docPath, field string, values ...any) error {
	return f.update(ctx, docPath, []firestore.Update{
		{FieldPath: firestore.FieldPath{field}, Value: firestore.ArrayRemove(values...)},
	})
}

// Transform runs fn inside a Firestore transaction. When fn writes, the
// document is read back after commit so server timestamps come back
// resolved rather than as the sentinel.
func (f *Firestore) Transform(ctx context.Context, docPath string, fn TransformFunc) (Doc, error) {
	ref, err := f.doc(docPath)
	if err != nil {
		return nil, err
	}
	var (
		unchanged Doc
		wrote     bool
	)
	err = f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		unchanged, wrote = nil, false
		snap, err := tx.Get(ref)
		exists := true
		if isNotFound(err) {
			exists = false
		} else if err != nil {
			return err
		}
		var cur Doc
		if exists {
			cur = Doc(snap.Data())
		}
		next, err := fn(cur, exists)
		if err != nil {
			return err
		}
		if next == nil {
			unchanged = cur
			return nil
		}
		wrote = true
		return tx.Set(ref, map[string]any(resolveTimestamps(next, time.Time{}, asFirestoreTime)))
	})
	if err != nil {
		return nil, err
	}
	if !wrote {
		return unchanged, nil
	}
	return f.Get(ctx, docPath)
}

func applyQuery(q firestore.Query, in Query) firestore.Query {
	for _, f := range in.Filters {
		q = q.Where(f.Field, string(f.Op), f.Value)
	}
	if in.OrderBy != "" {
		q = q.OrderBy(in.OrderBy, firestore.Asc)
	}
	if in.Limit > 0 {
		q = q.Limit(in.Limit)
	}
	return q
}

func (f *Firestore) Find(ctx context.Context, colPath string, q Query) ([]Snapshot, error) {
	if err := CheckCollection(colPath); err != nil {
		return nil, err
	}
	return f.collect(ctx, applyQuery(f.client.Collection(colPath).Query, q))
}

func (f *Firestore) FindGroup(ctx context.Context, collectionID string, q Query) ([]Snapshot, error) {
	if !ValidID(collectionID) {
		return nil, ErrInvalidPath
	}
	return f.collect(ctx, applyQuery(f.client.CollectionGroup(collectionID).Query, q))
}

func (f *Firestore) List(ctx context.Context, colPath, afterID string, limit int) ([]Snapshot, error) {
	if err := CheckCollection(colPath); err != nil {
		return nil, err
	}
	q := f.client.Collection(colPath).OrderBy(firestore.DocumentID, firestore.Asc)
	if afterID != "" {
		q = q.StartAfter(afterID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return f.collect(ctx, q)
}

func (f *Firestore) collect(ctx context.Context, q firestore.Query) ([]Snapshot, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var out []Snapshot
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		out = append(out, Snapshot{
			ID:   snap.Ref.ID,
			Path: relativePath(snap.Ref.Path),
			Data: Doc(snap.Data()),
		})
	}
	return out, nil
}

// relativePath trims "projects/p/databases/d/documents/" from a resource name.
func relativePath(name string) string {
	const marker = "/documents/"
	if i := strings.Index(name, marker); i >= 0 {
		return name[i+len(marker):]
	}
	return name
}

func (f *Firestore) Ping(ctx context.Context) error {
	_, err := f.client.Collection("houses").Limit(1).Documents(ctx).GetAll()
	return err
}

func (f *Firestore) Close(ctx context.Context) error {
	return f.client.Close()
}
