// internal/app/store/housedocs/housedocstore.go
package housedocstore

import (
	"context"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/paging"
)

// Kinds of free-form house documents.
const (
	Subgroups = "subgroups"
	Swaps     = "swaps"
)

// Store keeps free-form documents in one house subcollection. Bodies are
// stored verbatim apart from the id field.
type Store struct {
	ds   docstore.Store
	kind string
}

// New returns a store for kind (Subgroups or Swaps).
func New(ds docstore.Store, kind string) *Store {
	return &Store{ds: ds, kind: kind}
}

// Kind returns the subcollection name.
func (s *Store) Kind() string {
	return s.kind
}

func (s *Store) colPath(houseID string) string {
	return docstore.Join("houses", houseID, s.kind)
}

// Set replaces the document. An empty id gets a fresh one. Returns the
// stored document.
func (s *Store) Set(ctx context.Context, houseID, id string, data map[string]any) (docstore.Doc, error) {
	if !docstore.ValidID(houseID) {
		return nil, docstore.ErrInvalidID
	}
	if id == "" {
		id = s.ds.NewID()
	}
	if !docstore.ValidID(id) {
		return nil, docstore.ErrInvalidID
	}
	doc := docstore.Doc(data).Clone()
	if doc == nil {
		doc = docstore.Doc{}
	}
	doc["id"] = id
	if err := s.ds.Set(ctx, docstore.Join(s.colPath(houseID), id), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) Get(ctx context.Context, houseID, id string) (docstore.Doc, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return nil, docstore.ErrInvalidID
	}
	return s.ds.Get(ctx, docstore.Join(s.colPath(houseID), id))
}

// List returns every document of the kind in the house, keyed by id.
func (s *Store) List(ctx context.Context, houseID string) (map[string]docstore.Doc, error) {
	docs, _, err := s.Page(ctx, houseID, paging.Params{})
	return docs, err
}

// Page returns one keyset page of the house's documents in id order,
// plus the cursor for the next page ("" on the last one).
func (s *Store) Page(ctx context.Context, houseID string, p paging.Params) (map[string]docstore.Doc, string, error) {
	if !docstore.ValidID(houseID) {
		return nil, "", docstore.ErrInvalidID
	}
	snaps, err := s.ds.List(ctx, s.colPath(houseID), p.After, p.LimitPlusOne())
	if err != nil {
		return nil, "", err
	}
	snaps, next := paging.Trim(snaps, p, snapshotID)
	out := make(map[string]docstore.Doc, len(snaps))
	for _, snap := range snaps {
		out[snap.ID] = snap.Data
	}
	return out, next, nil
}

func snapshotID(s docstore.Snapshot) string { return s.ID }

func (s *Store) Delete(ctx context.Context, houseID, id string) error {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return docstore.ErrInvalidID
	}
	return s.ds.Delete(ctx, docstore.Join(s.colPath(houseID), id))
}
