// internal/app/store/chores/chorestore.go
package chorestore

import (
	"context"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/domain/models"
)

// Subcollections under each house.
const (
	Chores    = "chores"
	Instances = "choreInstances"
)

var choreSchema = docschema.Schema{
	"assignees":        docschema.StringList,
	"description":      docschema.Text,
	"emoji":            docschema.String,
	"frequencyDays":    docschema.IntList,
	"frequencyPattern": docschema.String,
	"name":             docschema.Text,
	"startDate":        docschema.Date,
}

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func chorePath(houseID, id string) string {
	return docstore.Join("houses", houseID, Chores, id)
}

// Upsert creates or merges a chore. An empty id gets a fresh one.
func (s *Store) Upsert(ctx context.Context, houseID, id string, data map[string]any) (models.Chore, error) {
	if !docstore.ValidID(houseID) {
		return models.Chore{}, docstore.ErrInvalidID
	}
	if id == "" {
		id = s.ds.NewID()
	}
	doc, err := choreSchema.Upsert(ctx, s.ds, chorePath(houseID, id), id, data)
	if err != nil {
		return models.Chore{}, err
	}
	return choreFromDoc(id, doc), nil
}

func (s *Store) Get(ctx context.Context, houseID, id string) (models.Chore, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return models.Chore{}, docstore.ErrInvalidID
	}
	doc, err := s.ds.Get(ctx, chorePath(houseID, id))
	if err != nil {
		return models.Chore{}, err
	}
	return choreFromDoc(id, doc), nil
}

// Delete removes a chore. Its generated instances are left in place.
func (s *Store) Delete(ctx context.Context, houseID, id string) error {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return docstore.ErrInvalidID
	}
	return s.ds.Delete(ctx, chorePath(houseID, id))
}

// ByHouse returns every chore in the house keyed by id.
func (s *Store) ByHouse(ctx context.Context, houseID string) (map[string]models.Chore, error) {
	if !docstore.ValidID(houseID) {
		return nil, docstore.ErrInvalidID
	}
	snaps, err := s.ds.List(ctx, docstore.Join("houses", houseID, Chores), "", 0)
	if err != nil {
		return nil, err
	}
	return choreMap(snaps), nil
}

// ByUser returns the chores, across all houses, that list userID as an
// assignee.
func (s *Store) ByUser(ctx context.Context, userID string) (map[string]models.Chore, error) {
	if !docstore.ValidID(userID) {
		return nil, docstore.ErrInvalidID
	}
	snaps, err := s.ds.FindGroup(ctx, Chores, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("assignees", docstore.OpArrayContains, userID)},
	})
	if err != nil {
		return nil, err
	}
	return choreMap(snaps), nil
}

func choreMap(snaps []docstore.Snapshot) map[string]models.Chore {
	out := make(map[string]models.Chore, len(snaps))
	for _, snap := range snaps {
		out[snap.ID] = choreFromDoc(snap.ID, snap.Data)
	}
	return out
}

func choreFromDoc(id string, d docstore.Doc) models.Chore {
	return models.Chore{
		ID:               id,
		Assignees:        d.Strings("assignees"),
		Description:      d.String("description"),
		Emoji:            d.String("emoji"),
		FrequencyDays:    d.Ints("frequencyDays"),
		FrequencyPattern: d.String("frequencyPattern"),
		Name:             d.String("name"),
		StartDate:        d.String("startDate"),
	}
}
