// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/paging"
	"github.com/divvyapp/divvy/internal/domain/models"
)

// Subcollection holds member records under each house.
const Subcollection = "members"

var schema = docschema.Schema{
	"chores":         docschema.StringList,
	"dateJoined":     docschema.Timestamp,
	"email":          docschema.Email,
	"name":           docschema.Text,
	"onTimePct":      docschema.Number,
	"profilePicture": docschema.String,
	"subgroups":      docschema.StringList,
}

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func colPath(houseID string) string {
	return docstore.Join("houses", houseID, Subcollection)
}

func docPath(houseID, id string) string {
	return docstore.Join("houses", houseID, Subcollection, id)
}

// Upsert creates or merges a member record. New records get a server
// dateJoined unless one is supplied.
func (s *Store) Upsert(ctx context.Context, houseID, id string, data map[string]any) (models.Member, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return models.Member{}, docstore.ErrInvalidID
	}
	cleaned, err := schema.Clean(data)
	if err != nil {
		return models.Member{}, err
	}
	doc, err := s.ds.Transform(ctx, docPath(houseID, id), func(existing docstore.Doc, exists bool) (docstore.Doc, error) {
		if !exists {
			existing = nil
		}
		merged := schema.Merge(existing, cleaned)
		merged["id"] = id
		if _, ok := merged["dateJoined"]; !ok {
			merged["dateJoined"] = docstore.ServerTimestamp
		}
		return merged, nil
	})
	if err != nil {
		return models.Member{}, err
	}
	return fromDoc(id, doc), nil
}

// Ensure writes a member record for user unless one already exists.
// It reports whether a record was created.
func (s *Store) Ensure(ctx context.Context, houseID string, user models.User) (bool, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(user.ID) {
		return false, docstore.ErrInvalidID
	}
	created := false
	_, err := s.ds.Transform(ctx, docPath(houseID, user.ID), func(_ docstore.Doc, exists bool) (docstore.Doc, error) {
		if exists {
			return nil, nil
		}
		created = true
		doc := schema.Defaults()
		doc["id"] = user.ID
		doc["name"] = user.Name
		doc["email"] = user.Email
		doc["dateJoined"] = docstore.ServerTimestamp
		return doc, nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, houseID, id string) (models.Member, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return models.Member{}, docstore.ErrInvalidID
	}
	doc, err := s.ds.Get(ctx, docPath(houseID, id))
	if err != nil {
		return models.Member{}, err
	}
	return fromDoc(id, doc), nil
}

// List returns the house's member records keyed by id.
func (s *Store) List(ctx context.Context, houseID string) (map[string]models.Member, error) {
	members, _, err := s.Page(ctx, houseID, paging.Params{})
	return members, err
}

// Page returns one keyset page of member records and the next cursor.
func (s *Store) Page(ctx context.Context, houseID string, p paging.Params) (map[string]models.Member, string, error) {
	if !docstore.ValidID(houseID) {
		return nil, "", docstore.ErrInvalidID
	}
	snaps, err := s.ds.List(ctx, colPath(houseID), p.After, p.LimitPlusOne())
	if err != nil {
		return nil, "", err
	}
	snaps, next := paging.Trim(snaps, p, func(s docstore.Snapshot) string { return s.ID })
	out := make(map[string]models.Member, len(snaps))
	for _, snap := range snaps {
		out[snap.ID] = fromDoc(snap.ID, snap.Data)
	}
	return out, next, nil
}

func (s *Store) Delete(ctx context.Context, houseID, id string) error {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return docstore.ErrInvalidID
	}
	return s.ds.Delete(ctx, docPath(houseID, id))
}

func fromDoc(id string, d docstore.Doc) models.Member {
	return models.Member{
		ID:             id,
		Chores:         d.Strings("chores"),
		DateJoined:     d.Time("dateJoined"),
		Email:          d.String("email"),
		Name:           d.String("name"),
		OnTimePct:      d.Float("onTimePct"),
		ProfilePicture: d.String("profilePicture"),
		Subgroups:      d.Strings("subgroups"),
	}
}
