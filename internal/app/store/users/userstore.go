// internal/app/store/users/userstore.go
package userstore

import (
	"context"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/domain/models"
)

// Collection is the top-level collection holding users.
const Collection = "users"

var schema = docschema.Schema{
	"email":   docschema.Email,
	"houseID": docschema.String,
	"name":    docschema.Text,
}

type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

func path(id string) string {
	return docstore.Join(Collection, id)
}

// Upsert creates or merges the user document. Empty incoming fields keep
// their stored values.
func (s *Store) Upsert(ctx context.Context, id string, data map[string]any) (models.User, error) {
	doc, err := schema.Upsert(ctx, s.ds, path(id), id, data)
	if err != nil {
		return models.User{}, err
	}
	return fromDoc(id, doc), nil
}

func (s *Store) Get(ctx context.Context, id string) (models.User, error) {
	if !docstore.ValidID(id) {
		return models.User{}, docstore.ErrInvalidID
	}
	doc, err := s.ds.Get(ctx, path(id))
	if err != nil {
		return models.User{}, err
	}
	return fromDoc(id, doc), nil
}

// Exists reports whether a user document is present.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if docstore.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// SetHouse records the house a user belongs to ("" clears it).
func (s *Store) SetHouse(ctx context.Context, id, houseID string) error {
	if !docstore.ValidID(id) {
		return docstore.ErrInvalidID
	}
	return s.ds.Update(ctx, path(id), docstore.Doc{"houseID": houseID})
}

// Delete removes the user document. Memberships in houses are left alone.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !docstore.ValidID(id) {
		return docstore.ErrInvalidID
	}
	return s.ds.Delete(ctx, path(id))
}

func fromDoc(id string, d docstore.Doc) models.User {
	return models.User{
		ID:      id,
		Email:   d.String("email"),
		HouseID: d.String("houseID"),
		Name:    d.String("name"),
	}
}
