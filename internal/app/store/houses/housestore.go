// internal/app/store/houses/housestore.go
package housestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/domain/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Collection is the top-level collection holding houses.
const Collection = "houses"

// CodesCollection maps each folded join code to the house holding it. The
// document id is the code, so a code can have only one owner.
const CodesCollection = "joinCodes"

// Subcollections are the house-scoped collections removed with the house.
var Subcollections = []string{"members", "chores", "choreInstances", "subgroups", "swaps"}

// joinCodeLen is the length of generated join codes.
const joinCodeLen = 6

// staleAfter is how long a reservation is protected while its house is
// still being written.
const staleAfter = time.Minute

var ErrJoinCodeExhausted = errors.New("could not generate a unique join code")

// ErrJoinCodeTaken is returned when a house asks for a code another house holds.
var ErrJoinCodeTaken = fmt.Errorf("join code already in use: %w", docstore.ErrConflict)

var schema = docschema.Schema{
	"name":        docschema.Text,
	"members":     docschema.StringList,
	"dateCreated": docschema.Timestamp,
	"imageID":     docschema.String,
	"joinCode":    docschema.String,
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

func codePath(code string) string {
	return docstore.Join(CodesCollection, code)
}

func foldCode(code string) string {
	return text.Fold(strings.TrimSpace(code))
}

// Create writes a new house with creatorID as its only member, a server
// timestamp and a fresh join code.
func (s *Store) Create(ctx context.Context, name, creatorID string) (models.House, error) {
	cleaned, err := schema.Clean(map[string]any{"name": name})
	if err != nil {
		return models.House{}, err
	}
	if _, ok := cleaned["name"]; !ok {
		return models.House{}, &docschema.FieldError{Field: "name", Message: "is required"}
	}
	if !docstore.ValidID(creatorID) {
		return models.House{}, docstore.ErrInvalidID
	}

	id := s.ds.NewID()
	code, err := s.newJoinCode(ctx, id)
	if err != nil {
		return models.House{}, err
	}
	doc := schema.Merge(nil, cleaned)
	doc["id"] = id
	doc["members"] = []string{creatorID}
	doc["dateCreated"] = docstore.ServerTimestamp
	doc["joinCode"] = code
	if err := s.ds.Set(ctx, path(id), doc); err != nil {
		_ = s.releaseCode(context.WithoutCancel(ctx), code, id)
		return models.House{}, err
	}
	return s.Get(ctx, id)
}

// newJoinCode reserves a fresh code for houseID. Codes are stored folded so
// lookups are case-insensitive.
func (s *Store) newJoinCode(ctx context.Context, houseID string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := foldCode(strings.ReplaceAll(uuid.NewString(), "-", "")[:joinCodeLen])
		err := s.reserveCode(ctx, code, houseID)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, docstore.ErrConflict) {
			return "", err
		}
	}
	return "", ErrJoinCodeExhausted
}

// reserveCode claims code for houseID in a single transaction. Holding the
// code already is not an error. A reservation older than staleAfter whose
// house no longer exists is taken over.
func (s *Store) reserveCode(ctx context.Context, code, houseID string) error {
	var holder string
	_, err := s.ds.Transform(ctx, codePath(code), func(existing docstore.Doc, exists bool) (docstore.Doc, error) {
		if exists {
			holder = existing.String("houseID")
			if holder == houseID {
				return nil, nil
			}
			return nil, ErrJoinCodeTaken
		}
		return reservation(code, houseID), nil
	})
	if !errors.Is(err, ErrJoinCodeTaken) {
		return err
	}

	if holder != "" && docstore.ValidID(holder) {
		if _, gerr := s.ds.Get(ctx, path(holder)); !docstore.IsNotFound(gerr) {
			if gerr != nil {
				return gerr
			}
			return err
		}
	}
	_, err = s.ds.Transform(ctx, codePath(code), func(existing docstore.Doc, exists bool) (docstore.Doc, error) {
		if exists {
			cur := existing.String("houseID")
			if cur == houseID {
				return nil, nil
			}
			if cur != holder || time.Since(existing.Time("reservedAt")) < staleAfter {
				return nil, ErrJoinCodeTaken
			}
		}
		return reservation(code, houseID), nil
	})
	return err
}

func reservation(code, houseID string) docstore.Doc {
	return docstore.Doc{"id": code, "houseID": houseID, "reservedAt": docstore.ServerTimestamp}
}

// releaseCode drops the reservation if houseID still holds it.
func (s *Store) releaseCode(ctx context.Context, code, houseID string) error {
	if code == "" {
		return nil
	}
	doc, err := s.ds.Get(ctx, codePath(code))
	if docstore.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if doc.String("houseID") != houseID {
		return nil
	}
	return s.ds.Delete(ctx, codePath(code))
}

// Upsert creates or merges the house document. Empty incoming fields keep
// their stored values. A new join code is reserved before the house is
// written, and the code it replaces is released afterwards.
func (s *Store) Upsert(ctx context.Context, id string, data map[string]any) (models.House, error) {
	if !docstore.ValidID(id) {
		return models.House{}, docstore.ErrInvalidID
	}
	code := ""
	if raw, ok := data["joinCode"].(string); ok {
		code = foldCode(raw)
		folded := make(map[string]any, len(data))
		for k, v := range data {
			folded[k] = v
		}
		folded["joinCode"] = code
		data = folded
	}

	oldCode := ""
	if code != "" {
		if !docstore.ValidID(code) {
			return models.House{}, &docschema.FieldError{Field: "joinCode", Message: "must not contain '/'"}
		}
		existing, err := s.Get(ctx, id)
		if err != nil && !docstore.IsNotFound(err) {
			return models.House{}, err
		}
		oldCode = existing.JoinCode
		if err := s.reserveCode(ctx, code, id); err != nil {
			return models.House{}, err
		}
	}

	doc, err := schema.Upsert(ctx, s.ds, path(id), id, data)
	if err != nil {
		if code != "" && code != oldCode {
			_ = s.releaseCode(context.WithoutCancel(ctx), code, id)
		}
		return models.House{}, err
	}
	if code != "" && oldCode != "" && oldCode != code {
		if err := s.releaseCode(ctx, oldCode, id); err != nil {
			return models.House{}, fmt.Errorf("release join code: %w", err)
		}
	}
	return fromDoc(id, doc), nil
}

func (s *Store) Get(ctx context.Context, id string) (models.House, error) {
	if !docstore.ValidID(id) {
		return models.House{}, docstore.ErrInvalidID
	}
	doc, err := s.ds.Get(ctx, path(id))
	if err != nil {
		return models.House{}, err
	}
	return fromDoc(id, doc), nil
}

// Delete removes the house's subcollections concurrently, then the house
// document itself. It is not atomic: on error some children may survive.
// Returns the number of child documents deleted.
func (s *Store) Delete(ctx context.Context, id string, batchSize int) (int, error) {
	if !docstore.ValidID(id) {
		return 0, docstore.ErrInvalidID
	}
	house, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	counts := make([]int, len(Subcollections))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range Subcollections {
		g.Go(func() error {
			n, err := docstore.DeleteCollection(gctx, s.ds, docstore.Join(Collection, id, sub), batchSize)
			counts[i] = n
			if err != nil {
				return fmt.Errorf("delete %s: %w", sub, err)
			}
			return nil
		})
	}
	err = g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	if err != nil {
		return total, err
	}
	if err := s.ds.Delete(ctx, path(id)); err != nil {
		return total, err
	}
	return total, s.releaseCode(ctx, house.JoinCode, id)
}

// AddMember appends userID to the house's member list if not already present.
func (s *Store) AddMember(ctx context.Context, houseID, userID string) error {
	if !docstore.ValidID(houseID) || !docstore.ValidID(userID) {
		return docstore.ErrInvalidID
	}
	return s.ds.ArrayUnion(ctx, path(houseID), "members", userID)
}

// RemoveMember drops userID from the house's member list.
func (s *Store) RemoveMember(ctx context.Context, houseID, userID string) error {
	if !docstore.ValidID(houseID) || !docstore.ValidID(userID) {
		return docstore.ErrInvalidID
	}
	return s.ds.ArrayRemove(ctx, path(houseID), "members", userID)
}

// ByJoinCode finds the house holding code. Matching ignores case.
func (s *Store) ByJoinCode(ctx context.Context, code string) (models.House, error) {
	code = foldCode(code)
	if code == "" || !docstore.ValidID(code) {
		return models.House{}, docstore.ErrNotFound
	}
	res, err := s.ds.Get(ctx, codePath(code))
	if err != nil {
		return models.House{}, err
	}
	house, err := s.Get(ctx, res.String("houseID"))
	if errors.Is(err, docstore.ErrInvalidID) {
		return models.House{}, docstore.ErrNotFound
	}
	if err != nil {
		return models.House{}, err
	}
	if house.JoinCode != code {
		return models.House{}, docstore.ErrNotFound
	}
	return house, nil
}

// ByUser returns the houses userID belongs to, keyed by house id.
func (s *Store) ByUser(ctx context.Context, userID string) (map[string]models.House, error) {
	if !docstore.ValidID(userID) {
		return nil, docstore.ErrInvalidID
	}
	snaps, err := s.ds.Find(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("members", docstore.OpArrayContains, userID)},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.House, len(snaps))
	for _, snap := range snaps {
		out[snap.ID] = fromDoc(snap.ID, snap.Data)
	}
	return out, nil
}

func fromDoc(id string, d docstore.Doc) models.House {
	return models.House{
		ID:          id,
		Name:        d.String("name"),
		Members:     d.Strings("members"),
		DateCreated: d.Time("dateCreated"),
		ImageID:     d.String("imageID"),
		JoinCode:    d.String("joinCode"),
	}
}
