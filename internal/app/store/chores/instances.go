package chorestore

import (
	"context"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/recurrence"
	"github.com/divvyapp/divvy/internal/domain/models"
)

var instanceSchema = docschema.Schema{
	"assignee": docschema.String,
	"choreID":  docschema.String,
	"dueDate":  docschema.Date,
	"isDone":   docschema.Bool,
}

func instancePath(houseID, id string) string {
	return docstore.Join("houses", houseID, Instances, id)
}

// UpsertInstance creates or merges a chore instance. An empty id gets a
// fresh one. choreID is not checked against the house's chores.
func (s *Store) UpsertInstance(ctx context.Context, houseID, id string, data map[string]any) (models.ChoreInstance, error) {
	if !docstore.ValidID(houseID) {
		return models.ChoreInstance{}, docstore.ErrInvalidID
	}
	if id == "" {
		id = s.ds.NewID()
	}
	doc, err := instanceSchema.Upsert(ctx, s.ds, instancePath(houseID, id), id, data)
	if err != nil {
		return models.ChoreInstance{}, err
	}
	return instanceFromDoc(id, doc), nil
}

// UpdateInstance applies a partial update (e.g. isDone) to an existing
// instance and returns the result.
func (s *Store) UpdateInstance(ctx context.Context, houseID, id string, fields map[string]any) (models.ChoreInstance, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return models.ChoreInstance{}, docstore.ErrInvalidID
	}
	cleaned, err := instanceSchema.Clean(fields)
	if err != nil {
		return models.ChoreInstance{}, err
	}
	if len(cleaned) == 0 {
		return models.ChoreInstance{}, &docschema.FieldError{Field: "body", Message: "no updatable fields"}
	}
	if err := s.ds.Update(ctx, instancePath(houseID, id), cleaned); err != nil {
		return models.ChoreInstance{}, err
	}
	return s.GetInstance(ctx, houseID, id)
}

func (s *Store) GetInstance(ctx context.Context, houseID, id string) (models.ChoreInstance, error) {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return models.ChoreInstance{}, docstore.ErrInvalidID
	}
	doc, err := s.ds.Get(ctx, instancePath(houseID, id))
	if err != nil {
		return models.ChoreInstance{}, err
	}
	return instanceFromDoc(id, doc), nil
}

func (s *Store) DeleteInstance(ctx context.Context, houseID, id string) error {
	if !docstore.ValidID(houseID) || !docstore.ValidID(id) {
		return docstore.ErrInvalidID
	}
	return s.ds.Delete(ctx, instancePath(houseID, id))
}

// InstancesByHouse returns the house's instances keyed by id. When day is
// set only instances due that day are returned.
func (s *Store) InstancesByHouse(ctx context.Context, houseID, day string) (map[string]models.ChoreInstance, error) {
	if !docstore.ValidID(houseID) {
		return nil, docstore.ErrInvalidID
	}
	var q docstore.Query
	if day != "" {
		d, err := normalizeDate("day", day)
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, docstore.Where("dueDate", docstore.OpEq, d))
	}
	snaps, err := s.ds.Find(ctx, docstore.Join("houses", houseID, Instances), q)
	if err != nil {
		return nil, err
	}
	return instanceMap(snaps), nil
}

// InstancesByUser returns the instances, across all houses, assigned to
// userID, optionally limited to dueDate within [start, end].
func (s *Store) InstancesByUser(ctx context.Context, userID, start, end string) (map[string]models.ChoreInstance, error) {
	if !docstore.ValidID(userID) {
		return nil, docstore.ErrInvalidID
	}
	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Where("assignee", docstore.OpEq, userID)},
	}
	var from, to string
	var err error
	if start != "" {
		if from, err = normalizeDate("start", start); err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, docstore.Where("dueDate", docstore.OpGTE, from))
	}
	if end != "" {
		if to, err = normalizeDate("end", end); err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, docstore.Where("dueDate", docstore.OpLTE, to))
	}
	if from != "" && to != "" && to < from {
		return nil, recurrence.ErrRangeReversed
	}
	snaps, err := s.ds.FindGroup(ctx, Instances, q)
	if err != nil {
		return nil, err
	}
	return instanceMap(snaps), nil
}

func normalizeDate(field, s string) (string, error) {
	d, err := docschema.ParseDate(s)
	if err != nil {
		return "", &docschema.FieldError{Field: field, Message: err.Error()}
	}
	return d.Format(docschema.DateLayout), nil
}

func instanceMap(snaps []docstore.Snapshot) map[string]models.ChoreInstance {
	out := make(map[string]models.ChoreInstance, len(snaps))
	for _, snap := range snaps {
		out[snap.ID] = instanceFromDoc(snap.ID, snap.Data)
	}
	return out
}

func instanceFromDoc(id string, d docstore.Doc) models.ChoreInstance {
	return models.ChoreInstance{
		ID:       id,
		Assignee: d.String("assignee"),
		ChoreID:  d.String("choreID"),
		DueDate:  d.String("dueDate"),
		IsDone:   d.Bool("isDone"),
	}
}
