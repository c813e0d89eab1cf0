package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
)

// Fixtures provides helper methods for creating test data directly in a
// document store, bypassing the stores under test.
type Fixtures struct {
	ds docstore.Store
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given store.
func NewFixtures(t *testing.T, ds docstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{ds: ds, t: t}
}

// Store returns the underlying document store for direct access in tests.
func (f *Fixtures) Store() docstore.Store {
	return f.ds
}

func (f *Fixtures) set(ctx context.Context, path string, d docstore.Doc) {
	f.t.Helper()
	if err := f.ds.Set(ctx, path, d); err != nil {
		f.t.Fatalf("failed to write %s: %v", path, err)
	}
}

// CreateUser creates users/{id}.
func (f *Fixtures) CreateUser(ctx context.Context, id, name, email string) {
	f.t.Helper()
	f.set(ctx, docstore.Join("users", id), docstore.Doc{
		"id":      id,
		"name":    name,
		"email":   email,
		"houseID": "",
	})
}

// CreateHouse creates a house with the given members and returns its id,
// reserving joinCode for it when one is given. Member records are not
// written.
func (f *Fixtures) CreateHouse(ctx context.Context, name, joinCode string, members ...string) string {
	f.t.Helper()
	id := f.ds.NewID()
	if members == nil {
		members = []string{}
	}
	joinCode = text.Fold(joinCode)
	if joinCode != "" {
		f.set(ctx, docstore.Join("joinCodes", joinCode), docstore.Doc{"id": joinCode, "houseID": id})
	}
	f.set(ctx, docstore.Join("houses", id), docstore.Doc{
		"id":          id,
		"name":        name,
		"members":     members,
		"dateCreated": docstore.ServerTimestamp,
		"imageID":     "",
		"joinCode":    joinCode,
	})
	return id
}

// CreateChore writes a chore under the house and returns its id. fields
// overrides the defaults (a daily chore starting 2025-01-01).
func (f *Fixtures) CreateChore(ctx context.Context, houseID string, fields docstore.Doc) string {
	f.t.Helper()
	id := f.ds.NewID()
	d := docstore.Doc{
		"id":               id,
		"name":             "Chore",
		"description":      "",
		"emoji":            "",
		"assignees":        []string{},
		"frequencyDays":    []int{},
		"frequencyPattern": "daily",
		"startDate":        "2025-01-01",
	}
	for k, v := range fields {
		d[k] = v
	}
	f.set(ctx, docstore.Join("houses", houseID, "chores", id), d)
	return id
}

// CreateInstance writes a chore instance under the house and returns its id.
func (f *Fixtures) CreateInstance(ctx context.Context, houseID, choreID, assignee, dueDate string) string {
	f.t.Helper()
	id := f.ds.NewID()
	f.set(ctx, docstore.Join("houses", houseID, "choreInstances", id), docstore.Doc{
		"id":       id,
		"choreID":  choreID,
		"assignee": assignee,
		"dueDate":  dueDate,
		"isDone":   false,
	})
	return id
}

// CreateDoc writes an arbitrary document, e.g. a subgroup or swap.
func (f *Fixtures) CreateDoc(ctx context.Context, path string, d docstore.Doc) {
	f.t.Helper()
	f.set(ctx, path, d)
}
