package memberstore_test

import (
	"errors"
	"testing"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	memberstore "github.com/divvyapp/divvy/internal/app/store/members"
	"github.com/divvyapp/divvy/internal/domain/models"
	"github.com/divvyapp/divvy/internal/testutil"
)

func TestStore_UpsertSetsDateJoined(t *testing.T) {
	store := memberstore.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Upsert(ctx, "h1", "u1", map[string]any{"name": "Alex", "onTimePct": 90.0})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if m.DateJoined.IsZero() {
		t.Error("expected dateJoined to be set")
	}
	if m.OnTimePct != 90 {
		t.Errorf("onTimePct: got %v", m.OnTimePct)
	}

	again, err := store.Upsert(ctx, "h1", "u1", map[string]any{"name": "", "subgroups": []any{"sg1"}})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if again.Name != "Alex" {
		t.Errorf("name should be kept, got %q", again.Name)
	}
	if !again.DateJoined.Equal(m.DateJoined) {
		t.Errorf("dateJoined changed: %v -> %v", m.DateJoined, again.DateJoined)
	}
	if len(again.Subgroups) != 1 || again.Subgroups[0] != "sg1" {
		t.Errorf("subgroups: got %v", again.Subgroups)
	}
}

func TestStore_Ensure(t *testing.T) {
	store := memberstore.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := models.User{ID: "u1", Name: "Alex", Email: "alex@example.com"}
	created, err := store.Ensure(ctx, "h1", u)
	if err != nil || !created {
		t.Fatalf("Ensure: got %v, %v", created, err)
	}

	_, _ = store.Upsert(ctx, "h1", "u1", map[string]any{"onTimePct": 50.0})
	created, err = store.Ensure(ctx, "h1", u)
	if err != nil || created {
		t.Fatalf("second Ensure: got %v, %v", created, err)
	}
	m, _ := store.Get(ctx, "h1", "u1")
	if m.OnTimePct != 50 {
		t.Errorf("Ensure must not overwrite an existing record, onTimePct=%v", m.OnTimePct)
	}
	if m.Email != "alex@example.com" {
		t.Errorf("email: got %q", m.Email)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	store := memberstore.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _ = store.Upsert(ctx, "h1", "u1", map[string]any{"name": "A"})
	_, _ = store.Upsert(ctx, "h1", "u2", map[string]any{"name": "B"})
	_, _ = store.Upsert(ctx, "h2", "u3", map[string]any{"name": "C"})

	got, err := store.List(ctx, "h1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got["u1"].Name != "A" || got["u2"].Name != "B" {
		t.Errorf("List: got %+v", got)
	}

	if err := store.Delete(ctx, "h1", "u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "h1", "u1"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
