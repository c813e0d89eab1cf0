package chorestore_test

import (
	"errors"
	"testing"
	"time"

	chorestore "github.com/divvyapp/divvy/internal/app/store/chores"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/recurrence"
	"github.com/divvyapp/divvy/internal/testutil"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestStore_UpsertChore(t *testing.T) {
	store := chorestore.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Upsert(ctx, "h1", "", map[string]any{
		"name":             "Dishes",
		"assignees":        []any{"u1", "u2"},
		"frequencyPattern": "weekly",
		"frequencyDays":    []any{0.0, 3.0},
		"startDate":        "2025-01-01",
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected an id to be generated")
	}

	updated, err := store.Upsert(ctx, "h1", c.ID, map[string]any{"name": "", "emoji": "🍽"})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if updated.Name != "Dishes" || updated.Emoji != "🍽" {
		t.Errorf("merge: got %+v", updated)
	}
	if len(updated.FrequencyDays) != 2 || updated.FrequencyDays[1] != 3 {
		t.Errorf("frequencyDays: got %v", updated.FrequencyDays)
	}

	if _, err := store.Upsert(ctx, "h1", "c2", map[string]any{"startDate": "soon"}); !docschema.IsFieldError(err) {
		t.Errorf("bad startDate: expected FieldError, got %v", err)
	}
}

func TestStore_GetAndDeleteChore(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := chorestore.New(ds)
	fx := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := fx.CreateChore(ctx, "h1", docstore.Doc{"name": "Trash"})
	c, err := store.Get(ctx, "h1", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.Name != "Trash" {
		t.Errorf("name: got %q", c.Name)
	}
	if _, err := store.Get(ctx, "h2", id); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("other house: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "h1", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "h1", id); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_ByHouseAndUser(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := chorestore.New(ds)
	fx := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateChore(ctx, "h1", docstore.Doc{"assignees": []string{"u1"}})
	b := fx.CreateChore(ctx, "h1", docstore.Doc{"assignees": []string{"u2"}})
	c := fx.CreateChore(ctx, "h2", docstore.Doc{"assignees": []string{"u1", "u3"}})

	byHouse, err := store.ByHouse(ctx, "h1")
	if err != nil {
		t.Fatalf("ByHouse failed: %v", err)
	}
	if len(byHouse) != 2 {
		t.Errorf("ByHouse: got %d chores, want 2", len(byHouse))
	}
	if _, ok := byHouse[a]; !ok {
		t.Errorf("ByHouse missing %s", a)
	}
	if _, ok := byHouse[b]; !ok {
		t.Errorf("ByHouse missing %s", b)
	}

	byUser, err := store.ByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ByUser failed: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("ByUser: got %d chores, want 2", len(byUser))
	}
	if _, ok := byUser[c]; !ok {
		t.Errorf("ByUser should span houses, missing %s", c)
	}
}

func TestStore_Instances(t *testing.T) {
	store := chorestore.New(testutil.SetupTestStore(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inst, err := store.UpsertInstance(ctx, "h1", "", map[string]any{
		"choreID":  "c1",
		"assignee": "u1",
		"dueDate":  "2025-01-02",
	})
	if err != nil {
		t.Fatalf("UpsertInstance failed: %v", err)
	}
	if inst.IsDone {
		t.Error("new instance should not be done")
	}

	done, err := store.UpdateInstance(ctx, "h1", inst.ID, map[string]any{"isDone": true})
	if err != nil {
		t.Fatalf("UpdateInstance failed: %v", err)
	}
	if !done.IsDone || done.Assignee != "u1" {
		t.Errorf("UpdateInstance: got %+v", done)
	}

	if _, err := store.UpdateInstance(ctx, "h1", "missing", map[string]any{"isDone": true}); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("missing instance: expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdateInstance(ctx, "h1", inst.ID, map[string]any{"bogus": 1}); !docschema.IsFieldError(err) {
		t.Errorf("empty update: expected FieldError, got %v", err)
	}

	if err := store.DeleteInstance(ctx, "h1", inst.ID); err != nil {
		t.Fatalf("DeleteInstance failed: %v", err)
	}
	if _, err := store.GetInstance(ctx, "h1", inst.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_InstancesByHouseAndUser(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := chorestore.New(ds)
	fx := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateInstance(ctx, "h1", "c1", "u1", "2025-01-01")
	fx.CreateInstance(ctx, "h1", "c1", "u2", "2025-01-02")
	fx.CreateInstance(ctx, "h1", "c1", "u1", "2025-01-05")
	fx.CreateInstance(ctx, "h2", "c9", "u1", "2025-01-03")

	all, err := store.InstancesByHouse(ctx, "h1", "")
	if err != nil {
		t.Fatalf("InstancesByHouse failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d instances, want 3", len(all))
	}

	onDay, err := store.InstancesByHouse(ctx, "h1", "2025-01-02")
	if err != nil {
		t.Fatalf("InstancesByHouse(day) failed: %v", err)
	}
	if len(onDay) != 1 {
		t.Errorf("got %d instances on day, want 1", len(onDay))
	}

	if _, err := store.InstancesByHouse(ctx, "h1", "tomorrow"); !docschema.IsFieldError(err) {
		t.Errorf("bad day: expected FieldError, got %v", err)
	}

	mine, err := store.InstancesByUser(ctx, "u1", "", "")
	if err != nil {
		t.Fatalf("InstancesByUser failed: %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("got %d instances for u1, want 3", len(mine))
	}

	ranged, err := store.InstancesByUser(ctx, "u1", "2025-01-02", "2025-01-04")
	if err != nil {
		t.Fatalf("InstancesByUser(range) failed: %v", err)
	}
	if len(ranged) != 1 {
		t.Errorf("got %d instances in range, want 1", len(ranged))
	}
	for _, in := range ranged {
		if in.DueDate != "2025-01-03" {
			t.Errorf("unexpected instance %+v", in)
		}
	}

	if _, err := store.InstancesByUser(ctx, "u1", "2025-02-01", "2025-01-01"); !errors.Is(err, recurrence.ErrRangeReversed) {
		t.Errorf("reversed range: expected ErrRangeReversed, got %v", err)
	}
}

func TestStore_Generate(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := chorestore.New(ds)
	fx := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	choreID := fx.CreateChore(ctx, "h1", docstore.Doc{
		"assignees":        []string{"u1", "u2"},
		"frequencyPattern": "daily",
		"startDate":        "2025-01-02",
	})

	ids, err := store.Generate(ctx, "h1", choreID, day("2025-01-01"), day("2025-01-04"), 100)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d instances, want 3", len(ids))
	}

	wantAssignee := []string{"u1", "u2", "u1"}
	wantDue := []string{"2025-01-02", "2025-01-03", "2025-01-04"}
	for i, id := range ids {
		in, err := store.GetInstance(ctx, "h1", id)
		if err != nil {
			t.Fatalf("GetInstance(%s) failed: %v", id, err)
		}
		if in.ChoreID != choreID || in.IsDone {
			t.Errorf("instance %d: got %+v", i, in)
		}
		if in.Assignee != wantAssignee[i] || in.DueDate != wantDue[i] {
			t.Errorf("instance %d: got assignee %q due %q, want %q %q", i, in.Assignee, in.DueDate, wantAssignee[i], wantDue[i])
		}
	}

	// Not idempotent.
	again, _ := store.Generate(ctx, "h1", choreID, day("2025-01-01"), day("2025-01-04"), 100)
	all, _ := store.InstancesByHouse(ctx, "h1", "")
	if len(again) != 3 || len(all) != 6 {
		t.Errorf("second run: got %d new, %d total; want 3, 6", len(again), len(all))
	}
}

func TestStore_GenerateEdgeCases(t *testing.T) {
	ds := testutil.SetupTestStore(t)
	store := chorestore.New(ds)
	fx := testutil.NewFixtures(t, ds)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bogus := fx.CreateChore(ctx, "h1", docstore.Doc{"frequencyPattern": "hourly"})
	ids, err := store.Generate(ctx, "h1", bogus, day("2025-01-01"), day("2025-01-31"), 100)
	if err != nil {
		t.Fatalf("unknown pattern should not fail: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("unknown pattern: got %d instances, want 0", len(ids))
	}

	daily := fx.CreateChore(ctx, "h1", nil)
	if _, err := store.Generate(ctx, "h1", daily, day("2025-01-01"), day("2025-12-31"), 30); !errors.Is(err, recurrence.ErrTooMany) {
		t.Errorf("expected ErrTooMany, got %v", err)
	}
	if _, err := store.Generate(ctx, "h1", daily, day("2025-02-01"), day("2025-01-01"), 30); !errors.Is(err, recurrence.ErrRangeReversed) {
		t.Errorf("expected ErrRangeReversed, got %v", err)
	}
	if _, err := store.Generate(ctx, "h1", "missing", day("2025-01-01"), day("2025-01-02"), 30); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	none, _ := store.InstancesByHouse(ctx, "h1", "")
	if len(none) != 0 {
		t.Errorf("failed generations must not write, found %d instances", len(none))
	}

	unassigned := fx.CreateChore(ctx, "h1", docstore.Doc{"frequencyPattern": "once", "startDate": "2025-01-10"})
	ids, err = store.Generate(ctx, "h1", unassigned, day("2025-01-01"), day("2025-01-31"), 30)
	if err != nil || len(ids) != 1 {
		t.Fatalf("once: got %v, %v", ids, err)
	}
	in, _ := store.GetInstance(ctx, "h1", ids[0])
	if in.Assignee != "" || in.DueDate != "2025-01-10" {
		t.Errorf("once: got %+v", in)
	}
}
