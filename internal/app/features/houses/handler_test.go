package houses_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/divvyapp/divvy/internal/app/features/houses"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/metrics"
	"github.com/divvyapp/divvy/internal/app/system/paging"
	"github.com/divvyapp/divvy/internal/domain/models"
	"github.com/divvyapp/divvy/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*houses.Handler, *testutil.Fixtures) {
	t.Helper()
	ds := docstore.NewMemory()
	h := houses.NewHandler(ds, 50, metrics.New(), zap.NewNop())
	return h, testutil.NewFixtures(t, ds)
}

func serve(h *houses.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	houses.Routes(h).ServeHTTP(rec, r)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	if body["error"] == "" {
		t.Fatalf("expected an error body, got %s", rec.Body.String())
	}
	return body["error"]
}

func TestHandleCreate_Success(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u1", "Alex", "alex@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{"name": "Maple St", "creatorID": "u1"})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var house models.House
	testutil.DecodeJSON(t, rec, &house)
	if house.ID == "" || house.Name != "Maple St" {
		t.Errorf("unexpected house: %+v", house)
	}
	if len(house.Members) != 1 || house.Members[0] != "u1" {
		t.Errorf("members: got %v, want [u1]", house.Members)
	}
	if house.JoinCode == "" || house.DateCreated.IsZero() {
		t.Errorf("join code and dateCreated must be set: %+v", house)
	}

	member, err := h.Members.Get(ctx, house.ID, "u1")
	if err != nil {
		t.Fatalf("creator member record: %v", err)
	}
	if member.Name != "Alex" || member.Email != "alex@example.com" {
		t.Errorf("member record: %+v", member)
	}
	user, _ := h.Users.Get(ctx, "u1")
	if user.HouseID != house.ID {
		t.Errorf("user houseID: got %q, want %q", user.HouseID, house.ID)
	}
}

func TestHandleCreate_Rejects(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u1", "Alex", "alex@example.com")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown creator", map[string]any{"name": "Maple St", "creatorID": "ghost"}},
		{"missing creator", map[string]any{"name": "Maple St"}},
		{"missing name", map[string]any{"creatorID": "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			errorOf(t, rec)
		})
	}

	if got, _ := h.Houses.ByUser(ctx, "u1"); len(got) != 0 {
		t.Errorf("no house should have been written, got %v", got)
	}
}

func TestServeHouse(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	rec := httptest.NewRecorder()
	h.ServeHouse(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"+id), "houseID", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var house models.House
	testutil.DecodeJSON(t, rec, &house)
	if house.ID != id || house.Name != "Maple St" {
		t.Errorf("got %+v", house)
	}

	rec = httptest.NewRecorder()
	h.ServeHouse(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/missing"), "houseID", "missing"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing: got %d, want 404", rec.Code)
	}
	errorOf(t, rec)
}

func TestHandleUpsert_KeepsFieldsSentEmpty(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/"+id, map[string]any{"name": "", "imageID": "img-9"})
	rec := serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var house models.House
	testutil.DecodeJSON(t, rec, &house)
	if house.Name != "Maple St" {
		t.Errorf("name: got %q, want stored value", house.Name)
	}
	if house.ImageID != "img-9" {
		t.Errorf("imageID: got %q", house.ImageID)
	}
	if len(house.Members) != 1 {
		t.Errorf("members must survive: %v", house.Members)
	}
}

func TestHandleUpsert_CreatesNewHouse(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/h-new", map[string]any{"name": "Fresh"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var house models.House
	testutil.DecodeJSON(t, rec, &house)
	if house.ID != "h-new" || house.Name != "Fresh" || house.Members == nil {
		t.Errorf("got %+v", house)
	}
}

func TestHandleUpsert_DuplicateJoinCode(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/h2", map[string]any{"name": "Oak", "joinCode": "ABC123"}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409 (%s)", rec.Code, rec.Body.String())
	}
	errorOf(t, rec)

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/h2"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("rejected house must not exist, got %d", rec.Code)
	}
}

func TestHandleDelete_RemovesChildren(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")
	other := fx.CreateHouse(ctx, "Elm St", "def456", "u2")

	for i := 0; i < 60; i++ {
		fx.CreateInstance(ctx, id, "c1", "u1", "2025-01-01")
	}
	fx.CreateChore(ctx, id, nil)
	fx.CreateChore(ctx, other, nil)
	fx.CreateDoc(ctx, docstore.Join("houses", id, "members", "u1"), docstore.Doc{"id": "u1"})
	fx.CreateDoc(ctx, docstore.Join("houses", id, "swaps", "s1"), docstore.Doc{"id": "s1"})

	rec := serve(h, testutil.NewRequest(http.MethodDelete, "/"+id))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID              string `json:"id"`
		DeletedChildren int    `json:"deletedChildren"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.DeletedChildren != 63 {
		t.Errorf("deletedChildren: got %d, want 63", resp.DeletedChildren)
	}

	if _, err := h.Houses.Get(ctx, id); !docstore.IsNotFound(err) {
		t.Errorf("house should be gone, got %v", err)
	}
	snaps, _ := fx.Store().List(ctx, docstore.Join("houses", id, "choreInstances"), "", 0)
	if len(snaps) != 0 {
		t.Errorf("instances left behind: %d", len(snaps))
	}
	snaps, _ = fx.Store().List(ctx, docstore.Join("houses", other, "chores"), "", 0)
	if len(snaps) != 1 {
		t.Errorf("other house's chores must survive, got %d", len(snaps))
	}

	rec = serve(h, testutil.NewRequest(http.MethodDelete, "/"+id))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rec.Code)
	}
}

func TestServeByUser(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u1", "Alex", "alex@example.com")
	a := fx.CreateHouse(ctx, "A", "aaa111", "u1", "u2")
	b := fx.CreateHouse(ctx, "B", "bbb222", "u1")
	fx.CreateHouse(ctx, "C", "ccc333", "u2")

	rec := serve(h, testutil.NewRequest(http.MethodGet, "/user/u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got map[string]models.House
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 2 || got[a].Name != "A" || got[b].Name != "B" {
		t.Errorf("got %+v", got)
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/user/ghost"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown user: got %d, want 400", rec.Code)
	}
}

func TestHandleAddMember(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u1", "Alex", "alex@example.com")
	fx.CreateUser(ctx, "u2", "Sam", "sam@example.com")
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	for i := 0; i < 2; i++ {
		rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/"+id+"/members", map[string]any{"userID": "u2"}))
		if rec.Code != http.StatusOK {
			t.Fatalf("add #%d: got %d (%s)", i+1, rec.Code, rec.Body.String())
		}
	}

	house, _ := h.Houses.Get(ctx, id)
	if strings.Join(house.Members, ",") != "u1,u2" {
		t.Errorf("members: got %v, want [u1 u2]", house.Members)
	}
	if _, err := h.Members.Get(ctx, id, "u2"); err != nil {
		t.Errorf("member record: %v", err)
	}
	if user, _ := h.Users.Get(ctx, "u2"); user.HouseID != id {
		t.Errorf("houseID: got %q", user.HouseID)
	}
}

func TestHandleAddMember_Rejects(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u1", "Alex", "alex@example.com")
	id := fx.CreateHouse(ctx, "Maple St", "abc123")

	tests := []struct {
		name    string
		houseID string
		body    map[string]any
		want    string
	}{
		{"unknown user", id, map[string]any{"userID": "ghost"}, houses.ErrUnknownUser.Error()},
		{"unknown house", "nowhere", map[string]any{"userID": "u1"}, houses.ErrUnknownHouse.Error()},
		{"missing user", id, map[string]any{}, "userID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/"+tt.houseID+"/members", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rec.Code)
			}
			if msg := errorOf(t, rec); !strings.Contains(msg, tt.want) {
				t.Errorf("error: got %q, want it to mention %q", msg, tt.want)
			}
		})
	}
}

func TestHandleJoin(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u2", "Sam", "sam@example.com")
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/join", map[string]any{"joinCode": " ABC123 ", "userID": "u2"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var house models.House
	testutil.DecodeJSON(t, rec, &house)
	if house.ID != id || len(house.Members) != 2 {
		t.Errorf("got %+v", house)
	}

	rec = serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/join", map[string]any{"joinCode": "zzz999", "userID": "u2"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown code: got %d, want 404", rec.Code)
	}
}

func TestHandleRemoveMember(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "u1", "Alex", "alex@example.com")
	fx.CreateUser(ctx, "u2", "Sam", "sam@example.com")
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	if rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/"+id+"/members", map[string]any{"userID": "u2"})); rec.Code != http.StatusOK {
		t.Fatalf("add: got %d", rec.Code)
	}

	rec := serve(h, testutil.NewRequest(http.MethodDelete, "/"+id+"/members/u2"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove: got %d (%s)", rec.Code, rec.Body.String())
	}

	house, _ := h.Houses.Get(ctx, id)
	if strings.Join(house.Members, ",") != "u1" {
		t.Errorf("members: got %v", house.Members)
	}
	if _, err := h.Members.Get(ctx, id, "u2"); !docstore.IsNotFound(err) {
		t.Errorf("member record should be gone, got %v", err)
	}
	if user, _ := h.Users.Get(ctx, "u2"); user.HouseID != "" {
		t.Errorf("houseID should be cleared, got %q", user.HouseID)
	}

	rec = serve(h, testutil.NewRequest(http.MethodDelete, "/missing/members/u2"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing house: got %d, want 404", rec.Code)
	}
}

func TestMemberRecords(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/"+id+"/members/u1", map[string]any{
		"name":      "Alex",
		"onTimePct": 92.5,
		"chores":    []string{"c1"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/"+id+"/members/u1", map[string]any{"name": "", "onTimePct": 0}))
	if rec.Code != http.StatusOK {
		t.Fatalf("second upsert: got %d", rec.Code)
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/members/u1"))
	var m models.Member
	testutil.DecodeJSON(t, rec, &m)
	if m.Name != "Alex" {
		t.Errorf("name: got %q, want stored value", m.Name)
	}
	if m.OnTimePct != 0 {
		t.Errorf("onTimePct: 0 must replace the stored value, got %v", m.OnTimePct)
	}
	if len(m.Chores) != 1 || m.DateJoined.IsZero() {
		t.Errorf("got %+v", m)
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/members"))
	var all map[string]models.Member
	testutil.DecodeJSON(t, rec, &all)
	if len(all) != 1 || all["u1"].Name != "Alex" {
		t.Errorf("list: got %+v", all)
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/members/nobody"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing member: got %d", rec.Code)
	}
}

func TestMemberRecords_RejectsNonFiniteNumbers(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/"+id+"/members/u1", map[string]any{"name": "Alex", "onTimePct": 80}))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed: got %d (%s)", rec.Code, rec.Body.String())
	}

	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		rec = serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/"+id+"/members/u1", map[string]any{"onTimePct": v}))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("onTimePct %q: got %d, want 400 (%s)", v, rec.Code, rec.Body.String())
		}
		if msg := errorOf(t, rec); !strings.Contains(msg, "onTimePct") {
			t.Errorf("error should name the field, got %q", msg)
		}
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/members/u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("get after rejected writes: got %d (%s)", rec.Code, rec.Body.String())
	}
	var m models.Member
	testutil.DecodeJSON(t, rec, &m)
	if m.OnTimePct != 80 {
		t.Errorf("onTimePct: got %v, want the stored 80", m.OnTimePct)
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/members"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list after rejected writes: got %d", rec.Code)
	}
	var all map[string]models.Member
	testutil.DecodeJSON(t, rec, &all)
	if len(all) != 1 {
		t.Errorf("list: got %+v", all)
	}
}

func TestSubgroupsAndSwaps(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	for _, kind := range []string{"subgroups", "swaps"} {
		t.Run(kind, func(t *testing.T) {
			base := "/" + id + "/" + kind

			rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, base, map[string]any{"label": "upstairs", "nested": map[string]any{"n": 1}}))
			if rec.Code != http.StatusCreated {
				t.Fatalf("create: got %d (%s)", rec.Code, rec.Body.String())
			}
			var created map[string]any
			testutil.DecodeJSON(t, rec, &created)
			docID, _ := created["id"].(string)
			if docID == "" {
				t.Fatalf("no id in %v", created)
			}

			rec = serve(h, testutil.NewJSONRequest(t, http.MethodPut, base+"/"+docID, map[string]any{"label": ""}))
			if rec.Code != http.StatusOK {
				t.Fatalf("put: got %d", rec.Code)
			}

			rec = serve(h, testutil.NewRequest(http.MethodGet, base+"/"+docID))
			var got map[string]any
			testutil.DecodeJSON(t, rec, &got)
			if got["label"] != "" {
				t.Errorf("documents are stored verbatim: label got %v", got["label"])
			}
			if _, ok := got["nested"]; ok {
				t.Errorf("set replaces the whole document, got %v", got)
			}

			rec = serve(h, testutil.NewRequest(http.MethodGet, base))
			var all map[string]map[string]any
			testutil.DecodeJSON(t, rec, &all)
			if len(all) != 1 {
				t.Errorf("list: got %d docs", len(all))
			}

			rec = serve(h, testutil.NewRequest(http.MethodDelete, base+"/"+docID))
			if rec.Code != http.StatusNoContent {
				t.Fatalf("delete: got %d", rec.Code)
			}
			rec = serve(h, testutil.NewRequest(http.MethodGet, base+"/"+docID))
			if rec.Code != http.StatusNotFound {
				t.Errorf("after delete: got %d", rec.Code)
			}
		})
	}
}

func TestSwaps_Paging(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := fx.CreateHouse(ctx, "Maple St", "abc123", "u1")

	for _, sid := range []string{"s1", "s2", "s3"} {
		rec := serve(h, testutil.NewJSONRequest(t, http.MethodPut, "/"+id+"/swaps/"+sid, map[string]any{"from": "u1"}))
		if rec.Code != http.StatusOK {
			t.Fatalf("put %s: got %d", sid, rec.Code)
		}
	}

	rec := serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/swaps?limit=2"))
	var page map[string]map[string]any
	testutil.DecodeJSON(t, rec, &page)
	if len(page) != 2 || page["s1"] == nil || page["s2"] == nil {
		t.Errorf("first page: got %v", page)
	}
	next := rec.Header().Get(paging.NextHeader)
	if next != "s2" {
		t.Fatalf("next cursor: got %q, want s2", next)
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/swaps?limit=2&after="+next))
	page = nil
	testutil.DecodeJSON(t, rec, &page)
	if len(page) != 1 || page["s3"] == nil {
		t.Errorf("second page: got %v", page)
	}
	if rec.Header().Get(paging.NextHeader) != "" {
		t.Error("last page must not carry a cursor")
	}

	rec = serve(h, testutil.NewRequest(http.MethodGet, "/"+id+"/members?limit=0"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0: got %d, want 400", rec.Code)
	}
}
