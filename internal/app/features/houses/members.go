// internal/app/features/houses/members.go
package houses

import (
	"net/http"

	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/paging"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeMembers handles GET /houses/{houseID}/members[?after=&limit=].
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	p, err := paging.Parse(r)
	if err != nil {
		h.fail(w, "list members", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	members, next, err := h.Members.Page(ctx, chi.URLParam(r, "houseID"), p)
	if err != nil {
		h.fail(w, "list members", err)
		return
	}
	paging.SetNext(w, next)
	httpjson.Write(w, http.StatusOK, members)
}

// ServeMember handles GET /houses/{houseID}/members/{memberID}.
func (h *Handler) ServeMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get member")
	defer cancel()

	m, err := h.Members.Get(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "memberID"))
	if err != nil {
		h.fail(w, "get member", err)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}

// HandleUpsertMember handles PUT /houses/{houseID}/members/{memberID}.
func (h *Handler) HandleUpsertMember(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		h.fail(w, "upsert member", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "upsert member")
	defer cancel()

	m, err := h.Members.Upsert(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "memberID"), body)
	if err != nil {
		h.fail(w, "upsert member", err)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}
