// internal/app/features/chores/chores.go
package chores

import (
	"net/http"

	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// HandleUpsert handles POST /houses/{houseID}/chores. Without an id in the
// body a new chore is created (201); otherwise the stored chore is merged
// (200).
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert chore", err)
		return
	}
	id, err := httpjson.BodyID(body)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert chore", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "upsert chore")
	defer cancel()

	chore, err := h.Chores.Upsert(ctx, chi.URLParam(r, "houseID"), id, body)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert chore", err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, chore)
}

// ServeList handles GET /houses/{houseID}/chores.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "chores by house")
	defer cancel()

	chores, err := h.Chores.ByHouse(ctx, chi.URLParam(r, "houseID"))
	if err != nil {
		httpjson.Fail(w, h.Log, "chores by house", err)
		return
	}
	httpjson.Write(w, http.StatusOK, chores)
}

// ServeChore handles GET /houses/{houseID}/chores/{choreID}.
func (h *Handler) ServeChore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get chore")
	defer cancel()

	chore, err := h.Chores.Get(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "choreID"))
	if err != nil {
		httpjson.Fail(w, h.Log, "get chore", err)
		return
	}
	httpjson.Write(w, http.StatusOK, chore)
}

// HandleDelete handles DELETE /houses/{houseID}/chores/{choreID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete chore")
	defer cancel()

	if err := h.Chores.Delete(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "choreID")); err != nil {
		httpjson.Fail(w, h.Log, "delete chore", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeByUser handles GET /users/{userID}/chores: every chore, in any house,
// that lists the user among its assignees.
func (h *Handler) ServeByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "chores by user")
	defer cancel()

	chores, err := h.Chores.ByUser(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.Fail(w, h.Log, "chores by user", err)
		return
	}
	httpjson.Write(w, http.StatusOK, chores)
}
