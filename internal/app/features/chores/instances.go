// internal/app/features/chores/instances.go
package chores

import (
	"net/http"

	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// HandleUpsertInstance handles POST /houses/{houseID}/chore-instances.
// Same id rules as chores: no id creates (201), an id merges (200).
func (h *Handler) HandleUpsertInstance(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert instance", err)
		return
	}
	id, err := httpjson.BodyID(body)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert instance", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "upsert instance")
	defer cancel()

	inst, err := h.Chores.UpsertInstance(ctx, chi.URLParam(r, "houseID"), id, body)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert instance", err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, inst)
}

// ServeInstances handles GET /houses/{houseID}/chore-instances[?day=YYYY-MM-DD].
func (h *Handler) ServeInstances(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "instances by house")
	defer cancel()

	insts, err := h.Chores.InstancesByHouse(ctx, chi.URLParam(r, "houseID"), r.URL.Query().Get("day"))
	if err != nil {
		httpjson.Fail(w, h.Log, "instances by house", err)
		return
	}
	httpjson.Write(w, http.StatusOK, insts)
}

// ServeInstance handles GET /houses/{houseID}/chore-instances/{instanceID}.
func (h *Handler) ServeInstance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get instance")
	defer cancel()

	inst, err := h.Chores.GetInstance(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "instanceID"))
	if err != nil {
		httpjson.Fail(w, h.Log, "get instance", err)
		return
	}
	httpjson.Write(w, http.StatusOK, inst)
}

// HandleUpdateInstance handles PATCH /houses/{houseID}/chore-instances/{instanceID},
// typically {"isDone": true}. The instance must exist.
func (h *Handler) HandleUpdateInstance(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		httpjson.Fail(w, h.Log, "update instance", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update instance")
	defer cancel()

	inst, err := h.Chores.UpdateInstance(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "instanceID"), body)
	if err != nil {
		httpjson.Fail(w, h.Log, "update instance", err)
		return
	}
	httpjson.Write(w, http.StatusOK, inst)
}

// HandleDeleteInstance handles DELETE /houses/{houseID}/chore-instances/{instanceID}.
func (h *Handler) HandleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete instance")
	defer cancel()

	if err := h.Chores.DeleteInstance(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "instanceID")); err != nil {
		httpjson.Fail(w, h.Log, "delete instance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeInstancesByUser handles GET /users/{userID}/chore-instances[?start=&end=].
func (h *Handler) ServeInstancesByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "instances by user")
	defer cancel()

	q := r.URL.Query()
	insts, err := h.Chores.InstancesByUser(ctx, chi.URLParam(r, "userID"), q.Get("start"), q.Get("end"))
	if err != nil {
		httpjson.Fail(w, h.Log, "instances by user", err)
		return
	}
	httpjson.Write(w, http.StatusOK, insts)
}
