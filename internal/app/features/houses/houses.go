// internal/app/features/houses/houses.go
package houses

import (
	"net/http"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type createRequest struct {
	Name      string `json:"name"`
	CreatorID string `json:"creatorID"`
}

// HandleCreate handles POST /houses.
//
// The creator must be an existing user. They become the only member, get a
// member record and have their houseID pointed at the new house. Responds
// 201 with the house.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.DecodeInto(r, &req); err != nil {
		h.fail(w, "create house", err)
		return
	}
	if req.CreatorID == "" {
		h.fail(w, "create house", &docschema.FieldError{Field: "creatorID", Message: "is required"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create house")
	defer cancel()

	user, err := h.Users.Get(ctx, req.CreatorID)
	if err != nil {
		if docstore.IsNotFound(err) {
			err = ErrUnknownUser
		}
		h.fail(w, "create house", err)
		return
	}

	house, err := h.Houses.Create(ctx, req.Name, user.ID)
	if err != nil {
		h.fail(w, "create house", err)
		return
	}
	if _, err := h.Members.Ensure(ctx, house.ID, user); err != nil {
		h.fail(w, "create house", err)
		return
	}
	if err := h.Users.SetHouse(ctx, user.ID, house.ID); err != nil {
		h.fail(w, "create house", err)
		return
	}

	h.Log.Info("house created", zap.String("house_id", house.ID), zap.String("creator", user.ID))
	httpjson.Write(w, http.StatusCreated, house)
}

// HandleUpsert handles PUT /houses/{houseID}. Fields sent empty keep their
// stored values.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		h.fail(w, "upsert house", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "upsert house")
	defer cancel()

	house, err := h.Houses.Upsert(ctx, chi.URLParam(r, "houseID"), body)
	if err != nil {
		h.fail(w, "upsert house", err)
		return
	}
	httpjson.Write(w, http.StatusOK, house)
}

// ServeHouse handles GET /houses/{houseID}.
func (h *Handler) ServeHouse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get house")
	defer cancel()

	house, err := h.Houses.Get(ctx, chi.URLParam(r, "houseID"))
	if err != nil {
		h.fail(w, "get house", err)
		return
	}
	httpjson.Write(w, http.StatusOK, house)
}

type deleteResponse struct {
	ID              string `json:"id"`
	DeletedChildren int    `json:"deletedChildren"`
}

// HandleDelete handles DELETE /houses/{houseID}. Subcollections go first,
// then the house. A failure part way through leaves the house in place so
// the delete can be retried.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	houseID := chi.URLParam(r, "houseID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "delete house")
	defer cancel()

	n, err := h.Houses.Delete(ctx, houseID, h.DeleteBatch)
	h.Metrics.CascadeDeleted(n)
	if err != nil {
		h.Log.Warn("house delete incomplete",
			zap.String("house_id", houseID),
			zap.Int("deleted_children", n),
			zap.Error(err))
		h.fail(w, "delete house", err)
		return
	}

	h.Log.Info("house deleted", zap.String("house_id", houseID), zap.Int("deleted_children", n))
	httpjson.Write(w, http.StatusOK, deleteResponse{ID: houseID, DeletedChildren: n})
}

// ServeByUser handles GET /houses/user/{userID}. Responds with the user's
// houses keyed by id; an unknown user is a 400.
func (h *Handler) ServeByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "houses by user")
	defer cancel()

	ok, err := h.Users.Exists(ctx, userID)
	if err != nil {
		h.fail(w, "houses by user", err)
		return
	}
	if !ok {
		h.fail(w, "houses by user", ErrUnknownUser)
		return
	}

	houses, err := h.Houses.ByUser(ctx, userID)
	if err != nil {
		h.fail(w, "houses by user", err)
		return
	}
	httpjson.Write(w, http.StatusOK, houses)
}
