// internal/app/features/users/handler.go
package users

import (
	"net/http"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	userstore "github.com/divvyapp/divvy/internal/app/store/users"
	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(ds docstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users: userstore.New(ds),
		Log:   logger,
	}
}

// HandleUpsert handles POST /users. The body must carry the user's id;
// other fields sent empty keep their stored values.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert user", err)
		return
	}
	id, err := httpjson.BodyID(body)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert user", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "upsert user")
	defer cancel()

	user, err := h.Users.Upsert(ctx, id, body)
	if err != nil {
		httpjson.Fail(w, h.Log, "upsert user", err)
		return
	}
	httpjson.Write(w, http.StatusOK, user)
}

// ServeUser handles GET /users/{userID}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	user, err := h.Users.Get(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.Fail(w, h.Log, "get user", err)
		return
	}
	httpjson.Write(w, http.StatusOK, user)
}

// HandleDelete handles DELETE /users/{userID}. House membership lists are
// not touched.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete user")
	defer cancel()

	if err := h.Users.Delete(ctx, userID); err != nil {
		httpjson.Fail(w, h.Log, "delete user", err)
		return
	}
	h.Log.Info("user deleted", zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}
