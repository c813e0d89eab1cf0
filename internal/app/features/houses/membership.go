// internal/app/features/houses/membership.go
package houses

import (
	"context"
	"net/http"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/divvyapp/divvy/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// addMember puts userID into the house's member list, writes their member
// record if missing and points the user at the house. Each step is its own
// write; a failure part way leaves earlier steps applied, and repeating the
// call converges.
func (h *Handler) addMember(ctx context.Context, houseID, userID string) (models.House, error) {
	user, err := h.Users.Get(ctx, userID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return models.House{}, ErrUnknownUser
		}
		return models.House{}, err
	}
	if _, err := h.Houses.Get(ctx, houseID); err != nil {
		if docstore.IsNotFound(err) {
			return models.House{}, ErrUnknownHouse
		}
		return models.House{}, err
	}

	if err := h.Houses.AddMember(ctx, houseID, userID); err != nil {
		return models.House{}, err
	}
	if _, err := h.Members.Ensure(ctx, houseID, user); err != nil {
		return models.House{}, err
	}
	if err := h.Users.SetHouse(ctx, userID, houseID); err != nil {
		return models.House{}, err
	}
	return h.Houses.Get(ctx, houseID)
}

type addMemberRequest struct {
	UserID string `json:"userID"`
}

// HandleAddMember handles POST /houses/{houseID}/members.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := httpjson.DecodeInto(r, &req); err != nil {
		h.fail(w, "add member", err)
		return
	}
	if req.UserID == "" {
		h.fail(w, "add member", &docschema.FieldError{Field: "userID", Message: "is required"})
		return
	}
	houseID := chi.URLParam(r, "houseID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "add member")
	defer cancel()

	house, err := h.addMember(ctx, houseID, req.UserID)
	if err != nil {
		h.fail(w, "add member", err)
		return
	}
	h.Log.Info("member added", zap.String("house_id", houseID), zap.String("user_id", req.UserID))
	httpjson.Write(w, http.StatusOK, house)
}

type joinRequest struct {
	JoinCode string `json:"joinCode"`
	UserID   string `json:"userID"`
}

// HandleJoin handles POST /houses/join. The code is matched without regard
// to case; an unknown code is a 404.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := httpjson.DecodeInto(r, &req); err != nil {
		h.fail(w, "join house", err)
		return
	}
	switch {
	case req.JoinCode == "":
		h.fail(w, "join house", &docschema.FieldError{Field: "joinCode", Message: "is required"})
		return
	case req.UserID == "":
		h.fail(w, "join house", &docschema.FieldError{Field: "userID", Message: "is required"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "join house")
	defer cancel()

	target, err := h.Houses.ByJoinCode(ctx, req.JoinCode)
	if err != nil {
		h.fail(w, "join house", err)
		return
	}
	house, err := h.addMember(ctx, target.ID, req.UserID)
	if err != nil {
		h.fail(w, "join house", err)
		return
	}
	h.Log.Info("house joined", zap.String("house_id", house.ID), zap.String("user_id", req.UserID))
	httpjson.Write(w, http.StatusOK, house)
}

// HandleRemoveMember handles DELETE /houses/{houseID}/members/{memberID}.
// It drops the user from the member list, deletes their member record and
// clears the user's houseID when it points at this house.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	houseID := chi.URLParam(r, "houseID")
	userID := chi.URLParam(r, "memberID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "remove member")
	defer cancel()

	if err := h.Houses.RemoveMember(ctx, houseID, userID); err != nil {
		h.fail(w, "remove member", err)
		return
	}
	if err := h.Members.Delete(ctx, houseID, userID); err != nil {
		h.fail(w, "remove member", err)
		return
	}

	user, err := h.Users.Get(ctx, userID)
	switch {
	case err == nil && user.HouseID == houseID:
		if err := h.Users.SetHouse(ctx, userID, ""); err != nil && !docstore.IsNotFound(err) {
			h.fail(w, "remove member", err)
			return
		}
	case err != nil && !docstore.IsNotFound(err):
		h.fail(w, "remove member", err)
		return
	}

	h.Log.Info("member removed", zap.String("house_id", houseID), zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}
