// internal/app/features/chores/generate.go
package chores

import (
	"net/http"
	"time"

	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type generateRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type generateResponse struct {
	InstanceIDs []string `json:"instanceIDs"`
}

// HandleGenerate handles POST /houses/{houseID}/chores/{choreID}/instances.
//
// Body: {"startDate": "YYYY-MM-DD", "endDate": "YYYY-MM-DD"}, both inclusive.
// Responds 201 with the new instance ids, or 200 with an empty list when the
// schedule has no occurrence in range.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpjson.DecodeInto(r, &req); err != nil {
		httpjson.Fail(w, h.Log, "generate instances", err)
		return
	}
	from, err := parseRequired("startDate", req.StartDate)
	if err != nil {
		httpjson.Fail(w, h.Log, "generate instances", err)
		return
	}
	to, err := parseRequired("endDate", req.EndDate)
	if err != nil {
		httpjson.Fail(w, h.Log, "generate instances", err)
		return
	}

	houseID := chi.URLParam(r, "houseID")
	choreID := chi.URLParam(r, "choreID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "generate instances")
	defer cancel()

	ids, err := h.Chores.Generate(ctx, houseID, choreID, from, to, h.MaxInstances)
	h.Metrics.InstancesGenerated(len(ids))
	if err != nil {
		if len(ids) > 0 {
			h.Log.Warn("instance generation stopped part way",
				zap.String("chore_id", choreID),
				zap.Int("written", len(ids)))
		}
		httpjson.Fail(w, h.Log, "generate instances", err)
		return
	}

	status := http.StatusOK
	if len(ids) > 0 {
		status = http.StatusCreated
		h.Log.Info("instances generated",
			zap.String("house_id", houseID),
			zap.String("chore_id", choreID),
			zap.Int("count", len(ids)))
	}
	httpjson.Write(w, status, generateResponse{InstanceIDs: ids})
}

func parseRequired(field, s string) (t time.Time, err error) {
	if s == "" {
		return t, &docschema.FieldError{Field: field, Message: "is required"}
	}
	t, err = docschema.ParseDate(s)
	if err != nil {
		return t, &docschema.FieldError{Field: field, Message: err.Error()}
	}
	return t, nil
}
