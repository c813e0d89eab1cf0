package houses

import (
	"errors"
	"net/http"

	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// fail writes err, treating unknown users and houses in membership requests
// as bad input rather than missing resources.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrUnknownHouse) {
		h.Log.Info(op+" rejected", zap.Error(err))
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Fail(w, h.Log, op, err)
}
