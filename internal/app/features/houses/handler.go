// internal/app/features/houses/handler.go
package houses

import (
	"errors"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	housedocstore "github.com/divvyapp/divvy/internal/app/store/housedocs"
	housestore "github.com/divvyapp/divvy/internal/app/store/houses"
	memberstore "github.com/divvyapp/divvy/internal/app/store/members"
	userstore "github.com/divvyapp/divvy/internal/app/store/users"
	"github.com/divvyapp/divvy/internal/app/system/metrics"
	"go.uber.org/zap"
)

var (
	// ErrUnknownUser is returned when a request names a user that does not exist.
	ErrUnknownUser = errors.New("invalid user ID")
	// ErrUnknownHouse is returned when a membership change names a missing house.
	ErrUnknownHouse = errors.New("invalid house ID")
)

// Handler serves houses, their membership and the per-house member,
// subgroup and swap documents.
type Handler struct {
	Houses    *housestore.Store
	Users     *userstore.Store
	Members   *memberstore.Store
	Subgroups *housedocstore.Store
	Swaps     *housedocstore.Store

	Metrics     *metrics.Metrics
	DeleteBatch int
	Log         *zap.Logger
}

// NewHandler wires the stores over one shared document store. deleteBatch
// is the page size for recursive house deletes.
func NewHandler(ds docstore.Store, deleteBatch int, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Houses:      housestore.New(ds),
		Users:       userstore.New(ds),
		Members:     memberstore.New(ds),
		Subgroups:   housedocstore.New(ds, housedocstore.Subgroups),
		Swaps:       housedocstore.New(ds, housedocstore.Swaps),
		Metrics:     m,
		DeleteBatch: deleteBatch,
		Log:         logger,
	}
}
