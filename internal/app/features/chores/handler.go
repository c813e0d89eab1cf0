// internal/app/features/chores/handler.go
package chores

import (
	chorestore "github.com/divvyapp/divvy/internal/app/store/chores"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Handler serves chores and chore instances, both house-scoped and per user.
type Handler struct {
	Chores *chorestore.Store

	// MaxInstances caps how many instances one generate call may write.
	MaxInstances int
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

func NewHandler(ds docstore.Store, maxInstances int, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Chores:       chorestore.New(ds),
		MaxInstances: maxInstances,
		Metrics:      m,
		Log:          logger,
	}
}
