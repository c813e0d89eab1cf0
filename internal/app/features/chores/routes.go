// internal/app/features/chores/routes.go
package chores

import "github.com/go-chi/chi/v5"

// ChoreRoutes is mounted at /houses/{houseID}/chores.
func ChoreRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleUpsert)
	r.Get("/", h.ServeList)
	r.Get("/{choreID}", h.ServeChore)
	r.Delete("/{choreID}", h.HandleDelete)
	r.Post("/{choreID}/instances", h.HandleGenerate)
	return r
}

// InstanceRoutes is mounted at /houses/{houseID}/chore-instances.
func InstanceRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleUpsertInstance)
	r.Get("/", h.ServeInstances)
	r.Get("/{instanceID}", h.ServeInstance)
	r.Patch("/{instanceID}", h.HandleUpdateInstance)
	r.Delete("/{instanceID}", h.HandleDeleteInstance)
	return r
}

// UserRoutes adds the per-user queries to the /users router.
func UserRoutes(r chi.Router, h *Handler) {
	r.Get("/{userID}/chores", h.ServeByUser)
	r.Get("/{userID}/chore-instances", h.ServeInstancesByUser)
}
