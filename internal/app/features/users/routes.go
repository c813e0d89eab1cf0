// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /users. The per-user chore queries
// are added by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleUpsert)
	r.Get("/{userID}", h.ServeUser)
	r.Delete("/{userID}", h.HandleDelete)
	return r
}
