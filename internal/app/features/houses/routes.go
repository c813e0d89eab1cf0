// internal/app/features/houses/routes.go
package houses

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /houses. Chore routes are mounted
// onto it under /{houseID} by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate)
	r.Post("/join", h.HandleJoin)
	r.Get("/user/{userID}", h.ServeByUser)

	r.Get("/{houseID}", h.ServeHouse)
	r.Put("/{houseID}", h.HandleUpsert)
	r.Delete("/{houseID}", h.HandleDelete)

	// MEMBERSHIP
	r.Post("/{houseID}/members", h.HandleAddMember)
	r.Get("/{houseID}/members", h.ServeMembers)
	r.Get("/{houseID}/members/{memberID}", h.ServeMember)
	r.Put("/{houseID}/members/{memberID}", h.HandleUpsertMember)
	r.Delete("/{houseID}/members/{memberID}", h.HandleRemoveMember)

	// FREE-FORM DOCUMENTS
	r.Mount("/{houseID}/subgroups", docHandlers{h: h, store: h.Subgroups}.routes())
	r.Mount("/{houseID}/swaps", docHandlers{h: h, store: h.Swaps}.routes())

	return r
}
