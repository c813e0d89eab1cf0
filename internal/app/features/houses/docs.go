// internal/app/features/houses/docs.go
package houses

import (
	"net/http"

	housedocstore "github.com/divvyapp/divvy/internal/app/store/housedocs"
	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/paging"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// docHandlers serves one free-form house subcollection (subgroups or swaps).
// Documents are stored exactly as sent.
type docHandlers struct {
	h     *Handler
	store *housedocstore.Store
}

func (d docHandlers) op(verb string) string {
	return verb + " " + d.store.Kind()
}

// list handles GET with optional ?after=&limit= keyset paging.
func (d docHandlers) list(w http.ResponseWriter, r *http.Request) {
	p, err := paging.Parse(r)
	if err != nil {
		d.h.fail(w, d.op("list"), err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), d.h.Log, d.op("list"))
	defer cancel()

	docs, next, err := d.store.Page(ctx, chi.URLParam(r, "houseID"), p)
	if err != nil {
		d.h.fail(w, d.op("list"), err)
		return
	}
	paging.SetNext(w, next)
	httpjson.Write(w, http.StatusOK, docs)
}

func (d docHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), d.h.Log, d.op("get"))
	defer cancel()

	doc, err := d.store.Get(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "docID"))
	if err != nil {
		d.h.fail(w, d.op("get"), err)
		return
	}
	httpjson.Write(w, http.StatusOK, doc)
}

// set writes the body at {docID}, or at a fresh id when posted to the
// collection. Responds 201 for POST and 200 for PUT.
func (d docHandlers) set(w http.ResponseWriter, r *http.Request) {
	body, err := httpjson.Decode(r)
	if err != nil {
		d.h.fail(w, d.op("set"), err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), d.h.Log, d.op("set"))
	defer cancel()

	doc, err := d.store.Set(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "docID"), body)
	if err != nil {
		d.h.fail(w, d.op("set"), err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	httpjson.Write(w, status, doc)
}

func (d docHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), d.h.Log, d.op("delete"))
	defer cancel()

	if err := d.store.Delete(ctx, chi.URLParam(r, "houseID"), chi.URLParam(r, "docID")); err != nil {
		d.h.fail(w, d.op("delete"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d docHandlers) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", d.list)
	r.Post("/", d.set)
	r.Get("/{docID}", d.get)
	r.Put("/{docID}", d.set)
	r.Delete("/{docID}", d.delete)
	return r
}
