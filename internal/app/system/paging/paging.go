// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
)

// MaxLimit caps the page size a client may ask for.
const MaxLimit = 500

// NextHeader carries the cursor for the following page. It is only set
// when more documents remain.
const NextHeader = "X-Next-Cursor"

// Params is a keyset page request. After is the last id of the previous
// page; a zero Limit means "everything after After".
type Params struct {
	After string
	Limit int
}

// Parse reads the "after" and "limit" query parameters.
// A limit that is not a whole number in 1..MaxLimit is a field error.
func Parse(r *http.Request) (Params, error) {
	p := Params{After: query.Get(r, "after")}
	s := query.Get(r, "limit")
	if s == "" {
		return p, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxLimit {
		return p, &docschema.FieldError{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(MaxLimit)}
	}
	p.Limit = n
	return p, nil
}

// LimitPlusOne is the fetch size for look-ahead pagination: one extra
// row tells whether a next page exists. Zero stays zero.
func (p Params) LimitPlusOne() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Limit + 1
}

// Trim cuts rows fetched with LimitPlusOne back to the page size and
// returns the cursor for the next page, or "" on the last page.
func Trim[T any](rows []T, p Params, idFn func(T) string) ([]T, string) {
	if p.Limit <= 0 || len(rows) <= p.Limit {
		return rows, ""
	}
	rows = rows[:p.Limit]
	return rows, idFn(rows[len(rows)-1])
}

// SetNext advertises the next cursor, if any.
func SetNext(w http.ResponseWriter, next string) {
	if next != "" {
		w.Header().Set(NextHeader, next)
	}
}
