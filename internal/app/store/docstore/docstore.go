// internal/app/store/docstore/docstore.go

// Package docstore is the document-store client shared by every store package.
//
// Documents are addressed by slash-separated paths in the hosted-document-database
// style: "houses/h1" is a document, "houses/h1/chores" is a collection that belongs
// to it, and "houses/h1/chores/c1" is a document inside that collection. A document
// path always has an even number of segments and a collection path an odd number.
//
// Three backends implement Store:
//   - Mongo: one Mongo collection per collection id, keyed by full document path
//   - Firestore: paths map directly onto Firestore paths
//   - Memory: in-process maps, used by tests and local development
package docstore

import (
	"context"
	"errors"
)

// Doc is the data of a single document.
type Doc map[string]any

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidID is returned for an empty id or an id containing a slash.
	ErrInvalidID = errors.New("document id must be a non-empty string without '/'")

	// ErrInvalidPath is returned when a path has the wrong shape for the call.
	ErrInvalidPath = errors.New("invalid document path")

	// ErrConflict is returned when a read-modify-write lost a race too many times.
	ErrConflict = errors.New("document was modified concurrently")
)

type serverTimestamp struct{}

// ServerTimestamp, used as a field value in Set or Update, is replaced by the
// store's clock at write time.
var ServerTimestamp = serverTimestamp{}

// Op is a query comparison operator. The values match Firestore's operator strings.
type Op string

const (
	OpEq            Op = "=="
	OpArrayContains Op = "array-contains"
	OpGTE           Op = ">="
	OpLTE           Op = "<="
)

// Filter is one query condition.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query narrows a collection read. All filters must match.
// OrderBy sorts ascending by a field; empty means document id order.
type Query struct {
	Filters []Filter
	OrderBy string
	Limit   int
}

// Snapshot is a document returned from a query.
type Snapshot struct {
	ID   string
	Path string
	Data Doc
}

// Parent returns the path of the document that owns the snapshot's collection,
// or "" for a top-level collection.
func (s Snapshot) Parent() string {
	col, _, err := SplitDoc(s.Path)
	if err != nil {
		return ""
	}
	parent, _ := ParentDoc(col)
	return parent
}

// TransformFunc computes the new contents of a document from its current contents.
// existing is nil when exists is false. Returning a nil Doc skips the write.
type TransformFunc func(existing Doc, exists bool) (Doc, error)

// Store is the set of document primitives the application relies on.
type Store interface {
	// NewID returns a fresh document id.
	NewID() string

	// Get reads one document. Missing documents yield ErrNotFound.
	Get(ctx context.Context, docPath string) (Doc, error)

	// Set writes the whole document, creating it if needed.
	Set(ctx context.Context, docPath string, data Doc) error

	// Update overwrites the given top-level fields of an existing document.
	Update(ctx context.Context, docPath string, fields Doc) error

	// Delete removes one document. Deleting a missing document is not an error.
	// Subcollections are not touched; see DeleteCollection.
	Delete(ctx context.Context, docPath string) error

	// ArrayUnion appends values not already present in an array field.
	ArrayUnion(ctx context.Context, docPath, field string, values ...any) error

	// ArrayRemove removes every occurrence of values from an array field.
	ArrayRemove(ctx context.Context, docPath, field string, values ...any) error

	// Transform runs an atomic read-modify-write on one document and returns
	// what was written.
	Transform(ctx context.Context, docPath string, fn TransformFunc) (Doc, error)

	// Find queries a single collection.
	Find(ctx context.Context, colPath string, q Query) ([]Snapshot, error)

	// FindGroup queries every collection with the given collection id,
	// regardless of parent.
	FindGroup(ctx context.Context, collectionID string, q Query) ([]Snapshot, error)

	// List pages through a collection in id order, starting after afterID.
	List(ctx context.Context, colPath, afterID string, limit int) ([]Snapshot, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the client.
	Close(ctx context.Context) error
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
