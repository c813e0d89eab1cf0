package docschema

import (
	"context"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
)

// Upsert cleans data and merges it into the document at docPath in a single
// read-modify-write. The stored document always carries its own id.
func (s Schema) Upsert(ctx context.Context, ds docstore.Store, docPath, id string, data map[string]any) (docstore.Doc, error) {
	if !docstore.ValidID(id) {
		return nil, docstore.ErrInvalidID
	}
	cleaned, err := s.Clean(data)
	if err != nil {
		return nil, err
	}
	return ds.Transform(ctx, docPath, func(existing docstore.Doc, exists bool) (docstore.Doc, error) {
		if !exists {
			existing = nil
		}
		merged := s.Merge(existing, cleaned)
		merged["id"] = id
		return merged, nil
	})
}
