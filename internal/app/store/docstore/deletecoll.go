package docstore

import (
	"context"
	"fmt"
)

// DefaultDeleteBatchSize is the page size used by DeleteCollection.
const DefaultDeleteBatchSize = 50

// DeleteCollection deletes every document in a collection, one page of
// batchSize documents at a time, recursing while pages come back full.
// It returns the number of documents deleted. The delete is best effort:
// an error part-way leaves the collection partially deleted.
func DeleteCollection(ctx context.Context, s Store, colPath string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultDeleteBatchSize
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	page, err := s.List(ctx, colPath, "", batchSize)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", colPath, err)
	}

	deleted := 0
	for _, snap := range page {
		if err := s.Delete(ctx, snap.Path); err != nil {
			return deleted, err
		}
		deleted++
	}

	if len(page) < batchSize {
		return deleted, nil
	}
	more, err := DeleteCollection(ctx, s, colPath, batchSize)
	return deleted + more, err
}
