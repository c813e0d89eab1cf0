package chorestore

import (
	"context"
	"time"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/docschema"
	"github.com/divvyapp/divvy/internal/app/system/recurrence"
)

// Generate expands the chore's schedule over [from, to] and writes one new
// instance per occurrence, rotating through the chore's assignees. It returns
// the new instance ids in date order. An unknown frequencyPattern generates
// nothing. Calling it twice for the same range writes duplicates.
//
// limit caps the number of occurrences; larger ranges fail with
// recurrence.ErrTooMany before anything is written.
func (s *Store) Generate(ctx context.Context, houseID, choreID string, from, to time.Time, limit int) ([]string, error) {
	chore, err := s.Get(ctx, houseID, choreID)
	if err != nil {
		return nil, err
	}

	pattern, ok := recurrence.ParsePattern(chore.FrequencyPattern)
	if !ok {
		return []string{}, nil
	}
	rule := recurrence.Rule{Pattern: pattern, Days: chore.FrequencyDays}
	if chore.StartDate != "" {
		start, err := docschema.ParseDate(chore.StartDate)
		if err != nil {
			return nil, &docschema.FieldError{Field: "startDate", Message: err.Error()}
		}
		rule.Start = start
	}

	dates, err := recurrence.Expand(rule, from, to, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(dates))
	for i, d := range dates {
		id := s.ds.NewID()
		doc := docstore.Doc{
			"id":       id,
			"choreID":  choreID,
			"assignee": recurrence.Assignee(chore.Assignees, i),
			"dueDate":  d.Format(docschema.DateLayout),
			"isDone":   false,
		}
		if err := s.ds.Set(ctx, instancePath(houseID, id), doc); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
