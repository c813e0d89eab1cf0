package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]Doc // collection path -> id -> data
	now  func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cols: make(map[string]map[string]Doc),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for ServerTimestamp. Tests only.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) NewID() string {
	return uuid.NewString()
}

func asTime(t time.Time) any { return t }

func (m *Memory) Get(ctx context.Context, docPath string) (Doc, error) {
	col, id, err := SplitDoc(docPath)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.cols[col][id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *Memory) Set(ctx context.Context, docPath string, data Doc) error {
	col, id, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(col, id, resolveTimestamps(data, m.now(), asTime))
	return nil
}

func (m *Memory) put(col, id string, d Doc) {
	docs, ok := m.cols[col]
	if !ok {
		docs = make(map[string]Doc)
		m.cols[col] = docs
	}
	docs[id] = d
}

func (m *Memory) Update(ctx context.Context, docPath string, fields Doc) error {
	col, id, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.cols[col][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range resolveTimestamps(fields, m.now(), asTime) {
		d[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, docPath string) error {
	col, id, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if docs, ok := m.cols[col]; ok {
		delete(docs, id)
		if len(docs) == 0 {
			delete(m.cols, col)
		}
	}
	return nil
}

func (m *Memory) ArrayUnion(ctx context.Context, docPath, field string, values ...any) error {
	return m.modifyArray(docPath, field, func(items []any) []any {
		for _, v := range values {
			found := false
			for _, it := range items {
				if valuesEqual(it, v) {
					found = true
					break
				}
			}
			if !found {
				items = append(items, cloneValue(v))
			}
		}
		return items
	})
}

func (m *Memory) ArrayRemove(ctx context.Context, docPath, field string, values ...any) error {
	return m.modifyArray(docPath, field, func(items []any) []any {
		out := items[:0]
		for _, it := range items {
			keep := true
			for _, v := range values {
				if valuesEqual(it, v) {
					keep = false
					break
				}
			}
			if keep {
				out = append(out, it)
			}
		}
		return out
	})
}

func (m *Memory) modifyArray(docPath, field string, fn func([]any) []any) error {
	col, id, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.cols[col][id]
	if !ok {
		return ErrNotFound
	}
	items := append([]any{}, toSlice(d[field])...)
	d[field] = fn(items)
	return nil
}

func (m *Memory) Transform(ctx context.Context, docPath string, fn TransformFunc) (Doc, error) {
	col, id, err := SplitDoc(docPath)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.cols[col][id]
	next, err := fn(cur.Clone(), exists)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return cur.Clone(), nil
	}
	resolved := resolveTimestamps(next, m.now(), asTime)
	m.put(col, id, resolved)
	return resolved.Clone(), nil
}

func (m *Memory) Find(ctx context.Context, colPath string, q Query) ([]Snapshot, error) {
	if err := CheckCollection(colPath); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return runQuery(m.snapshots(colPath), q), nil
}

func (m *Memory) FindGroup(ctx context.Context, collectionID string, q Query) ([]Snapshot, error) {
	if !ValidID(collectionID) {
		return nil, ErrInvalidPath
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Snapshot
	for col := range m.cols {
		if CollectionID(col) == collectionID {
			all = append(all, m.snapshots(col)...)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return runQuery(all, q), nil
}

func (m *Memory) List(ctx context.Context, colPath, afterID string, limit int) ([]Snapshot, error) {
	if err := CheckCollection(colPath); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snapshot
	for _, s := range m.snapshots(colPath) {
		if afterID != "" && s.ID <= afterID {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// snapshots returns a collection's documents in id order. Caller holds the lock.
func (m *Memory) snapshots(colPath string) []Snapshot {
	docs := m.cols[colPath]
	out := make([]Snapshot, 0, len(docs))
	for id, d := range docs {
		out = append(out, Snapshot{ID: id, Path: Join(colPath, id), Data: d.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func runQuery(in []Snapshot, q Query) []Snapshot {
	out := make([]Snapshot, 0, len(in))
	for _, s := range in {
		ok := true
		for _, f := range q.Filters {
			if !matches(s.Data, f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, s)
		}
	}
	if q.OrderBy != "" {
		field := q.OrderBy
		kept := out[:0]
		for _, s := range out {
			// Firestore drops documents that lack the order field.
			if _, ok := s.Data[field]; ok {
				kept = append(kept, s)
			}
		}
		out = kept
		sort.SliceStable(out, func(i, j int) bool {
			c, _ := compareValues(out[i].Data[field], out[j].Data[field])
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
