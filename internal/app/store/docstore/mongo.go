package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Reserved Mongo fields. Documents are keyed by their full path so that
// subcollections with the same collection id share one Mongo collection.
const (
	fieldID     = "_id"
	fieldParent = "_parent"
	fieldRev    = "_rev"
)

// ParentField is the Mongo field holding a document's parent path. Queries
// on a subcollection filter on it, so it should be indexed.
const ParentField = fieldParent

// maxTransformAttempts bounds the optimistic retry loop in Mongo.Transform.
const maxTransformAttempts = 5

var _ Store = (*Mongo)(nil)

// Mongo stores documents in MongoDB.
//
// A document at "houses/h1/chores/c1" lives in the "chores" collection with
// _id "houses/h1/chores/c1" and _parent "houses/h1". Every write stamps a fresh
// _rev so Transform can detect concurrent writers without a replica set.
type Mongo struct {
	db *mongo.Database
}

// NewMongo wraps a connected database.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// Database exposes the underlying database for schema setup.
func (m *Mongo) Database() *mongo.Database {
	return m.db
}

func (m *Mongo) NewID() string {
	return uuid.NewString()
}

func (m *Mongo) coll(colPath string) *mongo.Collection {
	return m.db.Collection(CollectionID(colPath))
}

// BSON dates carry millisecond precision.
func asMongoTime(t time.Time) any { return t.Truncate(time.Millisecond) }

// encode builds the stored form of a document.
func (m *Mongo) encode(docPath, colPath string, data Doc) (bson.M, error) {
	parent, err := ParentDoc(colPath)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	for k, v := range resolveTimestamps(data, time.Now().UTC(), asMongoTime) {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	out[fieldID] = docPath
	out[fieldParent] = parent
	out[fieldRev] = uuid.NewString()
	return out, nil
}

// decode strips reserved fields and converts driver types to plain Go values.
func decode(raw bson.M) Doc {
	out := Doc{}
	for k, v := range raw {
		if k == fieldID || k == fieldParent || k == fieldRev {
			continue
		}
		out[k] = fromBSON(v)
	}
	return out
}

func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = fromBSON(val)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = fromBSON(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return int64(t)
	default:
		return v
	}
}

func (m *Mongo) Get(ctx context.Context, docPath string) (Doc, error) {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	err = m.coll(col).FindOne(ctx, bson.M{fieldID: docPath}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", docPath, err)
	}
	return decode(raw), nil
}

func (m *Mongo) Set(ctx context.Context, docPath string, data Doc) error {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	doc, err := m.encode(docPath, col, data)
	if err != nil {
		return err
	}
	_, err = m.coll(col).ReplaceOne(ctx, bson.M{fieldID: docPath}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set %s: %w", docPath, err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, docPath string, fields Doc) error {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range resolveTimestamps(fields, time.Now().UTC(), asMongoTime) {
		if strings.HasPrefix(k, "_") {
			continue
		}
		set[k] = v
	}
	set[fieldRev] = uuid.NewString()
	return m.updateOne(ctx, col, docPath, bson.M{"$set": set})
}

func (m *Mongo) updateOne(ctx context.Context, col, docPath string, update bson.M) error {
	res, err := m.coll(col).UpdateOne(ctx, bson.M{fieldID: docPath}, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", docPath, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, docPath string) error {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	if _, err := m.coll(col).DeleteOne(ctx, bson.M{fieldID: docPath}); err != nil {
		return fmt.Errorf("delete %s: %w", docPath, err)
	}
	return nil
}

func (m *Mongo) ArrayUnion(ctx context.Context, docPath, field string, values ...any) error {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	return m.updateOne(ctx, col, docPath, bson.M{
		"$addToSet": bson.M{field: bson.M{"$each": values}},
		"$set":      bson.M{fieldRev: uuid.NewString()},
	})
}

func (m *Mongo) ArrayRemove(ctx context.Context, docPath, field string, values ...any) error {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return err
	}
	return m.updateOne(ctx, col, docPath, bson.M{
		"$pullAll": bson.M{field: values},
		"$set":     bson.M{fieldRev: uuid.NewString()},
	})
}

// Transform reads the document, applies fn, and writes back only if nobody
// else wrote in between (compare-and-swap on _rev). Inserts race on the
// unique _id instead.
func (m *Mongo) Transform(ctx context.Context, docPath string, fn TransformFunc) (Doc, error) {
	col, _, err := SplitDoc(docPath)
	if err != nil {
		return nil, err
	}
	c := m.coll(col)

	for attempt := 0; attempt < maxTransformAttempts; attempt++ {
		var raw bson.M
		err := c.FindOne(ctx, bson.M{fieldID: docPath}).Decode(&raw)
		exists := true
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists = false
		} else if err != nil {
			return nil, fmt.Errorf("transform read %s: %w", docPath, err)
		}

		var cur Doc
		if exists {
			cur = decode(raw)
		}
		next, err := fn(cur, exists)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return cur, nil
		}
		doc, err := m.encode(docPath, col, next)
		if err != nil {
			return nil, err
		}

		if !exists {
			if _, err := c.InsertOne(ctx, doc); err != nil {
				if wafflemongo.IsDup(err) {
					continue
				}
				return nil, fmt.Errorf("transform insert %s: %w", docPath, err)
			}
			return decode(doc), nil
		}

		res, err := c.ReplaceOne(ctx, bson.M{fieldID: docPath, fieldRev: raw[fieldRev]}, doc)
		if err != nil {
			return nil, fmt.Errorf("transform replace %s: %w", docPath, err)
		}
		if res.MatchedCount == 1 {
			return decode(doc), nil
		}
	}
	return nil, ErrConflict
}

// mongoFilter translates query filters. Range conditions on the same field
// are merged into one sub-document.
func mongoFilter(base bson.M, filters []Filter) (bson.M, error) {
	for _, f := range filters {
		if strings.HasPrefix(f.Field, "_") {
			return nil, fmt.Errorf("cannot filter on reserved field %q", f.Field)
		}
		switch f.Op {
		case OpEq, OpArrayContains:
			// Mongo equality on an array field already matches any element.
			base[f.Field] = f.Value
		case OpGTE, OpLTE:
			op := "$gte"
			if f.Op == OpLTE {
				op = "$lte"
			}
			cond, ok := base[f.Field].(bson.M)
			if !ok {
				cond = bson.M{}
				base[f.Field] = cond
			}
			cond[op] = f.Value
		default:
			return nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}
	return base, nil
}

func findOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: 1}, {Key: fieldID, Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: fieldID, Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func (m *Mongo) Find(ctx context.Context, colPath string, q Query) ([]Snapshot, error) {
	parent, err := ParentDoc(colPath)
	if err != nil {
		return nil, err
	}
	base := bson.M{fieldParent: parent}
	if q.OrderBy != "" {
		base[q.OrderBy] = bson.M{"$exists": true}
	}
	filter, err := mongoFilter(base, q.Filters)
	if err != nil {
		return nil, err
	}
	return m.find(ctx, m.coll(colPath), filter, findOptions(q))
}

func (m *Mongo) FindGroup(ctx context.Context, collectionID string, q Query) ([]Snapshot, error) {
	if !ValidID(collectionID) {
		return nil, ErrInvalidPath
	}
	base := bson.M{}
	if q.OrderBy != "" {
		base[q.OrderBy] = bson.M{"$exists": true}
	}
	filter, err := mongoFilter(base, q.Filters)
	if err != nil {
		return nil, err
	}
	return m.find(ctx, m.db.Collection(collectionID), filter, findOptions(q))
}

func (m *Mongo) List(ctx context.Context, colPath, afterID string, limit int) ([]Snapshot, error) {
	parent, err := ParentDoc(colPath)
	if err != nil {
		return nil, err
	}
	filter := bson.M{fieldParent: parent}
	if afterID != "" {
		filter[fieldID] = bson.M{"$gt": Join(colPath, afterID)}
	}
	return m.find(ctx, m.coll(colPath), filter, findOptions(Query{Limit: limit}))
}

func (m *Mongo) find(ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]Snapshot, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.Name(), err)
	}
	defer cur.Close(ctx)

	var out []Snapshot
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
		}
		path, _ := raw[fieldID].(string)
		_, id, err := SplitDoc(path)
		if err != nil {
			// Not written by this package; skip it.
			continue
		}
		out = append(out, Snapshot{ID: id, Path: path, Data: decode(raw)})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.Name(), err)
	}
	return out, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}
