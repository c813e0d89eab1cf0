// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup when the Mongo backend is selected. Each
ensure* function is idempotent. Errors are aggregated so every problem is
visible and startup can fail fast.

Subcollections (chores, members, ...) share one Mongo collection per
collection id, so every one of them needs an index on the parent path.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"houses", ensureHouses},
		{"chores", ensureChores},
		{"choreInstances", ensureChoreInstances},
		{"members", ensureParentOnly("members")},
		{"subgroups", ensureParentOnly("subgroups")},
		{"swaps", ensureParentOnly("swaps")},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool {
	return b != nil && *b
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // key signature -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// ensureIndexSet creates missing indexes. An index with the same keys but a
// different name or uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := ""
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if isUnique(unique) == isUnique(ex.Unique) && (name == "" || ex.Name == name) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func parentIndex(coll string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: docstore.ParentField, Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("idx_" + strings.ToLower(coll) + "_parent__id"),
	}
}

func ensureHouses(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("houses"), []mongo.IndexModel{
		// get_houses_by_user: array-contains on members
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_houses_members"),
		},
		// One house per code. joinCodes reservations enforce this on
		// every backend; the partial index skips houses with no code.
		{
			Keys: bson.D{{Key: "joinCode", Value: 1}},
			Options: options.Index().
				SetName("idx_houses_joincode").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"joinCode": bson.M{"$gt": ""}}),
		},
	})
}

func ensureChores(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("chores"), []mongo.IndexModel{
		parentIndex("chores"),
		// collection-group lookup of a user's chores
		{
			Keys:    bson.D{{Key: "assignees", Value: 1}},
			Options: options.Index().SetName("idx_chores_assignees"),
		},
	})
}

func ensureChoreInstances(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("choreInstances"), []mongo.IndexModel{
		parentIndex("choreInstances"),
		{
			Keys:    bson.D{{Key: docstore.ParentField, Value: 1}, {Key: "dueDate", Value: 1}},
			Options: options.Index().SetName("idx_choreinstances_parent_duedate"),
		},
		{
			Keys:    bson.D{{Key: "assignee", Value: 1}, {Key: "dueDate", Value: 1}},
			Options: options.Index().SetName("idx_choreinstances_assignee_duedate"),
		},
	})
}

func ensureParentOnly(coll string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return ensureIndexSet(ctx, db.Collection(coll), []mongo.IndexModel{parentIndex(coll)})
	}
}
