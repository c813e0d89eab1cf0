// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// The validators only pin down bookkeeping fields and the types of fields
// the server itself queries on. Everything else stays free-form.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("houses", housesSchema())
	ensure("chores", choresSchema())
	ensure("choreInstances", choreInstancesSchema())
	ensure("members", documentSchema(nil))
	ensure("joinCodes", joinCodesSchema())

	// Free-form house documents.
	ensure("subgroups", documentSchema(nil))
	ensure("swaps", documentSchema(nil))

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	stringArray = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}}
	intArray    = bson.M{"bsonType": "array", "items": bson.M{"bsonType": bson.A{"int", "long", "double"}}}
	// Empty is allowed: new documents start with every schema field blank.
	calendarDate = bson.M{"bsonType": "string", "pattern": "^([0-9]{4}-[0-9]{2}-[0-9]{2})?$"}
)

// documentSchema wraps props with the fields every stored document carries:
// its full path as _id and its parent document path ("" at the top level).
func documentSchema(props bson.M) bson.M {
	properties := bson.M{
		"_id":                 bson.M{"bsonType": "string", "minLength": 1},
		docstore.ParentField: bson.M{"bsonType": "string"},
	}
	for k, v := range props {
		properties[k] = v
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   bson.A{"_id", docstore.ParentField},
			"properties": properties,
		},
	}
}

func usersSchema() bson.M {
	return documentSchema(bson.M{
		"email":   bson.M{"bsonType": "string"},
		"houseID": bson.M{"bsonType": "string"},
	})
}

func housesSchema() bson.M {
	return documentSchema(bson.M{
		"name":     bson.M{"bsonType": "string"},
		"joinCode": bson.M{"bsonType": "string"},
		"members":  stringArray,
	})
}

func joinCodesSchema() bson.M {
	s := documentSchema(bson.M{
		"houseID": bson.M{"bsonType": "string", "minLength": 1},
	})
	js := s["$jsonSchema"].(bson.M)
	js["required"] = append(js["required"].(bson.A), "houseID")
	return s
}

func choresSchema() bson.M {
	return documentSchema(bson.M{
		"assignees":        stringArray,
		"frequencyDays":    intArray,
		"frequencyPattern": bson.M{"bsonType": "string"},
		"startDate":        calendarDate,
	})
}

func choreInstancesSchema() bson.M {
	return documentSchema(bson.M{
		"assignee": bson.M{"bsonType": "string"},
		"choreID":  bson.M{"bsonType": "string"},
		"dueDate":  calendarDate,
		"isDone":   bson.M{"bsonType": "bool"},
	})
}
