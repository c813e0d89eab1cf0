// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the document store shared by every handler. MongoDatabase
// is set only for the mongo backend, where EnsureSchema needs it.
type DBDeps struct {
	Store         docstore.Store
	Backend       string
	MongoDatabase *mongo.Database
}
