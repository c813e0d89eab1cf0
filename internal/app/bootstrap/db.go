// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/divvyapp/divvy/internal/app/store/docstore"
	"github.com/divvyapp/divvy/internal/app/system/indexes"
	"github.com/divvyapp/divvy/internal/app/system/validators"
	"go.uber.org/zap"
)

// ConnectDB opens the configured document store and verifies it is
// reachable. The connect attempt is bounded by the core db_connect_timeout.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	switch appCfg.StoreBackend {
	case BackendMongo:
		pool := wafflemongo.DefaultPoolConfig()
		if appCfg.MongoMaxPoolSize > 0 {
			pool.MaxPoolSize = appCfg.MongoMaxPoolSize
		}
		if coreCfg.DBConnectTimeout > 0 {
			pool.ConnectTimeout = coreCfg.DBConnectTimeout
		}
		client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, pool)
		if err != nil {
			return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(appCfg.MongoDatabase)
		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool_size", pool.MaxPoolSize))
		return DBDeps{Store: docstore.NewMongo(db), Backend: BackendMongo, MongoDatabase: db}, nil

	case BackendFirestore:
		fs, err := docstore.NewFirestore(ctx, appCfg.FirestoreProjectID)
		if err != nil {
			return DBDeps{}, err
		}
		logger.Info("connected to Firestore", zap.String("project", appCfg.FirestoreProjectID))
		return DBDeps{Store: fs, Backend: BackendFirestore}, nil

	case BackendMemory:
		logger.Info("using in-memory document store")
		return DBDeps{Store: docstore.NewMemory(), Backend: BackendMemory}, nil
	}
	return DBDeps{}, fmt.Errorf("unknown store_backend %q", appCfg.StoreBackend)
}

// EnsureSchema attaches Mongo validators and creates indexes. Firestore
// composite indexes are managed outside the process, and the memory store
// needs none. WAFFLE bounds ctx by the core index_boot_timeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("validator setup failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	return nil
}
