// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/divvyapp/divvy/internal/app/system/ratelimit"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Store backends accepted by store_backend.
const (
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// appConfigKeys defines the configuration keys for Divvy.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, store_backend, etc.
//   - Environment variables: DIVVY_MONGO_URI, DIVVY_STORE_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --store_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMongo, Desc: "Document store: 'mongo', 'firestore' or 'memory'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "divvy", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},

	{Name: "firestore_project_id", Default: "", Desc: "Google Cloud project holding the Firestore database"},

	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs or CIDRs whose X-Forwarded-For is believed"},
	{Name: "rate_limit_rps", Default: 20, Desc: "Requests per second allowed per client IP (0 disables)"},
	{Name: "rate_limit_burst", Default: 40, Desc: "Burst size for the per-client rate limiter"},

	{Name: "delete_batch_size", Default: 50, Desc: "Documents deleted per page when removing a house"},
	{Name: "max_generated_instances", Default: 1000, Desc: "Maximum chore instances one generate request may create"},

	{Name: "timeout_ping", Default: "", Desc: "Health check store timeout (default 2s)"},
	{Name: "timeout_short", Default: "", Desc: "Single-document store timeout (default 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Query and upsert store timeout (default 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Multi-document write timeout (default 30s)"},
	{Name: "timeout_batch", Default: "", Desc: "Recursive delete and generation timeout (default 1m)"},
}

// LoadConfig loads WAFFLE core config and Divvy's app config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, DIVVY_* for app) and flags,
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DIVVY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend: strings.ToLower(strings.TrimSpace(appValues.String("store_backend"))),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		FirestoreProjectID: appValues.String("firestore_project_id"),

		TrustedProxies: splitList(appValues.String("trusted_proxies")),
		RateLimitRPS:   appValues.Int("rate_limit_rps"),
		RateLimitBurst: appValues.Int("rate_limit_burst"),

		DeleteBatchSize:       appValues.Int("delete_batch_size"),
		MaxGeneratedInstances: appValues.Int("max_generated_instances"),

		Timeouts: timeouts.Set{
			Ping:   appValues.Duration("timeout_ping", timeouts.Defaults.Ping),
			Short:  appValues.Duration("timeout_short", timeouts.Defaults.Short),
			Medium: appValues.Duration("timeout_medium", timeouts.Defaults.Medium),
			Long:   appValues.Duration("timeout_long", timeouts.Defaults.Long),
			Batch:  appValues.Duration("timeout_batch", timeouts.Defaults.Batch),
		},
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that cannot start. It runs before
// any backend is contacted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database must be set")
		}
	case BackendFirestore:
		if appCfg.FirestoreProjectID == "" {
			return fmt.Errorf("store_backend firestore requires firestore_project_id")
		}
	case BackendMemory:
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("memory store selected in prod; data will not survive a restart")
		}
	default:
		return fmt.Errorf("unknown store_backend %q (want mongo, firestore or memory)", appCfg.StoreBackend)
	}

	if appCfg.DeleteBatchSize < 1 {
		return fmt.Errorf("delete_batch_size must be positive, got %d", appCfg.DeleteBatchSize)
	}
	if appCfg.MaxGeneratedInstances < 1 {
		return fmt.Errorf("max_generated_instances must be positive, got %d", appCfg.MaxGeneratedInstances)
	}
	if appCfg.RateLimitRPS < 0 || appCfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if _, err := ratelimit.ParseProxies(appCfg.TrustedProxies); err != nil {
		return err
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
