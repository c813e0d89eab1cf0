// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/divvyapp/divvy/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Startup applies process-wide settings that handlers read at request
// time. WAFFLE calls it after the store is connected and the schema is in
// place, before routes are built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	zap.ReplaceGlobals(logger)

	cur := timeouts.Apply(appCfg.Timeouts)
	logger.Info("operation timeouts",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long),
		zap.Duration("batch", cur.Batch))
	logger.Info("divvy configured",
		zap.String("env", coreCfg.Env),
		zap.String("backend", deps.Backend),
		zap.Int("http_port", coreCfg.HTTP.HTTPPort),
		zap.Int("delete_batch_size", appCfg.DeleteBatchSize),
		zap.Int("max_generated_instances", appCfg.MaxGeneratedInstances),
		zap.Int("rate_limit_rps", appCfg.RateLimitRPS),
		zap.Int("trusted_proxies", len(appCfg.TrustedProxies)))
	return nil
}
