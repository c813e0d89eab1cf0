// internal/app/bootstrap/appconfig.go
package bootstrap

import "github.com/divvyapp/divvy/internal/app/system/timeouts"

// AppConfig holds Divvy's configuration.
//
// Values come from DIVVY_* environment variables, config files or flags
// (loaded in LoadConfig). Framework-level settings such as the environment
// name, log level, listen port, CORS and shutdown grace period stay in
// WAFFLE's CoreConfig.
type AppConfig struct {
	// Document store selection: "mongo", "firestore" or "memory".
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Firestore configuration
	FirestoreProjectID string

	// Rate limiting
	TrustedProxies []string // peers allowed to set X-Forwarded-For
	RateLimitRPS   int      // requests per second per client; 0 disables limiting
	RateLimitBurst int

	// Domain limits
	DeleteBatchSize       int // page size for recursive house deletes
	MaxGeneratedInstances int // cap on instances written by one generate call

	Timeouts timeouts.Set // per-class store call deadlines
}
