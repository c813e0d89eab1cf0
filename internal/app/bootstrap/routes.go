// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	choresfeature "github.com/divvyapp/divvy/internal/app/features/chores"
	healthfeature "github.com/divvyapp/divvy/internal/app/features/health"
	housesfeature "github.com/divvyapp/divvy/internal/app/features/houses"
	usersfeature "github.com/divvyapp/divvy/internal/app/features/users"
	"github.com/divvyapp/divvy/internal/app/system/httpjson"
	"github.com/divvyapp/divvy/internal/app/system/metrics"
	"github.com/divvyapp/divvy/internal/app/system/ratelimit"
	"github.com/divvyapp/divvy/internal/app/system/reqlog"
	"github.com/dalemusser/waffle/config"
	wafflemw "github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler.
//
// Health and metrics sit outside the rate limiter so load balancers and
// scrapers are never throttled. Everything else is JSON under /houses and
// /users. CORS, security headers and the body size cap come from WAFFLE's
// core config.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	m := metrics.New()
	trusted, err := ratelimit.ParseProxies(appCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.New(float64(appCfg.RateLimitRPS), appCfg.RateLimitBurst, trusted)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(reqlog.Middleware(logger))
	r.Use(m.Middleware)
	r.Use(wafflemw.CORSFromConfig(coreCfg))
	r.Use(wafflemw.SecurityHeadersFromConfig(coreCfg))
	r.Use(wafflemw.LimitBodySize(coreCfg.MaxRequestBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store, deps.Backend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	housesHandler := housesfeature.NewHandler(deps.Store, appCfg.DeleteBatchSize, m, logger)
	usersHandler := usersfeature.NewHandler(deps.Store, logger)
	choresHandler := choresfeature.NewHandler(deps.Store, appCfg.MaxGeneratedInstances, m, logger)

	r.Group(func(api chi.Router) {
		api.Use(limiter.Middleware(logger))

		// Houses, with chores and instances nested under each house
		hr := housesfeature.Routes(housesHandler)
		hr.Mount("/{houseID}/chores", choresfeature.ChoreRoutes(choresHandler))
		hr.Mount("/{houseID}/chore-instances", choresfeature.InstanceRoutes(choresHandler))
		api.Mount("/houses", hr)

		// Users, plus their chores across houses
		ur := usersfeature.Routes(usersHandler)
		choresfeature.UserRoutes(ur, choresHandler)
		api.Mount("/users", ur)
	})

	return r, nil
}
