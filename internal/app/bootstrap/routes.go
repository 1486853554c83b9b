// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	healthfeature "github.com/dalemusser/strataboot/internal/app/features/health"
	homefeature "github.com/dalemusser/strataboot/internal/app/features/home"
	loginfeature "github.com/dalemusser/strataboot/internal/app/features/login"
	"github.com/dalemusser/strataboot/internal/app/resources"
	"github.com/dalemusser/strataboot/internal/app/system/auth"
	"github.com/dalemusser/strataboot/internal/app/system/errreport"
	"github.com/dalemusser/strataboot/internal/app/system/metrics"
	"github.com/dalemusser/strataboot/internal/app/system/routing"
	"github.com/dalemusser/strataboot/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestTimeout bounds every request so none hangs indefinitely.
const requestTimeout = 30 * time.Second

// routeDeps is what the route groups need from the earlier stages.
type routeDeps struct {
	Mongo     healthfeature.Pinger
	Users     loginfeature.Users
	Sessions  loginfeature.SessionSource
	Reporter  *errreport.Reporter
	HomeIntro string
	Metrics   bool
	Logger    *zap.Logger
}

// routeGroups builds the static route registry. Groups mount in the order
// declared here: home, health, login, metrics. A group with a nil Mount
// (metrics when disabled) is skipped.
func routeGroups(d routeDeps) (*routing.Registry, error) {
	assets, err := resources.AssetsHandler("/assets")
	if err != nil {
		return nil, err
	}
	homeHandler := homefeature.NewHandler(d.HomeIntro, d.Logger)
	healthHandler := healthfeature.NewHandler(d.Mongo, d.Logger)
	loginHandler := loginfeature.NewHandler(d.Users, d.Sessions, d.Reporter, d.Logger)

	var mountMetrics func(chi.Router)
	if d.Metrics {
		// Users are loaded into the request by the security layer, which
		// wraps the whole router.
		mountMetrics = func(r chi.Router) {
			r.With(auth.RequireRole(models.RoleAdmin)).Method(http.MethodGet, "/metrics", metrics.Handler())
		}
	}

	return routing.NewRegistry(
		routing.Group{Name: "home", Prefix: "/", Mount: func(r chi.Router) {
			homefeature.Mount(r, homeHandler)
			r.Handle("/assets/*", assets)
		}},
		routing.Group{Name: "health", Prefix: "/health", Mount: func(r chi.Router) {
			healthfeature.Mount(r, healthHandler)
		}},
		routing.Group{Name: "login", Mount: func(r chi.Router) {
			r.Mount("/login", loginfeature.Routes(loginHandler))
			r.Post("/logout", loginHandler.Logout)
		}},
		routing.Group{Name: "metrics", Mount: mountMetrics},
	)
}

// buildRouter creates the chi router with the global middleware and mounts
// every group of reg.
func buildRouter(coreCfg *config.CoreConfig, reg *routing.Registry, reporter *errreport.Reporter, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(requestTimeout))

	// CORS must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.Use(metrics.InstrumentHandler)
	r.Use(reporter.Middleware)

	if skipped := reg.MountAll(r); len(skipped) > 0 {
		logger.Info("route groups skipped", zap.Strings("groups", skipped))
	}
	logger.Info("route groups mounted", zap.Strings("groups", reg.Names()))
	return r
}

// bootTemplates registers the shared partials and boots the template engine.
// Dev mode reloads templates on change.
func bootTemplates(coreCfg *config.CoreConfig, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return err
	}
	templates.UseEngine(eng, logger)
	return nil
}
