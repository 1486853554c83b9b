// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dalemusser/waffle/app"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Hooks wires this app into the WAFFLE lifecycle. The hooks run the same
// stages as New, in the same order:
//
//	LoadConfig      configuration (profile + flags/env/files)
//	ConnectDB       logging, then persistence (connect)
//	EnsureSchema    persistence (collections, indexes, DB log sink)
//	Startup         template engine
//	BuildHandler    routes, security, migration binding, seeder registration
//	Shutdown        flush sinks, disconnect MongoDB
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "strataboot",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}

var (
	runningMu  sync.Mutex
	runningApp *Application
)

func setRunning(a *Application) {
	runningMu.Lock()
	defer runningMu.Unlock()
	runningApp = a
}

func running() *Application {
	runningMu.Lock()
	defer runningMu.Unlock()
	return runningApp
}

var errNotConnected = errors.New("application not connected; ConnectDB must run first")

// Startup boots the template engine once the database is ready.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	a := running()
	if a == nil {
		return errNotConnected
	}
	return bootTemplates(coreCfg, a.Logger)
}

// BuildHandler runs the route, security, migration and seeder stages and
// returns the root handler.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	a := running()
	if a == nil {
		return nil, errNotConnected
	}
	for _, stage := range []func() error{a.registerRoutes, a.initSecurity, a.bindMigrations} {
		if err := stage(); err != nil {
			return nil, err
		}
	}
	a.registerSeeder()
	a.Handler = a.buildHandler()
	return a.Handler, nil
}
