// internal/app/bootstrap/application.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"

	healthfeature "github.com/dalemusser/strataboot/internal/app/features/health"
	loginfeature "github.com/dalemusser/strataboot/internal/app/features/login"
	userstore "github.com/dalemusser/strataboot/internal/app/store/users"
	"github.com/dalemusser/strataboot/internal/app/system/errreport"
	"github.com/dalemusser/strataboot/internal/app/system/logsetup"
	"github.com/dalemusser/strataboot/internal/app/system/migration"
	"github.com/dalemusser/strataboot/internal/app/system/routing"
	"github.com/dalemusser/strataboot/internal/app/system/security"
	"github.com/dalemusser/strataboot/internal/app/system/seeding"
	"github.com/dalemusser/strataboot/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Application is the composed web application: configuration, diagnostics,
// persistence, routes, security, migrations and the first-request seeder.
type Application struct {
	CoreConfig *config.CoreConfig
	Config     AppConfig

	// Logger writes to the base logger and every active diagnostic sink.
	Logger      *zap.Logger
	Diagnostics *logsetup.Diagnostics
	Reporter    *errreport.Reporter

	Deps DBDeps

	Routes   *routing.Registry
	Router   chi.Router
	Security *security.Manager
	Migrator *migration.Migrator
	Seeder   *seeding.Seeder
	Seed     *seeding.FirstRequest

	// Handler is the root handler: seeding gate, session and CSRF layers,
	// then the router.
	Handler http.Handler

	baseLogger *zap.Logger
}

// Options configures New. Zero values load everything from the environment.
type Options struct {
	// Logger is the base process logger. Defaults to a no-op logger.
	Logger *zap.Logger
	// CoreConfig and Config skip LoadConfig when both are set.
	CoreConfig *config.CoreConfig
	Config     *AppConfig
	// SkipTemplates leaves the template engine alone (for callers that
	// never render pages).
	SkipTemplates bool
}

// New composes the application. The stages run strictly in this order:
// configuration, logging, persistence, routes, security, migration binding,
// seeder registration. Any stage error aborts and is returned; resources
// opened by earlier stages are released first.
func New(ctx context.Context, opts Options) (*Application, error) {
	base := opts.Logger
	if base == nil {
		base = zap.NewNop()
	}

	coreCfg, appCfg := opts.CoreConfig, opts.Config
	if coreCfg == nil || appCfg == nil {
		c, a, err := LoadConfig(base)
		if err != nil {
			return nil, err
		}
		coreCfg, appCfg = c, &a
	}
	if err := ValidateConfig(coreCfg, *appCfg, base); err != nil {
		return nil, err
	}

	a := newApplication(coreCfg, *appCfg, base)
	a.setupLogging()

	if err := a.connectPersistence(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if !opts.SkipTemplates {
		if err := bootTemplates(coreCfg, a.Logger); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}
	for _, stage := range []func() error{a.registerRoutes, a.initSecurity, a.bindMigrations} {
		if err := stage(); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}
	a.registerSeeder()
	a.Handler = a.buildHandler()

	a.Logger.Info("application ready", zap.String("profile", a.Config.Profile))
	return a, nil
}

func newApplication(coreCfg *config.CoreConfig, appCfg AppConfig, base *zap.Logger) *Application {
	viewdata.Init(appCfg.SiteName)
	return &Application{CoreConfig: coreCfg, Config: appCfg, baseLogger: base}
}

// setupLogging attaches the diagnostic sinks. Invalid sink settings skip the
// sink with a warning and never fail startup.
func (a *Application) setupLogging() {
	c := a.Config
	a.Diagnostics = logsetup.Configure(logsetup.Config{
		AppName:      c.SiteName,
		SentryActive: c.SentryActive,
		Sentry: logsetup.SentryConfig{
			DSN:              c.SentryDSN,
			TracesSampleRate: c.SentryTracesSampleRate,
			Environment:      c.SentryEnvironment,
		},
		MailActive: c.MailActive,
		Mail: logsetup.MailConfig{
			Host:      c.MailHost,
			Port:      c.MailPort,
			Username:  c.MailUsername,
			Password:  c.MailPassword,
			From:      c.MailFrom,
			To:        c.MailTo,
			Subject:   c.MailSubject,
			PerMinute: c.MailPerMinute,
		},
		DatabaseActive: c.DatabaseLogActive,
	}, a.baseLogger)
	a.Logger = a.Diagnostics.Logger
	a.Reporter = errreport.New(a.Logger)
}

// connectPersistence opens the pool, ensures collections and indexes, and
// binds the database log sink.
func (a *Application) connectPersistence(ctx context.Context) error {
	deps, err := connectMongo(ctx, a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.Deps = deps
	if err := ensureSchema(ctx, deps, a.Logger); err != nil {
		return err
	}
	a.Diagnostics.AttachDatabase(deps.MongoDatabase)
	return nil
}

func (a *Application) registerRoutes() error {
	reg, err := routeGroups(routeDeps{
		Mongo:     healthfeature.MongoPinger(a.Deps.MongoClient),
		Users:     userstore.New(a.Deps.MongoDatabase),
		Sessions:  a.sessions,
		Reporter:  a.Reporter,
		HomeIntro: a.Config.HomeIntroHTML,
		Metrics:   a.Config.MetricsEnabled,
		Logger:    a.Logger,
	})
	if err != nil {
		a.Logger.Error("route registration failed", zap.Error(err))
		return fmt.Errorf("register routes: %w", err)
	}
	a.Routes = reg
	a.Router = buildRouter(a.CoreConfig, reg, a.Reporter, a.Logger)
	return nil
}

// sessions resolves the session layer for login handlers. Routes are
// registered before security, so this is looked up per request.
func (a *Application) sessions() loginfeature.Sessions {
	if a.Security == nil {
		return nil
	}
	return a.Security.Sessions
}

func (a *Application) initSecurity() error {
	m, err := security.Init(a.Deps.MongoDatabase, security.Config{
		SessionKey:    a.Config.SessionKey,
		SessionName:   a.Config.SessionName,
		SessionMaxAge: a.Config.SessionMaxAge,
		CSRFKey:       a.Config.CSRFKey,
		Secure:        a.CoreConfig.Env == "prod",
	}, a.Logger)
	if err != nil {
		a.Logger.Error("security initialization failed", zap.Error(err))
		return fmt.Errorf("init security: %w", err)
	}
	a.Security = m
	return nil
}

// bindMigrations binds the migration tool without applying anything.
func (a *Application) bindMigrations() error {
	m, err := migration.Bind(a.Deps.MongoClient, a.Config.MongoDatabase, a.Config.MigrationsCollection, a.Logger)
	if err != nil {
		a.Logger.Error("migration binding failed", zap.Error(err))
		return fmt.Errorf("bind migrations: %w", err)
	}
	a.Migrator = m
	return nil
}

// registerSeeder arms the first-request gate. Seeding itself runs on the
// first request, not here.
func (a *Application) registerSeeder() {
	db := a.Deps.MongoDatabase
	a.Seeder = seeding.New(seeding.MongoRegistry(db), seeding.MongoTx(db, a.Logger), a.Logger)
	a.Seed = seeding.NewFirstRequest(seeding.SeedHook(a.Config.SeedActive, a.Config.SeedFile, a.Seeder, a.Logger))
	a.Logger.Info("default-data seeder registered",
		zap.Bool("active", a.Config.SeedActive),
		zap.String("file", a.Config.SeedFile))
}

func (a *Application) buildHandler() http.Handler {
	var h http.Handler = a.Router
	h = a.Security.Wrap(h)
	h = a.Seed.Middleware(h)
	if hub := a.Diagnostics.SentryHub(); hub != nil {
		a.Logger.Debug("sentry request tracing enabled", zap.Bool("client_bound", hub.Client() != nil))
		h = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(h)
	}
	return h
}

// Close flushes the diagnostic sinks and disconnects MongoDB. The migrator
// is not closed here since closing it would disconnect the shared client a
// second time.
func (a *Application) Close(ctx context.Context) error {
	if a.Diagnostics != nil {
		a.Diagnostics.Close(ctx)
	}
	if a.Deps.MongoClient == nil {
		return nil
	}
	if err := a.Deps.MongoClient.Disconnect(ctx); err != nil {
		a.baseLogger.Error("MongoDB disconnect failed", zap.Error(err))
		return err
	}
	return nil
}
