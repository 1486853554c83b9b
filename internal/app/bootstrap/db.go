// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/strataboot/internal/app/system/schema"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB is the WAFFLE hook for the logging and persistence stages.
//
// WAFFLE calls this after configuration is loaded. The diagnostic sinks are
// attached first so connection failures already reach them; the resulting
// Application is kept for the later hooks.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	a := newApplication(coreCfg, appCfg, logger)
	a.setupLogging()

	deps, err := connectMongo(ctx, appCfg, a.Logger)
	if err != nil {
		a.Diagnostics.Close(ctx)
		return DBDeps{}, err
	}
	a.Deps = deps
	setRunning(a)
	return deps, nil
}

// EnsureSchema creates missing collections and indexes, then binds the
// database log sink. It never drops or alters existing ones.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	a := running()
	if a == nil {
		return ensureSchema(ctx, deps, logger)
	}
	if err := ensureSchema(ctx, deps, a.Logger); err != nil {
		return err
	}
	a.Diagnostics.AttachDatabase(deps.MongoDatabase)
	return nil
}

// connectMongo opens the MongoDB pool.
func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		logger.Error("MongoDB connection failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

func ensureSchema(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	logger.Info("ensuring collections and indexes")
	if err := schema.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("failed to ensure schema", zap.Error(err))
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
