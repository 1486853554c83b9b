// Package migration binds golang-migrate to the application database.
// Migrations are JSON command lists embedded in the binary; they run only
// when invoked out of band (strataboot migrate), never while serving.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

// DefaultCollection stores the applied migration version.
const DefaultCollection = "schema_migrations"

// Migrator is a bound migration tool.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Bind creates a Migrator for database on client. It does not apply
// anything. Closing the Migrator disconnects client.
func Bind(client *mongo.Client, database, collection string, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collection == "" {
		collection = DefaultCollection
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := mongodb.WithInstance(client, &mongodb.Config{
		DatabaseName:         database,
		MigrationsCollection: collection,
	})
	if err != nil {
		return nil, fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, database, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	m.Log = &zapLogger{l: logger.Named("migrate")}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies all pending migrations.
func (mg *Migrator) Up() error {
	return mg.apply("up", mg.m.Up())
}

// Down reverts all applied migrations.
func (mg *Migrator) Down() error {
	return mg.apply("down", mg.m.Down())
}

// Steps applies n migrations, reverting when n is negative.
func (mg *Migrator) Steps(n int) error {
	return mg.apply(fmt.Sprintf("steps %d", n), mg.m.Steps(n))
}

// Goto migrates up or down to version v.
func (mg *Migrator) Goto(v uint) error {
	return mg.apply(fmt.Sprintf("goto %d", v), mg.m.Migrate(v))
}

// Force sets the version without running migrations, clearing a dirty flag.
func (mg *Migrator) Force(v int) error {
	return mg.apply(fmt.Sprintf("force %d", v), mg.m.Force(v))
}

// Version returns the applied version. A database with no migrations
// applied reports version 0.
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database drivers.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) apply(op string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("migrations: no change", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	mg.logger.Info("migrations applied", zap.String("op", op))
	return nil
}

// Available lists the embedded migration versions in ascending order.
func Available() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".up.json"); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// zapLogger adapts zap to migrate.Logger.
type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) Printf(format string, v ...any) {
	z.l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (z *zapLogger) Verbose() bool { return false }
