// cmd/strataboot/migrate.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dalemusser/strataboot/internal/app/bootstrap"
	"github.com/dalemusser/strataboot/internal/app/system/migration"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const migrateTimeout = 5 * time.Minute

type migrateSettings struct {
	URI        string
	Database   string
	Collection string
}

// migrateFlagKeys maps the migrate flags onto the application keys, so
// flags, STRATABOOT_* variables and profile defaults resolve the same
// database and collection the server uses.
var migrateFlagKeys = map[string]string{
	"mongo-uri":  "mongo_uri",
	"database":   "mongo_database",
	"collection": "migrations_collection",
}

// migrateConfig resolves the profile named by STRATABOOT_PROFILE and layers
// STRATABOOT_MONGO_URI, STRATABOOT_MONGO_DATABASE,
// STRATABOOT_MIGRATIONS_COLLECTION and the command flags over it.
func migrateConfig(cmd *cobra.Command) (migrateSettings, error) {
	profile, err := bootstrap.ResolveProfile(os.Getenv(bootstrap.ProfileEnvVar))
	if err != nil {
		return migrateSettings{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(bootstrap.EnvVarPrefix)
	v.AutomaticEnv()
	for flag, key := range migrateFlagKeys {
		v.SetDefault(key, profile.Defaults[key])
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return migrateSettings{}, err
			}
		}
	}

	s := migrateSettings{
		URI:        v.GetString("mongo_uri"),
		Database:   v.GetString("mongo_database"),
		Collection: v.GetString("migrations_collection"),
	}
	if err := wafflemongo.ValidateURI(s.URI); err != nil {
		return migrateSettings{}, fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if s.Database == "" {
		return migrateSettings{}, errors.New("no MongoDB database configured")
	}
	if s.Collection == "" {
		s.Collection = migration.DefaultCollection
	}
	return s, nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
		Long: `Apply or inspect the embedded schema migrations.

Migrations never run while the server is serving requests; use this
command during deploys.`,
	}
	cmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection URI (default: profile mongo_uri)")
	cmd.PersistentFlags().String("database", "", "MongoDB database name (default: profile mongo_database)")
	cmd.PersistentFlags().String("collection", "", "collection holding the migration version (default: profile migrations_collection)")

	cmd.AddCommand(
		migrateOp("up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		migrateOp("down", "Roll back one migration", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Steps(-1)
		}),
		migrateOp("goto", "Migrate up or down to version N", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return m.Goto(uint(v))
		}),
		migrateOp("force", "Set version N without running migrations (clears dirty state)", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return m.Force(v)
		}),
		newMigrateVersionCmd(),
		newMigrateListCmd(),
	)
	return cmd
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version %q: want a non-negative integer", s)
	}
	return v, nil
}

// migrateOp builds a subcommand that validates its arguments before
// connecting, runs op on a bound migrator, then prints the new version.
func migrateOp(use, short string, args cobra.PositionalArgs, op func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args: func(cmd *cobra.Command, a []string) error {
			if err := args(cmd, a); err != nil {
				return err
			}
			if len(a) == 1 {
				_, err := parseVersion(a[0])
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, a []string) error {
			return withMigrator(cmd, func(m *migration.Migrator) error {
				if err := op(m, a); err != nil {
					return fmt.Errorf("migrate %s: %w", use, err)
				}
				return printVersion(cmd, m)
			})
		},
	}
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migration.Migrator) error {
				return printVersion(cmd, m)
			})
		},
	}
}

func newMigrateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the embedded migration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migration.Available()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func printVersion(cmd *cobra.Command, m *migration.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
	return nil
}

// withMigrator connects, binds the migrator, runs fn and closes the
// migrator, which also disconnects the client.
func withMigrator(cmd *cobra.Command, fn func(*migration.Migrator) error) error {
	s, err := migrateConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
	defer cancel()

	client, err := wafflemongo.ConnectWithPool(ctx, s.URI, s.Database, wafflemongo.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}

	m, err := migration.Bind(client, s.Database, s.Collection, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			logger.Warn("closing migrator", zap.Error(cerr))
		}
	}()

	return fn(m)
}
