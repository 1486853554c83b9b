// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables, e.g.
// STRATABOOT_MONGO_URI or STRATABOOT_SESSION_KEY.
const EnvVarPrefix = "STRATABOOT"

// LoadConfig resolves the profile named by STRATABOOT_PROFILE (default "")
// and loads the core and app configuration on top of its defaults.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATABOOT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > profile defaults
//
// An unknown profile aborts startup.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	profile, err := ResolveProfile(os.Getenv(ProfileEnvVar))
	if err != nil {
		logger.Error("configuration profile not found", zap.Error(err))
		return nil, AppConfig{}, err
	}
	logger.Info("using configuration profile", zap.String("profile", profile.Name))

	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, profile.AppKeys())
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		Profile:          profile.Name,
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),

		SentryActive:           appValues.Bool("log_sentry_active"),
		SentryDSN:              appValues.String("log_sentry_dsn"),
		SentryTracesSampleRate: parseRate(appValues.String("log_sentry_traces_sample_rate")),
		SentryEnvironment:      appValues.String("log_sentry_environment"),

		MailActive:    appValues.Bool("log_mail_active"),
		MailHost:      appValues.String("log_mail_host"),
		MailPort:      appValues.Int("log_mail_port"),
		MailUsername:  appValues.String("log_mail_username"),
		MailPassword:  appValues.String("log_mail_password"),
		MailFrom:      appValues.String("log_mail_from_address"),
		MailTo:        splitList(appValues.String("log_mail_to_address")),
		MailSubject:   appValues.String("log_mail_subject"),
		MailPerMinute: appValues.Int("log_mail_per_minute"),

		DatabaseLogActive: appValues.Bool("log_database_active"),

		SeedActive: appValues.Bool("db_default_values_active"),
		SeedFile:   appValues.String("db_default_values_file"),

		MigrationsCollection: appValues.String("migrations_collection"),

		SiteName:      appValues.String("site_name"),
		HomeIntroHTML: appValues.String("home_intro_html"),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Only settings that make startup impossible are rejected here. Sink
// settings are validated when the sinks are configured; a bad sink is
// skipped, not fatal.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	return nil
}

// parseRate parses a sample rate; anything unparsable becomes -1 so sink
// validation rejects it.
func parseRate(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return -1
	}
	return f
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
