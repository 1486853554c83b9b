// internal/app/bootstrap/profiles.go
package bootstrap

import (
	"fmt"
	"sort"

	"github.com/dalemusser/waffle/config"
)

// ProfileEnvVar selects the configuration profile by suffix, e.g.
// STRATABOOT_PROFILE=Production resolves "ConfigProduction".
const ProfileEnvVar = EnvVarPrefix + "_PROFILE"

// Profile is a named set of defaults for every application key. Flags,
// environment variables and config files still override these values.
type Profile struct {
	Name     string
	Defaults map[string]any
}

// UnknownProfileError is returned for a profile suffix that is not in the
// profile table. It aborts startup.
type UnknownProfileError struct {
	Suffix string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown configuration profile %q (known: %v)", "Config"+e.Suffix, ProfileSuffixes())
}

// baseDefaults is the "Config" profile; the others override parts of it.
var baseDefaults = map[string]any{
	"mongo_uri":           "mongodb://localhost:27017",
	"mongo_database":      "strataboot",
	"mongo_max_pool_size": 100,
	"mongo_min_pool_size": 10,

	"session_key":     "dev-only-change-me-please-0123456789ABCDEF",
	"session_name":    "strataboot-session",
	"session_max_age": "24h",
	"csrf_key":        "dev-only-csrf-key-please-change-0123456789",

	"log_sentry_active":             false,
	"log_sentry_dsn":                "",
	"log_sentry_traces_sample_rate": "1.0",
	"log_sentry_environment":        "",

	"log_mail_active":       false,
	"log_mail_host":         "localhost",
	"log_mail_port":         25,
	"log_mail_username":     "",
	"log_mail_password":     "",
	"log_mail_from_address": "errors@localhost",
	"log_mail_to_address":   "",
	"log_mail_subject":      "Application Error",
	"log_mail_per_minute":   10,

	"log_database_active": false,

	"db_default_values_active": false,
	"db_default_values_file":   "database.yaml",

	"migrations_collection": "schema_migrations",

	"site_name":       "Strataboot",
	"home_intro_html": "",
	"metrics_enabled": false,
}

var profiles = map[string]map[string]any{
	"": {},
	"Development": {
		"mongo_database":           "strataboot_dev",
		"db_default_values_active": true,
		"metrics_enabled":          true,
	},
	"Testing": {
		"mongo_database":           "strataboot_test",
		"mongo_min_pool_size":      0,
		"session_max_age":          "1h",
		"db_default_values_active": false,
	},
	"Production": {
		"session_key":              "",
		"csrf_key":                 "",
		"log_sentry_active":        true,
		"log_sentry_environment":   "production",
		"log_database_active":      true,
		"db_default_values_active": true,
		"metrics_enabled":          true,
	},
}

// ProfileSuffixes lists the known profile suffixes in sorted order.
func ProfileSuffixes() []string {
	out := make([]string, 0, len(profiles))
	for s := range profiles {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ResolveProfile returns the profile "Config"+suffix with the base defaults
// merged under its overrides.
func ResolveProfile(suffix string) (Profile, error) {
	overrides, ok := profiles[suffix]
	if !ok {
		return Profile{}, &UnknownProfileError{Suffix: suffix}
	}
	defaults := make(map[string]any, len(baseDefaults))
	for k, v := range baseDefaults {
		defaults[k] = v
	}
	for k, v := range overrides {
		defaults[k] = v
	}
	return Profile{Name: "Config" + suffix, Defaults: defaults}, nil
}

// AppKeys returns the WAFFLE key list with this profile's defaults.
func (p Profile) AppKeys() []config.AppKey {
	keys := make([]config.AppKey, 0, len(keyDescriptions))
	for _, kd := range keyDescriptions {
		keys = append(keys, config.AppKey{Name: kd.name, Default: p.Defaults[kd.name], Desc: kd.desc})
	}
	return keys
}

// keyDescriptions fixes the order and help text of the application keys.
var keyDescriptions = []struct {
	name string
	desc string
}{
	{"mongo_uri", "MongoDB connection URI"},
	{"mongo_database", "MongoDB database name"},
	{"mongo_max_pool_size", "MongoDB max connection pool size"},
	{"mongo_min_pool_size", "MongoDB min connection pool size"},
	{"session_key", "Session signing key (32+ chars in production)"},
	{"session_name", "Session cookie name"},
	{"session_max_age", "Session cookie max age (e.g., 24h, 30m)"},
	{"csrf_key", "CSRF token signing key (32+ chars in production)"},
	{"log_sentry_active", "Forward error logs to Sentry"},
	{"log_sentry_dsn", "Sentry DSN"},
	{"log_sentry_traces_sample_rate", "Sentry traces sample rate (0.0-1.0)"},
	{"log_sentry_environment", "Sentry environment tag"},
	{"log_mail_active", "Email error logs to administrators"},
	{"log_mail_host", "SMTP host for error mail"},
	{"log_mail_port", "SMTP port for error mail"},
	{"log_mail_username", "SMTP username for error mail"},
	{"log_mail_password", "SMTP password for error mail"},
	{"log_mail_from_address", "From address for error mail"},
	{"log_mail_to_address", "Comma-separated recipients of error mail"},
	{"log_mail_subject", "Subject of error mail"},
	{"log_mail_per_minute", "Max error mails per minute"},
	{"log_database_active", "Store error logs in the logs collection"},
	{"db_default_values_active", "Seed default rows on the first request"},
	{"db_default_values_file", "YAML file with the db-defaults section"},
	{"migrations_collection", "Collection holding the migration version"},
	{"site_name", "Site name shown in page headers"},
	{"home_intro_html", "Intro text or HTML for the home page"},
	{"metrics_enabled", "Serve Prometheus metrics at /metrics"},
}
