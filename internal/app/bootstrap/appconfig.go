// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from the selected profile's defaults, overridden by config
// files, STRATABOOT_* environment variables and flags (loaded in LoadConfig).
// WAFFLE's CoreConfig keeps the framework-level settings (ports, TLS, log
// level, CORS, timeouts).
type AppConfig struct {
	// Profile is the resolved profile name, e.g. "ConfigProduction".
	Profile string

	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session and CSRF
	SessionKey    string
	SessionName   string
	SessionMaxAge time.Duration
	CSRFKey       string

	// Diagnostic sinks
	SentryActive           bool
	SentryDSN              string
	SentryTracesSampleRate float64 // -1 when the configured value does not parse
	SentryEnvironment      string

	MailActive    bool
	MailHost      string
	MailPort      int
	MailUsername  string
	MailPassword  string
	MailFrom      string
	MailTo        []string
	MailSubject   string
	MailPerMinute int

	DatabaseLogActive bool

	// Default-data seeding (first request)
	SeedActive bool
	SeedFile   string

	// Migrations
	MigrationsCollection string

	// Pages
	SiteName      string
	HomeIntroHTML string

	MetricsEnabled bool
}
