// Package logsetup attaches the optional diagnostic sinks (Sentry, email,
// database) to the process logger. Each sink is a zapcore.Core teed onto
// the base core at error level, so every logger.Error reaches all of them.
package logsetup

import (
	"context"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink names, used in logs and metrics.
const (
	SinkSentry   = "sentry"
	SinkMail     = "mail"
	SinkDatabase = "database"
)

// SentryConfig configures the remote error tracker.
type SentryConfig struct {
	DSN              string  `validate:"required,url"`
	TracesSampleRate float64 `validate:"gte=0,lte=1"`
	Environment      string
	Release          string
}

// MailConfig configures the email-on-error sink.
type MailConfig struct {
	Host      string   `validate:"required,hostname|ip"`
	Port      int      `validate:"required,min=1,max=65535"`
	Username  string   `validate:"required_with=Password"`
	Password  string   `validate:"required_with=Username"`
	From      string   `validate:"required,email"`
	To        []string `validate:"required,min=1,dive,email"`
	Subject   string   `validate:"required"`
	PerMinute int      `validate:"gte=0"`
}

// Config selects and configures the sinks.
type Config struct {
	AppName string

	SentryActive bool
	Sentry       SentryConfig

	MailActive bool
	Mail       MailConfig

	DatabaseActive bool
}

// Diagnostics is the configured logging setup.
type Diagnostics struct {
	// Logger writes to the base core and every active sink.
	Logger *zap.Logger
	// Sinks lists the names of the active sinks in attach order.
	Sinks []string

	hub  *sentry.Hub
	mail *mailQueue
	db   *dbSink
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Configure builds the diagnostics logger on top of base. A sink whose
// configuration is invalid, or whose client cannot be created, is skipped
// with a warning; Configure never fails.
func Configure(cfg Config, base *zap.Logger) *Diagnostics {
	if base == nil {
		base = zap.NewNop()
	}
	d := &Diagnostics{}
	errOut := zapcore.Lock(os.Stderr)
	var cores []zapcore.Core

	if cfg.SentryActive {
		if core, hub, err := newSentryCore(cfg.Sentry); err != nil {
			base.Warn("sentry log sink disabled", zap.Error(err))
		} else {
			cores = append(cores, core)
			d.hub = hub
			d.Sinks = append(d.Sinks, SinkSentry)
		}
	}

	if cfg.MailActive {
		if err := validate.Struct(cfg.Mail); err != nil {
			base.Warn("mail log sink disabled: invalid configuration", zap.Error(err))
		} else {
			q := newMailQueue(cfg.AppName, cfg.Mail, newSMTPSender(cfg.Mail, base), errOut)
			cores = append(cores, &mailCore{LevelEnabler: zapcore.ErrorLevel, q: q})
			d.mail = q
			d.Sinks = append(d.Sinks, SinkMail)
		}
	}

	if cfg.DatabaseActive {
		d.db = &dbSink{}
		cores = append(cores, &dbCore{LevelEnabler: zapcore.ErrorLevel, sink: d.db})
		d.Sinks = append(d.Sinks, SinkDatabase)
	}

	d.Logger = tee(base, cores...)
	base.Info("diagnostic sinks configured", zap.Strings("sinks", d.Sinks))
	return d
}

func tee(base *zap.Logger, sinks ...zapcore.Core) *zap.Logger {
	if len(sinks) == 0 {
		return base
	}
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(append([]zapcore.Core{c}, sinks...)...)
	}))
}

// AttachDatabase points the database sink at db. Until it is called, the
// sink drops records. It is a no-op when the sink is inactive.
func (d *Diagnostics) AttachDatabase(db *mongo.Database) {
	if d.db != nil {
		d.db.attach(db)
	}
}

// SentryHub returns the hub of the Sentry sink, or nil when inactive.
func (d *Diagnostics) SentryHub() *sentry.Hub {
	return d.hub
}

// Close flushes Sentry and drains the mail queue.
func (d *Diagnostics) Close(ctx context.Context) {
	_ = d.Logger.Sync()
	if d.hub != nil {
		timeout := 2 * time.Second
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		d.hub.Flush(timeout)
	}
	if d.mail != nil {
		d.mail.close(ctx)
	}
}

// encodeFields flattens zap fields into a plain map.
func encodeFields(groups ...[]zapcore.Field) map[string]any {
	enc := zapcore.NewMapObjectEncoder()
	for _, fields := range groups {
		for _, f := range fields {
			f.AddTo(enc)
		}
	}
	return enc.Fields
}

func withFields(existing, more []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, 0, len(existing)+len(more))
	out = append(out, existing...)
	return append(out, more...)
}
