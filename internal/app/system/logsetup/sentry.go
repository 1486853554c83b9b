package logsetup

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

func newSentryCore(cfg SentryConfig) (zapcore.Core, *sentry.Hub, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, nil, err
	}
	// sentryhttp clones the current hub per request.
	sentry.CurrentHub().BindClient(client)
	hub := sentry.CurrentHub()
	return &sentryCore{LevelEnabler: zapcore.ErrorLevel, hub: hub}, hub, nil
}

// sentryCore forwards entries to Sentry as events.
type sentryCore struct {
	zapcore.LevelEnabler
	hub    *sentry.Hub
	fields []zapcore.Field
}

func (c *sentryCore) With(fields []zapcore.Field) zapcore.Core {
	return &sentryCore{LevelEnabler: c.LevelEnabler, hub: c.hub, fields: withFields(c.fields, fields)}
}

func (c *sentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *sentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	event := sentry.NewEvent()
	event.Level = sentryLevel(ent.Level)
	event.Message = ent.Message
	event.Logger = ent.LoggerName
	event.Timestamp = ent.Time
	event.Extra = encodeFields(c.fields, fields)
	if ent.Caller.Defined {
		event.Extra["caller"] = ent.Caller.TrimmedPath()
	}
	if ent.Stack != "" {
		event.Extra["stack"] = ent.Stack
	}
	c.hub.CaptureEvent(event)
	return nil
}

func (c *sentryCore) Sync() error {
	c.hub.Flush(2 * time.Second)
	return nil
}

func sentryLevel(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}
