package logsetup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/strataboot/internal/app/system/mailer"
	"github.com/dalemusser/strataboot/internal/domain/models"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func validMail() MailConfig {
	return MailConfig{
		Host:    "smtp.example.com",
		Port:    587,
		From:    "app@example.com",
		To:      []string{"ops@example.com"},
		Subject: "Application error",
	}
}

func TestConfigure_NoSinks(t *testing.T) {
	base := zap.NewNop()
	d := Configure(Config{}, base)
	assert.Same(t, base, d.Logger)
	assert.Empty(t, d.Sinks)
	assert.Nil(t, d.SentryHub())
	d.Close(context.Background())
}

func TestConfigure_InvalidSinkConfigIsSkipped(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		warn string
	}{
		{
			name: "mail without host",
			cfg:  Config{MailActive: true, Mail: MailConfig{Port: 25, From: "a@example.com", To: []string{"b@example.com"}, Subject: "s"}},
			warn: "mail log sink disabled: invalid configuration",
		},
		{
			name: "mail with bad recipient",
			cfg: func() Config {
				m := validMail()
				m.To = []string{"not-an-address"}
				return Config{MailActive: true, Mail: m}
			}(),
			warn: "mail log sink disabled: invalid configuration",
		},
		{
			name: "mail with username but no password",
			cfg: func() Config {
				m := validMail()
				m.Username = "user"
				return Config{MailActive: true, Mail: m}
			}(),
			warn: "mail log sink disabled: invalid configuration",
		},
		{
			name: "sentry without dsn",
			cfg:  Config{SentryActive: true},
			warn: "sentry log sink disabled",
		},
		{
			name: "sentry sample rate out of range",
			cfg:  Config{SentryActive: true, Sentry: SentryConfig{DSN: "https://key@o0.ingest.sentry.io/1", TracesSampleRate: 2}},
			warn: "sentry log sink disabled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			var d *Diagnostics
			require.NotPanics(t, func() { d = Configure(tt.cfg, zap.New(core)) })
			assert.Empty(t, d.Sinks)
			assert.Equal(t, 1, logs.FilterMessage(tt.warn).Len())
		})
	}
}

func TestConfigure_ValidSinks(t *testing.T) {
	d := Configure(Config{MailActive: true, Mail: validMail(), DatabaseActive: true}, zap.NewNop())
	defer d.Close(context.Background())
	assert.Equal(t, []string{SinkMail, SinkDatabase}, d.Sinks)
}

/* ------------------------------- mail ------------------------------- */

type fakeSender struct {
	mu    sync.Mutex
	sent  []mailer.Email
	block chan struct{}
	err   error
}

func (f *fakeSender) Send(e mailer.Email) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Sync() error                 { return nil }

func TestMailCore_SendsErrorsOnly(t *testing.T) {
	sender := &fakeSender{}
	q := newMailQueue("strataboot", validMail(), sender, discard{})
	logger := tee(zap.NewNop(), &mailCore{LevelEnabler: zapcore.ErrorLevel, q: q})

	logger.Warn("just a warning")
	logger.With(zap.String("request_id", "r-9")).Error("database unreachable")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.close(ctx)

	require.Equal(t, 1, sender.count())
	e := sender.sent[0]
	assert.Equal(t, []string{"ops@example.com"}, e.To)
	assert.Equal(t, "Application error", e.Subject)
	assert.Contains(t, e.TextBody, "database unreachable")
	assert.Contains(t, e.TextBody, "request_id: r-9")
	assert.NotEmpty(t, e.HTMLBody)
}

func TestMailCore_FieldsSortedByKey(t *testing.T) {
	sender := &fakeSender{}
	q := newMailQueue("strataboot", validMail(), sender, discard{})
	logger := tee(zap.NewNop(), &mailCore{LevelEnabler: zapcore.ErrorLevel, q: q})

	logger.With(zap.String("zone", "eu")).Error("seed failed",
		zap.String("kind", "User"), zap.Int("attempt", 2), zap.String("path", "/"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.close(ctx)

	require.Equal(t, 1, sender.count())
	assert.Contains(t, sender.sent[0].TextBody, "attempt: 2\nkind: User\npath: /\nzone: eu\n")
}

func TestFormatFields(t *testing.T) {
	fields := map[string]any{"b": 2, "c": "three", "a": true}
	want := "a: true\nb: 2\nc: three\n"
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, formatFields(fields))
	}
	assert.Empty(t, formatFields(nil))
}

func TestMailCore_RateLimited(t *testing.T) {
	sender := &fakeSender{}
	cfg := validMail()
	cfg.PerMinute = 1
	q := newMailQueue("strataboot", cfg, sender, discard{})
	logger := tee(zap.NewNop(), &mailCore{LevelEnabler: zapcore.ErrorLevel, q: q})

	for i := 0; i < 3; i++ {
		logger.Error("flood")
	}
	q.close(context.Background())
	<-q.done

	assert.Equal(t, 1, sender.count())
}

func TestMailQueue_DropsWhenFullOrClosed(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	q := newMailQueue("strataboot", validMail(), sender, discard{})

	accepted := 0
	for i := 0; i < mailQueueSize+10; i++ {
		if q.enqueue(mailer.Email{To: []string{"x@example.com"}}) {
			accepted++
		}
	}
	// One email may be held by the blocked sender, the rest fill the queue.
	assert.LessOrEqual(t, accepted, mailQueueSize+1)
	assert.Less(t, accepted, mailQueueSize+10)

	close(sender.block)
	q.close(context.Background())
	<-q.done
	assert.False(t, q.enqueue(mailer.Email{}), "closed queue must reject")
}

func TestMailQueue_SendErrorDoesNotStopQueue(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp refused")}
	q := newMailQueue("strataboot", validMail(), sender, discard{})
	q.enqueue(mailer.Email{To: []string{"a@example.com"}})
	q.enqueue(mailer.Email{To: []string{"a@example.com"}})
	q.close(context.Background())
	<-q.done
	assert.Equal(t, 2, sender.count())
}

/* ----------------------------- database ----------------------------- */

type fakeWriter struct {
	recs []models.LogRecord
	err  error
}

func (f *fakeWriter) Insert(ctx context.Context, rec models.LogRecord) error {
	f.recs = append(f.recs, rec)
	return f.err
}

func TestDBCore(t *testing.T) {
	sink := &dbSink{}
	logger := tee(zap.NewNop(), &dbCore{LevelEnabler: zapcore.ErrorLevel, sink: sink})

	// Before a database is attached records are dropped.
	logger.Error("too early")

	w := &fakeWriter{}
	sink.set(w)
	logger.Named("seed").Error("insert failed", zap.String("kind", "Role"), zap.Int("index", 2))
	logger.Info("not stored")

	require.Len(t, w.recs, 1)
	rec := w.recs[0]
	assert.Equal(t, "error", rec.Level)
	assert.Equal(t, "seed", rec.Logger)
	assert.Equal(t, "insert failed", rec.Message)
	assert.Equal(t, "Role", rec.Fields["kind"])
	assert.EqualValues(t, 2, rec.Fields["index"])
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestDBCore_WriteErrorGoesToErrorOutput(t *testing.T) {
	sink := &dbSink{}
	sink.set(&fakeWriter{err: errors.New("disk full")})

	out := &captureSyncer{}
	logger := zap.New(&dbCore{LevelEnabler: zapcore.ErrorLevel, sink: sink}, zap.ErrorOutput(out))
	logger.Error("boom")

	assert.Contains(t, out.String(), "disk full")
}

type captureSyncer struct {
	mu  sync.Mutex
	buf []byte
}

func (c *captureSyncer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, p...)
	return len(p), nil
}
func (c *captureSyncer) Sync() error { return nil }
func (c *captureSyncer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.buf)
}

/* ------------------------------ sentry ------------------------------ */

func TestSentryCore_CapturesErrorEvents(t *testing.T) {
	var mu sync.Mutex
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	logger := tee(zap.NewNop(), &sentryCore{LevelEnabler: zapcore.ErrorLevel, hub: hub})
	logger.Warn("ignored")
	logger.With(zap.String("user_uuid", "u-1")).Error("exploded")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "exploded", events[0].Message)
	assert.Equal(t, sentry.LevelError, events[0].Level)
	assert.Equal(t, "u-1", events[0].Extra["user_uuid"])
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelWarning, sentryLevel(zapcore.WarnLevel))
	assert.Equal(t, sentry.LevelFatal, sentryLevel(zapcore.DPanicLevel))
}
