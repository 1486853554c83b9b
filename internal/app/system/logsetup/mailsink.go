package logsetup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/strataboot/internal/app/system/mailer"
	"github.com/dalemusser/strataboot/internal/app/system/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const mailQueueSize = 64

func newSMTPSender(cfg MailConfig, log *zap.Logger) mailer.Sender {
	return mailer.New(mailer.Config{
		Host: cfg.Host,
		Port: cfg.Port,
		User: cfg.Username,
		Pass: cfg.Password,
		From: cfg.From,
	}, log)
}

// mailQueue sends queued error reports from a single goroutine. A full
// queue or an exhausted rate budget drops the record.
type mailQueue struct {
	appName string
	cfg     MailConfig
	sender  mailer.Sender
	errOut  zapcore.WriteSyncer
	limiter *rate.Limiter

	mu     sync.RWMutex
	closed bool
	ch     chan mailer.Email
	done   chan struct{}
}

func newMailQueue(appName string, cfg MailConfig, sender mailer.Sender, errOut zapcore.WriteSyncer) *mailQueue {
	limit := rate.Inf
	burst := 1
	if cfg.PerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.PerMinute))
		burst = cfg.PerMinute
	}
	q := &mailQueue{
		appName: appName,
		cfg:     cfg,
		sender:  sender,
		errOut:  errOut,
		limiter: rate.NewLimiter(limit, burst),
		ch:      make(chan mailer.Email, mailQueueSize),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *mailQueue) run() {
	defer close(q.done)
	for email := range q.ch {
		if !q.limiter.Allow() {
			metrics.RecordSinkDrop(SinkMail)
			continue
		}
		if err := q.sender.Send(email); err != nil {
			fmt.Fprintf(q.errOut, "%s\tmail log sink: %v\n", time.Now().UTC().Format(time.RFC3339), err)
			_ = q.errOut.Sync()
		}
	}
}

func (q *mailQueue) enqueue(email mailer.Email) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- email:
		return true
	default:
		return false
	}
}

// close stops accepting records and waits for queued ones until ctx ends.
func (q *mailQueue) close(ctx context.Context) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
	case <-ctx.Done():
	}
}

// mailCore turns entries into error-report emails.
type mailCore struct {
	zapcore.LevelEnabler
	q      *mailQueue
	fields []zapcore.Field
}

func (c *mailCore) With(fields []zapcore.Field) zapcore.Core {
	return &mailCore{LevelEnabler: c.LevelEnabler, q: c.q, fields: withFields(c.fields, fields)}
}

func (c *mailCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *mailCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	msg := ent.Message
	if extra := encodeFields(c.fields, fields); len(extra) > 0 {
		msg += "\n\n" + formatFields(extra)
	}
	caller := ""
	if ent.Caller.Defined {
		caller = ent.Caller.TrimmedPath()
	}
	text, html := mailer.ErrorReportEmail(mailer.ErrorReportData{
		AppName:  c.q.appName,
		Level:    ent.Level.String(),
		Logger:   ent.LoggerName,
		Message:  msg,
		Caller:   caller,
		Stack:    ent.Stack,
		Time:     ent.Time,
		ReportID: uuid.NewString(),
	})
	email := mailer.Email{
		To:       c.q.cfg.To,
		Subject:  c.q.cfg.Subject,
		TextBody: text,
		HTMLBody: html,
	}
	if !c.q.enqueue(email) {
		metrics.RecordSinkDrop(SinkMail)
	}
	return nil
}

func (c *mailCore) Sync() error { return nil }

// formatFields renders one "key: value" line per field, sorted by key.
func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, fields[k])
	}
	return b.String()
}
