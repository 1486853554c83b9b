package logsetup

import (
	"context"
	"sync/atomic"
	"time"

	logstore "github.com/dalemusser/strataboot/internal/app/store/logs"
	"github.com/dalemusser/strataboot/internal/app/system/metrics"
	"github.com/dalemusser/strataboot/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

const dbWriteTimeout = 2 * time.Second

// recordWriter is the part of logstore.Store the sink uses.
type recordWriter interface {
	Insert(ctx context.Context, rec models.LogRecord) error
}

type dbSink struct {
	w atomic.Pointer[recordWriter]
}

func (s *dbSink) attach(db *mongo.Database) {
	s.set(logstore.New(db))
}

func (s *dbSink) set(w recordWriter) {
	s.w.Store(&w)
}

// dbCore stores entries in the logs collection. Write errors are returned
// so zap reports them on its error output.
type dbCore struct {
	zapcore.LevelEnabler
	sink   *dbSink
	fields []zapcore.Field
}

func (c *dbCore) With(fields []zapcore.Field) zapcore.Core {
	return &dbCore{LevelEnabler: c.LevelEnabler, sink: c.sink, fields: withFields(c.fields, fields)}
}

func (c *dbCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *dbCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	w := c.sink.w.Load()
	if w == nil {
		metrics.RecordSinkDrop(SinkDatabase)
		return nil
	}
	rec := models.LogRecord{
		Level:     ent.Level.String(),
		Logger:    ent.LoggerName,
		Message:   ent.Message,
		Stack:     ent.Stack,
		Fields:    encodeFields(c.fields, fields),
		CreatedAt: ent.Time,
	}
	if ent.Caller.Defined {
		rec.Caller = ent.Caller.TrimmedPath()
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbWriteTimeout)
	defer cancel()
	return (*w).Insert(ctx, rec)
}

func (c *dbCore) Sync() error { return nil }
