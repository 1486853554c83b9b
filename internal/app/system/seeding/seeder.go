package seeding

import (
	"context"
	"errors"
	"sort"

	"github.com/dalemusser/strataboot/internal/app/system/metrics"
	"github.com/dalemusser/strataboot/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TxFunc runs fn as one commit unit, rolling back when fn fails.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// MongoTx returns a TxFunc backed by a MongoDB transaction.
func MongoTx(db *mongo.Database, logger *zap.Logger) TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, logger, fn)
	}
}

// Outcomes recorded per candidate.
const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

// Result summarises one seeding pass.
type Result struct {
	Inserted     int
	Skipped      int
	Invalid      int
	Failed       int
	UnknownTypes []string
}

// errPresent aborts a row transaction whose row appeared after the first check.
var errPresent = errors.New("seed row already present")

// Seeder inserts missing seed rows.
type Seeder struct {
	registry Registry
	tx       TxFunc
	logger   *zap.Logger
}

// New creates a Seeder. A nil tx runs each insert without a transaction.
func New(registry Registry, tx TxFunc, logger *zap.Logger) *Seeder {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{registry: registry, tx: tx, logger: logger}
}

// Run makes one pass over spec. Per-row failures are logged and counted,
// never returned; the pass always runs to the end unless ctx is cancelled.
func (s *Seeder) Run(ctx context.Context, spec Spec) Result {
	var res Result
	for _, entry := range spec.Entries {
		kind, ok := ParseKind(entry.Type)
		binding, bound := s.registry[kind]
		if !ok || !bound {
			s.logger.Warn("seed entity type unknown; skipping", zap.String("type", entry.Type))
			res.UnknownTypes = append(res.UnknownTypes, entry.Type)
			continue
		}
		for i, attrs := range entry.Candidates {
			if ctx.Err() != nil {
				s.logger.Warn("seeding cancelled", zap.Error(ctx.Err()))
				return res
			}
			outcome := s.seedRow(ctx, kind, binding, i, attrs)
			metrics.RecordSeedRow(kind.String(), outcome)
			switch outcome {
			case OutcomeInserted:
				res.Inserted++
			case OutcomeSkipped:
				res.Skipped++
			case OutcomeInvalid:
				res.Invalid++
			case OutcomeFailed:
				res.Failed++
			}
		}
	}
	s.logger.Info("seeding pass complete",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("invalid", res.Invalid),
		zap.Int("failed", res.Failed),
		zap.Strings("unknown_types", res.UnknownTypes))
	return res
}

func (s *Seeder) seedRow(ctx context.Context, kind Kind, b Binding, index int, attrs Attrs) string {
	log := s.logger.With(zap.Stringer("kind", kind), zap.Int("index", index))

	if len(attrs) == 0 {
		log.Warn("seed row has no attributes; skipping")
		return OutcomeInvalid
	}
	if bad := unknownFields(b, attrs); len(bad) > 0 {
		log.Warn("seed row has unknown attributes; skipping", zap.Strings("attributes", bad))
		return OutcomeInvalid
	}

	exists, err := b.Repo.SeedExists(ctx, attrs)
	if err != nil {
		log.Error("seed row lookup failed", zap.Error(err))
		return OutcomeFailed
	}
	if exists {
		return OutcomeSkipped
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		// Re-check inside the transaction; another process may have won.
		exists, err := b.Repo.SeedExists(ctx, attrs)
		if err != nil {
			return err
		}
		if exists {
			return errPresent
		}
		return b.Repo.SeedInsert(ctx, attrs)
	})
	switch {
	case err == nil:
		log.Debug("seed row inserted")
		return OutcomeInserted
	case errors.Is(err, errPresent):
		return OutcomeSkipped
	default:
		log.Error("seed row insert failed; rolled back", zap.Error(err))
		return OutcomeFailed
	}
}

func unknownFields(b Binding, attrs Attrs) []string {
	var bad []string
	for k := range attrs {
		if !b.allows(k) {
			bad = append(bad, k)
		}
	}
	sort.Strings(bad)
	return bad
}
