package seeding

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/dalemusser/strataboot/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// FirstRequest runs a one-shot hook before the first request is served.
// Concurrent first requests wait for the same run; every later request
// passes straight through.
type FirstRequest struct {
	run  func(ctx context.Context)
	once sync.Once
	done atomic.Bool
}

// NewFirstRequest creates a gate around run.
func NewFirstRequest(run func(ctx context.Context)) *FirstRequest {
	return &FirstRequest{run: run}
}

// Done reports whether the hook has already fired.
func (g *FirstRequest) Done() bool {
	return g.done.Load()
}

// Fire runs the hook if it has not run yet.
func (g *FirstRequest) Fire(ctx context.Context) {
	if g.done.Load() {
		return
	}
	g.once.Do(func() {
		defer g.done.Store(true)
		if g.run != nil {
			// The hook outlives a cancelled first request.
			g.run(context.WithoutCancel(ctx))
		}
	})
}

// Middleware fires the hook ahead of the first request.
func (g *FirstRequest) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.Fire(r.Context())
		next.ServeHTTP(w, r)
	})
}

// SeedHook returns the hook the gate runs: load the seed file and seed it,
// or nothing when seeding is disabled.
func SeedHook(enabled bool, path string, s *Seeder, logger *zap.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		if !enabled {
			logger.Debug("default-data seeding disabled")
			return
		}
		spec := LoadSpec(path, logger)
		if spec.Empty() {
			return
		}
		ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "seed default data")
		defer cancel()
		s.Run(ctx, spec)
	}
}
