// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/strataboot/internal/app/system/jsonutil"
	"github.com/dalemusser/strataboot/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger checks that a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// MongoPinger pings the primary of client.
func MongoPinger(client *mongo.Client) Pinger {
	return PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
}

// Handler provides health check endpoints.
type Handler struct {
	mongo  Pinger
	logger *zap.Logger
}

// NewHandler creates a new health check Handler.
func NewHandler(mongo Pinger, logger *zap.Logger) *Handler {
	return &Handler{mongo: mongo, logger: logger}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with /, /ready and /live mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	Mount(r, h)
	return r
}

// Mount registers the checks on r, relative to wherever r is mounted.
func Mount(r chi.Router, h *Handler) {
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), h.logger, "health ping")
	defer cancel()
	return h.mongo.Ping(ctx)
}

// Check reports per-service status; 503 when any service is down.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: "ok", Services: map[string]string{"mongodb": "ok"}}

	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		jsonutil.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	jsonutil.OK(w, resp)
}

// Ready is the readiness probe.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.OK(w, Response{Status: "ready"})
}

// Live is the liveness probe. It never touches the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: "alive"})
}
