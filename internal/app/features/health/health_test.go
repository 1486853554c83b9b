package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/strataboot/internal/testutil"
	"go.uber.org/zap"
)

func up() Pinger   { return PingerFunc(func(context.Context) error { return nil }) }
func down() Pinger { return PingerFunc(func(context.Context) error { return errors.New("no route to host") }) }

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, resp
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		path       string
		wantCode   int
		wantStatus string
	}{
		{"check up", up(), "/", http.StatusOK, "ok"},
		{"check down", down(), "/", http.StatusServiceUnavailable, "degraded"},
		{"ready up", up(), "/ready", http.StatusOK, "ready"},
		{"ready down", down(), "/ready", http.StatusServiceUnavailable, "not ready"},
		{"live ignores db", down(), "/live", http.StatusOK, "alive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serve(t, NewHandler(tt.pinger, zap.NewNop()), tt.path)
			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestCheck_ReportsService(t *testing.T) {
	_, resp := serve(t, NewHandler(down(), zap.NewNop()), "/")
	if resp.Services["mongodb"] != "unavailable" {
		t.Errorf("mongodb = %q, want %q", resp.Services["mongodb"], "unavailable")
	}
}

func TestMongoPinger(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec, resp := serve(t, NewHandler(MongoPinger(db.Client()), zap.NewNop()), "/")
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp.Services["mongodb"] != "ok" {
		t.Errorf("mongodb = %q, want %q", resp.Services["mongodb"], "ok")
	}
}
