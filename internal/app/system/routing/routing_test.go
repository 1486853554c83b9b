package routing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func sampleGroups() []Group {
	return []Group{
		{Name: "home", Mount: func(r chi.Router) {
			r.Get("/", ok)
			r.Get("/time", ok)
		}},
		{Name: "health", Prefix: "/health", Mount: func(r chi.Router) {
			r.Get("/", ok)
			r.Get("/live", ok)
		}},
		{Name: "placeholder"},
		{Name: "login", Mount: func(r chi.Router) {
			r.Get("/login", ok)
			r.Post("/login", ok)
		}},
	}
}

func build(t *testing.T) (*chi.Mux, []string) {
	t.Helper()
	reg, err := NewRegistry(sampleGroups()...)
	require.NoError(t, err)
	r := chi.NewRouter()
	skipped := reg.MountAll(r)
	return r, skipped
}

func TestRegistry_DeterministicTable(t *testing.T) {
	r1, _ := build(t)
	r2, _ := build(t)

	t1, err := Table(r1)
	require.NoError(t, err)
	t2, err := Table(r2)
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	assert.Contains(t, t1, Route{Method: http.MethodGet, Pattern: "/time"})
	assert.Contains(t, t1, Route{Method: http.MethodGet, Pattern: "/health/live"})
}

func TestRegistry_SkipsGroupsWithoutMount(t *testing.T) {
	_, skipped := build(t)
	assert.Equal(t, []string{"placeholder"}, skipped)
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(Group{Name: "home"}, Group{Name: "home"})
	var dup *DuplicateGroupError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "home", dup.Name)
}

func TestRegistry_OrderAndServe(t *testing.T) {
	reg, err := NewRegistry(sampleGroups()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "health", "placeholder", "login"}, reg.Names())

	r := chi.NewRouter()
	reg.MountAll(r)
	for _, path := range []string{"/", "/time", "/health/", "/login"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
