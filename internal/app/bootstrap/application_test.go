package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/strataboot/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const seedYAML = `db-defaults:
  Role:
    - name: admin
      description: Administrators
    - name: member
  Group:
    - name: staff
  Widget:
    - name: ignored
`

func testAppConfig(t *testing.T, dbName string) AppConfig {
	t.Helper()
	seedFile := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(seedYAML), 0o600))

	p, err := ResolveProfile("Testing")
	require.NoError(t, err)
	return AppConfig{
		Profile:              p.Name,
		MongoURI:             testutil.TestDBURI(),
		MongoDatabase:        dbName,
		SessionKey:           "0123456789abcdef0123456789abcdef-strong",
		SessionMaxAge:        time.Hour,
		CSRFKey:              "fedcba9876543210fedcba9876543210",
		SeedActive:           true,
		SeedFile:             seedFile,
		MigrationsCollection: "schema_migrations",
		SiteName:             "Strataboot Test",
		MetricsEnabled:       true,
	}
}

func newTestApp(t *testing.T, cfg AppConfig) *Application {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := New(ctx, Options{
		Logger:        zap.NewNop(),
		CoreConfig:    &config.CoreConfig{Env: "test"},
		Config:        &cfg,
		SkipTemplates: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func get(a *Application, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNew_ComposesApplication(t *testing.T) {
	db := testutil.SetupTestDB(t)
	a := newTestApp(t, testAppConfig(t, db.Name()))

	assert.Equal(t, []string{"home", "health", "login", "metrics"}, a.Routes.Names())
	assert.NotNil(t, a.Security)
	assert.NotNil(t, a.Security.Datastore.Users)
	assert.NotNil(t, a.Migrator)
	assert.False(t, a.Seed.Done(), "seeding must wait for the first request")

	rec := get(a, "/time")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	_, isFloat := body["time"].(float64)
	assert.True(t, isFloat)
}

func TestNew_SeedsOnFirstRequestOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testAppConfig(t, db.Name())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := newTestApp(t, cfg)
	get(a, "/health/live")
	require.True(t, a.Seed.Done())

	roles, err := db.Collection("roles").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), roles)
	groups, err := db.Collection("groups").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), groups)

	// A second process start with the same file adds nothing.
	b := newTestApp(t, cfg)
	get(b, "/health/live")
	get(b, "/health/live")

	roles, err = db.Collection("roles").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), roles)
}

func TestNew_InvalidSinkConfigIsNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testAppConfig(t, db.Name())
	cfg.SeedActive = false
	cfg.SentryActive = true
	cfg.SentryDSN = "not a dsn"
	cfg.MailActive = true
	cfg.MailHost = ""

	a := newTestApp(t, cfg)
	assert.Empty(t, a.Diagnostics.Sinks)
}

func TestNew_InvalidMongoURIIsFatal(t *testing.T) {
	cfg := AppConfig{MongoURI: "localhost", MongoDatabase: "x"}
	a, err := New(context.Background(), Options{
		Logger:     zap.NewNop(),
		CoreConfig: &config.CoreConfig{},
		Config:     &cfg,
	})
	assert.Nil(t, a)
	assert.Error(t, err)
}
