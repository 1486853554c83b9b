// Package testutil provides utilities for testing, including database setup and fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultTestDBURI is the MongoDB connection string used when
	// STRATABOOT_TEST_MONGO_URI is not set.
	DefaultTestDBURI = "mongodb://localhost:27017"
	// TestDBName is the database name prefix used for tests.
	TestDBName = "strataboot_test"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// TestDBURI returns the MongoDB URI for tests.
func TestDBURI() string {
	if uri := os.Getenv("STRATABOOT_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return DefaultTestDBURI
}

// getClient returns a shared MongoDB client for all tests in the package.
func getClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		clientOpts := options.Client().
			ApplyURI(TestDBURI()).
			SetMaxPoolSize(50).
			SetConnectTimeout(3 * time.Second).
			SetServerSelectionTimeout(3 * time.Second)

		client, clientErr = mongo.Connect(ctx, clientOpts)
		if clientErr != nil {
			return
		}
		clientErr = client.Ping(ctx, nil)
	})
	return client, clientErr
}

// SetupTestDB returns an empty database unique to the calling test.
// The test is skipped when no MongoDB server is reachable, and the
// database is dropped when the test completes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	client, err := getClient()
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", TestDBURI(), err)
	}

	dbName := fmt.Sprintf("%s_%s", TestDBName, sanitizeTestName(t.Name()))
	db := client.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("failed to drop test database: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("warning: failed to drop test database on cleanup: %v", err)
		}
	})

	return db
}

// sanitizeTestName converts a test name to a valid database name suffix.
// MongoDB limits database names to 63 characters; the prefix and separator
// take 16, so the suffix is capped at 47.
func sanitizeTestName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	const maxLen = 47
	if len(result) > maxLen {
		result = result[:maxLen]
	}
	return string(result)
}

// TestContext returns a context with a reasonable timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
