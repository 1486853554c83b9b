package groupstore

import (
	"testing"

	"github.com/dalemusser/strataboot/internal/domain/models"
	"github.com/dalemusser/strataboot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_Seed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	attrs := map[string]any{"name": "staff", "description": "Everyone"}
	require.NoError(t, store.SeedInsert(ctx, attrs))

	ok, err := store.SeedExists(ctx, attrs)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SeedExists(ctx, map[string]any{"name": "staff", "description": "Other"})
	require.NoError(t, err)
	assert.False(t, ok)

	var g models.Group
	require.NoError(t, db.Collection(Collection).FindOne(ctx, bson.M{"name": "staff"}).Decode(&g))
	assert.Equal(t, "Everyone", g.Description)
	assert.False(t, g.CreatedAt.IsZero())
}
