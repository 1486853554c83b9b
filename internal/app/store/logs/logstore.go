// internal/app/store/logs/logstore.go
package logstore

import (
	"context"
	"time"

	"github.com/dalemusser/strataboot/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the name of the logs collection.
const Collection = "logs"

// Store persists error-level log records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Insert stores rec, assigning an ID and timestamp when unset.
func (s *Store) Insert(ctx context.Context, rec models.LogRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}
