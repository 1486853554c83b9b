// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/strataboot/internal/app/store/storeutil"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the name of the groups collection.
const Collection = "groups"

// ErrDuplicate is returned when a group with the same name already exists.
var ErrDuplicate = errors.New("a group with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// SeedExists reports whether a group matching every attribute exists.
func (s *Store) SeedExists(ctx context.Context, attrs map[string]any) (bool, error) {
	return storeutil.Exists(ctx, s.c, storeutil.MatchAll(attrs))
}

// SeedInsert stores a group with exactly the given attribute values.
func (s *Store) SeedInsert(ctx context.Context, attrs map[string]any) error {
	doc := storeutil.Document(attrs)
	doc["created_at"] = time.Now()
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
