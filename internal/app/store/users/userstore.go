// internal/app/store/users/userstore.go
package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - UUID / uuid: The stable public identifier reported in logs and error reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/strataboot/internal/app/store/storeutil"
	"github.com/dalemusser/strataboot/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the name of the users collection.
const Collection = "users"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by exact email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": strings.TrimSpace(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ErrDuplicate is returned when a user with the same email or uuid already exists.
var ErrDuplicate = errors.New("a user with this email or uuid already exists")

// SeedExists reports whether a user matching every attribute exists.
func (s *Store) SeedExists(ctx context.Context, attrs map[string]any) (bool, error) {
	return storeutil.Exists(ctx, s.c, storeutil.MatchAll(attrs))
}

// SeedInsert stores a user with exactly the given attribute values. A
// missing uuid is generated and a missing active flag defaults to true.
func (s *Store) SeedInsert(ctx context.Context, attrs map[string]any) error {
	doc := storeutil.Document(attrs)
	if _, ok := doc["uuid"]; !ok {
		doc["uuid"] = uuid.NewString()
	}
	if _, ok := doc["active"]; !ok {
		doc["active"] = true
	}
	now := time.Now()
	doc["created_at"] = now
	doc["updated_at"] = now

	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
