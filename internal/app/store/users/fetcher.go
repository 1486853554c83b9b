// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/strataboot/internal/app/system/auth"
	"github.com/dalemusser/strataboot/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users  *Store
	logger *zap.Logger
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		users:  New(db),
		logger: logger,
	}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// inactive, or if any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.users.GetByID(ctx, oid)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			f.logger.Warn("fetch session user failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	if !u.Active {
		return nil
	}

	name := u.FullName
	if name == "" {
		name = u.Email
	}
	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		UUID:  u.UUID,
		Name:  name,
		Email: u.Email,
		Roles: u.Roles,
	}
}
