package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/strataboot/internal/app/system/auth"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	UUID  string
	Name  string
	Email string
	Roles []string
}

// AdminUser returns a TestUser with the admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		UUID:  uuid.NewString(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Roles: []string{"admin"},
	}
}

// WithUser adds a user to the request context, bypassing the session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		UUID:  user.UUID,
		Name:  user.Name,
		Email: user.Email,
		Roles: user.Roles,
	})
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}
