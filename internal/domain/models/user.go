package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - UUID / uuid: The stable public identifier reported in logs and error reports

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record the session layer authenticates against.
//
// Seeded users are stored with exactly the attribute values given in the
// seed file (no case folding or trimming), so that re-running the seeder
// matches them again.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UUID         string             `bson:"uuid" json:"uuid"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username,omitempty" json:"username,omitempty"`
	FullName     string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)
	Active       bool               `bson:"active" json:"active"`
	Roles        []string           `bson:"roles,omitempty" json:"roles,omitempty"`   // role names
	Groups       []string           `bson:"groups,omitempty" json:"groups,omitempty"` // group names

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserSeedFields lists the attributes a seed file may set on a user.
func UserSeedFields() []string {
	return []string{"uuid", "email", "username", "full_name", "password_hash", "active", "roles", "groups"}
}
