package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role grants permissions to the users that carry it.
type Role struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// RoleAdmin is the role allowed to read operator endpoints such as /metrics.
const RoleAdmin = "admin"

// RoleSeedFields lists the attributes a seed file may set on a role.
func RoleSeedFields() []string {
	return []string{"name", "description"}
}
