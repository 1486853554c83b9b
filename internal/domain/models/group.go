package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named collection of users.
type Group struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// GroupSeedFields lists the attributes a seed file may set on a group.
func GroupSeedFields() []string {
	return []string{"name", "description"}
}
