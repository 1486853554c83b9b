package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogRecord is one error-level log entry persisted by the database sink.
type LogRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Level     string             `bson:"level" json:"level"`
	Logger    string             `bson:"logger,omitempty" json:"logger,omitempty"`
	Message   string             `bson:"message" json:"message"`
	Caller    string             `bson:"caller,omitempty" json:"caller,omitempty"`
	Stack     string             `bson:"stack,omitempty" json:"stack,omitempty"`
	Fields    map[string]any     `bson:"fields,omitempty" json:"fields,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
