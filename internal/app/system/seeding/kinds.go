// Package seeding inserts the default rows described by a seed file,
// once per process and without ever duplicating a row.
package seeding

import (
	"context"

	groupstore "github.com/dalemusser/strataboot/internal/app/store/groups"
	rolestore "github.com/dalemusser/strataboot/internal/app/store/roles"
	userstore "github.com/dalemusser/strataboot/internal/app/store/users"
	"github.com/dalemusser/strataboot/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind identifies a seedable entity type.
type Kind int

const (
	KindUser Kind = iota + 1
	KindGroup
	KindRole
)

var kindNames = map[Kind]string{
	KindUser:  "User",
	KindGroup: "Group",
	KindRole:  "Role",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// ParseKind resolves an entity-type name from a seed file. Names are
// matched exactly.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Repository is the query/insert pair the seeder needs for one kind.
type Repository interface {
	// SeedExists reports whether a row equal to attrs on every key exists.
	SeedExists(ctx context.Context, attrs map[string]any) (bool, error)
	// SeedInsert persists a new row carrying exactly attrs.
	SeedInsert(ctx context.Context, attrs map[string]any) error
}

// Binding pairs a repository with the attribute names a seed row may set.
type Binding struct {
	Repo   Repository
	Fields []string
}

func (b Binding) allows(field string) bool {
	for _, f := range b.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Registry is the closed mapping from Kind to its Binding.
type Registry map[Kind]Binding

// MongoRegistry binds every kind to its MongoDB store.
func MongoRegistry(db *mongo.Database) Registry {
	return Registry{
		KindUser:  {Repo: userstore.New(db), Fields: models.UserSeedFields()},
		KindGroup: {Repo: groupstore.New(db), Fields: models.GroupSeedFields()},
		KindRole:  {Repo: rolestore.New(db), Fields: models.RoleSeedFields()},
	}
}
