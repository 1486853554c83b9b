// Package schema creates the collections and indexes the application
// depends on. Existing collections and indexes are never dropped or
// modified, so EnsureAll is safe on every startup.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection describes one collection: its name, an optional JSON-Schema
// validator applied only on creation, and the indexes it should carry.
type Collection struct {
	Name      string
	Validator bson.M
	Indexes   []mongo.IndexModel
}

// Collections returns the schema the application needs, in creation order.
func Collections() []Collection {
	return []Collection{
		{
			Name:      "users",
			Validator: usersSchema(),
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "uuid", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_users_uuid")},
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_users_email")},
				{Keys: bson.D{{Key: "roles", Value: 1}}, Options: options.Index().SetName("idx_users_roles")},
			},
		},
		{
			Name: "groups",
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_groups_name")},
			},
		},
		{
			Name: "roles",
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_roles_name")},
			},
		},
		{
			Name: "logs",
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_logs_created_desc")},
			},
		},
	}
}

/*
EnsureAll creates every missing collection and index. Problems are
aggregated so all of them are visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, c := range Collections() {
		if err := ensureCollection(ctx, db, c, logger); err != nil {
			problems = append(problems, c.Name+": "+err.Error())
			continue
		}
		if err := ensureIndexes(ctx, db.Collection(c.Name), c.Indexes, logger); err != nil {
			problems = append(problems, c.Name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------------- collections ---------------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, c Collection, logger *zap.Logger) error {
	exists, listErr := collectionExists(ctx, db, c.Name)
	if listErr == nil && exists {
		logger.Debug("collection exists", zap.String("collection", c.Name))
		return nil
	}

	opts := options.CreateCollection()
	if c.Validator != nil {
		opts.SetValidator(c.Validator).
			SetValidationLevel("moderate").
			SetValidationAction("error")
	}
	err := db.CreateCollection(ctx, c.Name, opts)
	if err != nil && c.Validator != nil && isNotImplemented(err) {
		// DocumentDB and some hosted servers reject validators.
		logger.Info("validator skipped (unsupported)", zap.String("collection", c.Name))
		err = db.CreateCollection(ctx, c.Name)
	}
	if err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		return err
	}
	logger.Info("created collection", zap.String("collection", c.Name))
	return nil
}

/* ------------------------------ indexes ------------------------------ */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func existingIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexes creates each wanted index whose key pattern is not present.
// An index with the same keys but different options is left in place and
// reported as a warning.
func ensureIndexes(ctx context.Context, coll *mongo.Collection, want []mongo.IndexModel, logger *zap.Logger) error {
	have, err := existingIndexes(ctx, coll)
	if err != nil {
		return err
	}

	var errs []string
	for _, m := range want {
		sig := keySig(m.Keys.(bson.D))
		wantUnique := m.Options != nil && m.Options.Unique != nil && *m.Options.Unique

		if ex, ok := have[sig]; ok {
			if (ex.Unique != nil && *ex.Unique) != wantUnique {
				logger.Warn("index exists with different options; leaving unchanged",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
			}
			continue
		}

		name, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && wantUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), sig, err))
			}
			continue
		}
		logger.Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", wantUnique))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* ---------------------------- error helpers ---------------------------- */

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 || ce.Code == 59) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported") || strings.Contains(s, "no such command")
}

/* ---------------------------- JSON-Schema docs ---------------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"uuid", "email"},
			"properties": bson.M{
				"uuid":   bson.M{"bsonType": "string", "minLength": 1},
				"email":  bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"active": bson.M{"bsonType": "bool"},
				"roles":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"groups": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}
