// Package storeutil holds query helpers shared by the MongoDB stores.
package storeutil

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MatchAll returns an equality filter on every key/value of attrs.
// Slice values match only an identical array. Nested maps become bson.D
// sorted by key, since MongoDB compares embedded documents field by field
// in order.
func MatchAll(attrs map[string]any) bson.M {
	f := make(bson.M, len(attrs))
	for k, v := range attrs {
		f[k] = canonical(v)
	}
	return f
}

func canonical(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(bson.D, 0, len(keys))
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: canonical(t[k])})
		}
		return d
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = canonical(e)
		}
		return out
	default:
		return v
	}
}

// Exists reports whether c holds at least one document matching filter.
func Exists(ctx context.Context, c *mongo.Collection, filter any) (bool, error) {
	n, err := c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Document copies attrs into a fresh document so callers can add
// bookkeeping fields without touching the caller's map. Values are stored in
// the same form MatchAll queries for.
func Document(attrs map[string]any) bson.M {
	return MatchAll(attrs)
}
