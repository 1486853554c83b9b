package seeding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSeeder_Idempotent(t *testing.T) {
	reg, repos := memRegistry()
	s := New(reg, nil, zap.NewNop())
	spec := Spec{Entries: []Entry{
		{Type: "Role", Candidates: []Attrs{{"name": "admin"}, {"name": "user"}}},
		{Type: "Group", Candidates: []Attrs{{"name": "staff", "description": "Everyone"}}},
		{Type: "User", Candidates: []Attrs{{"email": "a@example.com", "roles": []any{"admin"}}}},
	}}

	first := s.Run(context.Background(), spec)
	assert.Equal(t, 4, first.Inserted)
	snapshot := map[Kind][]map[string]any{}
	for k, r := range repos {
		snapshot[k] = r.snapshot()
	}

	for i := 0; i < 3; i++ {
		res := s.Run(context.Background(), spec)
		assert.Equal(t, 0, res.Inserted, "run %d inserted rows", i+2)
		assert.Equal(t, 4, res.Skipped)
	}
	for k, r := range repos {
		assert.Equal(t, snapshot[k], r.snapshot(), "kind %v changed after re-runs", k)
	}
}

func TestSeeder_ExactMatchSkip(t *testing.T) {
	reg, repos := memRegistry()
	role := repos[KindRole]
	role.rows = []map[string]any{{"a": 1, "b": 2}}
	s := New(reg, nil, zap.NewNop())

	res := s.Run(context.Background(), Spec{Entries: []Entry{{Type: "Role", Candidates: []Attrs{{"a": 1, "b": 2}}}}})
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, role.count())

	res = s.Run(context.Background(), Spec{Entries: []Entry{{Type: "Role", Candidates: []Attrs{{"a": 1, "b": 3}}}}})
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, role.count())
}

func TestSeeder_PartialFailureIsolation(t *testing.T) {
	reg, repos := memRegistry()
	boom := errors.New("constraint violated")
	repos[KindRole].failOn = func(attrs map[string]any) error {
		if attrs["name"] == "two" {
			return boom
		}
		return nil
	}

	core, logs := observer.New(zap.ErrorLevel)
	s := New(reg, nil, zap.New(core))

	var res Result
	require.NotPanics(t, func() {
		res = s.Run(context.Background(), Spec{Entries: []Entry{{Type: "Role", Candidates: []Attrs{
			{"name": "one"}, {"name": "two"}, {"name": "three"},
		}}}})
	})

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Failed)
	names := []any{}
	for _, row := range repos[KindRole].snapshot() {
		names = append(names, row["name"])
	}
	assert.Equal(t, []any{"one", "three"}, names)

	failed := logs.FilterMessage("seed row insert failed; rolled back").All()
	require.Len(t, failed, 1)
	assert.Equal(t, boom.Error(), failed[0].ContextMap()["error"])
}

func TestSeeder_FailedTransactionRollsBack(t *testing.T) {
	reg, repos := memRegistry()
	var rolledBack int
	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		before := repos[KindGroup].count()
		err := fn(ctx)
		if err != nil {
			rolledBack++
			repos[KindGroup].rows = repos[KindGroup].rows[:before]
		}
		return err
	}
	repos[KindGroup].failOn = func(map[string]any) error { return errors.New("write conflict") }

	res := New(reg, tx, zap.NewNop()).Run(context.Background(), Spec{Entries: []Entry{{Type: "Group", Candidates: []Attrs{{"name": "x"}}}}})
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, rolledBack)
	assert.Equal(t, 0, repos[KindGroup].count())
}

func TestSeeder_UnknownEntityType(t *testing.T) {
	reg, repos := memRegistry()
	core, logs := observer.New(zap.ErrorLevel)
	s := New(reg, nil, zap.New(core))

	res := s.Run(context.Background(), Spec{Entries: []Entry{{Type: "Widget", Candidates: []Attrs{{"name": "w"}}}}})

	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []string{"Widget"}, res.UnknownTypes)
	assert.Equal(t, 0, logs.Len(), "unknown type must not log errors")
	for _, r := range repos {
		assert.Equal(t, 0, r.count())
	}
}

func TestSeeder_InvalidCandidates(t *testing.T) {
	reg, repos := memRegistry()
	core, logs := observer.New(zap.WarnLevel)
	s := New(reg, nil, zap.New(core))

	res := s.Run(context.Background(), Spec{Entries: []Entry{{Type: "Group", Candidates: []Attrs{
		{"name": "ok"},
		{"name": "bad", "colour": "red"},
		{},
	}}}})

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Invalid)
	assert.Equal(t, 1, repos[KindGroup].count())
	assert.Equal(t, 1, logs.FilterMessage("seed row has unknown attributes; skipping").Len())
}

func TestSeeder_RaceInsideTransaction(t *testing.T) {
	reg, repos := memRegistry()
	role := repos[KindRole]
	// Another process inserts the row between the first check and the transaction.
	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		role.rows = append(role.rows, map[string]any{"name": "admin"})
		return fn(ctx)
	}

	res := New(reg, tx, zap.NewNop()).Run(context.Background(), Spec{Entries: []Entry{{Type: "Role", Candidates: []Attrs{{"name": "admin"}}}}})
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, role.count())
}

func TestSeeder_StopsOnCancelledContext(t *testing.T) {
	reg, repos := memRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(reg, nil, zap.NewNop()).Run(ctx, Spec{Entries: []Entry{{Type: "Role", Candidates: []Attrs{{"name": "admin"}}}}})
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 0, repos[KindRole].count())
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindUser, KindGroup, KindRole} {
		got, ok := ParseKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("user")
	assert.False(t, ok, "names are case-sensitive")
	assert.Equal(t, "Unknown", Kind(99).String())
}
