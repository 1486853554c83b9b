package seeding

import (
	"context"
	"reflect"
	"sync"
)

// memRepo is an in-memory Repository with exact-match semantics.
type memRepo struct {
	mu     sync.Mutex
	rows   []map[string]any
	failOn func(attrs map[string]any) error
	checks int
}

func (m *memRepo) SeedExists(ctx context.Context, attrs map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	for _, row := range m.rows {
		if matches(row, attrs) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) SeedInsert(ctx context.Context, attrs map[string]any) error {
	if m.failOn != nil {
		if err := m.failOn(attrs); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := make(map[string]any, len(attrs))
	for k, v := range attrs {
		row[k] = v
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memRepo) snapshot() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.rows))
	copy(out, m.rows)
	return out
}

func matches(row, attrs map[string]any) bool {
	for k, v := range attrs {
		got, ok := row[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

func memRegistry() (Registry, map[Kind]*memRepo) {
	repos := map[Kind]*memRepo{
		KindUser:  {},
		KindGroup: {},
		KindRole:  {},
	}
	return Registry{
		KindUser:  {Repo: repos[KindUser], Fields: []string{"uuid", "email", "active", "roles"}},
		KindGroup: {Repo: repos[KindGroup], Fields: []string{"name", "description"}},
		KindRole:  {Repo: repos[KindRole], Fields: []string{"a", "b", "name", "description"}},
	}, repos
}
