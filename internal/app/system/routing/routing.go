// Package routing holds the ordered registry of route groups mounted on
// the application router.
package routing

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// Group is a named set of routes owned by one feature. Prefix is where the
// group is mounted; an empty or "/" prefix registers the routes directly on
// the parent router.
type Group struct {
	Name   string
	Prefix string
	Mount  func(r chi.Router)
}

// DuplicateGroupError is returned when two groups share a name.
type DuplicateGroupError struct {
	Name string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("route group %q registered twice", e.Name)
}

// Registry is an ordered list of groups. Groups mount in the order added.
type Registry struct {
	groups []Group
	names  map[string]struct{}
}

// NewRegistry returns a registry holding groups, or the first duplicate.
func NewRegistry(groups ...Group) (*Registry, error) {
	reg := &Registry{names: make(map[string]struct{}, len(groups))}
	for _, g := range groups {
		if err := reg.Add(g); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Add appends g. Names must be unique.
func (reg *Registry) Add(g Group) error {
	if _, dup := reg.names[g.Name]; dup {
		return &DuplicateGroupError{Name: g.Name}
	}
	reg.names[g.Name] = struct{}{}
	reg.groups = append(reg.groups, g)
	return nil
}

// Names returns the group names in mount order.
func (reg *Registry) Names() []string {
	out := make([]string, len(reg.groups))
	for i, g := range reg.groups {
		out[i] = g.Name
	}
	return out
}

// MountAll mounts every group on r in order. Groups without a Mount
// function are skipped and their names returned.
func (reg *Registry) MountAll(r chi.Router) (skipped []string) {
	for _, g := range reg.groups {
		if g.Mount == nil {
			skipped = append(skipped, g.Name)
			continue
		}
		if g.Prefix == "" || g.Prefix == "/" {
			g.Mount(r)
			continue
		}
		r.Route(g.Prefix, g.Mount)
	}
	return skipped
}

// Route is one entry of a route table.
type Route struct {
	Method  string
	Pattern string
}

// Table lists the routes of h sorted by pattern, then method.
func Table(h chi.Routes) ([]Route, error) {
	var out []Route
	err := chi.Walk(h, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, Route{Method: method, Pattern: route})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out, err
}
