package seeding

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Section is the top-level key of a seed file.
const Section = "db-defaults"

// Attrs is one seed row: attribute name to value.
type Attrs map[string]any

// Entry is the candidate list for one entity-type name.
type Entry struct {
	Type       string
	Candidates []Attrs
}

// Spec is a parsed seed file. Entries keep file order.
type Spec struct {
	Entries []Entry
}

// Empty reports whether the spec has nothing to seed.
func (s Spec) Empty() bool {
	for _, e := range s.Entries {
		if len(e.Candidates) > 0 {
			return false
		}
	}
	return true
}

// ParseSpec parses seed YAML of the form
//
//	db-defaults:
//	  Role:
//	    - name: admin
//	  User:
//	    - email: admin@example.com
//	      roles: [admin]
//
// A document without the section parses to an empty Spec.
func ParseSpec(data []byte) (Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Spec{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Spec{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Spec{}, errors.New("seed file: top level must be a mapping")
	}

	section := mappingValue(root, Section)
	if section == nil || section.Tag == "!!null" {
		return Spec{}, nil
	}
	if section.Kind != yaml.MappingNode {
		return Spec{}, fmt.Errorf("seed file: %s must map entity types to lists", Section)
	}

	var spec Spec
	for i := 0; i+1 < len(section.Content); i += 2 {
		name, list := section.Content[i].Value, section.Content[i+1]
		entry := Entry{Type: name}
		if list.Tag == "!!null" {
			spec.Entries = append(spec.Entries, entry)
			continue
		}
		if list.Kind != yaml.SequenceNode {
			return Spec{}, fmt.Errorf("seed file: %s.%s must be a list (line %d)", Section, name, list.Line)
		}
		for _, item := range list.Content {
			var attrs map[string]any
			if err := item.Decode(&attrs); err != nil {
				return Spec{}, fmt.Errorf("seed file: %s.%s line %d: %w", Section, name, item.Line, err)
			}
			entry.Candidates = append(entry.Candidates, Attrs(attrs))
		}
		spec.Entries = append(spec.Entries, entry)
	}
	return spec, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// LoadSpec reads and parses the seed file at path. A missing, empty or
// malformed file yields an empty Spec; the reason is logged.
func LoadSpec(path string, logger *zap.Logger) Spec {
	if path == "" {
		logger.Info("no seed file configured")
		return Spec{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("seed file not found; nothing to seed", zap.String("path", path))
		} else {
			logger.Warn("seed file unreadable; nothing to seed", zap.String("path", path), zap.Error(err))
		}
		return Spec{}
	}
	spec, err := ParseSpec(data)
	if err != nil {
		logger.Warn("seed file malformed; nothing to seed", zap.String("path", path), zap.Error(err))
		return Spec{}
	}
	return spec
}
