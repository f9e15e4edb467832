package view

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
	"github.com/rebelice/lazyview/internal/search"
)

// SearchSpec is the search part of a view spec
type SearchSpec struct {
	Term            string      `yaml:"term,omitempty" json:"term,omitempty"`
	Mode            search.Mode `yaml:"mode,omitempty" json:"mode,omitempty"`
	HideNonMatching bool        `yaml:"hide_non_matching" json:"hide_non_matching"`
}

// Spec is a table schema plus a view configuration as stored on disk
type Spec struct {
	Fields []models.Field `yaml:"fields" json:"fields"`
	View   models.View    `yaml:"view" json:"view"`
	Search SearchSpec     `yaml:"search,omitempty" json:"search,omitempty"`
}

// Validate checks that the spec can be evaluated
func (s *Spec) Validate(reg *fieldtypes.Registry) error {
	seen := make(map[int64]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.ID] {
			return fmt.Errorf("duplicate field id %d", f.ID)
		}
		seen[f.ID] = true
		if _, ok := reg.FieldType(f.Type); !ok {
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	if s.Search.Mode != "" {
		if _, err := search.ParseMode(string(s.Search.Mode)); err != nil {
			return err
		}
	}
	switch s.View.FilterType {
	case "", models.FilterTypeAnd, models.FilterTypeOr:
	default:
		return fmt.Errorf("unknown filter type %q", s.View.FilterType)
	}
	return nil
}

// Engine validates the spec and builds an engine for it
func (s *Spec) Engine(reg *fieldtypes.Registry, opts ...Option) (*Engine, error) {
	if err := s.Validate(reg); err != nil {
		return nil, fmt.Errorf("invalid view spec: %w", err)
	}
	if s.Search.Term != "" {
		opts = append([]Option{WithSearch(s.Search.Term, s.Search.Mode, s.Search.HideNonMatching)}, opts...)
	}
	return NewEngine(reg, s.Fields, s.View, opts...), nil
}

// LoadSpec reads a view spec from a YAML file
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read view spec: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse view spec: %w", err)
	}
	spec.View.FilterType = spec.View.FilterType.Normalize()
	return &spec, nil
}

// SaveSpec writes a view spec as YAML, creating the parent directory
func SaveSpec(path string, spec *Spec) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal view spec: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create spec directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write view spec: %w", err)
	}

	return nil
}
