package view

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SavedView is a named view spec kept in the user config directory
type SavedView struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Table       string    `yaml:"table,omitempty"`
	Spec        Spec      `yaml:"spec"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
	UsageCount  int       `yaml:"usage_count"`
	LastUsed    time.Time `yaml:"last_used"`
}

// Store manages saved views
type Store struct {
	path  string
	views []SavedView
}

// NewStore opens the saved views file of configDir
func NewStore(configDir string) (*Store, error) {
	path := filepath.Join(configDir, "views.yaml")

	s := &Store{
		path:  path,
		views: []SavedView{},
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("failed to load saved views: %w", err)
		}
	}

	return s, nil
}

// Load loads saved views from the YAML file
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read views file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.views); err != nil {
		return fmt.Errorf("failed to parse views: %w", err)
	}

	return nil
}

// Save writes saved views to the YAML file
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.views)
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write views file: %w", err)
	}

	return nil
}

// Add saves a new view. Names are unique, ignoring case.
func (s *Store) Add(name, description, table string, spec Spec) (*SavedView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("view name cannot be empty")
	}

	for _, v := range s.views {
		if strings.EqualFold(v.Name, name) {
			return nil, fmt.Errorf("a view with the name '%s' already exists (names are case-insensitive)", name)
		}
	}

	now := time.Now()
	spec.View.Name = name
	saved := SavedView{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Table:       table,
		Spec:        spec,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.views = append(s.views, saved)

	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("failed to save view: %w", err)
	}

	return &saved, nil
}

// Update replaces the spec of a saved view
func (s *Store) Update(id string, spec Spec) error {
	for i, v := range s.views {
		if v.ID == id {
			spec.View.Name = v.Name
			s.views[i].Spec = spec
			s.views[i].UpdatedAt = time.Now()
			if err := s.Save(); err != nil {
				return fmt.Errorf("failed to save view: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// Delete removes a saved view by ID
func (s *Store) Delete(id string) error {
	for i, v := range s.views {
		if v.ID == id {
			s.views = append(s.views[:i], s.views[i+1:]...)
			if err := s.Save(); err != nil {
				return fmt.Errorf("failed to save views after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// Get returns a saved view by ID or name
func (s *Store) Get(idOrName string) (*SavedView, error) {
	for _, v := range s.views {
		if v.ID == idOrName || strings.EqualFold(v.Name, idOrName) {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("view '%s' was not found", idOrName)
}

// GetAll returns all saved views
func (s *Store) GetAll() []SavedView {
	return s.views
}

// Search returns views whose name, description or table contains query
func (s *Store) Search(query string) []SavedView {
	if query == "" {
		return s.views
	}

	query = strings.ToLower(query)
	var results []SavedView
	for _, v := range s.views {
		if strings.Contains(strings.ToLower(v.Name), query) ||
			strings.Contains(strings.ToLower(v.Description), query) ||
			strings.Contains(strings.ToLower(v.Table), query) {
			results = append(results, v)
		}
	}
	return results
}

// RecordUsage updates the usage statistics of a view
func (s *Store) RecordUsage(id string) error {
	for i, v := range s.views {
		if v.ID == id {
			s.views[i].UsageCount++
			s.views[i].LastUsed = time.Now()
			if err := s.Save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view with ID '%s' was not found", id)
}

// GetRecent returns the most recently used views
func (s *Store) GetRecent(limit int) []SavedView {
	sorted := make([]SavedView, len(s.views))
	copy(sorted, s.views)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastUsed.After(sorted[j].LastUsed)
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted
}
