package fieldtypes

import (
	"sort"
	"sync"
	"time"
)

// Registry maps field type and filter type names to their behavior.
// Custom types can be registered next to the built-ins.
type Registry struct {
	mu          sync.RWMutex
	fieldTypes  map[string]FieldType
	filterTypes map[string]FilterType
	now         func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithClock overrides the clock used by relative date filters
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		fieldTypes:  make(map[string]FieldType),
		filterTypes: make(map[string]FilterType),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default creates a registry holding every built-in field and filter type
func Default(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for _, kind := range Kinds() {
		r.RegisterFieldType(Builtin(kind))
	}
	for _, ft := range builtinFilterTypes(r.Now) {
		r.RegisterFilterType(ft)
	}
	return r
}

// RegisterFieldType adds or replaces a field type
func (r *Registry) RegisterFieldType(ft FieldType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fieldTypes[ft.Name()] = ft
}

// RegisterFilterType adds or replaces a filter type
func (r *Registry) RegisterFilterType(ft FilterType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filterTypes[ft.Name()] = ft
}

// FieldType looks up a field type by name
func (r *Registry) FieldType(name string) (FieldType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ft, ok := r.fieldTypes[name]
	return ft, ok
}

// FilterType looks up a filter type by name
func (r *Registry) FilterType(name string) (FilterType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ft, ok := r.filterTypes[name]
	return ft, ok
}

// FilterTypesFor returns the names of the filter types compatible with a field type
func (r *Registry) FilterTypesFor(fieldType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, ft := range r.filterTypes {
		if ft.Compatible(fieldType) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Now returns the current time according to the registry clock
func (r *Registry) Now() time.Time {
	return r.now()
}
