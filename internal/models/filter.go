package models

// FilterType is the boolean operator joining the filters of a group
type FilterType string

const (
	FilterTypeAnd FilterType = "AND"
	FilterTypeOr  FilterType = "OR"
)

// Normalize returns AND for anything that is not OR
func (t FilterType) Normalize() FilterType {
	if t == FilterTypeOr {
		return FilterTypeOr
	}
	return FilterTypeAnd
}

// Filter is a single leaf predicate of a view
type Filter struct {
	ID    int64  `json:"id" yaml:"id"`
	Field int64  `json:"field" yaml:"field"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
	Group *int64 `json:"group" yaml:"group,omitempty"` // nil for filters attached to the root
}

// FilterGroup represents a nested group of filters with AND/OR logic.
// A non-nil ParentGroup always references a group with a smaller ID.
type FilterGroup struct {
	ID          int64      `json:"id" yaml:"id"`
	FilterType  FilterType `json:"filter_type" yaml:"filter_type"`
	ParentGroup *int64     `json:"parent_group" yaml:"parent_group,omitempty"`
}

// GroupID is a small helper for building *int64 group references
func GroupID(id int64) *int64 {
	return &id
}
