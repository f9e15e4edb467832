package models

// SortOrder is the direction of a sort or group by
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// DefaultSortType is the sort type every field type supports
const DefaultSortType = "default"

// Sort is a sort or group by entry of a view
type Sort struct {
	Field int64     `json:"field" yaml:"field"`
	Order SortOrder `json:"order" yaml:"order"`
	Type  string    `json:"type,omitempty" yaml:"type,omitempty"`
}

// SortType returns the sort type, falling back to "default"
func (s Sort) SortType() string {
	if s.Type == "" {
		return DefaultSortType
	}
	return s.Type
}

// View holds the filter, sort and group by configuration of a table view
type View struct {
	Name            string        `json:"name,omitempty" yaml:"name,omitempty"`
	FilterType      FilterType    `json:"filter_type" yaml:"filter_type"`
	FiltersDisabled bool          `json:"filters_disabled" yaml:"filters_disabled"`
	Filters         []Filter      `json:"filters" yaml:"filters"`
	FilterGroups    []FilterGroup `json:"filter_groups" yaml:"filter_groups"`
	Sortings        []Sort        `json:"sortings" yaml:"sortings"`
	GroupBys        []Sort        `json:"group_bys" yaml:"group_bys"`
}
