package filter

import (
	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

// Matches evaluates a row against the tree. overrides replace row values by
// key without touching the row, e.g. to test a pending edit.
func (t *Tree) Matches(reg *fieldtypes.Registry, fields []models.Field, row models.Row, overrides map[string]any) bool {
	byID := make(map[int64]models.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	matched, _ := t.match(RootIndex, reg, byID, row, overrides)
	return matched
}

// match returns whether node i matches and whether any filter in its subtree
// produced a valid opinion.
func (t *Tree) match(i int, reg *fieldtypes.Registry, fields map[int64]models.Field, row models.Row, overrides map[string]any) (bool, bool) {
	n := t.nodes[i]
	and := n.FilterType != models.FilterTypeOr
	valid := false

	for _, c := range n.Children {
		matched, childValid := t.match(c, reg, fields, row, overrides)
		if childValid {
			valid = true
		}
		if and && !matched {
			return false, valid
		}
		if !and && matched {
			return true, valid
		}
	}

	for _, f := range n.Filters {
		res := evaluate(reg, fields, f, row, overrides)
		if res == fieldtypes.Inapplicable {
			continue
		}
		valid = true
		if and && res == fieldtypes.NotMatched {
			return false, valid
		}
		if !and && res == fieldtypes.Matched {
			return true, valid
		}
	}

	if and {
		return true, valid
	}
	// an OR group without any valid filter does not filter anything out
	return !valid, valid
}

// evaluate runs a single leaf filter. Filters referencing a missing field, an
// unknown filter type or an incompatible field type are inapplicable.
func evaluate(reg *fieldtypes.Registry, fields map[int64]models.Field, f models.Filter, row models.Row, overrides map[string]any) fieldtypes.Result {
	field, ok := fields[f.Field]
	if !ok {
		return fieldtypes.Inapplicable
	}
	fieldType, ok := reg.FieldType(field.Type)
	if !ok {
		return fieldtypes.Inapplicable
	}
	filterType, ok := reg.FilterType(f.Type)
	if !ok || !filterType.Compatible(field.Type) {
		return fieldtypes.Inapplicable
	}
	value, _ := row.Value(field.Key(), overrides)
	return filterType.Matches(value, f.Value, field, fieldType)
}

// MatchFilters reports whether a row passes the filters of a view. Views
// with disabled or no filters match every row.
func MatchFilters(reg *fieldtypes.Registry, view models.View, fields []models.Field, row models.Row, overrides map[string]any) bool {
	if view.FiltersDisabled || len(view.Filters) == 0 {
		return true
	}
	return BuildTree(view.FilterType, view.Filters, view.FilterGroups).Matches(reg, fields, row, overrides)
}
