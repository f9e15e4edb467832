// Package fieldtypes holds the per field type value semantics used by the
// view engine: filter matching, sorting, search projection and emptiness.
package fieldtypes

import (
	"github.com/rebelice/lazyview/internal/models"
)

// Result is the outcome of evaluating a single filter against a value
type Result int

const (
	// Inapplicable means the filter has no opinion, e.g. its value is empty
	Inapplicable Result = iota
	NotMatched
	Matched
)

// ResultOf converts a boolean into Matched or NotMatched
func ResultOf(ok bool) Result {
	if ok {
		return Matched
	}
	return NotMatched
}

// Negate flips Matched and NotMatched; Inapplicable stays as is
func (r Result) Negate() Result {
	switch r {
	case Matched:
		return NotMatched
	case NotMatched:
		return Matched
	default:
		return Inapplicable
	}
}

func (r Result) String() string {
	switch r {
	case Matched:
		return "matched"
	case NotMatched:
		return "not_matched"
	default:
		return "inapplicable"
	}
}

// RowCompare orders two rows, returning <0, 0 or >0
type RowCompare func(a, b models.Row) int

// SortFunc builds a row comparator for the given row value key and order
type SortFunc func(key string, order models.SortOrder, field models.Field) RowCompare

// FieldType is the capability table of a single field type
type FieldType interface {
	Name() string
	SortTypes(field models.Field) map[string]SortFunc
	ToSearchableString(field models.Field, value any) string
	ContainsFilter(value any, term string, field models.Field) bool
	HasEmptyValue(field models.Field) func(value any) bool
	ParseFilterValue(field models.Field, raw string) (any, bool)
	FormatFilterValue(field models.Field, value any) string
	IsReadOnly(field models.Field) bool
}

// ValueComparer is implemented by field types with naturally ordered values.
// The filter value must come out of ParseFilterValue.
type ValueComparer interface {
	CompareValue(field models.Field, rowValue any, filterValue any) (int, bool)
}

// FilterType is a leaf predicate kind such as "equal" or "higher_than"
type FilterType interface {
	Name() string
	Compatible(fieldType string) bool
	Matches(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result
}
