package fieldtypes

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rebelice/lazyview/internal/models"
)

// newCollator returns the loose English collator used for text sorting:
// case and accents do not order strings. Collators keep
// internal buffers, so every comparator gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.Loose)
}

// collatedSort compares the text projection of two cell values
func collatedSort(project func(field models.Field, v any) string) SortFunc {
	return func(key string, order models.SortOrder, field models.Field) RowCompare {
		c := newCollator()
		return func(a, b models.Row) int {
			return sign(order, c.CompareString(project(field, a.Values[key]), project(field, b.Values[key])))
		}
	}
}

// textType covers text, long_text, url, email and phone_number
type textType struct {
	name string
}

func (t textType) Name() string { return t.name }

func (t textType) SortTypes(models.Field) map[string]SortFunc {
	return map[string]SortFunc{
		models.DefaultSortType: collatedSort(func(_ models.Field, v any) string { return toString(v) }),
	}
}

func (t textType) ToSearchableString(_ models.Field, value any) string {
	return toString(value)
}

func (t textType) ContainsFilter(value any, term string, _ models.Field) bool {
	return containsFold(toString(value), term)
}

func (t textType) HasEmptyValue(models.Field) func(any) bool {
	return isBlank
}

func (t textType) ParseFilterValue(_ models.Field, raw string) (any, bool) {
	return raw, true
}

func (t textType) FormatFilterValue(_ models.Field, value any) string {
	return toString(value)
}

func (t textType) IsReadOnly(field models.Field) bool {
	return field.ReadOnly
}

// containsFold reports whether the trimmed term is a case-insensitive substring of s
func containsFold(s, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), term)
}
