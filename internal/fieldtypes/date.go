package fieldtypes

import (
	"time"

	"github.com/rebelice/lazyview/internal/models"
)

type dateType struct{}

func (dateType) Name() string { return models.FieldTypeDate }

func (dateType) SortTypes(models.Field) map[string]SortFunc {
	return map[string]SortFunc{
		models.DefaultSortType: func(key string, order models.SortOrder, field models.Field) RowCompare {
			return func(a, b models.Row) int {
				ta, _, aOK := toTime(a.Values[key], field)
				tb, _, bOK := toTime(b.Values[key], field)
				if cmp, done := compareNullsFirst(aOK, bOK); done {
					return sign(order, cmp)
				}
				return sign(order, ta.Compare(tb))
			}
		},
	}
}

// ToSearchableString renders the date in the field timezone, ISO style
func (dateType) ToSearchableString(field models.Field, value any) string {
	t, dateOnly, ok := toTime(value, field)
	if !ok {
		return ""
	}
	if dateOnly || !field.DateIncludeTime {
		return t.Format("2006-01-02")
	}
	return t.In(fieldLocation(field)).Format("2006-01-02 15:04")
}

func (d dateType) ContainsFilter(value any, term string, field models.Field) bool {
	return containsFold(d.ToSearchableString(field, value), term)
}

func (dateType) HasEmptyValue(field models.Field) func(any) bool {
	return func(v any) bool {
		_, _, ok := toTime(v, field)
		return !ok
	}
}

func (dateType) ParseFilterValue(field models.Field, raw string) (any, bool) {
	t, _, ok := toTime(raw, field)
	if !ok {
		return nil, false
	}
	return t, true
}

func (dateType) FormatFilterValue(field models.Field, value any) string {
	t, ok := value.(time.Time)
	if !ok {
		return toString(value)
	}
	if !field.DateIncludeTime {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func (dateType) IsReadOnly(field models.Field) bool {
	return field.ReadOnly
}
