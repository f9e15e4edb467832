package fieldtypes

import (
	"strconv"

	"github.com/rebelice/lazyview/internal/models"
)

type booleanType struct{}

func (booleanType) Name() string { return models.FieldTypeBoolean }

func (booleanType) SortTypes(models.Field) map[string]SortFunc {
	return map[string]SortFunc{
		models.DefaultSortType: func(key string, order models.SortOrder, _ models.Field) RowCompare {
			return func(a, b models.Row) int {
				av, bv := toBool(a.Values[key]), toBool(b.Values[key])
				switch {
				case av == bv:
					return 0
				case !av:
					return sign(order, -1)
				default:
					return sign(order, 1)
				}
			}
		},
	}
}

func (booleanType) ToSearchableString(_ models.Field, value any) string {
	return strconv.FormatBool(toBool(value))
}

func (t booleanType) ContainsFilter(value any, term string, field models.Field) bool {
	return containsFold(t.ToSearchableString(field, value), term)
}

func (booleanType) HasEmptyValue(models.Field) func(any) bool {
	return func(v any) bool { return !toBool(v) }
}

func (booleanType) ParseFilterValue(_ models.Field, raw string) (any, bool) {
	return toBool(raw), true
}

func (booleanType) FormatFilterValue(_ models.Field, value any) string {
	if toBool(value) {
		return "1"
	}
	return "0"
}

func (booleanType) IsReadOnly(field models.Field) bool {
	return field.ReadOnly
}
