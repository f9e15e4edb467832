package fieldtypes

import (
	"strconv"
	"strings"

	"github.com/rebelice/lazyview/internal/models"
)

type singleSelectType struct{}

func (singleSelectType) Name() string { return models.FieldTypeSingleSelect }

func (singleSelectType) SortTypes(models.Field) map[string]SortFunc {
	return map[string]SortFunc{
		models.DefaultSortType: collatedSort(func(_ models.Field, v any) string {
			o, _ := toOption(v)
			return o.Value
		}),
		// order sorts by the position of the option in the field definition
		"order": func(key string, order models.SortOrder, field models.Field) RowCompare {
			index := func(v any) int {
				o, ok := toOption(v)
				if !ok {
					return -1
				}
				return field.OptionIndex(o.ID)
			}
			return func(a, b models.Row) int {
				ia, ib := index(a.Values[key]), index(b.Values[key])
				switch {
				case ia < ib:
					return sign(order, -1)
				case ia > ib:
					return sign(order, 1)
				default:
					return 0
				}
			}
		},
	}
}

func (singleSelectType) ToSearchableString(_ models.Field, value any) string {
	o, _ := toOption(value)
	return o.Value
}

func (t singleSelectType) ContainsFilter(value any, term string, field models.Field) bool {
	return containsFold(t.ToSearchableString(field, value), term)
}

func (singleSelectType) HasEmptyValue(models.Field) func(any) bool {
	return func(v any) bool {
		_, ok := toOption(v)
		return !ok
	}
}

func (singleSelectType) ParseFilterValue(_ models.Field, raw string) (any, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, false
	}
	return id, true
}

func (singleSelectType) FormatFilterValue(_ models.Field, value any) string {
	return toString(value)
}

func (singleSelectType) IsReadOnly(field models.Field) bool {
	return field.ReadOnly
}

type multipleSelectType struct{}

func (multipleSelectType) Name() string { return models.FieldTypeMultipleSelect }

func joinOptionValues(v any, sep string) string {
	opts := toOptions(v)
	values := make([]string, 0, len(opts))
	for _, o := range opts {
		values = append(values, o.Value)
	}
	return strings.Join(values, sep)
}

func (multipleSelectType) SortTypes(models.Field) map[string]SortFunc {
	return map[string]SortFunc{
		models.DefaultSortType: collatedSort(func(_ models.Field, v any) string {
			return joinOptionValues(v, ", ")
		}),
	}
}

func (multipleSelectType) ToSearchableString(_ models.Field, value any) string {
	return joinOptionValues(value, " ")
}

func (multipleSelectType) ContainsFilter(value any, term string, _ models.Field) bool {
	for _, o := range toOptions(value) {
		if containsFold(o.Value, term) {
			return true
		}
	}
	return strings.TrimSpace(term) == ""
}

func (multipleSelectType) HasEmptyValue(models.Field) func(any) bool {
	return func(v any) bool { return len(toOptions(v)) == 0 }
}

func (multipleSelectType) ParseFilterValue(_ models.Field, raw string) (any, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, false
	}
	return id, true
}

func (multipleSelectType) FormatFilterValue(_ models.Field, value any) string {
	return toString(value)
}

func (multipleSelectType) IsReadOnly(field models.Field) bool {
	return field.ReadOnly
}

// parseIDList parses "1,2,3" into ids; any invalid entry rejects the list
func parseIDList(raw string) ([]int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
