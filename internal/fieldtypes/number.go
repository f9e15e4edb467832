package fieldtypes

import (
	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/models"
)

// numberType covers number, rating and autonumber fields
type numberType struct {
	name        string
	zeroIsEmpty bool
	readOnly    bool
}

func (t numberType) Name() string { return t.name }

func (t numberType) SortTypes(models.Field) map[string]SortFunc {
	return map[string]SortFunc{
		models.DefaultSortType: func(key string, order models.SortOrder, _ models.Field) RowCompare {
			return func(a, b models.Row) int {
				da, aOK := toDecimal(a.Values[key])
				db, bOK := toDecimal(b.Values[key])
				if cmp, done := compareNullsFirst(aOK, bOK); done {
					return sign(order, cmp)
				}
				return sign(order, da.Cmp(db))
			}
		},
	}
}

func (t numberType) ToSearchableString(field models.Field, value any) string {
	d, ok := toDecimal(value)
	if !ok {
		return ""
	}
	if t.name != models.FieldTypeNumber {
		return d.String()
	}
	return d.StringFixed(int32(field.NumberDecimalPlaces))
}

func (t numberType) ContainsFilter(value any, term string, field models.Field) bool {
	return containsFold(t.ToSearchableString(field, value), term)
}

func (t numberType) HasEmptyValue(models.Field) func(any) bool {
	return func(v any) bool {
		d, ok := toDecimal(v)
		if !ok {
			return true
		}
		return t.zeroIsEmpty && d.IsZero()
	}
}

func (t numberType) ParseFilterValue(_ models.Field, raw string) (any, bool) {
	d, ok := toDecimal(raw)
	if !ok {
		return nil, false
	}
	return d, true
}

func (t numberType) FormatFilterValue(field models.Field, value any) string {
	return t.ToSearchableString(field, value)
}

func (t numberType) IsReadOnly(field models.Field) bool {
	return t.readOnly || field.ReadOnly
}

func (t numberType) CompareValue(_ models.Field, rowValue any, filterValue any) (int, bool) {
	return compareDecimals(rowValue, filterValue)
}

func compareDecimals(rowValue any, filterValue any) (int, bool) {
	rv, ok := toDecimal(rowValue)
	if !ok {
		return 0, false
	}
	fv, ok := filterValue.(decimal.Decimal)
	if !ok {
		return 0, false
	}
	return rv.Cmp(fv), true
}
