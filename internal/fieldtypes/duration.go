package fieldtypes

import (
	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/duration"
	"github.com/rebelice/lazyview/internal/models"
)

type durationType struct{}

func (durationType) Name() string { return models.FieldTypeDuration }

func durationFormat(field models.Field) duration.Format {
	f, err := duration.ParseFormat(field.DurationFormat)
	if err != nil {
		return duration.DefaultFormat
	}
	return f
}

func (durationType) SortTypes(field models.Field) map[string]SortFunc {
	return numberType{}.SortTypes(field)
}

func (durationType) ToSearchableString(field models.Field, value any) string {
	d, ok := toDecimal(value)
	if !ok {
		return ""
	}
	return duration.FormatValue(d.InexactFloat64(), durationFormat(field))
}

func (t durationType) ContainsFilter(value any, term string, field models.Field) bool {
	return containsFold(t.ToSearchableString(field, value), term)
}

func (durationType) HasEmptyValue(models.Field) func(any) bool {
	return func(v any) bool {
		_, ok := toDecimal(v)
		return !ok
	}
}

// ParseFilterValue accepts the duration text grammar and returns rounded seconds
func (durationType) ParseFilterValue(field models.Field, raw string) (any, bool) {
	f := durationFormat(field)
	seconds, ok := duration.Parse(raw, f)
	if !ok {
		return nil, false
	}
	return decimal.NewFromFloat(duration.Round(seconds, f)), true
}

func (durationType) FormatFilterValue(field models.Field, value any) string {
	d, ok := toDecimal(value)
	if !ok {
		return ""
	}
	return duration.FormatValue(d.InexactFloat64(), durationFormat(field))
}

func (durationType) IsReadOnly(field models.Field) bool {
	return field.ReadOnly
}

// CompareValue compares the row value rounded to the field format
func (durationType) CompareValue(field models.Field, rowValue any, filterValue any) (int, bool) {
	rv, ok := toDecimal(rowValue)
	if !ok {
		return 0, false
	}
	rounded := decimal.NewFromFloat(duration.Round(rv.InexactFloat64(), durationFormat(field)))
	return compareDecimals(rounded, filterValue)
}
