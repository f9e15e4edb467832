package fieldtypes

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/models"
)

// Filter type names
const (
	FilterEqual              = "equal"
	FilterNotEqual           = "not_equal"
	FilterContains           = "contains"
	FilterContainsNot        = "contains_not"
	FilterContainsWord       = "contains_word"
	FilterDoesntContainWord  = "doesnt_contain_word"
	FilterLengthIsLowerThan  = "length_is_lower_than"
	FilterHigherThan         = "higher_than"
	FilterHigherThanOrEqual  = "higher_than_or_equal"
	FilterLowerThan          = "lower_than"
	FilterLowerThanOrEqual   = "lower_than_or_equal"
	FilterIsEvenAndWhole     = "is_even_and_whole"
	FilterBoolean            = "boolean"
	FilterEmpty              = "empty"
	FilterNotEmpty           = "not_empty"
	FilterSingleSelectEqual  = "single_select_equal"
	FilterSingleSelectNotEq  = "single_select_not_equal"
	FilterSingleSelectAnyOf  = "single_select_is_any_of"
	FilterSingleSelectNoneOf = "single_select_is_none_of"
	FilterMultipleSelectHas  = "multiple_select_has"
	FilterMultipleSelectNot  = "multiple_select_has_not"
)

// matchFunc is the body of a simple filter type
type matchFunc func(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result

// simpleFilter is a filter type defined by a name, compatible field types and a match function
type simpleFilter struct {
	name       string
	compatible []string
	match      matchFunc
}

func (f simpleFilter) Name() string { return f.name }

func (f simpleFilter) Compatible(fieldType string) bool {
	return slices.Contains(f.compatible, fieldType)
}

func (f simpleFilter) Matches(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
	return f.match(rowValue, filterValue, field, fieldType)
}

func negated(m matchFunc) matchFunc {
	return func(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
		return m(rowValue, filterValue, field, fieldType).Negate()
	}
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func builtinFilterTypes(now func() time.Time) []FilterType {
	ordered := concat(numericFamily, []string{models.FieldTypeDuration})
	containsCompatible := concat(textFamily, numericFamily, []string{
		models.FieldTypeDate, models.FieldTypeDuration, models.FieldTypeSingleSelect, models.FieldTypeMultipleSelect,
	})
	wordCompatible := concat(textFamily, []string{models.FieldTypeSingleSelect, models.FieldTypeMultipleSelect})
	all := concat(textFamily, numericFamily, []string{
		models.FieldTypeBoolean, models.FieldTypeDate, models.FieldTypeDuration,
		models.FieldTypeSingleSelect, models.FieldTypeMultipleSelect,
	})

	filters := []FilterType{
		simpleFilter{FilterEqual, concat(textFamily, ordered), matchEqual},
		simpleFilter{FilterNotEqual, concat(textFamily, ordered), negated(matchEqual)},
		simpleFilter{FilterContains, containsCompatible, matchContains},
		simpleFilter{FilterContainsNot, containsCompatible, negated(matchContains)},
		simpleFilter{FilterContainsWord, wordCompatible, matchContainsWord},
		simpleFilter{FilterDoesntContainWord, wordCompatible, negated(matchContainsWord)},
		simpleFilter{FilterLengthIsLowerThan, textFamily, matchLengthIsLowerThan},
		simpleFilter{FilterHigherThan, ordered, compareWith(func(c int) bool { return c > 0 })},
		simpleFilter{FilterHigherThanOrEqual, ordered, compareWith(func(c int) bool { return c >= 0 })},
		simpleFilter{FilterLowerThan, ordered, compareWith(func(c int) bool { return c < 0 })},
		simpleFilter{FilterLowerThanOrEqual, ordered, compareWith(func(c int) bool { return c <= 0 })},
		simpleFilter{FilterIsEvenAndWhole, numericFamily, matchIsEvenAndWhole},
		simpleFilter{FilterBoolean, []string{models.FieldTypeBoolean}, matchBoolean},
		simpleFilter{FilterEmpty, all, matchEmpty},
		simpleFilter{FilterNotEmpty, all, negated(matchEmpty)},
		simpleFilter{FilterSingleSelectEqual, []string{models.FieldTypeSingleSelect}, matchSingleSelectEqual},
		simpleFilter{FilterSingleSelectNotEq, []string{models.FieldTypeSingleSelect}, negated(matchSingleSelectEqual)},
		simpleFilter{FilterSingleSelectAnyOf, []string{models.FieldTypeSingleSelect}, matchSingleSelectAnyOf},
		simpleFilter{FilterSingleSelectNoneOf, []string{models.FieldTypeSingleSelect}, negated(matchSingleSelectAnyOf)},
		simpleFilter{FilterMultipleSelectHas, []string{models.FieldTypeMultipleSelect}, matchMultipleSelectHas},
		simpleFilter{FilterMultipleSelectNot, []string{models.FieldTypeMultipleSelect}, negated(matchMultipleSelectHas)},
	}
	return append(filters, dateFilterTypes(now)...)
}

// matchEqual compares ordered values numerically and text case-insensitively
func matchEqual(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
	if strings.TrimSpace(filterValue) == "" {
		return Inapplicable
	}
	if cmp, ok := fieldType.(ValueComparer); ok {
		fv, ok := fieldType.ParseFilterValue(field, filterValue)
		if !ok {
			return Inapplicable
		}
		c, ok := cmp.CompareValue(field, rowValue, fv)
		return ResultOf(ok && c == 0)
	}
	rv := strings.ToLower(strings.TrimSpace(toString(rowValue)))
	return ResultOf(rv == strings.ToLower(strings.TrimSpace(filterValue)))
}

func matchContains(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
	if strings.TrimSpace(filterValue) == "" {
		return Inapplicable
	}
	return ResultOf(fieldType.ContainsFilter(rowValue, filterValue, field))
}

func matchContainsWord(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
	term := strings.TrimSpace(filterValue)
	if term == "" {
		return Inapplicable
	}
	re, err := regexp.Compile(`(?i)(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(term) + `($|[^\p{L}\p{N}_])`)
	if err != nil {
		return Inapplicable
	}
	return ResultOf(re.MatchString(fieldType.ToSearchableString(field, rowValue)))
}

func matchLengthIsLowerThan(rowValue any, filterValue string, _ models.Field, _ FieldType) Result {
	n, err := strconv.Atoi(strings.TrimSpace(filterValue))
	if err != nil {
		return Inapplicable
	}
	return ResultOf(utf8.RuneCountInString(toString(rowValue)) < n)
}

func compareWith(accept func(int) bool) matchFunc {
	return func(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
		cmp, ok := fieldType.(ValueComparer)
		if !ok || strings.TrimSpace(filterValue) == "" {
			return Inapplicable
		}
		fv, ok := fieldType.ParseFilterValue(field, filterValue)
		if !ok {
			return Inapplicable
		}
		c, ok := cmp.CompareValue(field, rowValue, fv)
		if !ok {
			return NotMatched
		}
		return ResultOf(accept(c))
	}
}

func matchIsEvenAndWhole(rowValue any, _ string, _ models.Field, _ FieldType) Result {
	d, ok := toDecimal(rowValue)
	if !ok || !d.IsInteger() {
		return NotMatched
	}
	return ResultOf(d.Mod(decimal.NewFromInt(2)).IsZero())
}

func matchBoolean(rowValue any, filterValue string, _ models.Field, _ FieldType) Result {
	return ResultOf(toBool(rowValue) == toBool(filterValue))
}

func matchEmpty(rowValue any, _ string, field models.Field, fieldType FieldType) Result {
	return ResultOf(fieldType.HasEmptyValue(field)(rowValue))
}

func matchSingleSelectEqual(rowValue any, filterValue string, _ models.Field, _ FieldType) Result {
	id, err := strconv.ParseInt(strings.TrimSpace(filterValue), 10, 64)
	if err != nil {
		return Inapplicable
	}
	o, ok := toOption(rowValue)
	return ResultOf(ok && o.ID == id)
}

func matchSingleSelectAnyOf(rowValue any, filterValue string, _ models.Field, _ FieldType) Result {
	ids, ok := parseIDList(filterValue)
	if !ok {
		return Inapplicable
	}
	o, ok := toOption(rowValue)
	return ResultOf(ok && slices.Contains(ids, o.ID))
}

func matchMultipleSelectHas(rowValue any, filterValue string, _ models.Field, _ FieldType) Result {
	id, err := strconv.ParseInt(strings.TrimSpace(filterValue), 10, 64)
	if err != nil {
		return Inapplicable
	}
	for _, o := range toOptions(rowValue) {
		if o.ID == id {
			return Matched
		}
	}
	return NotMatched
}
