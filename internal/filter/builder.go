package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

// Dialect selects placeholder and literal conventions of the target database
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) placeholder(n int) string {
	if d == DialectSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// timeArg converts a bound into a query argument. SQLite stores dates as text.
func (d Dialect) timeArg(t time.Time, dateOnly bool) any {
	if d != DialectSQLite {
		return t
	}
	if dateOnly {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// QuoteIdent quotes an identifier for use in generated SQL
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Builder generates SQL WHERE clauses from filter trees
type Builder struct {
	reg     *fieldtypes.Registry
	dialect Dialect
}

// NewBuilder creates a new filter builder
func NewBuilder(reg *fieldtypes.Registry, dialect Dialect) *Builder {
	return &Builder{reg: reg, dialect: dialect}
}

// BuildWhere generates a WHERE clause from a filter tree. Filters the
// database cannot evaluate are skipped like inapplicable filters.
func (b *Builder) BuildWhere(tree *Tree, fields []models.Field) (string, []any, error) {
	if tree == nil || !tree.HasFilters() {
		return "", nil, nil
	}

	byID := make(map[int64]models.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	var args []any
	clause, err := b.buildGroup(tree, RootIndex, byID, &args)
	if err != nil {
		return "", nil, err
	}
	if clause == "" {
		return "", nil, nil
	}
	return "WHERE " + clause, args, nil
}

// buildGroup recursively builds a filter group. An empty clause means the
// group holds for every row, which makes an OR parent hold as well.
func (b *Builder) buildGroup(tree *Tree, i int, fields map[int64]models.Field, args *[]any) (string, error) {
	n := tree.Node(i)
	or := n.FilterType == models.FilterTypeOr
	start := len(*args)
	var clauses []string

	for _, c := range n.Children {
		clause, err := b.buildGroup(tree, c, fields, args)
		if err != nil {
			return "", err
		}
		if clause == "" {
			if or {
				*args = (*args)[:start]
				return "", nil
			}
			continue
		}
		clauses = append(clauses, "("+clause+")")
	}

	for _, f := range n.Filters {
		field, ok := fields[f.Field]
		if !ok {
			continue
		}
		clause, condArgs, err := b.buildCondition(f, field, len(*args)+1)
		if err != nil {
			return "", err
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		*args = append(*args, condArgs...)
	}

	logic := " AND "
	if or {
		logic = " OR "
	}
	return strings.Join(clauses, logic), nil
}

func column(field models.Field) string {
	if field.Column != "" {
		return QuoteIdent(field.Column)
	}
	return QuoteIdent(field.Key())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// buildCondition builds a single filter condition. An empty clause means the
// filter does not apply.
func (b *Builder) buildCondition(f models.Filter, field models.Field, paramIndex int) (string, []any, error) {
	fieldType, ok := b.reg.FieldType(field.Type)
	if !ok {
		return "", nil, nil
	}
	filterType, ok := b.reg.FilterType(f.Type)
	if !ok || !filterType.Compatible(field.Type) {
		return "", nil, nil
	}

	col := column(field)
	p := b.dialect.placeholder(paramIndex)
	value := strings.TrimSpace(f.Value)
	_, ordered := fieldType.(fieldtypes.ValueComparer)

	switch f.Type {
	case fieldtypes.FilterEmpty, fieldtypes.FilterNotEmpty:
		var clause string
		switch field.Type {
		case models.FieldTypeBoolean:
			clause = fmt.Sprintf("COALESCE(%s, FALSE) = FALSE", col)
		case models.FieldTypeRating:
			clause = fmt.Sprintf("COALESCE(%s, 0) = 0", col)
		case models.FieldTypeText, models.FieldTypeLongText, models.FieldTypeURL,
			models.FieldTypeEmail, models.FieldTypePhoneNumber:
			clause = fmt.Sprintf("(%s IS NULL OR %s = '')", col, col)
		default:
			clause = fmt.Sprintf("%s IS NULL", col)
		}
		if f.Type == fieldtypes.FilterNotEmpty {
			clause = "NOT (" + clause + ")"
		}
		return clause, nil, nil

	case fieldtypes.FilterBoolean:
		return fmt.Sprintf("COALESCE(%s, FALSE) = %s", col, p), []any{fieldType.FormatFilterValue(field, value) == "1"}, nil
	}

	if value == "" {
		return "", nil, nil
	}

	switch f.Type {
	case fieldtypes.FilterEqual, fieldtypes.FilterNotEqual:
		var clause string
		var arg any
		if ordered {
			d, ok := parseDecimal(fieldType, field, value)
			if !ok {
				return "", nil, nil
			}
			clause, arg = fmt.Sprintf("%s = %s", col, p), d
		} else {
			clause, arg = fmt.Sprintf("LOWER(%s) = %s", col, p), strings.ToLower(value)
		}
		if f.Type == fieldtypes.FilterNotEqual {
			clause = fmt.Sprintf("(%s IS NULL OR NOT (%s))", col, clause)
		}
		return clause, []any{arg}, nil

	case fieldtypes.FilterContains, fieldtypes.FilterContainsNot:
		if field.Type == models.FieldTypeMultipleSelect || field.Type == models.FieldTypeDuration {
			return "", nil, nil
		}
		clause := fmt.Sprintf(`LOWER(CAST(%s AS TEXT)) LIKE %s ESCAPE '\'`, col, p)
		if f.Type == fieldtypes.FilterContainsNot {
			clause = fmt.Sprintf("(%s IS NULL OR NOT (%s))", col, clause)
		}
		return clause, []any{"%" + escapeLike(strings.ToLower(value)) + "%"}, nil

	case fieldtypes.FilterContainsWord, fieldtypes.FilterDoesntContainWord:
		if b.dialect != DialectPostgres || field.Type == models.FieldTypeMultipleSelect {
			return "", nil, nil
		}
		clause := fmt.Sprintf(`CAST(%s AS TEXT) ~* %s`, col, p)
		if f.Type == fieldtypes.FilterDoesntContainWord {
			clause = fmt.Sprintf("(%s IS NULL OR NOT (%s))", col, clause)
		}
		return clause, []any{`\m` + regexp.QuoteMeta(value) + `\M`}, nil

	case fieldtypes.FilterLengthIsLowerThan:
		d, err := decimal.NewFromString(value)
		if err != nil || !d.IsInteger() {
			return "", nil, nil
		}
		return fmt.Sprintf("COALESCE(LENGTH(%s), 0) < %s", col, p), []any{d.IntPart()}, nil

	case fieldtypes.FilterHigherThan, fieldtypes.FilterHigherThanOrEqual,
		fieldtypes.FilterLowerThan, fieldtypes.FilterLowerThanOrEqual:
		d, ok := parseDecimal(fieldType, field, value)
		if !ok {
			return "", nil, nil
		}
		return fmt.Sprintf("%s %s %s", col, comparisonOperators[f.Type], p), []any{d}, nil

	case fieldtypes.FilterIsEvenAndWhole:
		return fmt.Sprintf("(%s = ROUND(%s) AND %s %% 2 = 0)", col, col, col), nil, nil

	case fieldtypes.FilterSingleSelectEqual, fieldtypes.FilterSingleSelectNotEq:
		id, err := decimal.NewFromString(value)
		if err != nil {
			return "", nil, nil
		}
		opt, ok := field.OptionByID(id.IntPart())
		if !ok {
			return "", nil, nil
		}
		clause := fmt.Sprintf("%s = %s", col, p)
		if f.Type == fieldtypes.FilterSingleSelectNotEq {
			clause = fmt.Sprintf("(%s IS NULL OR %s <> %s)", col, col, p)
		}
		return clause, []any{opt.Value}, nil

	case fieldtypes.FilterSingleSelectAnyOf, fieldtypes.FilterSingleSelectNoneOf:
		var placeholders []string
		var values []any
		for _, part := range strings.Split(value, ",") {
			id, err := decimal.NewFromString(strings.TrimSpace(part))
			if err != nil {
				return "", nil, nil
			}
			if opt, ok := field.OptionByID(id.IntPart()); ok {
				placeholders = append(placeholders, b.dialect.placeholder(paramIndex+len(values)))
				values = append(values, opt.Value)
			}
		}
		if len(values) == 0 {
			return "", nil, nil
		}
		clause := fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", "))
		if f.Type == fieldtypes.FilterSingleSelectNoneOf {
			clause = fmt.Sprintf("(%s IS NULL OR %s NOT IN (%s))", col, col, strings.Join(placeholders, ", "))
		}
		return clause, values, nil

	case fieldtypes.FilterDateIs, fieldtypes.FilterDateIsNot, fieldtypes.FilterDateIsBefore,
		fieldtypes.FilterDateIsOnOrBefore, fieldtypes.FilterDateIsAfter,
		fieldtypes.FilterDateIsOnOrAfter, fieldtypes.FilterDateIsWithin:
		return b.buildDateCondition(f, field, col, paramIndex)
	}

	return "", nil, nil
}

var comparisonOperators = map[string]string{
	fieldtypes.FilterHigherThan:        ">",
	fieldtypes.FilterHigherThanOrEqual: ">=",
	fieldtypes.FilterLowerThan:         "<",
	fieldtypes.FilterLowerThanOrEqual:  "<=",
}

func parseDecimal(fieldType fieldtypes.FieldType, field models.Field, value string) (decimal.Decimal, bool) {
	v, ok := fieldType.ParseFilterValue(field, value)
	if !ok {
		return decimal.Zero, false
	}
	d, ok := v.(decimal.Decimal)
	return d, ok
}

func (b *Builder) buildDateCondition(f models.Filter, field models.Field, col string, paramIndex int) (string, []any, error) {
	dateOnly := !field.DateIncludeTime
	r, ok := fieldtypes.ResolveDateFilter(f.Value, b.reg.Now(), dateOnly)
	if !ok {
		return "", nil, nil
	}

	p1 := b.dialect.placeholder(paramIndex)
	p2 := b.dialect.placeholder(paramIndex + 1)
	arg := func(t time.Time) any { return b.dialect.timeArg(t, dateOnly) }

	switch f.Type {
	case fieldtypes.FilterDateIs:
		return fmt.Sprintf("(%s >= %s AND %s < %s)", col, p1, col, p2), []any{arg(r.Start), arg(r.End)}, nil
	case fieldtypes.FilterDateIsNot:
		return fmt.Sprintf("(%s IS NULL OR %s < %s OR %s >= %s)", col, col, p1, col, p2), []any{arg(r.Start), arg(r.End)}, nil
	case fieldtypes.FilterDateIsBefore:
		return fmt.Sprintf("%s < %s", col, p1), []any{arg(r.Start)}, nil
	case fieldtypes.FilterDateIsOnOrBefore:
		return fmt.Sprintf("%s < %s", col, p1), []any{arg(r.End)}, nil
	case fieldtypes.FilterDateIsAfter:
		return fmt.Sprintf("%s >= %s", col, p1), []any{arg(r.End)}, nil
	case fieldtypes.FilterDateIsOnOrAfter:
		return fmt.Sprintf("%s >= %s", col, p1), []any{arg(r.Start)}, nil
	case fieldtypes.FilterDateIsWithin:
		lo, hi := r.Within()
		return fmt.Sprintf("(%s >= %s AND %s < %s)", col, p1, col, p2), []any{arg(lo), arg(hi)}, nil
	}
	return "", nil, fmt.Errorf("unsupported date filter: %s", f.Type)
}
