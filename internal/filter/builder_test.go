package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

var builderFields = []models.Field{
	{ID: 1, Type: models.FieldTypeText, Column: "name"},
	{ID: 2, Type: models.FieldTypeNumber, Column: "count"},
	{ID: 3, Type: models.FieldTypeDate, Column: "due"},
	{ID: 4, Type: models.FieldTypeSingleSelect, Column: "status", SelectOptions: []models.SelectOption{
		{ID: 1, Value: "open"}, {ID: 2, Value: "closed"},
	}},
	{ID: 5, Type: models.FieldTypeBoolean},
}

func TestBuildWhereEmpty(t *testing.T) {
	b := NewBuilder(fieldtypes.Default(), DialectPostgres)

	where, args, err := b.BuildWhere(BuildTree(models.FilterTypeAnd, nil, nil), builderFields)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Nil(t, args)

	where, _, err = b.BuildWhere(nil, builderFields)
	require.NoError(t, err)
	assert.Empty(t, where)
}

func TestBuildWhereNested(t *testing.T) {
	tree := BuildTree(models.FilterTypeAnd, []models.Filter{
		{ID: 1, Field: 1, Type: fieldtypes.FilterContains, Value: "A_"},
		{ID: 2, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "4", Group: models.GroupID(1)},
		{ID: 3, Field: 2, Type: fieldtypes.FilterLowerThan, Value: "1", Group: models.GroupID(1)},
	}, []models.FilterGroup{{ID: 1, FilterType: models.FilterTypeOr}})

	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{"postgres", DialectPostgres, `WHERE ("count" > $1 OR "count" < $2) AND LOWER(CAST("name" AS TEXT)) LIKE $3 ESCAPE '\'`},
		{"sqlite", DialectSQLite, `WHERE ("count" > ? OR "count" < ?) AND LOWER(CAST("name" AS TEXT)) LIKE ? ESCAPE '\'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := NewBuilder(fieldtypes.Default(), tt.dialect).BuildWhere(tree, builderFields)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, where)
			require.Len(t, args, 3)
			assert.True(t, decimal.NewFromInt(4).Equal(args[0].(decimal.Decimal)))
			assert.True(t, decimal.NewFromInt(1).Equal(args[1].(decimal.Decimal)))
			assert.Equal(t, `%a\_%`, args[2])
		})
	}
}

func TestBuildWhereSkipsInapplicableFilters(t *testing.T) {
	tree := BuildTree(models.FilterTypeAnd, []models.Filter{
		{ID: 1, Field: 1, Type: fieldtypes.FilterContains, Value: ""},
		{ID: 2, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "abc"},
		{ID: 3, Field: 99, Type: fieldtypes.FilterEqual, Value: "x"},
		{ID: 4, Field: 1, Type: fieldtypes.FilterHigherThan, Value: "1"},
		{ID: 5, Field: 2, Type: fieldtypes.FilterEqual, Value: "7"},
	}, nil)

	where, args, err := NewBuilder(fieldtypes.Default(), DialectPostgres).BuildWhere(tree, builderFields)
	require.NoError(t, err)
	assert.Equal(t, `WHERE "count" = $1`, where)
	require.Len(t, args, 1)
}

func TestBuildWhereAllInapplicable(t *testing.T) {
	tree := BuildTree(models.FilterTypeOr, []models.Filter{
		{ID: 1, Field: 1, Type: fieldtypes.FilterEqual, Value: " "},
	}, nil)

	where, args, err := NewBuilder(fieldtypes.Default(), DialectPostgres).BuildWhere(tree, builderFields)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhereGroupsWithoutApplicableFilters(t *testing.T) {
	tests := []struct {
		name     string
		rootType models.FilterType
		filters  []models.Filter
		groups   []models.FilterGroup
		expected string
		args     int
	}{
		{
			name:     "or parent with inapplicable and group passes everything",
			rootType: models.FilterTypeOr,
			filters: []models.Filter{
				{ID: 1, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "8"},
				{ID: 2, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "", Group: models.GroupID(1)},
			},
			groups: []models.FilterGroup{{ID: 1, FilterType: models.FilterTypeAnd}},
		},
		{
			name:     "or parent with empty group passes everything",
			rootType: models.FilterTypeOr,
			filters: []models.Filter{
				{ID: 1, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "8"},
				{ID: 2, Field: 1, Type: fieldtypes.FilterContains, Value: "a", Group: models.GroupID(1)},
			},
			groups: []models.FilterGroup{
				{ID: 1, FilterType: models.FilterTypeAnd},
				{ID: 2, FilterType: models.FilterTypeOr},
			},
		},
		{
			name:     "and parent drops inapplicable or group",
			rootType: models.FilterTypeAnd,
			filters: []models.Filter{
				{ID: 1, Field: 2, Type: fieldtypes.FilterEqual, Value: "7"},
				{ID: 2, Field: 99, Type: fieldtypes.FilterEqual, Value: "x", Group: models.GroupID(1)},
			},
			groups:   []models.FilterGroup{{ID: 1, FilterType: models.FilterTypeOr}},
			expected: `WHERE "count" = $1`,
			args:     1,
		},
		{
			name:     "collapsed or group releases its parameters",
			rootType: models.FilterTypeAnd,
			filters: []models.Filter{
				{ID: 1, Field: 2, Type: fieldtypes.FilterLowerThan, Value: "9"},
				{ID: 2, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "1", Group: models.GroupID(2)},
				{ID: 3, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "x", Group: models.GroupID(3)},
			},
			groups: []models.FilterGroup{
				{ID: 1, FilterType: models.FilterTypeOr},
				{ID: 2, FilterType: models.FilterTypeAnd, ParentGroup: models.GroupID(1)},
				{ID: 3, FilterType: models.FilterTypeAnd, ParentGroup: models.GroupID(1)},
			},
			expected: `WHERE "count" < $1`,
			args:     1,
		},
		{
			name:     "group with an applicable filter still filters",
			rootType: models.FilterTypeOr,
			filters: []models.Filter{
				{ID: 1, Field: 2, Type: fieldtypes.FilterHigherThan, Value: "8"},
				{ID: 2, Field: 99, Type: fieldtypes.FilterEqual, Value: "x", Group: models.GroupID(1)},
				{ID: 3, Field: 1, Type: fieldtypes.FilterContains, Value: "zz", Group: models.GroupID(1)},
			},
			groups:   []models.FilterGroup{{ID: 1, FilterType: models.FilterTypeAnd}},
			expected: `WHERE (LOWER(CAST("name" AS TEXT)) LIKE $1 ESCAPE '\') OR "count" > $2`,
			args:     2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := BuildTree(tt.rootType, tt.filters, tt.groups)
			where, args, err := NewBuilder(fieldtypes.Default(), DialectPostgres).BuildWhere(tree, builderFields)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, where)
			assert.Len(t, args, tt.args)
		})
	}
}

func TestBuildWhereConditions(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.Filter
		expected string
		args     []any
	}{
		{
			name:     "text equal",
			filter:   models.Filter{Field: 1, Type: fieldtypes.FilterEqual, Value: "Bob"},
			expected: `WHERE LOWER("name") = $1`,
			args:     []any{"bob"},
		},
		{
			name:     "empty text",
			filter:   models.Filter{Field: 1, Type: fieldtypes.FilterEmpty},
			expected: `WHERE ("name" IS NULL OR "name" = '')`,
		},
		{
			name:     "not empty number",
			filter:   models.Filter{Field: 2, Type: fieldtypes.FilterNotEmpty},
			expected: `WHERE NOT ("count" IS NULL)`,
		},
		{
			name:     "boolean without column",
			filter:   models.Filter{Field: 5, Type: fieldtypes.FilterBoolean, Value: "1"},
			expected: `WHERE COALESCE("field_5", FALSE) = $1`,
			args:     []any{true},
		},
		{
			name:     "single select",
			filter:   models.Filter{Field: 4, Type: fieldtypes.FilterSingleSelectEqual, Value: "2"},
			expected: `WHERE "status" = $1`,
			args:     []any{"closed"},
		},
		{
			name:     "single select any of",
			filter:   models.Filter{Field: 4, Type: fieldtypes.FilterSingleSelectAnyOf, Value: "1,2"},
			expected: `WHERE "status" IN ($1, $2)`,
			args:     []any{"open", "closed"},
		},
		{
			name:     "contains word",
			filter:   models.Filter{Field: 1, Type: fieldtypes.FilterContainsWord, Value: "a.b"},
			expected: `WHERE CAST("name" AS TEXT) ~* $1`,
			args:     []any{`\ma\.b\M`},
		},
		{
			name:     "length",
			filter:   models.Filter{Field: 1, Type: fieldtypes.FilterLengthIsLowerThan, Value: "5"},
			expected: `WHERE COALESCE(LENGTH("name"), 0) < $1`,
			args:     []any{int64(5)},
		},
		{
			name:     "even",
			filter:   models.Filter{Field: 2, Type: fieldtypes.FilterIsEvenAndWhole},
			expected: `WHERE ("count" = ROUND("count") AND "count" % 2 = 0)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := BuildTree(models.FilterTypeAnd, []models.Filter{tt.filter}, nil)
			where, args, err := NewBuilder(fieldtypes.Default(), DialectPostgres).BuildWhere(tree, builderFields)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, where)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestBuildWhereDates(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	reg := fieldtypes.Default(fieldtypes.WithClock(func() time.Time { return now }))
	tree := BuildTree(models.FilterTypeAnd, []models.Filter{
		{ID: 1, Field: 3, Type: fieldtypes.FilterDateIs, Value: "UTC??today"},
	}, nil)

	where, args, err := NewBuilder(reg, DialectPostgres).BuildWhere(tree, builderFields)
	require.NoError(t, err)
	assert.Equal(t, `WHERE ("due" >= $1 AND "due" < $2)`, where)
	assert.Equal(t, []any{
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
	}, args)

	where, args, err = NewBuilder(reg, DialectSQLite).BuildWhere(tree, builderFields)
	require.NoError(t, err)
	assert.Equal(t, `WHERE ("due" >= ? AND "due" < ?)`, where)
	assert.Equal(t, []any{"2024-03-15", "2024-03-16"}, args)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"name"`, QuoteIdent("name"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}
