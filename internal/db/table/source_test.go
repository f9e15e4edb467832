package table

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelice/lazyview/internal/buffer"
	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/filter"
	"github.com/rebelice/lazyview/internal/models"
)

type query struct {
	sql  string
	args []any
}

// fakeQuerier answers count queries with count and row queries with rows
type fakeQuerier struct {
	count   any
	rows    []map[string]any
	err     error
	queries []query
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	f.queries = append(f.queries, query{sql, args})
	if f.err != nil {
		return nil, f.err
	}
	if strings.HasPrefix(sql, "SELECT COUNT(*)") {
		return []map[string]any{{"count": f.count}}, nil
	}
	return f.rows, nil
}

var sourceFields = FieldsFromColumns([]Column{
	{Name: "id", DataType: "integer"},
	{Name: "name", DataType: "text"},
	{Name: "count", DataType: "integer"},
}, func(c Column) models.Field {
	if c.DataType == "integer" {
		return models.Field{Type: models.FieldTypeNumber}
	}
	return models.Field{Type: models.FieldTypeText}
})

func TestFieldsFromColumns(t *testing.T) {
	require.Len(t, sourceFields, 3)
	assert.Equal(t, models.Field{ID: 1, Name: "id", Type: models.FieldTypeNumber, Primary: true, Column: "id"}, sourceFields[0])
	assert.Equal(t, "field_3", sourceFields[2].Key())
	assert.False(t, sourceFields[2].Primary)
}

func TestRowsQuery(t *testing.T) {
	view := models.View{
		FilterType: models.FilterTypeAnd,
		Filters:    []models.Filter{{ID: 1, Field: 3, Type: fieldtypes.FilterHigherThan, Value: "4"}},
		Sortings:   []models.Sort{{Field: 3, Order: models.SortDesc}, {Field: 42, Order: models.SortAsc}},
		GroupBys:   []models.Sort{{Field: 2, Order: models.SortAsc}},
	}

	tests := []struct {
		name      string
		opts      Options
		wantRows  string
		wantCount string
	}{
		{
			name:      "postgres",
			opts:      Options{Schema: "public", Table: "items", Dialect: filter.DialectPostgres},
			wantRows:  `SELECT * FROM "public"."items" WHERE "count" > $1 ORDER BY "name" ASC NULLS FIRST, "count" DESC NULLS LAST, "id" ASC LIMIT 40 OFFSET 80`,
			wantCount: `SELECT COUNT(*) AS count FROM "public"."items" WHERE "count" > $1`,
		},
		{
			name:      "sqlite",
			opts:      Options{Table: "items", Dialect: filter.DialectSQLite},
			wantRows:  `SELECT * FROM "items" WHERE "count" > ? ORDER BY "name" ASC NULLS FIRST, "count" DESC NULLS LAST, "id" ASC LIMIT 40 OFFSET 80`,
			wantCount: `SELECT COUNT(*) AS count FROM "items" WHERE "count" > ?`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(&fakeQuerier{}, fieldtypes.Default(), sourceFields, view, tt.opts)

			sql, args, err := s.RowsQuery(80, 40)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, sql)
			require.Len(t, args, 1)

			sql, _, err = s.CountQuery()
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, sql)
		})
	}
}

func TestRowsQueryWithoutFilters(t *testing.T) {
	view := models.View{
		FiltersDisabled: true,
		Filters:         []models.Filter{{ID: 1, Field: 3, Type: fieldtypes.FilterHigherThan, Value: "4"}},
	}
	s := NewSource(&fakeQuerier{}, fieldtypes.Default(), sourceFields, view, Options{Table: "items"})

	sql, args, err := s.RowsQuery(0, 10)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "items" ORDER BY "id" ASC LIMIT 10 OFFSET 0`, sql)
	assert.Empty(t, args)
}

func TestFetchRows(t *testing.T) {
	q := &fakeQuerier{
		count: int64(120),
		rows: []map[string]any{
			{"id": int32(7), "name": "a", "count": int64(5)},
			{"id": nil, "name": "b", "count": nil},
		},
	}
	s := NewSource(q, fieldtypes.Default(), sourceFields, models.View{}, Options{Table: "items"})

	res, err := s.FetchRows(context.Background(), buffer.FetchRequest{Offset: 40, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 120, res.Count)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, int64(7), res.Rows[0].ID)
	assert.True(t, decimal.NewFromInt(7).Equal(res.Rows[0].Order))
	assert.Equal(t, "a", res.Rows[0].Values["field_2"])
	assert.Equal(t, int64(5), res.Rows[0].Values["field_3"])

	assert.Equal(t, int64(42), res.Rows[1].ID)
	assert.Nil(t, res.Rows[1].Values["field_3"])
	assert.Len(t, q.queries, 2)
}

func TestFetchRowsNormalizes(t *testing.T) {
	q := &fakeQuerier{
		count: "3",
		rows:  []map[string]any{{"id": "9", "name": []byte("raw"), "count": "1"}},
	}
	normalize := func(v any) any {
		switch val := v.(type) {
		case []byte:
			return string(val)
		case string:
			if d, err := decimal.NewFromString(val); err == nil {
				return d
			}
		}
		return v
	}
	s := NewSource(q, fieldtypes.Default(), sourceFields, models.View{}, Options{Table: "items", Normalize: normalize})

	res, err := s.FetchRows(context.Background(), buffer.FetchRequest{Offset: 0, Limit: 40})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(9), res.Rows[0].ID)
	assert.Equal(t, "raw", res.Rows[0].Values["field_2"])
}

func TestFetchRowsErrors(t *testing.T) {
	s := NewSource(&fakeQuerier{err: errors.New("boom")}, fieldtypes.Default(), sourceFields, models.View{}, Options{Table: "items"})
	_, err := s.FetchRows(context.Background(), buffer.FetchRequest{Limit: 10})
	assert.ErrorContains(t, err, "failed to count rows: boom")

	s = NewSource(&fakeQuerier{count: "many"}, fieldtypes.Default(), sourceFields, models.View{}, Options{Table: "items"})
	_, err = s.Count(context.Background())
	assert.ErrorContains(t, err, "unexpected count")
}

func TestSourceWithBuffer(t *testing.T) {
	q := &fakeQuerier{count: int64(1)}
	q.rows = []map[string]any{{"id": int64(1), "name": "only", "count": int64(1)}}
	s := NewSource(q, fieldtypes.Default(), sourceFields, models.View{}, Options{Table: "items"})

	b := buffer.New(s, buffer.DefaultConfig())
	b.SetWindowHeight(330)
	require.NoError(t, b.FetchInitial(context.Background()))
	assert.Equal(t, 1, b.State().Count)
	require.Len(t, b.VisibleRows(), 1)
	assert.Equal(t, "only", b.VisibleRows()[0].Values["field_2"])
}
