// Package table serves rows of a SQL table through the view filters and
// sortings, one window at a time.
package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/buffer"
	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/filter"
	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
)

// Querier runs a query and returns each row keyed by column name
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// Options describes the table behind a Source
type Options struct {
	Schema   string
	Table    string
	IDColumn string
	Dialect  filter.Dialect
	// Normalize converts driver values into values the field types understand
	Normalize func(any) any
}

// Source fetches filtered and sorted rows of a table. It implements
// buffer.Fetcher.
type Source struct {
	q       Querier
	reg     *fieldtypes.Registry
	fields  []models.Field
	view    models.View
	opts    Options
	builder *filter.Builder
	log     zerolog.Logger
}

var _ buffer.Fetcher = (*Source)(nil)

// NewSource creates a source for the view over fields of a table
func NewSource(q Querier, reg *fieldtypes.Registry, fields []models.Field, view models.View, opts Options) *Source {
	if opts.IDColumn == "" {
		opts.IDColumn = "id"
	}
	if opts.Normalize == nil {
		opts.Normalize = func(v any) any { return v }
	}
	return &Source{
		q:       q,
		reg:     reg,
		fields:  fields,
		view:    view,
		opts:    opts,
		builder: filter.NewBuilder(reg, opts.Dialect),
		log:     logging.Component("table").With().Str("table", opts.Table).Logger(),
	}
}

// Fields returns the fields of the source
func (s *Source) Fields() []models.Field {
	return s.fields
}

func (s *Source) from() string {
	if s.opts.Schema == "" {
		return filter.QuoteIdent(s.opts.Table)
	}
	return filter.QuoteIdent(s.opts.Schema) + "." + filter.QuoteIdent(s.opts.Table)
}

func (s *Source) where() (string, []any, error) {
	if s.view.FiltersDisabled || len(s.view.Filters) == 0 {
		return "", nil, nil
	}
	tree := filter.BuildTree(s.view.FilterType, s.view.Filters, s.view.FilterGroups)
	return s.builder.BuildWhere(tree, s.fields)
}

// orderBy renders group bys and sortings followed by the id column. Nulls
// sort first ascending, matching the client side comparator.
func (s *Source) orderBy() string {
	var terms []string
	for _, sort := range append(append([]models.Sort{}, s.view.GroupBys...), s.view.Sortings...) {
		field, ok := models.FindField(s.fields, sort.Field)
		if !ok {
			continue
		}
		col := field.Column
		if col == "" {
			continue
		}
		if sort.Order == models.SortDesc {
			terms = append(terms, filter.QuoteIdent(col)+" DESC NULLS LAST")
		} else {
			terms = append(terms, filter.QuoteIdent(col)+" ASC NULLS FIRST")
		}
	}
	terms = append(terms, filter.QuoteIdent(s.opts.IDColumn)+" ASC")
	return "ORDER BY " + strings.Join(terms, ", ")
}

// CountQuery builds the statement counting the matching rows
func (s *Source) CountQuery() (string, []any, error) {
	where, args, err := s.where()
	if err != nil {
		return "", nil, err
	}
	return joinSQL("SELECT COUNT(*) AS count FROM "+s.from(), where), args, nil
}

// RowsQuery builds the statement selecting a window of matching rows
func (s *Source) RowsQuery(offset, limit int) (string, []any, error) {
	where, args, err := s.where()
	if err != nil {
		return "", nil, err
	}
	sql := joinSQL("SELECT * FROM "+s.from(), where, s.orderBy(), fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset))
	return sql, args, nil
}

func joinSQL(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Count returns the number of matching rows
func (s *Source) Count(ctx context.Context) (int, error) {
	sql, args, err := s.CountQuery()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("failed to count rows: no rows returned")
	}
	n, ok := toInt64(s.opts.Normalize(rows[0]["count"]))
	if !ok {
		return 0, fmt.Errorf("failed to count rows: unexpected count %v", rows[0]["count"])
	}
	return int(n), nil
}

// FetchRows loads the matching rows in [Offset, Offset+Limit) and the total count
func (s *Source) FetchRows(ctx context.Context, req buffer.FetchRequest) (buffer.FetchResult, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return buffer.FetchResult{}, err
	}

	sql, args, err := s.RowsQuery(req.Offset, req.Limit)
	if err != nil {
		return buffer.FetchResult{}, fmt.Errorf("failed to build rows query: %w", err)
	}
	s.log.Debug().Str("sql", sql).Int("args", len(args)).Msg("fetching rows")

	raw, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return buffer.FetchResult{}, fmt.Errorf("failed to query rows: %w", err)
	}

	rows := make([]models.Row, 0, len(raw))
	for i, r := range raw {
		rows = append(rows, s.convert(r, int64(req.Offset+i+1)))
	}
	return buffer.FetchResult{Rows: rows, Count: count}, nil
}

// convert maps a result row onto field keys. fallbackID is used when the id
// column is missing or not an integer.
func (s *Source) convert(r map[string]any, fallbackID int64) models.Row {
	id, ok := toInt64(s.opts.Normalize(r[s.opts.IDColumn]))
	if !ok {
		id = fallbackID
	}
	values := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if f.Column == "" {
			continue
		}
		values[f.Key()] = s.opts.Normalize(r[f.Column])
	}
	return models.Row{ID: id, Order: decimal.NewFromInt(id), Values: values}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case decimal.Decimal:
		if !n.IsInteger() {
			return 0, false
		}
		return n.IntPart(), true
	default:
		return 0, false
	}
}
