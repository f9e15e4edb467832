// Package view evaluates the filters, sortings and search of a table view
// against rows held on the client.
package view

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/filter"
	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
	"github.com/rebelice/lazyview/internal/search"
	"github.com/rebelice/lazyview/internal/sorting"
)

// Engine binds a view to its fields and an optional search term. It is
// immutable; build a new one when the view changes.
type Engine struct {
	reg    *fieldtypes.Registry
	fields []models.Field
	view   models.View

	tree     *filter.Tree
	compare  fieldtypes.RowCompare
	searcher *search.Searcher

	hideNonMatching bool
	log             zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithSearch enables searching for term. With hideNonMatching set rows
// without any matching cell are not visible.
func WithSearch(term string, mode search.Mode, hideNonMatching bool) Option {
	return func(e *Engine) {
		if mode == "" {
			mode = search.DefaultMode
		}
		e.searcher = search.NewSearcher(e.reg, e.fields, term, mode)
		e.hideNonMatching = hideNonMatching
	}
}

// WithLogger overrides the engine logger
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine prepares the filter tree and row comparator of view
func NewEngine(reg *fieldtypes.Registry, fields []models.Field, view models.View, opts ...Option) *Engine {
	e := &Engine{
		reg:    reg,
		fields: fields,
		view:   view,
		tree:   filter.BuildTree(view.FilterType, view.Filters, view.FilterGroups),
		log:    logging.WithView(view.Name),
	}
	e.compare = sorting.BuildRowComparator(reg, view.Sortings, fields, view.GroupBys)
	for _, opt := range opts {
		opt(e)
	}
	if e.searcher == nil {
		e.searcher = search.NewSearcher(reg, fields, "", search.DefaultMode)
	}

	e.log.Debug().
		Int("fields", len(fields)).
		Int("filters", len(view.Filters)).
		Int("groups", len(view.FilterGroups)).
		Int("sortings", len(view.Sortings)).
		Msg("view engine ready")
	return e
}

// Fields returns the fields of the engine
func (e *Engine) Fields() []models.Field {
	return e.fields
}

// View returns the view of the engine
func (e *Engine) View() models.View {
	return e.view
}

// MatchFilters reports whether row passes the view filters
func (e *Engine) MatchFilters(row models.Row, overrides map[string]any) bool {
	if e.view.FiltersDisabled || len(e.view.Filters) == 0 {
		return true
	}
	return e.tree.Matches(e.reg, e.fields, row, overrides)
}

// MatchSearch searches row for the engine search term
func (e *Engine) MatchSearch(row models.Row, overrides map[string]any) search.Result {
	return e.searcher.Row(row, e.hideNonMatching, overrides)
}

// Visible reports whether row passes both filters and search
func (e *Engine) Visible(row models.Row, overrides map[string]any) bool {
	return e.MatchFilters(row, overrides) && e.MatchSearch(row, overrides).MatchSearch
}

// Compare orders two rows by the view sortings
func (e *Engine) Compare(a, b models.Row) int {
	return e.compare(a, b)
}

// Apply returns the visible rows of rows in view order. rows is not modified.
func (e *Engine) Apply(rows []models.Row) []models.Row {
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if e.Visible(row, nil) {
			out = append(out, row)
		}
	}
	sorting.SortRows(out, e.compare)
	e.log.Debug().Int("rows", len(rows)).Int("visible", len(out)).Msg("applied view")
	return out
}

// Search returns the search result of every row in order, including rows
// that do not match.
func (e *Engine) Search(rows []models.Row) []search.Result {
	out := make([]search.Result, len(rows))
	for i, row := range rows {
		out[i] = e.MatchSearch(row, nil)
	}
	return out
}

// SortParam encodes the sortings and group bys as a list query parameter
func (e *Engine) SortParam() string {
	return sorting.EncodeSortings(e.view.Sortings, e.view.GroupBys)
}

// Tree returns the filter tree of the view
func (e *Engine) Tree() *filter.Tree {
	return e.tree
}

// FilterTree serializes the filter tree into its nested wire form
func (e *Engine) FilterTree() ([]byte, error) {
	data, err := json.Marshal(e.tree.Serialize())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize filter tree: %w", err)
	}
	return data, nil
}
