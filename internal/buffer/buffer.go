// Package buffer keeps a sliding window of table rows in memory and fetches
// only the rows needed as the visible window moves.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rebelice/lazyview/internal/logging"
	"github.com/rebelice/lazyview/internal/models"
)

// Config holds the sizing of the buffer
type Config struct {
	RowHeight         int           `mapstructure:"row_height"`
	RowPadding        int           `mapstructure:"row_padding"`
	BufferRequestSize int           `mapstructure:"request_size"`
	ScrollInterval    time.Duration `mapstructure:"scroll_interval"`
}

// DefaultConfig returns the default buffer sizing
func DefaultConfig() Config {
	return Config{
		RowHeight:         33,
		RowPadding:        16,
		BufferRequestSize: 40,
		ScrollInterval:    100 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RowHeight <= 0 {
		c.RowHeight = d.RowHeight
	}
	if c.RowPadding < 0 {
		c.RowPadding = 0
	}
	if c.BufferRequestSize <= 0 {
		c.BufferRequestSize = d.BufferRequestSize
	}
	if c.ScrollInterval <= 0 {
		c.ScrollInterval = d.ScrollInterval
	}
	return c
}

// FetchRequest asks for a contiguous span of rows
type FetchRequest struct {
	Offset int
	Limit  int
}

// FetchResult holds the fetched rows and the total row count
type FetchResult struct {
	Rows  []models.Row
	Count int
}

// Fetcher loads rows. Implementations must stop when ctx is cancelled.
type Fetcher interface {
	FetchRows(ctx context.Context, req FetchRequest) (FetchResult, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, req FetchRequest) (FetchResult, error)

func (f FetcherFunc) FetchRows(ctx context.Context, req FetchRequest) (FetchResult, error) {
	return f(ctx, req)
}

// Evaluator decides visibility and order of rows for optimistic updates
type Evaluator interface {
	Visible(row models.Row, overrides map[string]any) bool
	Compare(a, b models.Row) int
}

// defaultEvaluator shows every row in order, id order
type defaultEvaluator struct{}

func (defaultEvaluator) Visible(models.Row, map[string]any) bool { return true }

func (defaultEvaluator) Compare(a, b models.Row) int {
	if c := a.Order.Cmp(b.Order); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// State is a snapshot of the buffer window
type State struct {
	Count             int
	BufferStartIndex  int
	BufferLimit       int
	RowsStartIndex    int
	RowsEndIndex      int
	RowsTop           int
	VisibleStartIndex int
	VisibleEndIndex   int
	Fetching          bool
}

// Buffer is the row window of a single grid. It is safe for concurrent use;
// fetches run without holding the lock and the latest request wins.
type Buffer struct {
	mu      sync.Mutex
	cfg     Config
	fetcher Fetcher
	eval    Evaluator
	log     zerolog.Logger

	rows             []models.Row
	bufferStartIndex int
	rowsStartIndex   int
	rowsEndIndex     int
	rowsTop          int
	count            int

	scrollTop    float64
	windowHeight float64

	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Buffer
type Option func(*Buffer)

// WithEvaluator sets the evaluator used by optimistic updates
func WithEvaluator(e Evaluator) Option {
	return func(b *Buffer) {
		if e != nil {
			b.eval = e
		}
	}
}

// WithLogger overrides the buffer logger
func WithLogger(l zerolog.Logger) Option {
	return func(b *Buffer) {
		b.log = l
	}
}

// New creates an empty buffer
func New(fetcher Fetcher, cfg Config, opts ...Option) *Buffer {
	b := &Buffer{
		cfg:     cfg.withDefaults(),
		fetcher: fetcher,
		eval:    defaultEvaluator{},
		log:     logging.Component("buffer"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config returns the effective configuration
func (b *Buffer) Config() Config {
	return b.cfg
}

// window is the computed visible and buffer ranges for a scroll position.
// All indexes are absolute, end indexes are exclusive.
type window struct {
	visibleStart int
	visibleEnd   int
	bufferStart  int
	bufferEnd    int
}

// computeWindow derives the ranges for a scroll position. The padding covers
// half the window height plus the configured row padding on either side of
// the middle row.
func (b *Buffer) computeWindow(scrollTop, windowHeight float64, count int) window {
	if count <= 0 {
		return window{}
	}
	rowHeight := float64(b.cfg.RowHeight)
	req := b.cfg.BufferRequestSize
	padding := int(math.Ceil(windowHeight/rowHeight/2)) + b.cfg.RowPadding

	middle := scrollTop + windowHeight/2
	mid := clamp(int(math.Ceil(middle/rowHeight))-1, 0, count-1)

	w := window{
		visibleStart: max(mid-padding, 0),
		visibleEnd:   min(mid+padding, count-1) + 1,
	}
	w.bufferStart = max(ceilDiv(w.visibleStart-req, req)*req, 0)
	w.bufferEnd = min(ceilDiv(w.visibleEnd+req, req)*req, count)
	return w
}

// ceilDiv divides rounding towards positive infinity
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// applyVisibleLocked sets the visible sub window, clamped to the buffer
func (b *Buffer) applyVisibleLocked(w window) {
	start := b.bufferStartIndex
	end := b.bufferStartIndex + len(b.rows)
	vs := clamp(w.visibleStart, start, end)
	ve := clamp(w.visibleEnd, vs, end)
	b.rowsStartIndex = vs - start
	b.rowsEndIndex = ve - start
	b.rowsTop = vs * b.cfg.RowHeight
}

func (b *Buffer) refreshVisibleLocked() {
	b.applyVisibleLocked(b.computeWindow(b.scrollTop, b.windowHeight, b.count))
}

// clampLocked keeps the window inside the row count after it changed
func (b *Buffer) clampLocked() {
	if b.count < 0 {
		b.count = 0
	}
	if b.bufferStartIndex > b.count {
		b.bufferStartIndex = b.count
	}
	if b.bufferStartIndex < 0 {
		b.bufferStartIndex = 0
	}
	if over := b.bufferStartIndex + len(b.rows) - b.count; over > 0 {
		b.rows = b.rows[:len(b.rows)-over]
	}
	b.refreshVisibleLocked()
}

// beginFetchLocked cancels the in flight fetch and starts a new generation
func (b *Buffer) beginFetchLocked(ctx context.Context) (context.Context, uint64) {
	if b.cancel != nil {
		b.cancel()
	}
	b.generation++
	fctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	return fctx, b.generation
}

// endFetchLocked reports whether the fetch of generation gen is still current
func (b *Buffer) endFetchLocked(gen uint64) bool {
	if gen != b.generation {
		return false
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	return true
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// FetchInitial loads the first rows of the table and resets the window to the top
func (b *Buffer) FetchInitial(ctx context.Context) error {
	b.mu.Lock()
	limit := b.cfg.BufferRequestSize * 2
	fctx, gen := b.beginFetchLocked(ctx)
	b.mu.Unlock()

	b.log.Debug().Int("limit", limit).Msg("fetching initial rows")
	res, err := b.fetcher.FetchRows(fctx, FetchRequest{Offset: 0, Limit: limit})

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.endFetchLocked(gen) {
		b.log.Debug().Uint64("generation", gen).Msg("discarding stale initial fetch")
		return nil
	}
	if err != nil {
		if isCancellation(fctx, err) {
			return nil
		}
		return fmt.Errorf("failed to fetch initial rows: %w", err)
	}

	b.count = res.Count
	b.bufferStartIndex = 0
	b.rows = append([]models.Row(nil), res.Rows...)
	b.scrollTop = 0
	b.clampLocked()
	return nil
}

// SetWindowHeight stores the height of the viewport and recomputes the visible rows
func (b *Buffer) SetWindowHeight(windowHeight float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windowHeight = windowHeight
	b.refreshVisibleLocked()
}

// VisibleByScrollTop moves the visible window inside the current buffer
// without fetching
func (b *Buffer) VisibleByScrollTop(scrollTop, windowHeight float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scrollTop = scrollTop
	b.windowHeight = windowHeight
	b.refreshVisibleLocked()
}

// FetchByScrollTop moves the buffer to cover the scroll position. Rows that
// are no longer needed are dropped, newly needed rows become placeholders and
// a single fetch fills the span of placeholders. A newer call cancels the
// in flight fetch; cancelled and stale responses are discarded.
func (b *Buffer) FetchByScrollTop(ctx context.Context, scrollTop, windowHeight float64) error {
	b.mu.Lock()
	b.scrollTop = scrollTop
	b.windowHeight = windowHeight
	w := b.computeWindow(scrollTop, windowHeight, b.count)
	b.reshapeLocked(w.bufferStart, w.bufferEnd)
	b.applyVisibleLocked(w)

	first, last := -1, -1
	for i, r := range b.rows {
		if r.Loading {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		b.mu.Unlock()
		return nil
	}

	req := FetchRequest{Offset: b.bufferStartIndex + first, Limit: last - first + 1}
	fctx, gen := b.beginFetchLocked(ctx)
	b.mu.Unlock()

	b.log.Debug().
		Int("offset", req.Offset).
		Int("limit", req.Limit).
		Uint64("generation", gen).
		Msg("fetching rows")
	res, err := b.fetcher.FetchRows(fctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.endFetchLocked(gen) {
		b.log.Debug().Uint64("generation", gen).Msg("discarding stale rows")
		return nil
	}
	if err != nil {
		if isCancellation(fctx, err) {
			return nil
		}
		return fmt.Errorf("failed to fetch rows %d-%d: %w", req.Offset, req.Offset+req.Limit, err)
	}

	for i, row := range res.Rows {
		rel := req.Offset + i - b.bufferStartIndex
		if rel < 0 || rel >= len(b.rows) || !b.rows[rel].Loading {
			continue
		}
		b.rows[rel] = row
	}
	if res.Count != b.count {
		b.log.Debug().Int("old", b.count).Int("new", res.Count).Msg("row count changed")
		b.count = res.Count
	}
	b.clampLocked()
	return nil
}

// reshapeLocked moves the buffer to [start, end), keeping rows already held
// and inserting placeholders for the rest
func (b *Buffer) reshapeLocked(start, end int) {
	if end < start {
		end = start
	}
	oldStart := b.bufferStartIndex
	oldEnd := oldStart + len(b.rows)
	if start == oldStart && end == oldEnd {
		return
	}

	rows := make([]models.Row, end-start)
	for i := range rows {
		abs := start + i
		if abs >= oldStart && abs < oldEnd {
			rows[i] = b.rows[abs-oldStart]
		} else {
			rows[i] = models.Placeholder()
		}
	}
	b.rows = rows
	b.bufferStartIndex = start
}

// Refresh refetches the rows of the current buffer span and the count
func (b *Buffer) Refresh(ctx context.Context) error {
	b.mu.Lock()
	offset := b.bufferStartIndex
	limit := len(b.rows)
	if limit < b.cfg.BufferRequestSize*2 {
		limit = b.cfg.BufferRequestSize * 2
	}
	fctx, gen := b.beginFetchLocked(ctx)
	b.mu.Unlock()

	res, err := b.fetcher.FetchRows(fctx, FetchRequest{Offset: offset, Limit: limit})

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.endFetchLocked(gen) {
		return nil
	}
	if err != nil {
		if isCancellation(fctx, err) {
			return nil
		}
		return fmt.Errorf("failed to refresh rows: %w", err)
	}

	b.count = res.Count
	b.bufferStartIndex = min(offset, res.Count)
	b.rows = append([]models.Row(nil), res.Rows...)
	b.clampLocked()
	return nil
}

// Clear cancels any fetch and empties the buffer
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.generation++
	b.rows = nil
	b.bufferStartIndex = 0
	b.rowsStartIndex = 0
	b.rowsEndIndex = 0
	b.rowsTop = 0
	b.count = 0
	b.scrollTop = 0
}

// State returns a snapshot of the window
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		Count:             b.count,
		BufferStartIndex:  b.bufferStartIndex,
		BufferLimit:       len(b.rows),
		RowsStartIndex:    b.rowsStartIndex,
		RowsEndIndex:      b.rowsEndIndex,
		RowsTop:           b.rowsTop,
		VisibleStartIndex: b.bufferStartIndex + b.rowsStartIndex,
		VisibleEndIndex:   b.bufferStartIndex + b.rowsEndIndex,
		Fetching:          b.cancel != nil,
	}
}

// Rows returns a copy of the buffered rows
func (b *Buffer) Rows() []models.Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Row(nil), b.rows...)
}

// VisibleRows returns a copy of the rows in the visible window
func (b *Buffer) VisibleRows() []models.Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Row(nil), b.rows[b.rowsStartIndex:b.rowsEndIndex]...)
}
