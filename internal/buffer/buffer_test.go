package buffer

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelice/lazyview/internal/models"
)

func tableRow(i int) models.Row {
	return models.NewRow(int64(i+1), strconv.Itoa(i+1), map[string]any{"rank": float64(i + 1)})
}

// fakeTable serves rows id 1..count with order and rank equal to the id
type fakeTable struct {
	mu       sync.Mutex
	count    int
	err      error
	requests []FetchRequest
}

func (f *fakeTable) FetchRows(_ context.Context, req FetchRequest) (FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return FetchResult{}, f.err
	}
	var rows []models.Row
	for i := req.Offset; i < req.Offset+req.Limit && i < f.count; i++ {
		rows = append(rows, tableRow(i))
	}
	return FetchResult{Rows: rows, Count: f.count}, nil
}

func (f *fakeTable) lastRequest() FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeTable) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

const windowHeight = 330

// scrollTo returns the scroll top placing row index i at the top of the window
func scrollTo(i int) float64 {
	return float64(i * 33)
}

func newLoadedBuffer(t *testing.T, count int, opts ...Option) (*Buffer, *fakeTable) {
	t.Helper()
	table := &fakeTable{count: count}
	b := New(table, DefaultConfig(), opts...)
	b.SetWindowHeight(windowHeight)
	require.NoError(t, b.FetchInitial(context.Background()))
	return b, table
}

func assertConsistent(t *testing.T, b *Buffer) {
	t.Helper()
	s := b.State()
	assert.LessOrEqual(t, s.BufferStartIndex+s.BufferLimit, s.Count)
	assert.GreaterOrEqual(t, s.BufferStartIndex, 0)
	assert.LessOrEqual(t, s.RowsStartIndex, s.RowsEndIndex)
	assert.LessOrEqual(t, s.RowsEndIndex, s.BufferLimit)
	assert.Len(t, b.Rows(), s.BufferLimit)
}

func assertContiguous(t *testing.T, b *Buffer) {
	t.Helper()
	s := b.State()
	for i, r := range b.Rows() {
		require.False(t, r.Loading, "row %d is still loading", i)
		require.Equal(t, int64(s.BufferStartIndex+i+1), r.ID)
	}
}

func TestFetchInitial(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)

	assert.Equal(t, FetchRequest{Offset: 0, Limit: 80}, table.lastRequest())
	s := b.State()
	assert.Equal(t, 1000, s.Count)
	assert.Equal(t, 0, s.BufferStartIndex)
	assert.Equal(t, 80, s.BufferLimit)
	assert.Equal(t, 0, s.RowsStartIndex)
	assert.Equal(t, 26, s.RowsEndIndex)
	assert.False(t, s.Fetching)
	assertContiguous(t, b)
}

func TestFetchInitialSmallTable(t *testing.T) {
	b, _ := newLoadedBuffer(t, 5)

	s := b.State()
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 5, s.BufferLimit)
	assert.Equal(t, 5, s.RowsEndIndex)
	assert.Len(t, b.VisibleRows(), 5)
}

func TestFetchByScrollTopFarJump(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)

	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(500), windowHeight))

	assert.Equal(t, FetchRequest{Offset: 480, Limit: 120}, table.lastRequest())
	s := b.State()
	assert.Equal(t, 480, s.BufferStartIndex)
	assert.Equal(t, 120, s.BufferLimit)
	assert.Equal(t, 483, s.VisibleStartIndex)
	assert.Equal(t, 526, s.VisibleEndIndex)
	assert.Equal(t, 483*33, s.RowsTop)
	assertContiguous(t, b)

	visible := b.VisibleRows()
	require.Len(t, visible, 43)
	assert.Equal(t, int64(484), visible[0].ID)
}

func TestFetchByScrollTopOnlyFetchesMissingRows(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)
	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(500), windowHeight))

	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(540), windowHeight))

	assert.Equal(t, FetchRequest{Offset: 600, Limit: 40}, table.lastRequest())
	s := b.State()
	assert.Equal(t, 520, s.BufferStartIndex)
	assert.Equal(t, 120, s.BufferLimit)
	assertContiguous(t, b)
}

func TestFetchByScrollTopCoveredSpanDoesNotFetch(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)

	require.NoError(t, b.FetchByScrollTop(context.Background(), 0, windowHeight))
	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(2), windowHeight))

	assert.Equal(t, 1, table.requestCount())
	assertContiguous(t, b)
}

func TestFetchByScrollTopClampsPastTheEnd(t *testing.T) {
	b, _ := newLoadedBuffer(t, 1000)

	require.NoError(t, b.FetchByScrollTop(context.Background(), 1e9, windowHeight))

	s := b.State()
	assert.Equal(t, 960, s.BufferStartIndex)
	assert.Equal(t, 40, s.BufferLimit)
	assert.Equal(t, 1000, s.VisibleEndIndex)
	assertConsistent(t, b)
	assertContiguous(t, b)

	require.NoError(t, b.FetchByScrollTop(context.Background(), -500, windowHeight))
	assert.Equal(t, 0, b.State().BufferStartIndex)
	assertContiguous(t, b)
}

func TestWindowContainmentAfterRandomScrolling(t *testing.T) {
	b, _ := newLoadedBuffer(t, 2345)
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		scrollTop := rnd.Float64() * 2345 * 33
		height := 100 + rnd.Float64()*1500
		require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTop, height))

		assertConsistent(t, b)
		assertContiguous(t, b)

		w := b.computeWindow(scrollTop, height, 2345)
		s := b.State()
		assert.Equal(t, w.visibleStart, s.VisibleStartIndex)
		assert.Equal(t, w.visibleEnd, s.VisibleEndIndex)
		assert.LessOrEqual(t, s.BufferStartIndex, s.VisibleStartIndex)
		assert.LessOrEqual(t, s.VisibleEndIndex, s.BufferStartIndex+s.BufferLimit)
		// bounded independent of the table size
		assert.LessOrEqual(t, s.BufferLimit, s.VisibleEndIndex-s.VisibleStartIndex+3*b.Config().BufferRequestSize)
	}
}

func TestVisibleByScrollTopDoesNotFetch(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)

	b.VisibleByScrollTop(scrollTo(20), windowHeight)

	assert.Equal(t, 1, table.requestCount())
	s := b.State()
	assert.Equal(t, 3, s.VisibleStartIndex)
	assert.Equal(t, 46, s.VisibleEndIndex)

	// clamped to the buffered rows
	b.VisibleByScrollTop(scrollTo(900), windowHeight)
	s = b.State()
	assert.LessOrEqual(t, s.RowsEndIndex, s.BufferLimit)
	assert.Equal(t, s.RowsStartIndex, s.RowsEndIndex)
}

func TestEmptyTable(t *testing.T) {
	b, table := newLoadedBuffer(t, 0)

	require.NoError(t, b.FetchByScrollTop(context.Background(), 1000, windowHeight))
	assert.Equal(t, 1, table.requestCount())
	assert.Empty(t, b.VisibleRows())
	assertConsistent(t, b)
}

func TestFetchErrorPropagates(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)
	boom := errors.New("boom")
	table.mu.Lock()
	table.err = boom
	table.mu.Unlock()

	err := b.FetchByScrollTop(context.Background(), scrollTo(500), windowHeight)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assertConsistent(t, b)
}

// blockingFetcher blocks requests at a given offset until released
type blockingFetcher struct {
	table       *fakeTable
	blockOffset int
	ignoreCtx   bool
	started     chan struct{}
	release     chan struct{}
}

func (f *blockingFetcher) FetchRows(ctx context.Context, req FetchRequest) (FetchResult, error) {
	if req.Offset == f.blockOffset {
		close(f.started)
		if f.ignoreCtx {
			<-f.release
			// a response that arrives after being superseded
			return FetchResult{Rows: []models.Row{models.NewRow(-1, "0", nil)}, Count: 1000}, nil
		}
		<-ctx.Done()
		return FetchResult{}, ctx.Err()
	}
	return f.table.FetchRows(ctx, req)
}

func TestNewerScrollCancelsInFlightFetch(t *testing.T) {
	fetcher := &blockingFetcher{
		table:       &fakeTable{count: 1000},
		blockOffset: 480,
		started:     make(chan struct{}),
	}
	b := New(fetcher, DefaultConfig())
	b.SetWindowHeight(windowHeight)
	require.NoError(t, b.FetchInitial(context.Background()))

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- b.FetchByScrollTop(context.Background(), scrollTo(500), windowHeight)
	}()
	<-fetcher.started
	assert.True(t, b.State().Fetching)

	// rows 520-600 are still placeholders from the cancelled fetch
	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(540), windowHeight))
	assert.Equal(t, FetchRequest{Offset: 520, Limit: 120}, fetcher.table.lastRequest())

	require.NoError(t, <-firstErr)
	assertContiguous(t, b)
	assert.False(t, b.State().Fetching)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	fetcher := &blockingFetcher{
		table:       &fakeTable{count: 1000},
		blockOffset: 480,
		ignoreCtx:   true,
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	b := New(fetcher, DefaultConfig())
	b.SetWindowHeight(windowHeight)
	require.NoError(t, b.FetchInitial(context.Background()))

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- b.FetchByScrollTop(context.Background(), scrollTo(500), windowHeight)
	}()
	<-fetcher.started

	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(540), windowHeight))
	close(fetcher.release)
	require.NoError(t, <-firstErr)

	for _, r := range b.Rows() {
		assert.NotEqual(t, int64(-1), r.ID)
	}
	assertContiguous(t, b)
}

func TestRefresh(t *testing.T) {
	b, table := newLoadedBuffer(t, 1000)
	require.NoError(t, b.FetchByScrollTop(context.Background(), scrollTo(500), windowHeight))

	table.mu.Lock()
	table.count = 500
	table.mu.Unlock()

	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, FetchRequest{Offset: 480, Limit: 120}, table.lastRequest())
	s := b.State()
	assert.Equal(t, 500, s.Count)
	assert.Equal(t, 480, s.BufferStartIndex)
	assert.Equal(t, 20, s.BufferLimit)
	assertConsistent(t, b)
	assertContiguous(t, b)
}

func TestClear(t *testing.T) {
	b, _ := newLoadedBuffer(t, 1000)
	b.Clear()

	assert.Equal(t, State{}, b.State())
	assert.Empty(t, b.Rows())
	assert.Empty(t, b.VisibleRows())
}

func TestConfigDefaults(t *testing.T) {
	b := New(&fakeTable{}, Config{RowPadding: -3})
	cfg := b.Config()
	assert.Equal(t, 33, cfg.RowHeight)
	assert.Equal(t, 0, cfg.RowPadding)
	assert.Equal(t, 40, cfg.BufferRequestSize)
	assert.Equal(t, DefaultConfig().ScrollInterval, cfg.ScrollInterval)
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 2, ceilDiv(41, 40))
	assert.Equal(t, 1, ceilDiv(40, 40))
	assert.Equal(t, 0, ceilDiv(-39, 40))
	assert.Equal(t, -1, ceilDiv(-40, 40))
	assert.Equal(t, 0, ceilDiv(0, 40))
}
