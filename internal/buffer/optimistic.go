package buffer

import (
	"github.com/rebelice/lazyview/internal/models"
)

// position describes where a row belongs relative to the buffer
type position int

const (
	positionBefore position = iota
	positionInside
	positionAfter
)

// locateLocked finds where row sorts relative to the buffered rows. For
// positionInside index is the insertion index in b.rows.
func (b *Buffer) locateLocked(row models.Row) (position, int) {
	index := len(b.rows)
	for i, r := range b.rows {
		if r.Loading {
			continue
		}
		if b.eval.Compare(row, r) < 0 {
			index = i
			break
		}
	}
	switch {
	case index == 0 && b.bufferStartIndex > 0:
		return positionBefore, 0
	case index == len(b.rows) && b.bufferStartIndex+len(b.rows) < b.count:
		return positionAfter, index
	default:
		return positionInside, index
	}
}

func (b *Buffer) indexOfLocked(id int64) int {
	for i, r := range b.rows {
		if !r.Loading && r.ID == id {
			return i
		}
	}
	return -1
}

func (b *Buffer) createLocked(row models.Row) {
	if !b.eval.Visible(row, nil) {
		return
	}
	pos, index := b.locateLocked(row)
	switch pos {
	case positionBefore:
		b.bufferStartIndex++
	case positionInside:
		b.rows = append(b.rows, models.Row{})
		copy(b.rows[index+1:], b.rows[index:])
		b.rows[index] = row
	}
	b.count++
}

func (b *Buffer) deleteLocked(row models.Row) {
	if i := b.indexOfLocked(row.ID); i >= 0 {
		b.rows = append(b.rows[:i], b.rows[i+1:]...)
		b.count--
		return
	}
	if !b.eval.Visible(row, nil) {
		return
	}
	if pos, _ := b.locateLocked(row); pos == positionBefore {
		b.bufferStartIndex--
	}
	b.count--
}

// CreatedNewRow inserts a row created outside of a fetch, e.g. by the user or
// a realtime event. Rows hidden by the view are ignored and rows sorting
// outside the buffer only shift the window.
func (b *Buffer) CreatedNewRow(row models.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createLocked(row)
	b.clampLocked()
}

// UpdatedExistingRow applies new values to a row. The row is moved when its
// position changes and removed when it no longer matches the view.
func (b *Buffer) UpdatedExistingRow(row models.Row, values map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := row
	if i := b.indexOfLocked(row.ID); i >= 0 {
		old = b.rows[i]
	}
	updated := old.WithValues(values)
	b.deleteLocked(old)
	b.createLocked(updated)
	b.clampLocked()
}

// DeletedExistingRow removes a row
func (b *Buffer) DeletedExistingRow(row models.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteLocked(row)
	b.clampLocked()
}

// Find returns the buffered row with the given id
func (b *Buffer) Find(id int64) (models.Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOfLocked(id); i >= 0 {
		return b.rows[i], true
	}
	return models.Row{}, false
}
