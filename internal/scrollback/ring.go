// Package scrollback implements the bounded, append-only history ring that
// backs a session's normal-buffer scrollback.
package scrollback

import "github.com/dcosson/wshd/internal/cell"

// DefaultCapacity is the default number of retained lines (spec.md §3).
const DefaultCapacity = 10000

// Ring is a bounded FIFO of evicted lines. Lines are appended as they scroll
// off the top of the normal buffer; once full, the oldest line is dropped.
// FirstLineIndex gives the absolute index (since session start) of the
// oldest line still retained, so clients can address history by absolute
// offset even as old lines are evicted.
type Ring struct {
	cap       int
	lines     []cell.Line
	start     int // index into lines of the logical first line (ring cursor)
	count     int
	firstLine int // absolute index of lines[start]
}

// New returns an empty ring with the given capacity. Capacity <= 0 uses
// DefaultCapacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{cap: capacity, lines: make([]cell.Line, capacity)}
}

// Append adds a line to the top of the history (the most recently evicted
// line). When full, the oldest retained line is dropped and FirstLineIndex
// advances.
func (r *Ring) Append(l cell.Line) {
	writeAt := (r.start + r.count) % r.cap
	r.lines[writeAt] = l
	if r.count < r.cap {
		r.count++
	} else {
		r.start = (r.start + 1) % r.cap
		r.firstLine++
	}
}

// Len returns the number of retained lines.
func (r *Ring) Len() int { return r.count }

// FirstLineIndex returns the absolute index of the oldest retained line.
func (r *Ring) FirstLineIndex() int { return r.firstLine }

// TotalLines returns how many lines have ever been appended, including
// evicted and cleared ones (always FirstLineIndex + Len).
func (r *Ring) TotalLines() int { return r.firstLine + r.count }

// Range returns up to limit lines starting at absolute offset, clamped to
// what's retained. Returns an empty slice if offset is beyond the retained
// window or the ring is empty.
func (r *Ring) Range(offset, limit int) []cell.Line {
	if r.count == 0 || limit <= 0 {
		return nil
	}
	lo := offset
	if lo < r.firstLine {
		lo = r.firstLine
	}
	hi := offset + limit
	top := r.firstLine + r.count
	if hi > top {
		hi = top
	}
	if lo >= hi {
		return nil
	}
	out := make([]cell.Line, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx := (r.start + (i - r.firstLine)) % r.cap
		out = append(out, r.lines[idx].Clone())
	}
	return out
}

// Clear discards all retained lines (ED 3 — erase scrollback). FirstLineIndex
// becomes equal to TotalLines(), so subsequent reads return nothing until
// new lines are evicted.
func (r *Ring) Clear() {
	r.firstLine += r.count
	r.start = 0
	r.count = 0
}
