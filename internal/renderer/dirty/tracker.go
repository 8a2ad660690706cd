package dirty

import (
	"slices"
	"sync"
)

// DefaultMaxRanges is the number of separate ranges a tracker keeps before
// giving up and asking for a full redraw.
const DefaultMaxRanges = 32

// Tracker records dirty line ranges. It is safe for concurrent use; change
// listeners mark lines from whatever goroutine edits the model while the
// render loop flushes.
type Tracker struct {
	mu sync.Mutex

	// ranges is kept sorted and coalesced.
	ranges []Range

	// full means everything must be redrawn; ranges is then empty.
	full bool

	maxRanges int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ranges:    make([]Range, 0, 16),
		maxRanges: DefaultMaxRanges,
	}
}

// SetMaxRanges sets how many ranges are kept before falling back to a full
// redraw. Values less than 1 are clamped to 1.
func (t *Tracker) SetMaxRanges(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n < 1 {
		n = 1
	}
	t.maxRanges = n
	t.limitLocked()
}

// MarkFull marks everything as needing a redraw.
func (t *Tracker) MarkFull() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.full = true
	t.ranges = t.ranges[:0]
}

// MarkLine marks a single line dirty.
func (t *Tracker) MarkLine(line uint32) {
	t.MarkRange(Line(line))
}

// MarkLines marks lines start through end dirty.
func (t *Tracker) MarkLines(start, end uint32) {
	t.MarkRange(NewRange(start, end))
}

// MarkRange marks r dirty, merging it with any range it touches.
func (t *Tracker) MarkRange(r Range) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.full {
		return
	}

	i, _ := slices.BinarySearchFunc(t.ranges, r.Start, func(x Range, line uint32) int {
		switch {
		case x.Start < line:
			return -1
		case x.Start > line:
			return 1
		}
		return 0
	})
	t.ranges = slices.Insert(t.ranges, i, r)
	t.coalesceLocked()
	t.limitLocked()
}

// coalesceLocked merges neighbours in the sorted range list.
func (t *Tracker) coalesceLocked() {
	if len(t.ranges) <= 1 {
		return
	}
	out := t.ranges[:1]
	for _, r := range t.ranges[1:] {
		last := &out[len(out)-1]
		if merged, ok := last.Merge(r); ok {
			*last = merged
			continue
		}
		out = append(out, r)
	}
	t.ranges = out
}

func (t *Tracker) limitLocked() {
	if len(t.ranges) > t.maxRanges {
		t.full = true
		t.ranges = t.ranges[:0]
	}
}

// IsDirty reports whether anything needs redrawing.
func (t *Tracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.full || len(t.ranges) > 0
}

// IsLineDirty reports whether line needs redrawing.
func (t *Tracker) IsLineDirty(line uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.full {
		return true
	}
	for _, r := range t.ranges {
		if r.Contains(line) {
			return true
		}
	}
	return false
}

// Flush returns the dirty ranges in ascending order and whether a full
// redraw is needed, then clears the tracker.
func (t *Tracker) Flush() (lines []Range, full bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines = slices.Clone(t.ranges)
	full = t.full
	t.ranges = t.ranges[:0]
	t.full = false
	return lines, full
}
