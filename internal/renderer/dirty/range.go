// Package dirty tracks which lines of the display need to be redrawn and
// coalesces adjacent or overlapping line ranges.
package dirty

import "fmt"

// Range is an inclusive span of display lines.
type Range struct {
	Start uint32
	End   uint32
}

// NewRange creates a range covering start through end. The bounds are
// swapped if given in reverse.
func NewRange(start, end uint32) Range {
	if end < start {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// Line creates a range covering a single line.
func Line(line uint32) Range {
	return Range{Start: line, End: line}
}

// Len returns the number of lines in the range.
func (r Range) Len() uint32 {
	return r.End - r.Start + 1
}

// Contains reports whether line lies in the range.
func (r Range) Contains(line uint32) bool {
	return line >= r.Start && line <= r.End
}

// Overlaps reports whether the two ranges share a line.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Adjacent reports whether other starts right after r ends, or the reverse.
func (r Range) Adjacent(other Range) bool {
	return (r.End != ^uint32(0) && r.End+1 == other.Start) ||
		(other.End != ^uint32(0) && other.End+1 == r.Start)
}

// Merge returns the union of the two ranges if they overlap or touch.
func (r Range) Merge(other Range) (Range, bool) {
	if !r.Overlaps(other) && !r.Adjacent(other) {
		return r, false
	}
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}, true
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("line %d", r.Start)
	}
	return fmt.Sprintf("lines %d-%d", r.Start, r.End)
}
