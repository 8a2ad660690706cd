package buffer

import (
	"fmt"
	"sync/atomic"
)

// ByteOffset represents a byte position in the buffer.
// This is the fundamental position type, directly indexing into the text.
type ByteOffset = int64

// Point represents a line and column position.
// Both Line and Column are 0-indexed.
// Column is measured in bytes from the start of the line.
type Point struct {
	Line   uint32 // 0-indexed line number
	Column uint32 // 0-indexed column (byte offset within line)
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Position is a span of text [Offset, Offset+Length) that a Buffer keeps
// up to date as edits are applied. Deleted is set once the text the span
// covered has been removed; a deleted position is never updated again.
type Position struct {
	Offset  ByteOffset
	Length  ByteOffset
	Deleted bool
}

// NewPosition creates a live position.
func NewPosition(offset, length ByteOffset) Position {
	return Position{Offset: offset, Length: length}
}

// End returns the exclusive end offset.
func (p Position) End() ByteOffset {
	return p.Offset + p.Length
}

// Range returns the position as a byte range.
func (p Position) Range() Range {
	return Range{Start: p.Offset, End: p.End()}
}

// SameSpan reports whether two positions cover the same bytes.
func (p Position) SameSpan(other Position) bool {
	return p.Offset == other.Offset && p.Length == other.Length
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	if p.Deleted {
		return fmt.Sprintf("[%d+%d deleted]", p.Offset, p.Length)
	}
	return fmt.Sprintf("[%d+%d]", p.Offset, p.Length)
}

// RevisionID uniquely identifies a buffer revision.
// Each modification to the buffer creates a new revision.
type RevisionID uint64

// revisionCounter is used to generate unique revision IDs.
var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
// This is thread-safe using atomic operations.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}
