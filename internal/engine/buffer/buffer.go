package buffer

import (
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// terminator is the byte that ends a line for this style.
func (le LineEnding) terminator() byte {
	if le == LineEndingCR {
		return '\r'
	}
	return '\n'
}

// Buffer holds editable text together with the positions registered
// against it. Positions are shifted as edits are applied and listeners
// are told once per edit batch. All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       []byte
	lineStarts []ByteOffset
	revisionID RevisionID
	lineEnding LineEnding
	tabWidth   int
	positions  positionTable

	// listeners has its own lock so callbacks can read the buffer.
	lmu       sync.Mutex
	listeners []Listener
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
		tabWidth:   4,
		positions:  newPositionTable(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.reindexLines()
	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.text = []byte(b.normalizeLineEndings(s))
	b.reindexLines()
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	// CRLF sequences may be split across read boundaries, so read it all first.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// normalizeLineEndings converts all line endings to the buffer's preferred style.
func (b *Buffer) normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	switch b.lineEnding {
	case LineEndingCRLF:
		s = strings.ReplaceAll(s, "\n", "\r\n")
	case LineEndingCR:
		s = strings.ReplaceAll(s, "\n", "\r")
	}
	return s
}

// reindexLines rebuilds the line start table (must hold write lock).
func (b *Buffer) reindexLines() {
	term := b.lineEnding.terminator()
	b.lineStarts = b.lineStarts[:0]
	b.lineStarts = append(b.lineStarts, 0)
	for i, c := range b.text {
		if c == term {
			b.lineStarts = append(b.lineStarts, ByteOffset(i+1))
		}
	}
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.text)
}

// TextRange returns text in the given byte range.
// Out of range bounds are clamped.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end = b.clamp(start), b.clamp(end)
	if start >= end {
		return ""
	}
	return string(b.text[start:end])
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(len(b.lineStarts))
}

// LineText returns the text of a specific line (without line ending).
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(line) >= len(b.lineStarts) {
		return ""
	}
	return string(b.text[b.lineStartLocked(line):b.lineEndLocked(line)])
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineStartLocked(line)
}

// LineEndOffset returns the byte offset of the end of a line (before the line ending).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEndLocked(line)
}

func (b *Buffer) lineStartLocked(line uint32) ByteOffset {
	if int(line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	return b.lineStarts[line]
}

func (b *Buffer) lineEndLocked(line uint32) ByteOffset {
	if int(line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	if int(line)+1 == len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	end := b.lineStarts[line+1] - ByteOffset(len(b.lineEnding.Sequence()))
	if end < b.lineStarts[line] {
		end = b.lineStarts[line]
	}
	return end
}

// Coordinate Conversion

// OffsetToPoint converts a byte offset to line/column.
// Offsets past the end map to the end of the last line.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offsetToPointLocked(offset)
}

func (b *Buffer) offsetToPointLocked(offset ByteOffset) Point {
	offset = b.clamp(offset)
	line := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Point{Line: uint32(line), Column: uint32(offset - b.lineStarts[line])}
}

// PointToOffset converts line/column to byte offset.
// Columns past the end of the line are clamped to the line end.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(point.Line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	off := b.lineStarts[point.Line] + ByteOffset(point.Column)
	if end := b.lineEndLocked(point.Line); off > end {
		off = end
	}
	return off
}

// clamp limits an offset to [0, Len] (must hold lock).
func (b *Buffer) clamp(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if n := ByteOffset(len(b.text)); offset > n {
		return n
	}
	return offset
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.RLock()
	n := ByteOffset(len(b.text))
	b.mu.RUnlock()
	if offset < 0 || offset > n {
		return 0, ErrOffsetOutOfRange
	}

	res, err := b.ApplyEdit(NewInsert(offset, text))
	if err != nil {
		return 0, err
	}
	return res.NewRange.End, nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	_, err := b.ApplyEdit(NewDelete(start, end))
	return err
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	res, err := b.ApplyEdit(NewEdit(NewRange(start, end), text))
	if err != nil {
		return 0, err
	}
	return res.NewRange.End, nil
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	b.mu.Lock()

	if !b.validRangeLocked(edit.Range) {
		b.mu.Unlock()
		return EditResult{}, ErrRangeInvalid
	}
	if edit.IsNoOp() {
		b.mu.Unlock()
		return EditResult{OldRange: edit.Range, NewRange: edit.Range}, nil
	}

	change := b.applyLocked(edit)
	b.reindexLines()
	b.revisionID = NewRevisionID()
	ev := ChangeEvent{Revision: b.revisionID, Changes: []Change{change}}
	b.mu.Unlock()

	b.notify(ev)

	return EditResult{
		OldRange: change.Range,
		NewRange: change.NewRange,
		OldText:  change.OldText,
		Delta:    NewEdit(change.Range, change.NewText).Delta(),
	}, nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be in reverse order (highest offset first) to maintain validity.
// Listeners are notified once for the whole batch.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()

	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			b.mu.Unlock()
			return ErrEditsOverlap
		}
	}
	for _, edit := range edits {
		if !b.validRangeLocked(edit.Range) {
			b.mu.Unlock()
			return ErrRangeInvalid
		}
	}

	changes := make([]Change, 0, len(edits))
	for _, edit := range edits {
		if !edit.IsNoOp() {
			changes = append(changes, b.applyLocked(edit))
		}
	}
	if len(changes) == 0 {
		b.mu.Unlock()
		return nil
	}
	b.reindexLines()
	b.revisionID = NewRevisionID()
	ev := ChangeEvent{Revision: b.revisionID, Changes: changes}
	b.mu.Unlock()

	b.notify(ev)
	return nil
}

func (b *Buffer) validRangeLocked(r Range) bool {
	return r.IsValid() && r.Start >= 0 && r.End <= ByteOffset(len(b.text))
}

// applyLocked splices one validated edit into the text and updates every
// registered position (must hold write lock).
func (b *Buffer) applyLocked(edit Edit) Change {
	norm := NewEdit(edit.Range, b.normalizeLineEndings(edit.NewText))
	r, text := norm.Range, norm.NewText
	oldText := string(b.text[r.Start:r.End])

	spliced := make([]byte, 0, ByteOffset(len(b.text))+norm.Delta())
	spliced = append(spliced, b.text[:r.Start]...)
	spliced = append(spliced, text...)
	spliced = append(spliced, b.text[r.End:]...)
	b.text = spliced

	b.positions.update(r.Start, r.End, ByteOffset(len(text)))

	change := Change{
		Type:     ChangeReplace,
		Range:    r,
		NewRange: Range{Start: r.Start, End: r.Start + ByteOffset(len(text))},
		OldText:  oldText,
		NewText:  text,
	}
	switch {
	case norm.IsInsert():
		change.Type = ChangeInsert
	case norm.IsDelete():
		change.Type = ChangeDelete
	}
	return change
}

// Positions

// AddPosition registers a position so that it tracks future edits.
// Returns ErrRangeInvalid if the span does not fit the current text.
func (b *Buffer) AddPosition(p Position) (PositionID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.Offset < 0 || p.Length < 0 || p.Offset+p.Length > ByteOffset(len(b.text)) {
		return 0, ErrRangeInvalid
	}
	return b.positions.add(p), nil
}

// RemovePosition stops tracking a position. Unknown IDs are ignored.
func (b *Buffer) RemovePosition(id PositionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions.remove(id)
}

// Position returns the current state of a registered position.
func (b *Buffer) Position(id PositionID) (Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.positions.get(id)
}

// PositionCount returns the number of registered positions.
func (b *Buffer) PositionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.positions.len()
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// TabWidth returns the buffer's tab width.
func (b *Buffer) TabWidth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tabWidth
}

// SetTabWidth sets the buffer's tab width.
func (b *Buffer) SetTabWidth(width int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width > 0 {
		b.tabWidth = width
	}
}
