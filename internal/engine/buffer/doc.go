// Package buffer provides the thread-safe text buffer that annotations are
// bound to. Besides the text itself it owns the life-cycle of positions:
// spans registered with AddPosition are shifted, trimmed or marked deleted
// as edits are applied, and every edit batch is reported to listeners.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("hello\nworld")
//
//	id, err := buf.AddPosition(buffer.NewPosition(6, 5)) // "world"
//	if err != nil {
//	    // the span did not fit the text
//	}
//
//	buf.Insert(0, ">> ")
//	pos, _ := buf.Position(id) // [9+5]
//
// Position Types:
//
//   - ByteOffset: Raw byte position in the buffer
//   - Point: Line and column position (0-indexed, column in bytes)
//   - Position: a tracked [offset, offset+length) span with a deleted flag
//   - PositionID: a generation-checked handle to a registered Position
//
// Thread Safety:
//
// All Buffer methods are thread-safe. Listeners are called after the
// write lock is released, so they may read the buffer and its positions.
package buffer
