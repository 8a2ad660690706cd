package buffer

// PositionID is a handle to a position registered with a Buffer.
// The zero value never refers to a live position.
type PositionID uint64

func makePositionID(index, gen uint32) PositionID {
	return PositionID(uint64(gen)<<32 | uint64(index))
}

func (id PositionID) split() (index, gen uint32) {
	return uint32(id), uint32(id >> 32)
}

type positionSlot struct {
	pos  Position
	gen  uint32
	live bool
}

// positionTable is an arena of positions addressed by generation-checked
// handles, so a stale PositionID cannot observe a recycled slot.
type positionTable struct {
	slots []positionSlot
	free  []uint32
	count int
}

func newPositionTable() positionTable {
	return positionTable{}
}

func (t *positionTable) add(p Position) PositionID {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, positionSlot{})
	}

	s := &t.slots[idx]
	s.gen++
	s.pos = p
	s.live = true
	t.count++
	return makePositionID(idx, s.gen)
}

func (t *positionTable) lookup(id PositionID) *positionSlot {
	idx, gen := id.split()
	if int(idx) >= len(t.slots) {
		return nil
	}
	s := &t.slots[idx]
	if !s.live || s.gen != gen {
		return nil
	}
	return s
}

func (t *positionTable) get(id PositionID) (Position, bool) {
	s := t.lookup(id)
	if s == nil {
		return Position{}, false
	}
	return s.pos, true
}

func (t *positionTable) remove(id PositionID) {
	s := t.lookup(id)
	if s == nil {
		return
	}
	s.live = false
	s.pos = Position{}
	idx, _ := id.split()
	t.free = append(t.free, idx)
	t.count--
}

func (t *positionTable) len() int {
	return t.count
}

// update applies the replacement of [start, end) by n bytes to every live position.
func (t *positionTable) update(start, end, n ByteOffset) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.live && !s.pos.Deleted {
			s.pos = adjustPosition(s.pos, start, end, n)
		}
	}
}

// adjustPosition returns p after [start, end) is replaced by n bytes.
//
// Text inserted at or before the start of a position pushes it right;
// text inserted at its end does not extend it. A position whose whole
// span is removed is marked deleted. Partial overlaps trim the position
// to the text that survives.
func adjustPosition(p Position, start, end, n ByteOffset) Position {
	ps, pe := p.Offset, p.End()
	delta := n - (end - start)

	if start == end {
		switch {
		case start <= ps:
			p.Offset += n
		case start < pe:
			p.Length += n
		}
		return p
	}

	if p.Length == 0 {
		switch {
		case ps >= end:
			p.Offset += delta
		case ps >= start:
			p.Deleted = true
		}
		return p
	}

	switch {
	case pe <= start:
		// entirely before the edit
	case ps >= end:
		p.Offset += delta
	case start <= ps && pe <= end:
		p.Deleted = true
	case start <= ps:
		// head overlap: keep the tail that follows the replacement
		newStart := start + n
		p.Length = pe + delta - newStart
		p.Offset = newStart
	case pe <= end:
		// tail overlap
		p.Length = start - ps
	default:
		p.Length += delta
	}
	return p
}
