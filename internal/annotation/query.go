package annotation

import (
	"cmp"
	"slices"

	"github.com/dshills/annomodel/internal/engine/buffer"
)

// Entry is an annotation together with its position at query time.
type Entry struct {
	Annotation *Annotation
	Position   buffer.Position
}

// Entries returns every annotation of m with its position, in iteration
// order. Annotations whose position was deleted are skipped.
func Entries(m Model, includeAttached bool) []Entry {
	var out []Entry
	for a := range m.Annotations(includeAttached) {
		if p, ok := m.PositionOf(a); ok && !p.Deleted {
			out = append(out, Entry{Annotation: a, Position: p})
		}
	}
	return out
}

// Within returns the annotations of m (attached models included) that lie
// in the region [offset, offset+length), sorted by offset. With
// canStartBefore an annotation may begin before the region, and with
// canEndAfter it may end after it; with both, any overlap qualifies.
func Within(m Model, offset, length int64, canStartBefore, canEndAfter bool) []Entry {
	region := buffer.NewPosition(offset, length)

	var out []Entry
	for _, e := range Entries(m, true) {
		if inRegion(region, e.Position, canStartBefore, canEndAfter) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(x, y Entry) int {
		return cmp.Compare(x.Position.Offset, y.Position.Offset)
	})
	return out
}

func inRegion(region, p buffer.Position, canStartBefore, canEndAfter bool) bool {
	last := p.End()
	if p.Length > 0 {
		last--
	}
	switch {
	case canStartBefore && canEndAfter:
		return overlaps(region, p)
	case canStartBefore:
		return includes(region, last)
	case canEndAfter:
		return includes(region, p.Offset)
	default:
		return includes(region, p.Offset) && includes(region, last)
	}
}

// includes reports whether offset lies inside p.
func includes(p buffer.Position, offset int64) bool {
	return p.Range().Contains(offset)
}

// overlaps reports whether q intersects p. Empty spans overlap a span that
// contains their offset, and another empty span at the same offset.
func overlaps(p, q buffer.Position) bool {
	switch {
	case p.Length > 0 && q.Length > 0:
		return p.Range().Overlaps(q.Range())
	case p.Length > 0:
		return includes(p, q.Offset)
	case q.Length > 0:
		return includes(q, p.Offset)
	default:
		return p.Offset == q.Offset
	}
}
