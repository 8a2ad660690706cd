package annotation

import "github.com/dshills/annomodel/internal/engine/buffer"

const (
	inAdded uint8 = 1 << iota
	inRemoved
	inChanged
)

// Event is the batch of changes a model accumulated since its previous
// notification. A world change means listeners should re-read the whole
// model; it carries no diff of its own.
type Event struct {
	model     Model
	world     bool
	added     []*Annotation
	removed   []*Annotation
	changed   []*Annotation
	member    map[*Annotation]uint8
	removedAt map[*Annotation]buffer.Position
}

func newEvent(m Model) *Event {
	return &Event{model: m}
}

func newWorldEvent(m Model) *Event {
	return &Event{model: m, world: true}
}

// Model returns the model that fired the event.
func (e *Event) Model() Model {
	return e.model
}

// IsWorldChange reports whether listeners should re-read everything.
func (e *Event) IsWorldChange() bool {
	return e.world
}

// IsEmpty reports whether the event carries nothing to deliver.
func (e *Event) IsEmpty() bool {
	return !e.world && len(e.added) == 0 && len(e.removed) == 0 && len(e.changed) == 0
}

// Added returns the annotations added in this batch.
func (e *Event) Added() []*Annotation {
	return e.added
}

// Removed returns the annotations removed in this batch.
func (e *Event) Removed() []*Annotation {
	return e.removed
}

// Changed returns the annotations whose position changed in this batch.
func (e *Event) Changed() []*Annotation {
	return e.changed
}

// RemovedPosition returns the last known position of a removed annotation.
func (e *Event) RemovedPosition(a *Annotation) (buffer.Position, bool) {
	p, ok := e.removedAt[a]
	return p, ok
}

func (e *Event) mark(a *Annotation, bit uint8) bool {
	if e.member == nil {
		e.member = make(map[*Annotation]uint8)
	}
	if e.member[a]&bit != 0 {
		return false
	}
	e.member[a] |= bit
	return true
}

func (e *Event) annotationAdded(a *Annotation) {
	if e.mark(a, inAdded) {
		e.added = append(e.added, a)
	}
}

func (e *Event) annotationRemoved(a *Annotation, p buffer.Position) {
	if e.mark(a, inRemoved) {
		e.removed = append(e.removed, a)
	}
	if e.removedAt == nil {
		e.removedAt = make(map[*Annotation]buffer.Position)
	}
	e.removedAt[a] = p
}

func (e *Event) annotationChanged(a *Annotation) {
	// An annotation added in this batch is reported as added only.
	if e.member[a]&inAdded != 0 {
		return
	}
	if e.mark(a, inChanged) {
		e.changed = append(e.changed, a)
	}
}

// forwardedTo returns a copy of e reported by m. The sets are shared;
// delivered events are never mutated again.
func (e *Event) forwardedTo(m Model) *Event {
	return &Event{
		model:     m,
		world:     e.world,
		added:     e.added,
		removed:   e.removed,
		changed:   e.changed,
		member:    e.member,
		removedAt: e.removedAt,
	}
}
