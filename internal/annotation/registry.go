package annotation

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/annomodel/internal/engine/buffer"
	"github.com/dshills/annomodel/internal/logging"
)

// entry is one association. While the registry is connected, id names the
// position inside the document and pos is stale; otherwise pos holds the
// last known coordinates.
type entry struct {
	seq     uint64
	pos     buffer.Position
	id      buffer.PositionID
	tracked bool
}

// Registry maps annotations to positions in a Document.
type Registry struct {
	mu sync.Mutex

	// self is reported as the event source: the registry itself, or the
	// Facade embedding it.
	self Model
	name string
	log  *logging.Logger

	entries map[*Annotation]*entry
	nextSeq uint64

	doc         Document
	connections int
	hook        *documentHook
	docChanged  atomic.Bool

	listeners   []*subscriber
	attachments []*attachment

	pending *Event
	stamp   uint64
}

// documentHook is the registry's buffer listener. It only raises the
// cleanup latch; the positions themselves are updated by the buffer.
type documentHook struct {
	r *Registry
}

func (h *documentHook) BufferChanged(buffer.ChangeEvent) {
	h.r.docChanged.Store(true)
}

// NewRegistry creates a registry that is not connected to any document.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		log:     logging.Null(),
		entries: make(map[*Annotation]*entry),
	}
	r.self = r
	r.hook = &documentHook{r: r}
	r.pending = newEvent(r)

	for _, opt := range opts {
		opt(r)
	}

	r.log = r.log.WithComponent("annotation")
	if r.name != "" {
		r.log = r.log.WithField("model", r.name)
	}
	return r
}

// Name returns the name given with WithName.
func (r *Registry) Name() string {
	return r.name
}

// Len returns the number of the registry's own associations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ModificationStamp increases every time listeners are notified.
func (r *Registry) ModificationStamp() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stamp
}

// Write surface

// Add associates a with p. If a is already registered, or the registry is
// connected and p does not fit the document, nothing happens.
func (r *Registry) Add(a *Annotation, p buffer.Position) {
	if a == nil {
		return
	}
	r.mu.Lock()
	r.addLocked(a, p)
	r.mu.Unlock()
	r.fireChanged()
}

// Remove drops a and its position.
func (r *Registry) Remove(a *Annotation) {
	r.mu.Lock()
	r.removeLocked(a)
	r.mu.Unlock()
	r.fireChanged()
}

// Modify moves a to *p. A nil p removes a; an unknown a is added. Moving an
// annotation to the span it already covers does not notify. A move to a
// span outside the document leaves the annotation where it was.
func (r *Registry) Modify(a *Annotation, p *buffer.Position) {
	if a == nil {
		return
	}
	if p == nil {
		r.Remove(a)
		return
	}

	r.mu.Lock()
	if _, ok := r.entries[a]; ok {
		r.moveLocked(a, *p)
	} else {
		r.addLocked(a, *p)
	}
	r.mu.Unlock()
	r.fireChanged()
}

// Replace removes every annotation in remove, then adds every annotation in
// add, and notifies listeners once. Annotations that do not fit the
// document are skipped without aborting the rest of the batch.
func (r *Registry) Replace(remove []*Annotation, add map[*Annotation]buffer.Position) {
	r.mu.Lock()
	for _, a := range remove {
		r.removeLocked(a)
	}
	for _, a := range byPosition(add) {
		r.addLocked(a, add[a])
	}
	r.mu.Unlock()
	r.fireChanged()
}

// byPosition returns the non-nil keys of add ordered by offset, then
// length, then text, so a batch is numbered the same way on every run.
func byPosition(add map[*Annotation]buffer.Position) []*Annotation {
	keys := make([]*Annotation, 0, len(add))
	for a := range add {
		if a != nil {
			keys = append(keys, a)
		}
	}
	slices.SortStableFunc(keys, func(x, y *Annotation) int {
		px, py := add[x], add[y]
		return cmp.Or(
			cmp.Compare(px.Offset, py.Offset),
			cmp.Compare(px.Length, py.Length),
			strings.Compare(x.Text(), y.Text()),
		)
	})
	return keys
}

// RemoveAll drops every one of the registry's own annotations. Attached
// models are left alone.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	for _, a := range r.orderedLocked() {
		r.removeLocked(a)
	}
	r.mu.Unlock()
	r.fireChanged()
}

// Cleanup drops every association whose position was deleted by an edit.
// It only does work when the document changed since the last cleanup.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	r.cleanupLocked()
	r.mu.Unlock()
	r.fireChanged()
}

func (r *Registry) addLocked(a *Annotation, p buffer.Position) bool {
	if _, ok := r.entries[a]; ok {
		return false
	}

	p.Deleted = false
	e := &entry{seq: r.nextSeq, pos: p}
	if r.doc != nil {
		id, err := r.doc.AddPosition(p)
		if err != nil {
			r.log.Debug("dropping %v at %v: %v", a, p, ErrInvalidRange)
			return false
		}
		e.id = id
		e.tracked = true
	}

	r.nextSeq++
	r.entries[a] = e
	r.pending.annotationAdded(a)
	return true
}

func (r *Registry) removeLocked(a *Annotation) bool {
	e, ok := r.entries[a]
	if !ok {
		return false
	}

	last := r.positionLocked(e)
	if e.tracked {
		r.doc.RemovePosition(e.id)
	}
	delete(r.entries, a)
	r.pending.annotationRemoved(a, last)
	return true
}

func (r *Registry) moveLocked(a *Annotation, p buffer.Position) {
	e := r.entries[a]
	if cur := r.positionLocked(e); !cur.Deleted && cur.SameSpan(p) {
		return
	}

	p.Deleted = false
	if e.tracked {
		id, err := r.doc.AddPosition(p)
		if err != nil {
			r.log.Debug("ignoring move of %v to %v: %v", a, p, ErrInvalidRange)
			return
		}
		r.doc.RemovePosition(e.id)
		e.id = id
	}
	e.pos = p
	r.pending.annotationChanged(a)
}

// positionLocked returns the current coordinates of e.
func (r *Registry) positionLocked(e *entry) buffer.Position {
	if e.tracked {
		if p, ok := r.doc.Position(e.id); ok {
			return p
		}
	}
	return e.pos
}

func (r *Registry) cleanupLocked() {
	if r.doc == nil || !r.docChanged.Swap(false) {
		return
	}

	for _, a := range r.orderedLocked() {
		e := r.entries[a]
		if !e.tracked {
			continue
		}
		p, ok := r.doc.Position(e.id)
		if ok && !p.Deleted {
			continue
		}
		r.doc.RemovePosition(e.id)
		delete(r.entries, a)
		r.pending.annotationRemoved(a, p)
	}
}

// orderedLocked returns the own annotations in the order they were added.
func (r *Registry) orderedLocked() []*Annotation {
	out := make([]*Annotation, 0, len(r.entries))
	for a := range r.entries {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y *Annotation) int {
		sx, sy := r.entries[x].seq, r.entries[y].seq
		switch {
		case sx < sy:
			return -1
		case sx > sy:
			return 1
		}
		return 0
	})
	return out
}

// Read surface

// Annotations returns the registry's annotations, cleaning up deleted
// positions first. Own annotations are captured now, so later mutations
// never show up in, or disturb, the returned sequence. With
// includeAttached the sequence continues into every attached model, in
// attachment order, when it is reached.
func (r *Registry) Annotations(includeAttached bool) iter.Seq[*Annotation] {
	r.mu.Lock()
	r.cleanupLocked()
	base := r.orderedLocked()
	r.mu.Unlock()
	r.fireChanged()

	return func(yield func(*Annotation) bool) {
		for _, a := range base {
			if !yield(a) {
				return
			}
		}
		if !includeAttached {
			return
		}
		for _, m := range r.attachedModels() {
			for a := range m.Annotations(true) {
				if !yield(a) {
					return
				}
			}
		}
	}
}

// PositionOf returns the position of a, looking at the registry's own
// associations first and then at each attached model in order. The
// returned position may be flagged Deleted until the next cleanup.
func (r *Registry) PositionOf(a *Annotation) (buffer.Position, bool) {
	r.mu.Lock()
	if e, ok := r.entries[a]; ok {
		p := r.positionLocked(e)
		r.mu.Unlock()
		return p, true
	}
	r.mu.Unlock()

	for _, m := range r.attachedModels() {
		if p, ok := m.PositionOf(a); ok {
			return p, true
		}
	}
	return buffer.Position{}, false
}

// Contains reports whether a is one of the registry's own annotations.
func (r *Registry) Contains(a *Annotation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[a]
	return ok
}

// Connection

// Connect attaches the registry to doc. The first connection registers a
// position for every retained association; associations that no longer
// fit are dropped. Every call is mirrored on attached models.
func (r *Registry) Connect(doc Document) {
	if doc == nil {
		return
	}

	r.mu.Lock()
	if r.doc != nil && r.doc != doc {
		r.mu.Unlock()
		r.log.Warn("connect ignored: already connected to another document")
		return
	}

	r.doc = doc
	r.connections++
	if r.connections == 1 {
		doc.AddListener(r.hook)
		r.docChanged.Store(false)
		for _, a := range r.orderedLocked() {
			e := r.entries[a]
			id, err := doc.AddPosition(e.pos)
			if err != nil {
				r.log.Debug("dropping %v at %v on connect: %v", a, e.pos, ErrInvalidRange)
				delete(r.entries, a)
				r.pending.annotationRemoved(a, e.pos)
				continue
			}
			e.id = id
			e.tracked = true
		}
		r.log.Debug("connected with %d annotations", len(r.entries))
	}
	subs := r.attachedModelsLocked()
	r.mu.Unlock()

	for _, m := range subs {
		m.Connect(doc)
	}
	r.fireChanged()
}

// Disconnect undoes one Connect. The last one releases the document's
// positions but keeps every association at its last known coordinates.
func (r *Registry) Disconnect(doc Document) {
	r.mu.Lock()
	if r.doc == nil || r.doc != doc {
		r.mu.Unlock()
		return
	}

	subs := r.attachedModelsLocked()
	r.connections--
	if r.connections == 0 {
		doc.RemoveListener(r.hook)
		for _, a := range r.orderedLocked() {
			e := r.entries[a]
			p, ok := doc.Position(e.id)
			doc.RemovePosition(e.id)
			e.tracked = false
			e.id = 0
			if !ok || p.Deleted {
				delete(r.entries, a)
				r.pending.annotationRemoved(a, p)
				continue
			}
			e.pos = p
		}
		r.doc = nil
		r.docChanged.Store(false)
		r.log.Debug("disconnected, retaining %d annotations", len(r.entries))
	}
	r.mu.Unlock()

	for _, m := range subs {
		m.Disconnect(doc)
	}
	r.fireChanged()
}

// Connections returns the number of open connections.
func (r *Registry) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connections
}

// Listeners

// AddListener registers l and immediately notifies it once with the
// current state. Changes made while that first notification runs, by l
// itself or by another goroutine, reach l after it. Adding a registered
// listener again does nothing.
func (r *Registry) AddListener(l Listener) {
	if l == nil {
		return
	}

	r.mu.Lock()
	if r.listenerIndexLocked(l) >= 0 {
		r.mu.Unlock()
		return
	}
	sub := &subscriber{l: l}
	r.listeners = append(r.listeners, sub)
	self := r.self
	r.mu.Unlock()

	sub.replay(newWorldEvent(self))
}

// RemoveListener unregisters l.
func (r *Registry) RemoveListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.listenerIndexLocked(l); i >= 0 {
		r.listeners = slices.Delete(r.listeners, i, i+1)
	}
}

func (r *Registry) listenerIndexLocked(l Listener) int {
	return slices.IndexFunc(r.listeners, func(s *subscriber) bool { return s.l == l })
}

// fireChanged swaps in a fresh pending event and delivers the old one.
// Must be called without r.mu held.
func (r *Registry) fireChanged() {
	r.mu.Lock()
	ev := r.pending
	if ev.IsEmpty() {
		r.mu.Unlock()
		return
	}
	r.pending = newEvent(r.self)
	r.mu.Unlock()

	r.dispatch(ev)
}

// fireWorldChange tells listeners to re-read everything.
func (r *Registry) fireWorldChange() {
	r.dispatch(newWorldEvent(r.self))
}

// dispatch delivers ev to a snapshot of the listener list.
func (r *Registry) dispatch(ev *Event) {
	if ev.IsEmpty() {
		return
	}

	r.mu.Lock()
	r.stamp++
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	deliver(listeners, ev)
}
