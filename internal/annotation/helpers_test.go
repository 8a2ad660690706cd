package annotation

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dshills/annomodel/internal/engine/buffer"
)

// eventRecorder implements EventListener.
type eventRecorder struct {
	mu     sync.Mutex
	events []*Event
}

func (r *eventRecorder) ModelChanged(Model) {
	panic("EventListener must not receive ModelChanged")
}

func (r *eventRecorder) ModelChangedEvent(ev *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *eventRecorder) last() *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// plainRecorder implements only Listener.
type plainRecorder struct {
	mu     sync.Mutex
	models []Model
}

func (r *plainRecorder) ModelChanged(m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, m)
}

// countingDoc counts position lookups on a real buffer.
type countingDoc struct {
	*buffer.Buffer
	lookups atomic.Int64
}

func (d *countingDoc) Position(id buffer.PositionID) (buffer.Position, bool) {
	d.lookups.Add(1)
	return d.Buffer.Position(id)
}

func texts(as []*Annotation) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Text()
	}
	return out
}

func collect(m Model, includeAttached bool) []string {
	var out []string
	for a := range m.Annotations(includeAttached) {
		out = append(out, a.Text())
	}
	return out
}

func pos(offset, length int64) buffer.Position {
	return buffer.NewPosition(offset, length)
}

func connected(t *testing.T, text string) (*Registry, *buffer.Buffer) {
	t.Helper()
	b := buffer.NewBufferFromString(text)
	r := NewRegistry()
	r.Connect(b)
	return r, b
}

func mustPosition(t *testing.T, m Model, a *Annotation) buffer.Position {
	t.Helper()
	p, ok := m.PositionOf(a)
	if !ok {
		t.Fatalf("PositionOf(%v): not found", a)
	}
	return p
}
