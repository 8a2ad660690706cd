package annotation

import (
	"iter"

	"github.com/dshills/annomodel/internal/engine/buffer"
)

// Facade gives one consumer of a shared model a private place for
// annotations no other consumer may see, such as a view's current-line
// marker. Reads see the shared annotations followed by the local ones;
// writes go to the local registry only. Changes of either kind reach the
// facade's listeners with the facade as the event's model.
type Facade struct {
	*Registry
	shared Model
}

// NewFacade wraps shared. Call Close to stop listening to it.
func NewFacade(shared Model, opts ...Option) *Facade {
	f := &Facade{
		Registry: NewRegistry(opts...),
		shared:   shared,
	}
	f.Registry.self = f
	f.Registry.pending = newEvent(f)
	shared.AddListener(f)
	return f
}

// Shared returns the wrapped model.
func (f *Facade) Shared() Model {
	return f.shared
}

// Close unregisters the facade from the shared model.
func (f *Facade) Close() {
	f.shared.RemoveListener(f)
}

// ModelChanged re-fires a change of the shared model as the facade's own.
func (f *Facade) ModelChanged(Model) {
	f.Registry.fireWorldChange()
}

// ModelChangedEvent re-fires a shared model's diff as the facade's own.
func (f *Facade) ModelChangedEvent(ev *Event) {
	f.Registry.dispatch(ev.forwardedTo(f))
}

// Annotations returns the shared model's annotations followed by the
// local ones.
func (f *Facade) Annotations(includeAttached bool) iter.Seq[*Annotation] {
	shared := f.shared.Annotations(includeAttached)
	local := f.Registry.Annotations(includeAttached)
	return func(yield func(*Annotation) bool) {
		for a := range shared {
			if !yield(a) {
				return
			}
		}
		for a := range local {
			if !yield(a) {
				return
			}
		}
	}
}

// PositionOf looks at the local annotations first, then at the shared model.
func (f *Facade) PositionOf(a *Annotation) (buffer.Position, bool) {
	if p, ok := f.Registry.PositionOf(a); ok {
		return p, true
	}
	return f.shared.PositionOf(a)
}

// Connect connects both the local annotations and the shared model.
func (f *Facade) Connect(doc Document) {
	f.Registry.Connect(doc)
	f.shared.Connect(doc)
}

// Disconnect undoes one Connect on both the local annotations and the
// shared model.
func (f *Facade) Disconnect(doc Document) {
	f.shared.Disconnect(doc)
	f.Registry.Disconnect(doc)
}
