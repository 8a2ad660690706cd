package annotation

import (
	"iter"

	"github.com/dshills/annomodel/internal/engine/buffer"
)

// Document is the buffer a model is connected to. It owns the positions
// registered with it and reports every edit batch to its listeners.
// *buffer.Buffer implements it.
type Document interface {
	AddPosition(p buffer.Position) (buffer.PositionID, error)
	RemovePosition(id buffer.PositionID)
	Position(id buffer.PositionID) (buffer.Position, bool)
	AddListener(l buffer.Listener)
	RemoveListener(l buffer.Listener)
}

// Model is the read and write surface shared by Registry and Facade.
// Implementations must be comparable (pointer types), since models are
// attached and looked up by identity.
type Model interface {
	// Add associates a with p. Existing annotations and spans that do not
	// fit the connected document are ignored.
	Add(a *Annotation, p buffer.Position)

	// Remove drops a. Unknown annotations are ignored.
	Remove(a *Annotation)

	// Modify moves a to *p, adds it if absent, or removes it if p is nil.
	Modify(a *Annotation, p *buffer.Position)

	// Replace removes and adds annotations with a single notification.
	Replace(remove []*Annotation, add map[*Annotation]buffer.Position)

	// Annotations returns the registered annotations. The model's own
	// annotations are captured when Annotations is called; attached models
	// are visited when the sequence reaches them.
	Annotations(includeAttached bool) iter.Seq[*Annotation]

	// PositionOf returns the current position of a.
	PositionOf(a *Annotation) (buffer.Position, bool)

	// Connect and Disconnect are reference counted. Only the first Connect
	// and the matching last Disconnect touch the document.
	Connect(doc Document)
	Disconnect(doc Document)

	AddListener(l Listener)
	RemoveListener(l Listener)
}
