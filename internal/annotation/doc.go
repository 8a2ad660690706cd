// Package annotation correlates decoration handles with spans of text in a
// live buffer.
//
// A Registry maps each *Annotation to a buffer.Position. While connected to
// a Document the positions are registered with it, so edits move them
// automatically; positions whose text is deleted are dropped lazily the
// next time the registry is iterated. Disconnecting keeps every
// association with its last known coordinates and reconnecting resumes
// live tracking.
//
// # Notification
//
// Mutations are collected into an Event and delivered to listeners in
// registration order once the mutating call has finished. The pending
// event is swapped for a fresh one before delivery, so a listener that
// mutates the registry from inside its callback contributes to the next
// event rather than the one being delivered. Listeners that implement
// EventListener receive the added, removed and changed sets; plain
// Listeners only learn that something changed.
//
// A new listener is called once immediately so it can read the current
// state without waiting for the next edit.
//
// # Composition
//
// Attach composes independently owned registries into one observed set:
// the child is connected as often as the parent and its changes are
// re-fired by the parent. A Facade wraps one shared registry and adds
// annotations that only its own consumer can see.
//
// # Invalid ranges
//
// Adding an annotation whose span does not fit the document silently drops
// the annotation. No operation in this package returns an error; the drop
// is reported on the debug log when a logger is configured.
//
// # Thread Safety
//
// Registry and Facade methods may be called from any goroutine. No lock is
// held while listeners run.
package annotation
