package buffer

// ChangeEvent describes one batch of edits applied to a buffer.
// Registered positions have already been updated when it is delivered.
type ChangeEvent struct {
	Revision RevisionID
	Changes  []Change
}

// Listener is notified after every edit batch.
type Listener interface {
	BufferChanged(ev ChangeEvent)
}

// AddListener registers l for change notifications.
// Adding the same listener twice has no effect.
func (b *Buffer) AddListener(l Listener) {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	for _, existing := range b.listeners {
		if existing == l {
			return
		}
	}
	b.listeners = append(b.listeners, l)
}

// RemoveListener unregisters l. Unknown listeners are ignored.
func (b *Buffer) RemoveListener(l Listener) {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	for i, existing := range b.listeners {
		if existing == l {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (b *Buffer) ListenerCount() int {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	return len(b.listeners)
}

// notify delivers ev to a snapshot of the listener list.
// Must not be called with b.mu held.
func (b *Buffer) notify(ev ChangeEvent) {
	b.lmu.Lock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.lmu.Unlock()

	for _, l := range listeners {
		l.BufferChanged(ev)
	}
}
