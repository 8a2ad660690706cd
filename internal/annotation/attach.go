package annotation

// attachment is a model hosted inside a parent registry under a key.
type attachment struct {
	key   any
	model Model
	fwd   *forwarder
}

// forwarder re-fires an attached model's changes as the parent's own.
type forwarder struct {
	parent *Registry
}

func (f *forwarder) ModelChanged(Model) {
	f.parent.fireWorldChange()
}

func (f *forwarder) ModelChangedEvent(ev *Event) {
	f.parent.dispatch(ev.forwardedTo(f.parent.self))
}

// Attach hosts m under key. Attaching a model that is already attached,
// under any key, does nothing. A model previously attached under key is
// detached first. The new model is connected as many times as the registry
// currently is, and its changes are re-fired to the registry's listeners.
// Keys must be comparable.
func (r *Registry) Attach(key any, m Model) {
	if m == nil {
		return
	}

	r.mu.Lock()
	for _, at := range r.attachments {
		if at.model == m {
			r.mu.Unlock()
			return
		}
	}
	old := r.removeAttachmentLocked(key)
	at := &attachment{key: key, model: m, fwd: &forwarder{parent: r}}
	r.attachments = append(r.attachments, at)
	doc, n := r.doc, r.connections
	r.mu.Unlock()

	if old != nil {
		r.teardown(old, doc, n)
	}
	for i := 0; i < n; i++ {
		m.Connect(doc)
	}
	r.log.Debug("attached %v (%d connections)", key, n)

	// Registration replays the model's state, which the forwarder turns
	// into a world change on the registry.
	m.AddListener(at.fwd)
}

// Detach removes the model attached under key and returns it, or nil if
// there is none. The model is disconnected as many times as the registry
// is connected and the registry's listeners are told to re-read.
func (r *Registry) Detach(key any) Model {
	r.mu.Lock()
	at := r.removeAttachmentLocked(key)
	doc, n := r.doc, r.connections
	r.mu.Unlock()

	if at == nil {
		return nil
	}
	r.teardown(at, doc, n)
	r.log.Debug("detached %v", key)
	r.fireWorldChange()
	return at.model
}

// Attachment returns the model attached under key.
func (r *Registry) Attachment(key any) (Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, at := range r.attachments {
		if at.key == key {
			return at.model, true
		}
	}
	return nil, false
}

// AttachmentKeys returns the keys of attached models in attachment order.
func (r *Registry) AttachmentKeys() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]any, len(r.attachments))
	for i, at := range r.attachments {
		keys[i] = at.key
	}
	return keys
}

func (r *Registry) teardown(at *attachment, doc Document, connections int) {
	at.model.RemoveListener(at.fwd)
	for i := 0; i < connections; i++ {
		at.model.Disconnect(doc)
	}
}

func (r *Registry) removeAttachmentLocked(key any) *attachment {
	for i, at := range r.attachments {
		if at.key == key {
			r.attachments = append(r.attachments[:i:i], r.attachments[i+1:]...)
			return at
		}
	}
	return nil
}

func (r *Registry) attachedModels() []Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attachedModelsLocked()
}

func (r *Registry) attachedModelsLocked() []Model {
	models := make([]Model, len(r.attachments))
	for i, at := range r.attachments {
		models[i] = at.model
	}
	return models
}
