package annotation

import "sync"

// Listener is notified after a model changed.
type Listener interface {
	// ModelChanged reports that m changed; the listener re-reads whatever it needs.
	ModelChanged(m Model)
}

// EventListener is a Listener that wants the incremental diff. When a
// listener implements it, ModelChangedEvent is called instead of ModelChanged.
type EventListener interface {
	Listener
	ModelChangedEvent(ev *Event)
}

// subscriber wraps a registered listener. Events that arrive before its
// registration replay has been delivered are queued behind the replay.
type subscriber struct {
	l Listener

	mu     sync.Mutex
	ready  bool
	queued []*Event
}

func (s *subscriber) send(ev *Event) {
	s.mu.Lock()
	if !s.ready {
		s.queued = append(s.queued, ev)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	notify(s.l, ev)
}

// replay delivers the registration event, then whatever was queued while
// it ran.
func (s *subscriber) replay(ev *Event) {
	notify(s.l, ev)
	for {
		s.mu.Lock()
		queued := s.queued
		s.queued = nil
		if len(queued) == 0 {
			s.ready = true
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		for _, q := range queued {
			notify(s.l, q)
		}
	}
}

// deliver sends ev to each subscriber in order.
func deliver(subs []*subscriber, ev *Event) {
	for _, s := range subs {
		s.send(ev)
	}
}

func notify(l Listener, ev *Event) {
	if el, ok := l.(EventListener); ok {
		el.ModelChangedEvent(ev)
		return
	}
	l.ModelChanged(ev.Model())
}
