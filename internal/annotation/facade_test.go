package annotation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFacadeLocalAnnotations(t *testing.T) {
	b := newTestBuffer("hello\nworld")
	shared := NewRegistry()
	f := NewFacade(shared)
	f2 := NewFacade(shared)
	f.Connect(b)
	f2.Connect(b)

	local1 := New(KindRange, "local1")
	shared1 := New(KindError, "shared1")
	f.Add(local1, pos(0, 1))
	shared.Add(shared1, pos(6, 5))

	if diff := cmp.Diff([]string{"shared1", "local1"}, collect(f, false)); diff != "" {
		t.Errorf("f mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"shared1"}, collect(f2, false)); diff != "" {
		t.Errorf("f2 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"shared1"}, collect(shared, true)); diff != "" {
		t.Errorf("shared mismatch (-want +got):\n%s", diff)
	}
	if _, ok := f2.PositionOf(local1); ok {
		t.Error("f2 sees f's local annotation")
	}
	if p := mustPosition(t, f, shared1); !p.SameSpan(pos(6, 5)) {
		t.Errorf("f PositionOf(shared1) = %v", p)
	}
	if f.Shared() != Model(shared) {
		t.Error("Shared() does not return the wrapped model")
	}
}

func TestFacadePositionPrefersLocal(t *testing.T) {
	b := newTestBuffer("hello world")
	shared := NewRegistry()
	f := NewFacade(shared)
	f.Connect(b)

	a := New(KindInfo, "both")
	shared.Add(a, pos(0, 5))
	f.Add(a, pos(6, 5))

	if p := mustPosition(t, f, a); !p.SameSpan(pos(6, 5)) {
		t.Errorf("PositionOf = %v, want local [6+5]", p)
	}
}

func TestFacadeConnectIsForwarded(t *testing.T) {
	b := newTestBuffer("hello world")
	shared := NewRegistry()
	f := NewFacade(shared)
	f2 := NewFacade(shared)

	f.Connect(b)
	f2.Connect(b)
	if shared.Connections() != 2 || f.Connections() != 1 {
		t.Fatalf("shared=%d local=%d", shared.Connections(), f.Connections())
	}

	f.Disconnect(b)
	if shared.Connections() != 1 || f.Connections() != 0 {
		t.Errorf("shared=%d local=%d after disconnect", shared.Connections(), f.Connections())
	}

	a := New(KindInfo, "a")
	shared.Add(a, pos(0, 5))
	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	if p := mustPosition(t, f, a); !p.SameSpan(pos(1, 5)) {
		t.Errorf("shared annotation stopped tracking: %v", p)
	}
}

func TestFacadeEvents(t *testing.T) {
	b := newTestBuffer("hello world")
	shared := NewRegistry()
	f := NewFacade(shared)
	f2 := NewFacade(shared)
	f.Connect(b)
	f2.Connect(b)

	rec := &eventRecorder{}
	rec2 := &eventRecorder{}
	f.AddListener(rec)
	f2.AddListener(rec2)
	if rec.last().Model() != Model(f) {
		t.Errorf("replay model = %v, want facade", rec.last().Model())
	}

	f.Add(New(KindRange, "local"), pos(0, 1))
	ev := rec.last()
	if ev.Model() != Model(f) {
		t.Errorf("local event model = %v, want facade", ev.Model())
	}
	if diff := cmp.Diff([]string{"local"}, texts(ev.Added())); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if rec2.count() != 1 {
		t.Errorf("f2 saw f's local change")
	}

	shared.Add(New(KindError, "shared"), pos(2, 1))
	for _, r := range []*eventRecorder{rec, rec2} {
		ev := r.last()
		if diff := cmp.Diff([]string{"shared"}, texts(ev.Added())); diff != "" {
			t.Errorf("Added mismatch (-want +got):\n%s", diff)
		}
	}
	if rec.last().Model() != Model(f) || rec2.last().Model() != Model(f2) {
		t.Error("shared change not reported by the facade")
	}

	f.Close()
	n := rec.count()
	shared.Add(New(KindError, "late"), pos(3, 1))
	if rec.count() != n {
		t.Error("closed facade still forwards shared changes")
	}
	if rec2.count() != 3 {
		t.Errorf("f2 events = %d, want 3", rec2.count())
	}
}

func TestFacadeAsAttachment(t *testing.T) {
	b := newTestBuffer("hello world")
	shared := NewRegistry()
	f := NewFacade(shared)
	f.Connect(b)

	s := NewRegistry()
	f.Attach("tasks", s)
	task := New(KindTask, "task")
	s.Add(task, pos(0, 5))

	rec := &eventRecorder{}
	f.AddListener(rec)
	s.Remove(task)
	if rec.last().Model() != Model(f) {
		t.Errorf("forwarded model = %v, want facade", rec.last().Model())
	}
	if diff := cmp.Diff([]string{"task"}, texts(rec.last().Removed())); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}
}
