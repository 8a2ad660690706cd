package gutter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/engine/buffer"
	"github.com/dshills/annomodel/internal/renderer/dirty"
)

const signsText = "one\ntwo TODO\nthree\n"

func newSignsFixture(t *testing.T) (*annotation.Registry, *buffer.Buffer, *AnnotationSigns, *dirty.Tracker) {
	t.Helper()
	b := buffer.NewBufferFromString(signsText)
	r := annotation.NewRegistry()
	r.Connect(b)
	tracker := dirty.NewTracker()
	s := NewAnnotationSigns(r, b, tracker)
	r.AddListener(s)
	b.AddListener(s)
	return r, b, s, tracker
}

func signTypes(signs []Sign) []SignType {
	var out []SignType
	for _, s := range signs {
		out = append(out, s.Type)
	}
	return out
}

func TestAnnotationSignsLines(t *testing.T) {
	r, _, s, _ := newSignsFixture(t)
	r.Add(annotation.New(annotation.KindError, "boom"), buffer.NewPosition(4, 3))
	r.Add(annotation.New(annotation.KindWarning, "hmm"), buffer.NewPosition(13, 5))
	r.Add(annotation.New(annotation.KindRange, "current"), buffer.NewPosition(0, 1))

	if diff := cmp.Diff([]SignType{SignError}, signTypes(s.SignsForLine(1))); diff != "" {
		t.Errorf("line 1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]SignType{SignWarning}, signTypes(s.SignsForLine(2))); diff != "" {
		t.Errorf("line 2 mismatch (-want +got):\n%s", diff)
	}
	if got := s.SignsForLine(0); len(got) != 0 {
		t.Errorf("range annotation produced signs %v", got)
	}

	want := []Sign{{Line: 1, Type: SignError}, {Line: 2, Type: SignWarning}}
	if diff := cmp.Diff(want, s.AllSigns()); diff != "" {
		t.Errorf("AllSigns mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotationSignsIncremental(t *testing.T) {
	r, _, s, tracker := newSignsFixture(t)
	errA := annotation.New(annotation.KindError, "boom")
	r.Add(errA, buffer.NewPosition(4, 3))
	s.SignsForLine(0)
	tracker.Flush()

	r.Add(annotation.New(annotation.KindWarning, "hmm"), buffer.NewPosition(13, 5))
	lines, full := tracker.Flush()
	if full {
		t.Fatal("incremental add forced a full redraw")
	}
	if diff := cmp.Diff([]dirty.Range{dirty.Line(2)}, lines); diff != "" {
		t.Errorf("dirty mismatch (-want +got):\n%s", diff)
	}

	moved := buffer.NewPosition(0, 1)
	r.Modify(errA, &moved)
	lines, _ = tracker.Flush()
	if diff := cmp.Diff([]dirty.Range{dirty.NewRange(0, 1)}, lines); diff != "" {
		t.Errorf("dirty mismatch (-want +got):\n%s", diff)
	}
	if got := signTypes(s.SignsForLine(0)); len(got) != 1 || got[0] != SignError {
		t.Errorf("line 0 = %v", got)
	}
	if got := s.SignsForLine(1); len(got) != 0 {
		t.Errorf("line 1 still has %v", got)
	}

	r.Remove(errA)
	if got := s.SignsForLine(0); len(got) != 0 {
		t.Errorf("removed annotation still shown: %v", got)
	}
	if !tracker.IsLineDirty(0) {
		t.Error("removal did not mark its line")
	}
}

func TestAnnotationSignsFollowEdits(t *testing.T) {
	r, b, s, tracker := newSignsFixture(t)
	r.Add(annotation.New(annotation.KindWarning, "hmm"), buffer.NewPosition(13, 5))
	s.SignsForLine(0)
	tracker.Flush()

	if _, err := b.Insert(0, "zero\n"); err != nil {
		t.Fatal(err)
	}
	if _, full := tracker.Flush(); !full {
		t.Error("buffer edit should force a full redraw")
	}
	if got := s.SignsForLine(2); len(got) != 0 {
		t.Errorf("stale sign on line 2: %v", got)
	}
	if diff := cmp.Diff([]SignType{SignWarning}, signTypes(s.SignsForLine(3))); diff != "" {
		t.Errorf("line 3 mismatch (-want +got):\n%s", diff)
	}

	// Deleting the annotated line drops the sign once the model cleans up.
	if err := b.Delete(b.LineStartOffset(3), b.LineEndOffset(3)+1); err != nil {
		t.Fatal(err)
	}
	if got := s.AllSigns(); len(got) != 0 {
		t.Errorf("deleted line still has signs %v", got)
	}
}

func TestAnnotationSignsAttachedAndMapping(t *testing.T) {
	r, _, s, _ := newSignsFixture(t)
	tasks := annotation.NewRegistry()
	r.Attach("tasks", tasks)
	tasks.Add(annotation.New(annotation.KindTask, "TODO"), buffer.NewPosition(8, 4))
	r.Add(annotation.New(annotation.KindError, "boom"), buffer.NewPosition(0, 3))

	want := []Sign{{Line: 0, Type: SignError}, {Line: 1, Type: SignTask}}
	if diff := cmp.Diff(want, s.AllSigns()); diff != "" {
		t.Errorf("AllSigns mismatch (-want +got):\n%s", diff)
	}

	s.SetKindSigns(map[annotation.Kind]SignType{annotation.KindTask: SignBookmark})
	want = []Sign{{Line: 1, Type: SignBookmark}}
	if diff := cmp.Diff(want, s.AllSigns()); diff != "" {
		t.Errorf("remapped AllSigns mismatch (-want +got):\n%s", diff)
	}
}
