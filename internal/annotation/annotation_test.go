package annotation

import (
	"testing"

	"github.com/dshills/annomodel/internal/engine/buffer"
)

func newTestBuffer(text string) *buffer.Buffer {
	return buffer.NewBufferFromString(text)
}

func TestKindNames(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("nope"); ok {
		t.Error("ParseKind accepted an unknown name")
	}
	if Kind(200).String() != "unknown" {
		t.Errorf("Kind(200) = %q", Kind(200).String())
	}
}

func TestAnnotationIdentity(t *testing.T) {
	r, _ := connected(t, "hello world")
	a := New(KindError, "same")
	b := New(KindError, "same")
	r.Add(a, pos(0, 1))
	r.Add(b, pos(1, 1))

	if r.Len() != 2 {
		t.Errorf("equal-looking annotations collapsed: Len = %d", r.Len())
	}
}

func TestAnnotationMarkDeleted(t *testing.T) {
	a := New(KindWarning, "stale")
	if a.IsMarkedDeleted() {
		t.Fatal("new annotation is marked deleted")
	}
	a.MarkDeleted(true)
	if !a.IsMarkedDeleted() {
		t.Error("MarkDeleted(true) not recorded")
	}
	if a.String() != `warning("stale")` {
		t.Errorf("String() = %s", a.String())
	}
}
