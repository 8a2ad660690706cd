package diffmarks

import (
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/engine/buffer"
)

const header = "diff --git a/f.txt b/f.txt\n" +
	"index 1111111..2222222 100644\n" +
	"--- a/f.txt\n" +
	"+++ b/f.txt\n"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		hunks string
		want  []Mark
	}{
		{
			name:  "modified line",
			hunks: "@@ -2 +2 @@\n-two\n+TWO\n",
			want:  []Mark{{Kind: annotation.KindDiffModified, Line: 1, Lines: 1}},
		},
		{
			name:  "added lines",
			hunks: "@@ -3,0 +4,2 @@\n+four\n+five\n",
			want:  []Mark{{Kind: annotation.KindDiffAdded, Line: 3, Lines: 2}},
		},
		{
			name:  "deleted line",
			hunks: "@@ -3 +2,0 @@\n-three\n",
			want:  []Mark{{Kind: annotation.KindDiffDeleted, Line: 1, Lines: 1}},
		},
		{
			name:  "deleted first line",
			hunks: "@@ -1 +0,0 @@\n-one\n",
			want:  []Mark{{Kind: annotation.KindDiffDeleted, Line: 0, Lines: 1}},
		},
		{
			name:  "modified then added",
			hunks: "@@ -2 +2,3 @@\n-two\n+TWO\n+two.1\n+two.2\n",
			want: []Mark{
				{Kind: annotation.KindDiffModified, Line: 1, Lines: 1},
				{Kind: annotation.KindDiffAdded, Line: 2, Lines: 2},
			},
		},
		{
			name:  "more deletions than additions",
			hunks: "@@ -2,3 +2 @@\n-two\n-three\n-four\n+TWO\n",
			want:  []Mark{{Kind: annotation.KindDiffModified, Line: 1, Lines: 1}},
		},
		{
			name:  "context lines",
			hunks: "@@ -1,3 +1,4 @@\n one\n-two\n+TWO\n three\n+new\n",
			want: []Mark{
				{Kind: annotation.KindDiffModified, Line: 1, Lines: 1},
				{Kind: annotation.KindDiffAdded, Line: 3, Lines: 1},
			},
		},
		{
			name:  "no newline marker",
			hunks: "@@ -3 +3 @@\n-three\n\\ No newline at end of file\n+THREE\n\\ No newline at end of file\n",
			want:  []Mark{{Kind: annotation.KindDiffModified, Line: 2, Lines: 1}},
		},
		{
			name: "several hunks",
			hunks: "@@ -2 +2 @@\n-two\n+TWO\n" +
				"@@ -3,0 +4 @@\n+four\n",
			want: []Mark{
				{Kind: annotation.KindDiffModified, Line: 1, Lines: 1},
				{Kind: annotation.KindDiffAdded, Line: 3, Lines: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(header + tt.hunks))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("marks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "\n", "  \n"} {
		got, err := Parse([]byte(in))
		if err != nil || got != nil {
			t.Errorf("Parse(%q) = %v, %v; want nil, nil", in, got, err)
		}
	}
}

func TestSpan(t *testing.T) {
	buf := buffer.NewBufferFromString("one\ntwo\nthree\n")

	tests := []struct {
		mark Mark
		want buffer.Position
		ok   bool
	}{
		{Mark{Kind: annotation.KindDiffModified, Line: 1, Lines: 1}, buffer.NewPosition(4, 3), true},
		{Mark{Kind: annotation.KindDiffAdded, Line: 0, Lines: 2}, buffer.NewPosition(0, 7), true},
		{Mark{Kind: annotation.KindDiffDeleted, Line: 2, Lines: 1}, buffer.NewPosition(8, 0), true},
		{Mark{Kind: annotation.KindDiffAdded, Line: 9, Lines: 1}, buffer.Position{}, false},
		{Mark{Kind: annotation.KindDiffAdded, Line: 0, Lines: 0}, buffer.Position{}, false},
	}
	for _, tt := range tests {
		got, ok := Span(buf, tt.mark)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Span(%+v) = %v, %v; want %v, %v", tt.mark, got, ok, tt.want, tt.ok)
		}
	}
}

type changeCounter struct {
	n atomic.Int32
}

func (c *changeCounter) ModelChanged(annotation.Model) {
	c.n.Add(1)
}

func TestSourceUpdate(t *testing.T) {
	buf := buffer.NewBufferFromString("one\nTWO\nthree\nfour\n")
	reg := annotation.NewRegistry(annotation.WithName("diff"))
	reg.Connect(buf)
	defer reg.Disconnect(buf)

	keep := annotation.New(annotation.KindBookmark, "keep")
	reg.Add(keep, buffer.NewPosition(0, 3))

	counter := &changeCounter{}
	reg.AddListener(counter)
	base := counter.n.Load()

	src := NewSource(reg, buf)
	if err := src.Update([]byte(header + "@@ -2 +2 @@\n-two\n+TWO\n@@ -3,0 +4 @@\n+four\n")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := counter.n.Load() - base; got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
	if src.Len() != 2 {
		t.Fatalf("Len = %d, want 2", src.Len())
	}

	got := texts(reg)
	want := []string{"diff-added 4", "diff-modified 2", "keep"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("annotations mismatch (-want +got):\n%s", diff)
	}

	if err := src.Update([]byte(header + "@@ -1 +1 @@\n-uno\n+one\n")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got = texts(reg)
	want = []string{"diff-modified 1", "keep"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("after second update (-want +got):\n%s", diff)
	}

	src.Clear()
	if diff := cmp.Diff([]string{"keep"}, texts(reg)); diff != "" {
		t.Errorf("after Clear (-want +got):\n%s", diff)
	}
}

func TestSourceUpdateError(t *testing.T) {
	reg := annotation.NewRegistry()
	src := NewSource(reg, buffer.NewBufferFromString("x\n"))

	err := src.Update([]byte(header + "@@ -x +y @@\n+z\n"))
	if err == nil {
		t.Fatal("want an error for a malformed hunk header")
	}
	if !strings.Contains(err.Error(), "parse diff") {
		t.Errorf("error %q does not name the parse step", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry has %d annotations after a failed update", reg.Len())
	}
}

func TestSourceSkipsMarksPastEnd(t *testing.T) {
	buf := buffer.NewBufferFromString("one\n")
	reg := annotation.NewRegistry()
	src := NewSource(reg, buf)

	src.Apply([]Mark{
		{Kind: annotation.KindDiffAdded, Line: 0, Lines: 1},
		{Kind: annotation.KindDiffAdded, Line: 7, Lines: 1},
	})
	if src.Len() != 1 || reg.Len() != 1 {
		t.Errorf("Len = %d, registry Len = %d; want 1, 1", src.Len(), reg.Len())
	}
}

func texts(m annotation.Model) []string {
	var out []string
	for a := range m.Annotations(false) {
		out = append(out, a.Text())
	}
	slices.Sort(out)
	return out
}
