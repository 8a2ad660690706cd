package dirty

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRangeMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want Range
		ok   bool
	}{
		{"overlap", NewRange(1, 5), NewRange(3, 8), NewRange(1, 8), true},
		{"contained", NewRange(1, 10), NewRange(3, 4), NewRange(1, 10), true},
		{"adjacent", NewRange(1, 2), NewRange(3, 4), NewRange(1, 4), true},
		{"adjacent reversed", NewRange(3, 4), NewRange(1, 2), NewRange(1, 4), true},
		{"gap", NewRange(1, 2), NewRange(4, 5), NewRange(1, 2), false},
		{"max line", NewRange(^uint32(0), ^uint32(0)), Line(0), Line(^uint32(0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Merge(tt.b)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Merge = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNewRangeSwaps(t *testing.T) {
	r := NewRange(9, 2)
	if r.Start != 2 || r.End != 9 || r.Len() != 8 {
		t.Errorf("NewRange(9, 2) = %v", r)
	}
	if r.String() != "lines 2-9" || Line(4).String() != "line 4" {
		t.Errorf("String = %q, %q", r.String(), Line(4).String())
	}
}

func TestTrackerCoalesces(t *testing.T) {
	tracker := NewTracker()

	tracker.MarkLine(10)
	tracker.MarkLine(2)
	tracker.MarkLines(4, 6)
	tracker.MarkLine(3)
	tracker.MarkLine(11)

	lines, full := tracker.Flush()
	if full {
		t.Fatal("unexpected full redraw")
	}
	want := []Range{NewRange(2, 6), NewRange(10, 11)}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Flush mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerFlushClears(t *testing.T) {
	tracker := NewTracker()
	if tracker.IsDirty() {
		t.Fatal("new tracker is dirty")
	}

	tracker.MarkLine(1)
	if !tracker.IsDirty() || !tracker.IsLineDirty(1) || tracker.IsLineDirty(2) {
		t.Error("MarkLine(1) not recorded")
	}

	tracker.Flush()
	if tracker.IsDirty() {
		t.Error("tracker still dirty after Flush")
	}
	if lines, full := tracker.Flush(); len(lines) != 0 || full {
		t.Errorf("second Flush = %v, %v", lines, full)
	}
}

func TestTrackerMarkFull(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkLine(3)
	tracker.MarkFull()
	tracker.MarkLine(5)

	if !tracker.IsLineDirty(1000) {
		t.Error("full redraw should make every line dirty")
	}
	lines, full := tracker.Flush()
	if !full || len(lines) != 0 {
		t.Errorf("Flush = %v, %v; want no ranges and full", lines, full)
	}
}

func TestTrackerMaxRanges(t *testing.T) {
	tracker := NewTracker()
	tracker.SetMaxRanges(2)

	tracker.MarkLine(1)
	tracker.MarkLine(5)
	if _, full := tracker.Flush(); full {
		t.Fatal("two ranges should fit")
	}

	tracker.MarkLine(1)
	tracker.MarkLine(5)
	tracker.MarkLine(9)
	if _, full := tracker.Flush(); !full {
		t.Error("third range should force a full redraw")
	}

	tracker.SetMaxRanges(0)
	tracker.MarkLine(1)
	tracker.MarkLine(3)
	if _, full := tracker.Flush(); !full {
		t.Error("max clamped to 1 should force a full redraw")
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tracker := NewTracker()
	tracker.SetMaxRanges(1000)

	var wg sync.WaitGroup
	for g := uint32(0); g < 4; g++ {
		wg.Add(1)
		go func(g uint32) {
			defer wg.Done()
			for i := uint32(0); i < 100; i++ {
				tracker.MarkLine(g*100 + i)
			}
		}(g)
	}
	wg.Wait()

	lines, full := tracker.Flush()
	want := []Range{NewRange(0, 399)}
	if full {
		t.Fatal("unexpected full redraw")
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Flush mismatch (-want +got):\n%s", diff)
	}
}
