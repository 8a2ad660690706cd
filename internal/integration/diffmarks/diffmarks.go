// Package diffmarks turns a unified diff of the working tree into
// line-level diff annotations.
package diffmarks

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/engine/buffer"
)

// Mark covers Lines lines of the new file starting at the 0-indexed Line.
// Deleted marks always cover one line: the line above the removed text.
type Mark struct {
	Kind  annotation.Kind
	Line  uint32
	Lines uint32
}

// Parse reads a unified diff and returns its marks in line order. Only the
// first file of a multi-file diff is used.
func Parse(patch []byte) ([]Mark, error) {
	if len(bytes.TrimSpace(patch)) == 0 {
		return nil, nil
	}
	files, err := diff.NewMultiFileDiffReader(bytes.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	var marks []Mark
	for _, h := range files[0].Hunks {
		marks = appendHunk(marks, h)
	}
	return merge(marks), nil
}

func appendHunk(marks []Mark, h *diff.Hunk) []Mark {
	// A hunk with no new lines is anchored after NewStartLine.
	line := int64(h.NewStartLine) - 1
	if h.NewLines == 0 {
		line = int64(h.NewStartLine)
	}

	var dels, adds int64
	start := line
	flush := func() {
		mods := min(dels, adds)
		for i := int64(0); i < adds; i++ {
			kind := annotation.KindDiffAdded
			if i < mods {
				kind = annotation.KindDiffModified
			}
			marks = append(marks, Mark{Kind: kind, Line: uint32(start + i), Lines: 1})
		}
		if adds == 0 && dels > 0 {
			marks = append(marks, Mark{Kind: annotation.KindDiffDeleted, Line: uint32(max(start-1, 0)), Lines: 1})
		}
		dels, adds = 0, 0
	}

	body := strings.TrimSuffix(string(h.Body), "\n")
	for _, l := range strings.Split(body, "\n") {
		if strings.HasPrefix(l, `\`) {
			continue
		}
		switch {
		case strings.HasPrefix(l, "-"):
			if dels == 0 && adds == 0 {
				start = line
			}
			dels++
		case strings.HasPrefix(l, "+"):
			if dels == 0 && adds == 0 {
				start = line
			}
			adds++
			line++
		default:
			flush()
			line++
		}
	}
	flush()
	return marks
}

// merge joins runs of same-kind marks on consecutive lines. Deleted marks
// are kept apart, and a deleted mark on a line that already carries
// another mark is dropped.
func merge(marks []Mark) []Mark {
	taken := make(map[uint32]bool)
	for _, m := range marks {
		if m.Kind != annotation.KindDiffDeleted {
			taken[m.Line] = true
		}
	}

	var out []Mark
	for _, m := range marks {
		if m.Kind == annotation.KindDiffDeleted {
			if taken[m.Line] {
				continue
			}
			taken[m.Line] = true
			out = append(out, m)
			continue
		}
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Kind == m.Kind && last.Line+last.Lines == m.Line {
				last.Lines += m.Lines
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// Lines is the line geometry marks are resolved against.
// *buffer.Buffer implements it.
type Lines interface {
	LineCount() uint32
	LineStartOffset(line uint32) buffer.ByteOffset
	LineEndOffset(line uint32) buffer.ByteOffset
}

// Span returns the buffer position covered by m. Deleted marks are empty
// positions at the start of their line.
func Span(doc Lines, m Mark) (buffer.Position, bool) {
	count := doc.LineCount()
	if m.Line >= count || m.Lines == 0 {
		return buffer.Position{}, false
	}
	start := doc.LineStartOffset(m.Line)
	if m.Kind == annotation.KindDiffDeleted {
		return buffer.NewPosition(start, 0), true
	}
	last := min(m.Line+m.Lines-1, count-1)
	return buffer.NewPosition(start, doc.LineEndOffset(last)-start), true
}

// Source keeps a model in sync with the latest diff. Every Update swaps the
// previous marks for the new ones in a single Replace.
type Source struct {
	mu      sync.Mutex
	model   annotation.Model
	doc     Lines
	current []*annotation.Annotation
}

// NewSource returns a source writing into m.
func NewSource(m annotation.Model, doc Lines) *Source {
	return &Source{model: m, doc: doc}
}

// Update parses patch and replaces the source's annotations.
func (s *Source) Update(patch []byte) error {
	marks, err := Parse(patch)
	if err != nil {
		return err
	}
	s.Apply(marks)
	return nil
}

// Apply replaces the source's annotations with marks. Marks that fall
// outside the document are skipped.
func (s *Source) Apply(marks []Mark) {
	s.mu.Lock()
	defer s.mu.Unlock()

	add := make(map[*annotation.Annotation]buffer.Position, len(marks))
	next := make([]*annotation.Annotation, 0, len(marks))
	for _, m := range marks {
		p, ok := Span(s.doc, m)
		if !ok {
			continue
		}
		a := annotation.New(m.Kind, text(m))
		add[a] = p
		next = append(next, a)
	}
	s.model.Replace(s.current, add)
	s.current = next
}

// Clear removes everything the source added.
func (s *Source) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Replace(s.current, nil)
	s.current = nil
}

// Len returns the number of annotations the source currently owns.
func (s *Source) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current)
}

func text(m Mark) string {
	if m.Lines > 1 {
		return fmt.Sprintf("%s %d-%d", m.Kind, m.Line+1, m.Line+m.Lines)
	}
	return fmt.Sprintf("%s %d", m.Kind, m.Line+1)
}
