// Package tasks finds TODO-style markers in a buffer and keeps one task
// annotation per marked line.
package tasks

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/engine/buffer"
	"github.com/dshills/annomodel/internal/integration"
	"github.com/dshills/annomodel/internal/logging"
)

// DefaultDelay is how long the scanner waits after the last edit.
const DefaultDelay = 150 * time.Millisecond

// Document is the buffer the scanner reads.
type Document interface {
	LineCount() uint32
	LineText(line uint32) string
	LineStartOffset(line uint32) buffer.ByteOffset
	AddListener(l buffer.Listener)
	RemoveListener(l buffer.Listener)
}

// Task is one marker found on a line.
type Task struct {
	Line   uint32
	Column uint32
	Marker string
	Text   string
}

// Find returns the first configured marker on each line. A marker only
// counts when it is not part of a longer identifier.
func Find(doc Document, markers []string) []Task {
	var out []Task
	n := doc.LineCount()
	for line := uint32(0); line < n; line++ {
		text := doc.LineText(line)
		col, marker := firstMarker(text, markers)
		if col < 0 {
			continue
		}
		out = append(out, Task{
			Line:   line,
			Column: uint32(col),
			Marker: marker,
			Text:   strings.TrimSpace(text[col:]),
		})
	}
	return out
}

func firstMarker(text string, markers []string) (int, string) {
	best, found := -1, ""
	for _, m := range markers {
		if m == "" {
			continue
		}
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], m)
			if i < 0 {
				break
			}
			i += from
			if isWord(text, i, i+len(m)) {
				if best < 0 || i < best {
					best, found = i, m
				}
				break
			}
			from = i + 1
		}
	}
	return best, found
}

func isWord(text string, start, end int) bool {
	if start > 0 && identByte(text[start-1]) {
		return false
	}
	return end >= len(text) || !identByte(text[end])
}

func identByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDelay sets the quiet period between the last edit and the rescan.
func WithDelay(d time.Duration) Option {
	return func(s *Scanner) { s.delay = d }
}

// WithLogger sets the scanner's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// Scanner keeps a model's task annotations in step with a document. Each
// rescan swaps the old annotations for the new ones in a single Replace.
type Scanner struct {
	mu       sync.Mutex
	model    annotation.Model
	doc      Document
	markers  []string
	current  []*annotation.Annotation
	delay    time.Duration
	debounce *integration.Debouncer
	log      *logging.Logger
	started  bool
}

// NewScanner returns a scanner writing into m.
func NewScanner(m annotation.Model, doc Document, markers []string, opts ...Option) *Scanner {
	s := &Scanner{
		model:   m,
		doc:     doc,
		markers: slices.Clone(markers),
		delay:   DefaultDelay,
		log:     logging.Null(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debounce = integration.NewDebouncer(s.delay, s.Scan)
	return s
}

// Start scans once and then rescans after edits settle.
func (s *Scanner) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.Scan()
	s.doc.AddListener(s)
}

// Stop detaches from the document and drops any pending rescan. The
// annotations already in the model stay.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.doc.RemoveListener(s)
	s.debounce.Cancel()
}

// BufferChanged schedules a rescan.
func (s *Scanner) BufferChanged(buffer.ChangeEvent) {
	s.debounce.Trigger()
}

// Flush runs a pending rescan immediately.
func (s *Scanner) Flush() {
	s.debounce.Flush()
}

// SetMarkers changes the markers and rescans.
func (s *Scanner) SetMarkers(markers []string) {
	s.mu.Lock()
	s.markers = slices.Clone(markers)
	s.mu.Unlock()
	s.Scan()
}

// Scan rescans the document now.
func (s *Scanner) Scan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := Find(s.doc, s.markers)
	add := make(map[*annotation.Annotation]buffer.Position, len(found))
	next := make([]*annotation.Annotation, 0, len(found))
	for _, t := range found {
		start := s.doc.LineStartOffset(t.Line) + buffer.ByteOffset(t.Column)
		a := annotation.New(annotation.KindTask, t.Text)
		add[a] = buffer.NewPosition(start, buffer.ByteOffset(len(t.Text)))
		next = append(next, a)
	}
	s.model.Replace(s.current, add)
	s.current = next
	s.log.Debug("scanned %d lines, %d tasks", s.doc.LineCount(), len(next))
}

// Len returns the number of task annotations the scanner owns.
func (s *Scanner) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current)
}
