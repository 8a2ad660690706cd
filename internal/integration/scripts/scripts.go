// Package scripts runs Lua annotation scripts over a buffer and keeps
// their results in one sub-registry.
package scripts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/engine/buffer"
	"github.com/dshills/annomodel/internal/integration"
	"github.com/dshills/annomodel/internal/logging"
	"github.com/dshills/annomodel/internal/plugin/lua"
)

// DefaultDelay is how long the runner waits after the last edit.
const DefaultDelay = 300 * time.Millisecond

// Document is the buffer the scripts read.
type Document interface {
	LineCount() uint32
	LineText(line uint32) string
	LineStartOffset(line uint32) buffer.ByteOffset
	LineEndOffset(line uint32) buffer.ByteOffset
	AddListener(l buffer.Listener)
	RemoveListener(l buffer.Listener)
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the quiet period between the last edit and the rerun.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// WithLogger sets the runner's logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Runner owns a set of loaded scripts. Each run replaces the annotations
// of the previous run in a single batch.
type Runner struct {
	mu       sync.Mutex
	model    annotation.Model
	doc      Document
	scripts  []*lua.Script
	current  []*annotation.Annotation
	delay    time.Duration
	debounce *integration.Debouncer
	log      *logging.Logger
	started  bool
}

// NewRunner loads every script in paths. Scripts that fail to load are
// skipped; their errors are joined into the returned error, which may be
// non-nil alongside a usable runner.
func NewRunner(m annotation.Model, doc Document, paths []string, opts ...Option) (*Runner, error) {
	r := &Runner{
		model: m,
		doc:   doc,
		delay: DefaultDelay,
		log:   logging.Null(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.debounce = integration.NewDebouncer(r.delay, func() { _ = r.Run() })

	var errs []error
	for _, path := range paths {
		s, err := lua.Load(path, lua.WithLogger(r.log.WithField("script", path)))
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", path, err))
			continue
		}
		r.scripts = append(r.scripts, s)
	}
	return r, errors.Join(errs...)
}

// AddScript adds an already loaded script. The runner closes it.
func (r *Runner) AddScript(s *lua.Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, s)
}

// Len returns the number of loaded scripts.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scripts)
}

// Start runs the scripts once and then again after edits settle.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	err := r.Run()
	r.doc.AddListener(r)
	return err
}

// Stop detaches from the document and drops a pending run.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	r.doc.RemoveListener(r)
	r.debounce.Cancel()
}

// Close stops the runner and releases the scripts.
func (r *Runner) Close() {
	r.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scripts {
		s.Close()
	}
	r.scripts = nil
}

// BufferChanged schedules a rerun.
func (r *Runner) BufferChanged(buffer.ChangeEvent) {
	r.debounce.Trigger()
}

// Flush runs a pending rerun immediately.
func (r *Runner) Flush() {
	r.debounce.Flush()
}

// Run runs every script now. A failing script keeps no annotations; the
// others are still applied.
func (r *Runner) Run() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, r.doc.LineCount())
	for i := range lines {
		lines[i] = r.doc.LineText(uint32(i))
	}

	add := make(map[*annotation.Annotation]buffer.Position)
	var next []*annotation.Annotation
	var errs []error
	for _, s := range r.scripts {
		results, err := s.Annotate(lines)
		if err != nil {
			r.log.Warn("script %s: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("script %s: %w", s.Name(), err))
			continue
		}
		for _, res := range results {
			p, ok := r.span(res)
			if !ok {
				r.log.Debug("script %s: line %d out of range", s.Name(), res.Line+1)
				continue
			}
			a := annotation.New(res.Kind, res.Text)
			add[a] = p
			next = append(next, a)
		}
	}

	r.model.Replace(r.current, add)
	r.current = next
	return errors.Join(errs...)
}

// span resolves a script result against the current line geometry. Columns
// past the end of the line are clamped to it.
func (r *Runner) span(res lua.Result) (buffer.Position, bool) {
	if res.Line >= r.doc.LineCount() {
		return buffer.Position{}, false
	}
	start := r.doc.LineStartOffset(res.Line)
	end := r.doc.LineEndOffset(res.Line)
	if res.Col > 0 {
		start = min(start+buffer.ByteOffset(res.Col-1), end)
	}
	if res.Len >= 0 {
		end = min(start+buffer.ByteOffset(res.Len), end)
	}
	return buffer.NewPosition(start, end-start), true
}
