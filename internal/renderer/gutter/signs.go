package gutter

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/engine/buffer"
	"github.com/dshills/annomodel/internal/renderer/dirty"
)

// LineIndex maps byte offsets to lines. *buffer.Buffer implements it.
type LineIndex interface {
	OffsetToPoint(offset buffer.ByteOffset) buffer.Point
}

// DefaultKindSigns returns the default sign for each annotation kind.
// Range annotations have no sign.
func DefaultKindSigns() map[annotation.Kind]SignType {
	return map[annotation.Kind]SignType{
		annotation.KindError:        SignError,
		annotation.KindWarning:      SignWarning,
		annotation.KindInfo:         SignInfo,
		annotation.KindBookmark:     SignBookmark,
		annotation.KindTask:         SignTask,
		annotation.KindDiffAdded:    SignAdded,
		annotation.KindDiffModified: SignModified,
		annotation.KindDiffDeleted:  SignDeleted,
	}
}

type placement struct {
	line uint32
	sign SignType
}

// AnnotationSigns indexes a model's annotations by line for the gutter.
// Register it with the model's AddListener: incremental events update only
// the annotations they name and mark their lines dirty, while a world
// change rebuilds the whole index. Register it with the buffer too, so
// that edits moving annotations across lines trigger a rebuild on the next
// read.
type AnnotationSigns struct {
	model annotation.Model
	lines LineIndex
	dirty *dirty.Tracker

	mu     sync.Mutex
	kinds  map[annotation.Kind]SignType
	placed map[*annotation.Annotation]placement
	byLine map[uint32][]*annotation.Annotation

	stale atomic.Bool
}

// NewAnnotationSigns creates an index over model. tracker may be nil.
func NewAnnotationSigns(model annotation.Model, lines LineIndex, tracker *dirty.Tracker) *AnnotationSigns {
	s := &AnnotationSigns{
		model:  model,
		lines:  lines,
		dirty:  tracker,
		kinds:  DefaultKindSigns(),
		placed: make(map[*annotation.Annotation]placement),
		byLine: make(map[uint32][]*annotation.Annotation),
	}
	s.stale.Store(true)
	return s
}

// SetKindSigns replaces the kind to sign mapping. Kinds missing from m
// show no sign.
func (s *AnnotationSigns) SetKindSigns(m map[annotation.Kind]SignType) {
	s.mu.Lock()
	s.kinds = make(map[annotation.Kind]SignType, len(m))
	for k, st := range m {
		s.kinds[k] = st
	}
	s.mu.Unlock()
	s.invalidate()
}

// ModelChanged implements annotation.Listener.
func (s *AnnotationSigns) ModelChanged(annotation.Model) {
	s.invalidate()
}

// ModelChangedEvent implements annotation.EventListener.
func (s *AnnotationSigns) ModelChangedEvent(ev *annotation.Event) {
	if ev.IsWorldChange() {
		s.invalidate()
		return
	}

	type update struct {
		a  *annotation.Annotation
		at placement
		ok bool
	}
	var updates []update
	for _, a := range ev.Removed() {
		updates = append(updates, update{a: a})
	}
	for _, a := range slices.Concat(ev.Added(), ev.Changed()) {
		line, ok := s.lineOf(a)
		updates = append(updates, update{a: a, at: placement{line: line}, ok: ok})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		s.unplaceLocked(u.a)
		if u.ok {
			s.placeLocked(u.a, u.at.line)
		}
	}
}

// BufferChanged implements buffer.Listener.
func (s *AnnotationSigns) BufferChanged(buffer.ChangeEvent) {
	s.invalidate()
}

func (s *AnnotationSigns) invalidate() {
	s.stale.Store(true)
	if s.dirty != nil {
		s.dirty.MarkFull()
	}
}

// lineOf returns the line the annotation starts on.
func (s *AnnotationSigns) lineOf(a *annotation.Annotation) (uint32, bool) {
	p, ok := s.model.PositionOf(a)
	if !ok || p.Deleted {
		return 0, false
	}
	return s.lines.OffsetToPoint(p.Offset).Line, true
}

// refresh rebuilds the index if it is stale. The model is read without
// holding s.mu, since reading may run a cleanup that notifies s.
func (s *AnnotationSigns) refresh() {
	if !s.stale.Swap(false) {
		return
	}

	type found struct {
		a    *annotation.Annotation
		line uint32
	}
	var all []found
	for a := range s.model.Annotations(true) {
		if line, ok := s.lineOf(a); ok {
			all = append(all, found{a, line})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.placed)
	clear(s.byLine)
	for _, f := range all {
		s.placeLocked(f.a, f.line)
	}
}

func (s *AnnotationSigns) placeLocked(a *annotation.Annotation, line uint32) {
	sign, ok := s.kinds[a.Kind()]
	if !ok || sign == SignNone {
		return
	}
	s.placed[a] = placement{line: line, sign: sign}
	s.byLine[line] = append(s.byLine[line], a)
	if s.dirty != nil {
		s.dirty.MarkLine(line)
	}
}

func (s *AnnotationSigns) unplaceLocked(a *annotation.Annotation) {
	at, ok := s.placed[a]
	if !ok {
		return
	}
	delete(s.placed, a)
	rest := slices.DeleteFunc(s.byLine[at.line], func(x *annotation.Annotation) bool { return x == a })
	if len(rest) == 0 {
		delete(s.byLine, at.line)
	} else {
		s.byLine[at.line] = rest
	}
	if s.dirty != nil {
		s.dirty.MarkLine(at.line)
	}
}

// SignsForLine implements SignProvider.
func (s *AnnotationSigns) SignsForLine(line uint32) []Sign {
	s.refresh()

	s.mu.Lock()
	defer s.mu.Unlock()
	as := s.byLine[line]
	if len(as) == 0 {
		return nil
	}
	signs := make([]Sign, len(as))
	for i, a := range as {
		signs[i] = Sign{Line: line, Type: s.placed[a].sign}
	}
	return signs
}

// AllSigns implements SignProvider.
func (s *AnnotationSigns) AllSigns() []Sign {
	s.refresh()

	s.mu.Lock()
	defer s.mu.Unlock()
	signs := make([]Sign, 0, len(s.placed))
	for _, at := range s.placed {
		signs = append(signs, Sign{Line: at.line, Type: at.sign})
	}
	slices.SortStableFunc(signs, func(x, y Sign) int {
		if x.Line != y.Line {
			if x.Line < y.Line {
				return -1
			}
			return 1
		}
		return signPriority(y.Type) - signPriority(x.Type)
	})
	return signs
}
