package annotation

import (
	"fmt"
	"sync/atomic"
)

// Kind classifies an annotation for renderers.
type Kind uint8

const (
	KindInfo Kind = iota
	KindWarning
	KindError
	KindBookmark
	KindTask
	KindDiffAdded
	KindDiffModified
	KindDiffDeleted
	KindRange
)

var kindNames = [...]string{
	KindInfo:         "info",
	KindWarning:      "warning",
	KindError:        "error",
	KindBookmark:     "bookmark",
	KindTask:         "task",
	KindDiffAdded:    "diff-added",
	KindDiffModified: "diff-modified",
	KindDiffDeleted:  "diff-deleted",
	KindRange:        "range",
}

// String returns the kind's name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// Annotation is an opaque decoration handle. Annotations are compared by
// pointer identity; the registry never looks at their contents.
type Annotation struct {
	kind    Kind
	text    string
	deleted atomic.Bool
}

// New creates an annotation.
func New(kind Kind, text string) *Annotation {
	return &Annotation{kind: kind, text: text}
}

// Kind returns the annotation's kind.
func (a *Annotation) Kind() Kind {
	return a.kind
}

// Text returns the annotation's message.
func (a *Annotation) Text() string {
	return a.text
}

// MarkDeleted flags the annotation as stale, e.g. a diagnostic whose
// source line was edited. It stays registered until it is removed.
func (a *Annotation) MarkDeleted(deleted bool) {
	a.deleted.Store(deleted)
}

// IsMarkedDeleted reports whether MarkDeleted(true) was called.
func (a *Annotation) IsMarkedDeleted() bool {
	return a.deleted.Load()
}

func (a *Annotation) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%q)", a.kind, a.text)
}
