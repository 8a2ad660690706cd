package app

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/dshills/annomodel/internal/annotation"
)

// List writes one line per annotation of the view, ordered by position:
// 1-based line, kind and text. The current-line marker is left out.
func (app *Application) List(w io.Writer) error {
	entries := annotation.Entries(app.view, true)
	entries = slices.DeleteFunc(entries, func(e annotation.Entry) bool {
		return e.Annotation == app.current
	})
	slices.SortStableFunc(entries, func(x, y annotation.Entry) int {
		return cmp.Compare(x.Position.Offset, y.Position.Offset)
	})

	for _, e := range entries {
		line := app.buf.OffsetToPoint(e.Position.Offset).Line + 1
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", line, e.Annotation.Kind(), e.Annotation.Text()); err != nil {
			return err
		}
	}
	return nil
}
