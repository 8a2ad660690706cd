package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/annomodel/internal/renderer/backend"
	"github.com/dshills/annomodel/internal/renderer/dirty"
	"github.com/dshills/annomodel/internal/renderer/gutter"
)

var cellStyles = map[gutter.CellStyle]backend.Style{
	gutter.StyleNormal:      {Fg: backend.ColorGray},
	gutter.StyleCurrentLine: {Fg: backend.ColorYellow, Bold: true},
	gutter.StyleDim:         {Fg: backend.ColorGray, Dim: true},
	gutter.StyleError:       {Fg: backend.ColorRed, Bold: true},
	gutter.StyleWarning:     {Fg: backend.ColorYellow},
	gutter.StyleInfo:        {Fg: backend.ColorBlue},
	gutter.StyleTask:        {Fg: backend.ColorMagenta},
	gutter.StyleAdded:       {Fg: backend.ColorGreen},
	gutter.StyleModified:    {Fg: backend.ColorBlue},
	gutter.StyleDeleted:     {Fg: backend.ColorRed},
}

var (
	textStyle    = backend.DefaultStyle
	currentStyle = backend.Style{Bold: true}
	statusStyle  = backend.Style{Reverse: true}
	thumbStyle   = backend.Style{Fg: backend.ColorGray, Dim: true}
)

// Render paints the visible lines, the overview ruler in the last column
// and the status line in the last row. Only lines marked dirty since the
// previous Render are repainted unless the view scrolled.
func (app *Application) Render(s backend.Surface) {
	width, height := s.Size()
	if width < 2 || height < 2 {
		return
	}
	rows := height - 1
	app.scroll(rows)

	// Reading the signs may rebuild their index and mark lines, so it
	// happens before the dirty set is taken.
	ruler := app.overview.Rows(app.buf.LineCount(), rows)
	ranges, full := app.tracker.Flush()
	top := app.topLine()
	if full {
		s.Clear()
		for y := 0; y < rows; y++ {
			app.drawLine(s, y, top+uint32(y), width-1)
		}
	} else {
		for _, r := range ranges {
			app.drawRange(s, r, top, rows, width-1)
		}
	}

	app.drawOverview(s, width-1, rows, ruler)
	app.drawStatus(s, rows, width)
	s.Show()
}

// scroll keeps the current line inside the rows on screen.
func (app *Application) scroll(rows int) {
	app.mu.Lock()
	defer app.mu.Unlock()

	top := app.top
	switch {
	case app.line < top:
		top = app.line
	case app.line >= top+uint32(rows):
		top = app.line - uint32(rows) + 1
	}
	if top != app.top {
		app.top = top
		app.tracker.MarkFull()
	}
}

func (app *Application) topLine() uint32 {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.top
}

func (app *Application) drawRange(s backend.Surface, r dirty.Range, top uint32, rows, maxX int) {
	bottom := top + uint32(rows)
	for line := max(r.Start, top); line <= r.End && line < bottom; line++ {
		app.drawLine(s, int(line-top), line, maxX)
	}
}

func (app *Application) drawLine(s backend.Surface, y int, line uint32, maxX int) {
	for x := 0; x < maxX; x++ {
		s.SetCell(x, y, ' ', textStyle)
	}
	visible := line < app.buf.LineCount()

	x := 0
	for _, c := range app.gutter.RenderLine(line, visible) {
		if x >= maxX {
			return
		}
		s.SetCell(x, y, c.Rune, cellStyles[c.Style])
		x++
	}
	if !visible {
		return
	}

	style := textStyle
	if line == app.CurrentLine() {
		style = currentStyle
	}
	backend.SetString(s, x, y, maxX, expandTabs(app.buf.LineText(line), app.buf.TabWidth()), style)
}

// expandTabs replaces each tab with spaces up to the next tab stop.
func expandTabs(text string, width int) string {
	if !strings.ContainsRune(text, '\t') {
		return text
	}
	var b strings.Builder
	col := 0
	for _, r := range text {
		if r != '\t' {
			b.WriteRune(r)
			col++
			continue
		}
		n := width - col%width
		b.WriteString(strings.Repeat(" ", n))
		col += n
	}
	return b.String()
}

func (app *Application) drawOverview(s backend.Surface, x, rows int, ruler []gutter.SignType) {
	thumb := gutter.RowForLine(app.CurrentLine(), app.buf.LineCount(), rows)
	for y, st := range ruler {
		r, style := gutter.SignGlyph(st)
		cell := cellStyles[style]
		if st == gutter.SignNone {
			r, cell = ' ', textStyle
			if y == thumb {
				r, cell = '|', thumbStyle
			}
		}
		s.SetCell(x, y, r, cell)
	}
}

func (app *Application) drawStatus(s backend.Surface, y, width int) {
	for x := 0; x < width; x++ {
		s.SetCell(x, y, ' ', statusStyle)
	}
	n := app.Counts()
	name := "[buffer]"
	if app.path != "" {
		name = filepath.Base(app.path)
	}
	text := fmt.Sprintf(" %s  %d/%d  bookmarks %d  tasks %d  diff %d",
		name, app.CurrentLine()+1, app.buf.LineCount(), n.Bookmarks, n.Tasks, n.Diff)
	if n.Scripts > 0 {
		text += fmt.Sprintf("  scripts %d", n.Scripts)
	}
	if msg := app.Status(); msg != "" {
		text += "  " + msg
	}
	backend.SetString(s, 0, y, width, text, statusStyle)
}

// Status returns the last message shown in the status line.
func (app *Application) Status() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.status
}

func (app *Application) setStatus(format string, args ...any) {
	app.mu.Lock()
	app.status = fmt.Sprintf(format, args...)
	app.mu.Unlock()
}
