// Package gutter renders the column left of the text: annotation signs
// and line numbers. It also builds the overview ruler that summarises
// annotations over the whole document.
package gutter

import (
	"strconv"
	"sync"
)

// Config holds gutter configuration.
type Config struct {
	// ShowLineNumbers enables line number display.
	ShowLineNumbers bool

	// LineNumberWidth is the fixed width for line numbers (0 = auto).
	LineNumberWidth int

	// MinLineNumberWidth is the minimum width for auto-calculated widths.
	MinLineNumberWidth int

	// ShowSigns enables the sign column.
	ShowSigns bool

	// SignColumnWidth is the width of the sign column.
	SignColumnWidth int

	// RelativeLineNumbers shows line numbers relative to the current line.
	RelativeLineNumbers bool
}

// DefaultConfig returns the default gutter configuration.
func DefaultConfig() Config {
	return Config{
		ShowLineNumbers:    true,
		MinLineNumberWidth: 3,
		ShowSigns:          true,
		SignColumnWidth:    2,
	}
}

// SignType represents the type of sign to display.
type SignType uint8

const (
	SignNone SignType = iota
	SignError
	SignWarning
	SignInfo
	SignBookmark
	SignTask
	SignAdded
	SignModified
	SignDeleted
)

var signNames = [...]string{
	SignNone:     "none",
	SignError:    "error",
	SignWarning:  "warning",
	SignInfo:     "info",
	SignBookmark: "bookmark",
	SignTask:     "task",
	SignAdded:    "added",
	SignModified: "modified",
	SignDeleted:  "deleted",
}

// String returns the sign's configuration name.
func (st SignType) String() string {
	if int(st) < len(signNames) {
		return signNames[st]
	}
	return "unknown"
}

// ParseSignType returns the sign type with the given configuration name.
func ParseSignType(s string) (SignType, bool) {
	for st, name := range signNames {
		if name == s {
			return SignType(st), true
		}
	}
	return SignNone, false
}

// Sign represents a sign to display in the gutter.
type Sign struct {
	Line uint32
	Type SignType
}

// SignProvider provides signs for the gutter.
type SignProvider interface {
	// SignsForLine returns signs for a given line.
	SignsForLine(line uint32) []Sign

	// AllSigns returns all signs, ordered by line.
	AllSigns() []Sign
}

// CellStyle describes how to style a gutter cell.
type CellStyle uint8

const (
	StyleNormal CellStyle = iota
	StyleCurrentLine
	StyleDim
	StyleError
	StyleWarning
	StyleInfo
	StyleTask
	StyleAdded
	StyleModified
	StyleDeleted
)

// Cell represents a single gutter cell.
type Cell struct {
	Rune  rune
	Style CellStyle
}

// Gutter manages the gutter area rendering.
type Gutter struct {
	mu sync.RWMutex

	config Config

	width       int
	lineCount   uint32
	currentLine uint32

	signProvider SignProvider
}

// New creates a new gutter with the given configuration.
func New(config Config) *Gutter {
	return &Gutter{
		config: config,
		width:  calculateWidth(config, 1),
	}
}

// Width returns the current gutter width.
func (g *Gutter) Width() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.width
}

// Config returns the current configuration.
func (g *Gutter) Config() Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config
}

// SetConfig updates the gutter configuration.
func (g *Gutter) SetConfig(config Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config = config
	g.width = calculateWidth(config, g.lineCount)
}

// SetLineCount updates the total line count (affects width calculation).
func (g *Gutter) SetLineCount(count uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lineCount = count
	g.width = calculateWidth(g.config, count)
}

// SetCurrentLine updates the highlighted line.
func (g *Gutter) SetCurrentLine(line uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentLine = line
}

// SetSignProvider sets the sign provider.
func (g *Gutter) SetSignProvider(sp SignProvider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signProvider = sp
}

// RenderLine renders the gutter for a single line. isVisible reports
// whether the line exists in the buffer; rows past the end show '~'.
func (g *Gutter) RenderLine(line uint32, isVisible bool) []Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.width == 0 {
		return nil
	}

	cells := make([]Cell, g.width)
	for i := range cells {
		cells[i] = Cell{Rune: ' ', Style: StyleNormal}
	}

	col := 0
	if g.config.ShowSigns && g.config.SignColumnWidth > 0 {
		if isVisible {
			cells[col] = g.renderSign(line)
		}
		col += g.config.SignColumnWidth
	}

	if g.config.ShowLineNumbers {
		numWidth := g.lineNumberWidth()
		text, style := "~", StyleDim
		if isVisible {
			text, style = strconv.FormatUint(uint64(g.displayNumber(line)), 10), g.styleForLine(line)
		}
		for i, r := range PadLeft(text, numWidth) {
			if col+i >= g.width-1 {
				break
			}
			cells[col+i] = Cell{Rune: r, Style: style}
		}
	}

	return cells
}

func (g *Gutter) styleForLine(line uint32) CellStyle {
	if line == g.currentLine {
		return StyleCurrentLine
	}
	return StyleDim
}

// displayNumber returns the 1-based line number, or the distance to the
// current line in relative mode.
func (g *Gutter) displayNumber(line uint32) uint32 {
	if !g.config.RelativeLineNumbers || line == g.currentLine {
		return line + 1
	}
	if line > g.currentLine {
		return line - g.currentLine
	}
	return g.currentLine - line
}

func (g *Gutter) renderSign(line uint32) Cell {
	if g.signProvider == nil {
		return Cell{Rune: ' ', Style: StyleNormal}
	}
	signs := g.signProvider.SignsForLine(line)
	if len(signs) == 0 {
		return Cell{Rune: ' ', Style: StyleNormal}
	}
	r, style := SignGlyph(HighestPriority(signs).Type)
	return Cell{Rune: r, Style: style}
}

func (g *Gutter) lineNumberWidth() int {
	return numberWidth(g.config, g.lineCount)
}

func numberWidth(config Config, lineCount uint32) int {
	if config.LineNumberWidth > 0 {
		return config.LineNumberWidth
	}
	return max(countDigits(lineCount), config.MinLineNumberWidth)
}

// calculateWidth calculates the total gutter width including the
// separator column.
func calculateWidth(config Config, lineCount uint32) int {
	width := 0
	if config.ShowSigns {
		width += config.SignColumnWidth
	}
	if config.ShowLineNumbers {
		width += numberWidth(config, lineCount)
	}
	if width > 0 {
		width++
	}
	return width
}

func countDigits(n uint32) int {
	digits := 1
	for n >= 10 {
		digits++
		n /= 10
	}
	return digits
}

// PadLeft pads s with spaces on the left to width.
func PadLeft(s string, width int) string {
	for len(s) < width {
		s = " " + s
	}
	return s
}

// HighestPriority returns the sign with highest priority. Ties keep the
// first sign.
func HighestPriority(signs []Sign) Sign {
	if len(signs) == 0 {
		return Sign{Type: SignNone}
	}

	best := signs[0]
	for _, s := range signs[1:] {
		if signPriority(s.Type) > signPriority(best.Type) {
			best = s
		}
	}
	return best
}

// signPriority returns the priority of a sign type (higher = more important).
func signPriority(st SignType) int {
	switch st {
	case SignError:
		return 100
	case SignWarning:
		return 80
	case SignInfo:
		return 70
	case SignTask:
		return 65
	case SignBookmark:
		return 60
	case SignDeleted:
		return 50
	case SignModified:
		return 40
	case SignAdded:
		return 30
	default:
		return 0
	}
}

// SignGlyph returns the glyph and style for a sign type.
func SignGlyph(st SignType) (rune, CellStyle) {
	switch st {
	case SignError:
		return 'E', StyleError
	case SignWarning:
		return 'W', StyleWarning
	case SignInfo:
		return 'I', StyleInfo
	case SignBookmark:
		return '#', StyleInfo
	case SignTask:
		return 'T', StyleTask
	case SignAdded:
		return '+', StyleAdded
	case SignModified:
		return '~', StyleModified
	case SignDeleted:
		return '-', StyleDeleted
	default:
		return ' ', StyleNormal
	}
}
