// Package backend is the terminal surface the viewer paints to.
package backend

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	EventInterrupt
)

// Event represents a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Mouse event fields
	MouseX, MouseY int
	MouseButton    MouseButton

	// Resize event fields
	Width, Height int
}

// Key represents a keyboard key.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyCtrlC
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// MouseButton represents mouse button state.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseWheelUp
	MouseWheelDown
)

// Color is a terminal palette color. ColorDefault leaves the terminal's
// own color in place.
type Color int

const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorGray
)

// Style describes how a cell is drawn.
type Style struct {
	Fg, Bg  Color
	Bold    bool
	Dim     bool
	Reverse bool
}

// DefaultStyle draws with the terminal's colors.
var DefaultStyle = Style{}

// Surface is what the viewer paints to. *Terminal implements it.
type Surface interface {
	Size() (width, height int)
	SetCell(x, y int, r rune, style Style)
	Clear()
	Show()
}

// SetString draws s starting at (x, y) and returns the column after the
// last rune drawn. Drawing stops at maxX.
func SetString(s Surface, x, y, maxX int, text string, style Style) int {
	for _, r := range text {
		if x >= maxX {
			break
		}
		if r == '\t' {
			r = ' '
		}
		s.SetCell(x, y, r, style)
		x++
	}
	return x
}
