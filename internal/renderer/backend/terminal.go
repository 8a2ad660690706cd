package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Terminal implements Surface on a tcell screen.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal creates a terminal backend on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewSimulation creates a terminal backed by tcell's simulation screen. The
// returned screen lets tests inject keys and read back cells.
func NewSimulation(width, height int) (*Terminal, tcell.SimulationScreen) {
	screen := tcell.NewSimulationScreen("UTF-8")
	t := &Terminal{screen: screen}
	if err := t.Init(); err == nil {
		screen.SetSize(width, height)
	}
	return t, screen
}

// Init initializes the screen. It must be called before drawing.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse()
	return nil
}

// Fini restores the terminal.
func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) SetCell(x, y int, r rune, style Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(x, y, r, nil, convertStyle(style))
}

// Cell returns the rune and style at (x, y).
func (t *Terminal) Cell(x, y int) (rune, Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mainc, _, style, _ := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
	return mainc, convertTcellStyle(style)
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// PollEvent waits for the next terminal event. It returns EventNone once
// the screen is finalized.
func (t *Terminal) PollEvent() Event {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventNone}
	}
	return convertEvent(ev)
}

// PollKey waits for the next key event, skipping everything else. ok is
// false once the screen is finalized.
func (t *Terminal) PollKey() (ev Event, ok bool) {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return Event{}, false
		}
		if e := convertEvent(ev); e.Type == EventKey {
			return e, true
		}
	}
}

// PostKey queues a synthetic key event.
func (t *Terminal) PostKey(k Key, r rune) {
	_ = t.screen.PostEvent(tcell.NewEventKey(convertToTcellKey(k), r, tcell.ModNone)) // best-effort; event queue may be full
}

// Interrupt wakes a goroutine blocked in PollEvent with an EventInterrupt.
func (t *Terminal) Interrupt() {
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

var colors = map[Color]tcell.Color{
	ColorDefault: tcell.ColorDefault,
	ColorBlack:   tcell.ColorBlack,
	ColorRed:     tcell.ColorMaroon,
	ColorGreen:   tcell.ColorGreen,
	ColorYellow:  tcell.ColorOlive,
	ColorBlue:    tcell.ColorNavy,
	ColorMagenta: tcell.ColorPurple,
	ColorCyan:    tcell.ColorTeal,
	ColorWhite:   tcell.ColorSilver,
	ColorGray:    tcell.ColorGray,
}

func convertStyle(s Style) tcell.Style {
	return tcell.StyleDefault.
		Foreground(colors[s.Fg]).
		Background(colors[s.Bg]).
		Bold(s.Bold).
		Dim(s.Dim).
		Reverse(s.Reverse)
}

func convertTcellStyle(ts tcell.Style) Style {
	fg, bg, attrs := ts.Decompose() //nolint:staticcheck // Decompose is the correct API
	return Style{
		Fg:      convertTcellColor(fg),
		Bg:      convertTcellColor(bg),
		Bold:    attrs&tcell.AttrBold != 0,
		Dim:     attrs&tcell.AttrDim != 0,
		Reverse: attrs&tcell.AttrReverse != 0,
	}
}

func convertTcellColor(tc tcell.Color) Color {
	for c, t := range colors {
		if t == tc {
			return c
		}
	}
	return ColorDefault
}

func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{
			Type: EventKey,
			Key:  convertKey(e.Key()),
			Rune: e.Rune(),
			Mod:  convertMod(e.Modifiers()),
		}

	case *tcell.EventMouse:
		x, y := e.Position()
		return Event{
			Type:        EventMouse,
			MouseX:      x,
			MouseY:      y,
			MouseButton: convertMouseButton(e.Buttons()),
			Mod:         convertMod(e.Modifiers()),
		}

	case *tcell.EventResize:
		w, h := e.Size()
		return Event{
			Type:   EventResize,
			Width:  w,
			Height: h,
		}

	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt}

	default:
		return Event{Type: EventNone}
	}
}

var keys = map[tcell.Key]Key{
	tcell.KeyRune:       KeyRune,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyCtrlC:      KeyCtrlC,
}

// convertKey converts tcell key to our Key type.
func convertKey(k tcell.Key) Key {
	if k == tcell.KeyBackspace {
		return KeyBackspace
	}
	if key, ok := keys[k]; ok {
		return key
	}
	return KeyNone
}

func convertToTcellKey(k Key) tcell.Key {
	for tk, key := range keys {
		if key == k {
			return tk
		}
	}
	return tcell.KeyNUL
}

func convertMod(m tcell.ModMask) ModMask {
	var result ModMask
	if m&tcell.ModShift != 0 {
		result |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= ModAlt
	}
	return result
}

func convertMouseButton(b tcell.ButtonMask) MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return MouseLeft
	case b&tcell.WheelUp != 0:
		return MouseWheelUp
	case b&tcell.WheelDown != 0:
		return MouseWheelDown
	default:
		return MouseNone
	}
}
