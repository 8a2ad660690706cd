package app

import (
	"context"
	"errors"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/renderer/backend"
)

// pageSize is how far PageUp and PageDown move.
const pageSize = 20

// Screen is the terminal the event loop draws on and reads from.
// *backend.Terminal implements it.
type Screen interface {
	backend.Surface
	PollEvent() backend.Event
	Interrupt()
}

// waker interrupts the event loop when the view changes from another
// goroutine, such as a task rescan or a config reload.
type waker struct {
	screen Screen
}

func (w waker) ModelChanged(annotation.Model) {
	w.screen.Interrupt()
}

// Run draws and handles events until a quit key or ctx is done.
func (app *Application) Run(ctx context.Context, screen Screen) error {
	w := waker{screen: screen}
	app.view.AddListener(w)
	defer app.view.RemoveListener(w)

	stop := context.AfterFunc(ctx, screen.Interrupt)
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		app.Render(screen)
		err := app.HandleEvent(screen.PollEvent())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			app.log.Warn("%v", err)
			app.setStatus("%v", err)
		}
	}
}

// HandleEvent applies one terminal event. It returns ErrQuit for the quit
// keys.
func (app *Application) HandleEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventKey:
		return app.handleKey(ev)
	case backend.EventResize:
		app.tracker.MarkFull()
	}
	return nil
}

func (app *Application) handleKey(ev backend.Event) error {
	switch ev.Key {
	case backend.KeyCtrlC, backend.KeyEscape:
		return ErrQuit
	case backend.KeyUp:
		app.MoveBy(-1)
	case backend.KeyDown:
		app.MoveBy(1)
	case backend.KeyPageUp:
		app.MoveBy(-pageSize)
	case backend.KeyPageDown:
		app.MoveBy(pageSize)
	case backend.KeyHome:
		return app.MoveTo(0)
	case backend.KeyEnd:
		return app.MoveTo(app.buf.LineCount() - 1)
	case backend.KeyRune:
		return app.handleRune(ev.Rune)
	}
	return nil
}

func (app *Application) handleRune(r rune) error {
	switch r {
	case 'q':
		return ErrQuit
	case 'j':
		app.MoveBy(1)
	case 'k':
		app.MoveBy(-1)
	case 'g':
		return app.MoveTo(0)
	case 'G':
		return app.MoveTo(app.buf.LineCount() - 1)
	case 'd':
		return app.DeleteLine()
	case 'b':
		app.ToggleBookmark()
	case 'n':
		app.nextBookmark()
	case 'r':
		if err := app.RefreshDiff(context.Background()); err != nil {
			return err
		}
		app.setStatus("diff refreshed")
	}
	return nil
}

// nextBookmark jumps to the first bookmark below the current line,
// wrapping to the top.
func (app *Application) nextBookmark() {
	lines := app.Bookmarks()
	if len(lines) == 0 {
		app.setStatus("no bookmarks")
		return
	}
	current := app.CurrentLine()
	for _, l := range lines {
		if l > current {
			_ = app.MoveTo(l)
			return
		}
	}
	_ = app.MoveTo(lines[0])
}
