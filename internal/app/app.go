package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/dshills/annomodel/internal/annotation"
	"github.com/dshills/annomodel/internal/config"
	"github.com/dshills/annomodel/internal/engine/buffer"
	"github.com/dshills/annomodel/internal/integration/diffmarks"
	"github.com/dshills/annomodel/internal/integration/git"
	"github.com/dshills/annomodel/internal/integration/scripts"
	"github.com/dshills/annomodel/internal/integration/tasks"
	"github.com/dshills/annomodel/internal/logging"
	"github.com/dshills/annomodel/internal/renderer/dirty"
	"github.com/dshills/annomodel/internal/renderer/gutter"
)

// Keys of the sub-registries attached to the shared model.
const (
	TasksKey   = "tasks"
	DiffKey    = "diff"
	ScriptsKey = "scripts"
)

// Application is one file open in the viewer. The shared registry holds
// user bookmarks and hosts the task and diff sub-registries; the view's
// facade adds the current-line marker on top.
type Application struct {
	mu sync.Mutex

	path string
	buf  *buffer.Buffer
	cfg  config.Config
	log  *logging.Logger

	shared    *annotation.Registry
	taskReg   *annotation.Registry
	diffReg   *annotation.Registry
	scriptReg *annotation.Registry
	view      *annotation.Facade

	tasks     *tasks.Scanner
	taskDelay time.Duration
	diff      *diffmarks.Source
	repo      *git.Repository
	scripts   *scripts.Runner

	tracker  *dirty.Tracker
	signs    *gutter.AnnotationSigns
	gutter   *gutter.Gutter
	overview *gutter.Overview

	current *annotation.Annotation
	line    uint32
	top     uint32
	status  string
}

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the application logger.
func WithLogger(l *logging.Logger) Option {
	return func(app *Application) {
		if l != nil {
			app.log = l
		}
	}
}

// WithPath names the file shown in the status line and used for diffs.
func WithPath(path string) Option {
	return func(app *Application) { app.path = path }
}

// WithTaskDelay sets how long the task scanner waits after edits.
func WithTaskDelay(d time.Duration) Option {
	return func(app *Application) { app.taskDelay = d }
}

// Open reads path into a buffer and returns a viewer for it.
func Open(path string, cfg config.Config, opts ...Option) (*Application, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &FileError{Op: "read", Path: path, Err: err}
	}
	text := string(data)
	buf := buffer.NewBufferFromString(text, buffer.WithDetectedLineEnding(text))
	return New(buf, cfg, append([]Option{WithPath(path)}, opts...)...), nil
}

// New builds the annotation models for buf and connects them.
func New(buf *buffer.Buffer, cfg config.Config, opts ...Option) *Application {
	app := &Application{
		buf:       buf,
		cfg:       cfg.Clone(),
		log:       logging.Null(),
		tracker:   dirty.NewTracker(),
		taskDelay: tasks.DefaultDelay,
	}
	for _, opt := range opts {
		opt(app)
	}
	buf.SetTabWidth(app.cfg.View.TabWidth)

	app.shared = annotation.NewRegistry(annotation.WithName("shared"), annotation.WithLogger(app.log.WithComponent("shared")))
	app.taskReg = annotation.NewRegistry(annotation.WithName(TasksKey), annotation.WithLogger(app.log.WithComponent(TasksKey)))
	app.diffReg = annotation.NewRegistry(annotation.WithName(DiffKey), annotation.WithLogger(app.log.WithComponent(DiffKey)))
	app.scriptReg = annotation.NewRegistry(annotation.WithName(ScriptsKey), annotation.WithLogger(app.log.WithComponent(ScriptsKey)))
	app.shared.Attach(TasksKey, app.taskReg)
	app.shared.Attach(DiffKey, app.diffReg)
	app.shared.Attach(ScriptsKey, app.scriptReg)
	app.view = annotation.NewFacade(app.shared, annotation.WithName("view"), annotation.WithLogger(app.log.WithComponent("view")))

	app.tasks = tasks.NewScanner(app.taskReg, buf, app.cfg.Tasks.Markers,
		tasks.WithDelay(app.taskDelay), tasks.WithLogger(app.log.WithComponent(TasksKey)))
	app.diff = diffmarks.NewSource(app.diffReg, buf)

	app.view.Connect(buf)

	app.signs = gutter.NewAnnotationSigns(app.view, buf, app.tracker)
	app.signs.SetKindSigns(app.cfg.KindSigns())
	app.view.AddListener(app.signs)
	buf.AddListener(app.signs)

	app.gutter = gutter.New(app.cfg.GutterSettings())
	app.gutter.SetSignProvider(app.signs)
	app.gutter.SetLineCount(buf.LineCount())
	app.overview = gutter.NewOverview(app.signs)

	app.current = annotation.New(annotation.KindRange, "current line")
	app.placeCurrent()
	app.tasks.Start()
	app.startScripts(app.cfg.Scripts.Files)
	app.tracker.MarkFull()
	return app
}

// startScripts replaces the script runner with one for files. Scripts that
// fail to load or run are reported in the log and the status line.
func (app *Application) startScripts(files []string) {
	if app.scripts != nil {
		app.scripts.Close()
	}
	r, loadErr := scripts.NewRunner(app.scriptReg, app.buf, files,
		scripts.WithDelay(app.taskDelay), scripts.WithLogger(app.log.WithComponent(ScriptsKey)))
	runErr := r.Start()
	app.scripts = r
	if err := errors.Join(loadErr, runErr); err != nil {
		app.log.Warn("%v", err)
		app.setStatus("script errors, see log")
	}
}

// Close disconnects every model and stops background scans.
func (app *Application) Close() {
	app.tasks.Stop()
	app.scripts.Close()
	app.buf.RemoveListener(app.signs)
	app.view.RemoveListener(app.signs)
	app.view.Disconnect(app.buf)
	app.view.Close()
}

// Buffer returns the viewed buffer.
func (app *Application) Buffer() *buffer.Buffer { return app.buf }

// Shared returns the registry shared by every view of the buffer.
func (app *Application) Shared() *annotation.Registry { return app.shared }

// View returns the view's facade.
func (app *Application) View() *annotation.Facade { return app.view }

// Scripts returns the Lua script runner.
func (app *Application) Scripts() *scripts.Runner { return app.scripts }

// Tasks returns the task scanner.
func (app *Application) Tasks() *tasks.Scanner { return app.tasks }

// Signs returns the gutter's sign index.
func (app *Application) Signs() *gutter.AnnotationSigns { return app.signs }

// Tracker returns the dirty-line tracker.
func (app *Application) Tracker() *dirty.Tracker { return app.tracker }

// CurrentLine returns the line of the current-line marker.
func (app *Application) CurrentLine() uint32 {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.line
}

// CurrentAnnotation returns the view-local current-line marker.
func (app *Application) CurrentAnnotation() *annotation.Annotation {
	return app.current
}

// MoveTo moves the current-line marker to line.
func (app *Application) MoveTo(line uint32) error {
	if line >= app.buf.LineCount() {
		return fmt.Errorf("move to %d: %w", line+1, ErrNoLine)
	}
	app.mu.Lock()
	old := app.line
	app.line = line
	app.mu.Unlock()

	app.placeCurrent()
	if app.gutter.Config().RelativeLineNumbers {
		app.tracker.MarkFull()
		return nil
	}
	app.tracker.MarkLine(old)
	app.tracker.MarkLine(line)
	return nil
}

// MoveBy moves the current line by delta, stopping at the buffer edges.
func (app *Application) MoveBy(delta int) {
	line := int64(app.CurrentLine()) + int64(delta)
	last := int64(app.buf.LineCount()) - 1
	line = max(0, min(line, last))
	_ = app.MoveTo(uint32(line))
}

func (app *Application) placeCurrent() {
	line := app.CurrentLine()
	start := app.buf.LineStartOffset(line)
	p := buffer.NewPosition(start, app.buf.LineEndOffset(line)-start)
	app.view.Modify(app.current, &p)
	app.gutter.SetCurrentLine(line)
}

// DeleteLine removes the current line, including its line ending.
func (app *Application) DeleteLine() error {
	line := app.CurrentLine()
	start := app.buf.LineStartOffset(line)
	end := app.buf.LineStartOffset(line + 1)
	if line+1 >= app.buf.LineCount() {
		end = app.buf.Len()
	}
	if start == end {
		return nil
	}
	if err := app.buf.Delete(start, end); err != nil {
		return fmt.Errorf("delete line %d: %w", line+1, err)
	}
	app.gutter.SetLineCount(app.buf.LineCount())
	app.MoveBy(0)
	app.tracker.MarkFull()
	return nil
}

// ToggleBookmark adds a bookmark on the current line, or removes the
// bookmarks already there.
func (app *Application) ToggleBookmark() {
	line := app.CurrentLine()
	start := app.buf.LineStartOffset(line)
	length := app.buf.LineEndOffset(line) - start

	var marks []*annotation.Annotation
	for _, e := range annotation.Within(app.shared, start, length, true, true) {
		if e.Annotation.Kind() == annotation.KindBookmark && app.shared.Contains(e.Annotation) {
			marks = append(marks, e.Annotation)
		}
	}
	if len(marks) > 0 {
		app.shared.Replace(marks, nil)
		return
	}
	app.shared.Add(annotation.New(annotation.KindBookmark, fmt.Sprintf("bookmark %d", line+1)),
		buffer.NewPosition(start, length))
}

// Bookmarks returns the lines carrying a bookmark, in order.
func (app *Application) Bookmarks() []uint32 {
	var lines []uint32
	for _, e := range annotation.Entries(app.shared, false) {
		if e.Annotation.Kind() == annotation.KindBookmark {
			lines = append(lines, app.buf.OffsetToPoint(e.Position.Offset).Line)
		}
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

// ApplyConfig switches to cfg without rebuilding the models.
func (app *Application) ApplyConfig(cfg config.Config) {
	app.mu.Lock()
	old := app.cfg.Scripts.Files
	app.cfg = cfg.Clone()
	app.mu.Unlock()

	app.buf.SetTabWidth(cfg.View.TabWidth)
	app.signs.SetKindSigns(cfg.KindSigns())
	app.gutter.SetConfig(cfg.GutterSettings())
	app.tasks.SetMarkers(cfg.Tasks.Markers)
	if !slices.Equal(old, cfg.Scripts.Files) {
		app.startScripts(cfg.Scripts.Files)
	}
	app.log.SetLevel(cfg.LogLevel())
	app.tracker.MarkFull()
}

// UpdateDiff replaces the diff marks with those of patch.
func (app *Application) UpdateDiff(patch []byte) error {
	if err := app.diff.Update(patch); err != nil {
		return err
	}
	app.log.Debug("diff marks: %d", app.diff.Len())
	return nil
}

// RefreshDiff diffs the file against its git index. Files outside a
// repository have no diff marks.
func (app *Application) RefreshDiff(ctx context.Context) error {
	if app.path == "" {
		return nil
	}
	if app.repo == nil {
		repo, err := git.Discover(app.path)
		if err != nil {
			app.log.Debug("no diff marks: %v", err)
			return nil
		}
		app.repo = repo
	}
	patch, err := app.repo.DiffFile(ctx, app.path)
	if err != nil {
		return &FileError{Op: "diff", Path: app.path, Err: err}
	}
	return app.UpdateDiff(patch)
}

// Counts is the number of annotations held by each model.
type Counts struct {
	Bookmarks int
	Tasks     int
	Diff      int
	Scripts   int
}

// Counts returns how many annotations each model holds.
func (app *Application) Counts() Counts {
	return Counts{
		Bookmarks: app.shared.Len(),
		Tasks:     app.taskReg.Len(),
		Diff:      app.diffReg.Len(),
		Scripts:   app.scriptReg.Len(),
	}
}
