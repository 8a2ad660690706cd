package config

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a Watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a configuration file whenever it changes on disk.
// The directory is watched rather than the file, so editors that save
// by renaming a temporary file are noticed too.
type Watcher struct {
	path     string
	onChange func(Config, error)
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration

	done chan struct{}
	wg   sync.WaitGroup
}

// Watch starts watching path. onChange is called from the watcher's
// goroutine with the reloaded configuration, or with the error that
// prevented loading it.
func Watch(path string, onChange func(Config, error)) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config: no file to watch")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		onChange: onChange,
		fsw:      fsw,
		delay:    DefaultDebounce,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onChange(Config{}, err)
		}
	}
}

// schedule reloads once no event arrived for the debounce delay.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange(Load(w.path))
	})
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
