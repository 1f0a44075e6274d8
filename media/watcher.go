package media

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the files behind watched locators.
//
// Directories are watched rather than files so that editors which save by
// renaming a temporary file are still seen. The onChange callback runs on
// the watcher goroutine; hosts typically forward it to model.Store.Orphan so
// the engine reloads the source on the next frame.
type Watcher struct {
	fs       *fsnotify.Watcher
	log      *slog.Logger
	onChange func(locator string)

	mu    sync.Mutex
	files map[string]string // absolute path -> locator
	dirs  map[string]int    // watched directory -> file count
	done  chan struct{}
}

// NewWatcher starts a watcher. A nil logger discards output.
func NewWatcher(onChange func(locator string), log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("media: watcher: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{
		fs:       fw,
		log:      log,
		onChange: onChange,
		files:    make(map[string]string),
		dirs:     make(map[string]int),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add starts watching the file behind locator. Blob locators are ignored.
func (w *Watcher) Add(locator string) error {
	if IsBlob(locator) {
		return nil
	}
	path, err := filepath.Abs(Path(locator))
	if err != nil {
		return fmt.Errorf("media: watch %s: %w", locator, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("media: watch %s: %w", locator, err)
		}
	}
	w.dirs[dir]++
	w.files[path] = locator
	return nil
}

// Remove stops watching the file behind locator.
func (w *Watcher) Remove(locator string) {
	path, err := filepath.Abs(Path(locator))
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return
	}
	delete(w.files, path)
	dir := filepath.Dir(path)
	if w.dirs[dir]--; w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.fs.Remove(dir)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.mu.Lock()
			loc, ok := w.files[filepath.Clean(ev.Name)]
			w.mu.Unlock()
			if ok {
				w.log.Debug("media: source changed", "locator", loc, "op", ev.Op.String())
				w.onChange(loc)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("media: watcher error", "err", err)
		}
	}
}
