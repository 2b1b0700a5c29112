package serve

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a content tree and a config file, invoking a debounced
// callback when anything relevant changes. Rapid bursts of events (editor
// save sequences, bulk moves) collapse into a single callback.
type Watcher struct {
	contentDir string
	configPath string
	onChange   func()
	debounce   time.Duration

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for contentDir and configPath. configPath may
// be empty to watch content only.
func NewWatcher(contentDir, configPath string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	absContent, err := filepath.Abs(contentDir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve content dir: %w", err)
	}
	w := &Watcher{
		contentDir: absContent,
		onChange:   onChange,
		debounce:   debounce,
		watcher:    fw,
		stopChan:   make(chan struct{}),
	}
	if configPath != "" {
		if w.configPath, err = filepath.Abs(configPath); err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	return w, nil
}

// Start registers the watch roots and begins the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.contentDir); err != nil {
		return err
	}
	if w.configPath != "" {
		// Watch the directory; editors often replace the file on save.
		if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
			return fmt.Errorf("watch config dir: %w", err)
		}
	}
	slog.Info("watching for changes", "content", w.contentDir, "config", w.configPath)
	go w.loop(ctx)
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if err := w.watcher.Close(); err != nil {
			slog.Error("closing file watcher", "error", err)
		}
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if addErr := w.watcher.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be added to the watch set before their
			// contents generate events.
			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						slog.Debug("watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			slog.Debug("change detected", "file", event.Name, "op", event.Op.String())
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", "error", err)
		}
	}
}

// relevant filters out events outside the watched scope, such as unrelated
// files in the config file's directory.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	name := event.Name
	if w.configPath != "" && name == w.configPath {
		return true
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	rel, err := filepath.Rel(w.contentDir, name)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
