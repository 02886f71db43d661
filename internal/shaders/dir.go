package shaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// LoadDir reads every <name>.vert / <name>.frag pair in dir. A pass with only
// a fragment file gets FullscreenVert as its vertex stage.
func LoadDir(dir string) (map[string]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("shaders: read %s: %w", dir, err)
	}
	out := map[string]Source{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, stage, ok := splitName(e.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("shaders: read %s: %w", e.Name(), err)
		}
		src := out[name]
		if stage == ".vert" {
			src.Vert = string(data)
		} else {
			src.Frag = string(data)
		}
		out[name] = src
	}
	for name, src := range out {
		if src.Frag == "" {
			delete(out, name)
			continue
		}
		if src.Vert == "" {
			src.Vert = FullscreenVert
			out[name] = src
		}
	}
	return out, nil
}

// LoadPass reads a single pass from dir.
func LoadPass(dir, name string) (Source, error) {
	all, err := LoadDir(dir)
	if err != nil {
		return Source{}, err
	}
	src, ok := all[name]
	if !ok {
		return Source{}, fmt.Errorf("shaders: no %s.frag in %s", name, dir)
	}
	return src, nil
}

func splitName(file string) (name, stage string, ok bool) {
	ext := strings.ToLower(filepath.Ext(file))
	if ext != ".vert" && ext != ".frag" {
		return "", "", false
	}
	return strings.TrimSuffix(file, filepath.Ext(file)), ext, true
}

// Watcher reports shader passes whose files changed on disk. Events arrive on
// fsnotify's goroutine and are queued until the frame loop drains them.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]bool
	done    chan struct{}
}

// Watch starts watching dir.
func Watch(dir string, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shaders: watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("shaders: watch %s: %w", dir, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &Watcher{
		dir:     dir,
		watcher: fw,
		log:     log,
		pending: map[string]bool{},
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			name, _, ok := splitName(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			w.mu.Lock()
			w.pending[name] = true
			w.mu.Unlock()
			w.log.Debug("Shader changed", zap.String("pass", name), zap.String("file", ev.Name))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("Shader watcher error", zap.Error(err))
		}
	}
}

// Drain returns the passes changed since the last call, reading their current
// sources from disk. Passes that fail to load are logged and skipped.
func (w *Watcher) Drain() map[string]Source {
	w.mu.Lock()
	names := w.pending
	w.pending = map[string]bool{}
	w.mu.Unlock()

	if len(names) == 0 {
		return nil
	}
	out := map[string]Source{}
	for name := range names {
		src, err := LoadPass(w.dir, name)
		if err != nil {
			w.log.Warn("Shader reload skipped", zap.String("pass", name), zap.Error(err))
			continue
		}
		out[name] = src
	}
	return out
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
