// Package loader reads model files into editable meshes, either directly or on
// a worker pool whose results are handed back on the driver's thread.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"Sketch3D/internal/logger"
	"Sketch3D/internal/mesh"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// LoadFile parses the model at path, picking the format by extension.
func LoadFile(path string) (*mesh.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m *mesh.Raw
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		m, err = ParsePLY(f)
	case ".obj":
		m, err = ParseOBJ(f)
	default:
		return nil, fmt.Errorf("%s: %w: %q", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

type delivery struct {
	mesh *mesh.Raw
	fn   func(*mesh.Raw)
}

// Queue parses files on a worker pool. Callbacks never run on a worker: they
// are queued and run by Dispatch, which the driver calls at the start of a tick.
// A file that fails to load is logged and its callback is dropped.
type Queue struct {
	pool pond.Pool
	log  *zap.Logger

	mu      sync.Mutex
	ready   []delivery
	closed  bool
	pending sync.WaitGroup
}

// NewQueue starts a pool of workers; workers <= 0 means one.
func NewQueue(workers int, log *zap.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.Log
	}
	return &Queue{
		pool: pond.NewPool(workers),
		log:  log.Named("loader"),
	}
}

// Load parses path in the background and queues fn for the next Dispatch.
func (q *Queue) Load(path string, fn func(*mesh.Raw)) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.log.Warn("Load after close", zap.String("path", path))
		return
	}
	q.pending.Add(1)
	q.mu.Unlock()

	q.pool.Submit(func() {
		defer q.pending.Done()
		m, err := LoadFile(path)
		if err != nil {
			q.log.Error("Model load failed", zap.String("path", path), zap.Error(err))
			return
		}
		q.log.Debug("Model loaded",
			zap.String("path", path),
			zap.Int("vertices", len(m.Vertices)),
			zap.Int("faces", len(m.Faces)))
		q.mu.Lock()
		q.ready = append(q.ready, delivery{mesh: m, fn: fn})
		q.mu.Unlock()
	})
}

// Dispatch runs the callbacks of every finished load on the calling goroutine
// and returns how many ran.
func (q *Queue) Dispatch() int {
	q.mu.Lock()
	ready := q.ready
	q.ready = nil
	q.mu.Unlock()

	for _, d := range ready {
		if d.fn != nil {
			d.fn(d.mesh)
		}
	}
	return len(ready)
}

// Wait blocks until every submitted load has finished parsing.
func (q *Queue) Wait() { q.pending.Wait() }

// Close waits for in-flight loads and stops the workers. Undispatched
// results are kept until the next Dispatch.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.pool.StopAndWait()
}
