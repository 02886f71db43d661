// Package engine drives a sketch: it owns the renderer, scene and post stack and
// runs setup once and draw every frame on a Surface.
package engine

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"Sketch3D/internal/behaviour"
	"Sketch3D/internal/config"
	"Sketch3D/internal/loader"
	"Sketch3D/internal/logger"
	"Sketch3D/internal/mesh"
	"Sketch3D/internal/noise"
	"Sketch3D/internal/postfx"
	"Sketch3D/internal/renderer"
	"Sketch3D/internal/scene"
	"Sketch3D/internal/shaders"

	"github.com/HugoSmits86/nativewebp"
	"go.uber.org/zap"
)

// frameMs is one frame at 60Hz; draw receives elapsed time in these units.
const frameMs = 1000.0 / 60

// DefaultProgram is bound before the scene is drawn each frame.
const DefaultProgram = "default"

// Passes are the scene programs every sketch starts with.
var Passes = []string{"default", "unlit", "lit", "geo"}

// Sketch is the application object. Setup runs once before the first frame and
// Draw once per frame while looping; a nil Draw draws the scene.
type Sketch struct {
	Config     config.Config
	Renderer   *renderer.Renderer
	Scene      *scene.Scene
	Post       *postfx.Stack
	Loader     *loader.Queue
	Noise      *noise.Perlin
	Shapes     Shapes
	// Behaviours update before the scene propagates each frame.
	Behaviours *behaviour.Manager

	Setup func(s *Sketch)
	Draw  func(s *Sketch, dt float64)

	// AutoClear clears the draw target before Draw runs. While effects recycle
	// the canvas, only the first frame is cleared so the previous one carries over.
	AutoClear bool

	surface Surface
	log     *zap.Logger
	watcher *shaders.Watcher

	frame    int
	last     float64
	started  bool
	looping  bool
	redraw   bool
	disposed bool
	capture  string
}

// New builds a sketch on surface. Shader and effect failures are logged and
// leave the sketch usable; only an invalid config is an error.
func New(surface Surface, cfg config.Config, log *zap.Logger) (*Sketch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Log
	}
	width, height := surface.Size()
	r := renderer.New(surface.Context(), width, height, log)
	r.ClearColor = cfg.Clear()
	r.DepthTest = cfg.DepthTest

	s := &Sketch{
		Config:     cfg,
		Renderer:   r,
		Scene:      scene.New(),
		Post:       postfx.New(r, log),
		Loader:     loader.NewQueue(cfg.LoaderWorkers, log),
		Noise:      noise.Default(),
		Behaviours: behaviour.NewManager(),
		AutoClear:  true,
		surface:    surface,
		log:        log.Named("sketch"),
		looping:    cfg.Loop,
	}
	s.Post.Recycle = cfg.Recycle

	if cfg.ShaderDir != "" {
		s.loadShaderDir(cfg.ShaderDir)
	}
	for _, name := range Passes {
		src, ok := shaders.Lookup(name)
		if !ok {
			continue
		}
		if err := r.CreateProgram(name, src.Vert, src.Frag); err != nil {
			s.log.Error("Built-in pass failed", zap.String("pass", name), zap.Error(err))
		}
	}
	_ = r.SetProgram(DefaultProgram)

	for _, e := range cfg.Effects {
		if err := s.Post.AddEffect(e.Name, e.Values()); err != nil {
			s.log.Error("Effect skipped", zap.String("effect", e.Name), zap.Error(err))
		}
	}
	return s, nil
}

// loadShaderDir registers the passes found in dir over the built-in ones and
// watches the directory for edits.
func (s *Sketch) loadShaderDir(dir string) {
	passes, err := shaders.LoadDir(dir)
	if err != nil {
		s.log.Error("Shader directory unreadable", zap.String("dir", dir), zap.Error(err))
		return
	}
	for name, src := range passes {
		shaders.Register(name, src)
	}
	s.watcher, err = shaders.Watch(dir, s.log)
	if err != nil {
		s.log.Warn("Shader hot reload disabled", zap.Error(err))
		return
	}
	s.log.Info("Watching shaders", zap.String("dir", dir), zap.Int("passes", len(passes)))
}

// Run drives the sketch until the surface closes or the sketch is disposed,
// then releases everything.
func (s *Sketch) Run() {
	s.surface.Run(s.Tick)
	s.Dispose()
	s.surface.Close()
}

// Tick advances one frame at time now (milliseconds) and reports whether the
// surface should keep scheduling frames.
func (s *Sketch) Tick(now float64) bool {
	if s.disposed {
		return false
	}
	if !s.started {
		s.started = true
		s.last = now
		if s.Setup != nil {
			s.Setup(s)
		}
		if s.disposed {
			return false
		}
		s.redraw = true
	}

	s.Loader.Dispatch()
	s.reloadShaders()

	if !s.looping && !s.redraw {
		return true
	}
	if fps := s.Config.FPS; fps > 0 && !s.redraw && now-s.last < 1000/float64(fps)-1 {
		return true
	}
	s.redraw = false

	dt := (now - s.last) / frameMs
	s.last = now

	s.Behaviours.Update(dt)
	s.preDraw()
	if s.Draw != nil {
		s.Draw(s, dt)
	} else if err := s.DrawScene(); err != nil {
		s.log.Debug("Scene incomplete", zap.Error(err))
	}
	s.frame++
	if s.disposed {
		return false
	}
	s.postDraw()

	if s.capture != "" {
		path := s.capture
		s.capture = ""
		if err := s.SaveFrame(path); err != nil {
			s.log.Error("Capture failed", zap.String("path", path), zap.Error(err))
		}
	}
	return true
}

func (s *Sketch) reloadShaders() {
	if s.watcher == nil {
		return
	}
	for name, src := range s.watcher.Drain() {
		shaders.Register(name, src)
		if err := s.Renderer.ReloadProgram(name, src.Vert, src.Frag); err != nil {
			s.log.Warn("Shader reload failed", zap.String("pass", name), zap.Error(err))
		}
	}
}

// preDraw sizes the canvas, propagates the scene and publishes the camera
// uniforms, then binds the target the scene is drawn into.
func (s *Sketch) preDraw() {
	s.Renderer.Resize(s.surface.Size())
	_ = s.Renderer.SetProgram(DefaultProgram)

	cam := s.Scene.Camera
	cam.Aspect = s.Renderer.Aspect()
	s.Scene.Update()

	s.Renderer.SetGlobal("uView", cam.View())
	s.Renderer.SetGlobal("uProjection", cam.Projection())
	s.Renderer.SetGlobal("uEye", cam.WorldPosition())
	s.Renderer.SetGlobal("uNear", cam.Near)
	s.Renderer.SetGlobal("uFar", cam.Far)
	s.Renderer.SetGlobal("uTime", float32(s.last/1000))

	if err := s.Post.Begin(); err != nil {
		s.log.Warn("Draw target unavailable", zap.Error(err))
	}
	if s.AutoClear && !s.recycling() {
		s.Renderer.Clear()
	}
}

// recycling reports whether the draw target already holds last frame's canvas.
func (s *Sketch) recycling() bool {
	return s.Post.Recycle && s.Post.Len() > 0 && s.frame > 0
}

func (s *Sketch) postDraw() {
	if err := s.Post.Apply(); err != nil {
		s.log.Warn("Post effects incomplete", zap.Error(err))
	}
}

// DrawScene issues the scene's draw calls in order. A failed call is skipped
// and the rest still draw.
func (s *Sketch) DrawScene() error {
	var errs []error
	for _, c := range s.Scene.DrawCalls() {
		if err := s.Renderer.Draw(c.Mesh, c.Uniforms, c.Program); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddMesh uploads m and returns a new scene node drawing it.
func (s *Sketch) AddMesh(m mesh.Renderable) (*scene.Node, error) {
	name, err := s.Renderer.AddMesh(m)
	if err != nil {
		return nil, err
	}
	return s.Scene.Add(scene.NewNode(name).SetGeometry(name)), nil
}

// Attach adds a registered script to n.
func (s *Sketch) Attach(n *scene.Node, script string) (behaviour.Component, error) {
	return s.Behaviours.AttachScript(n, script)
}

// LoadModel parses path in the background. Once it arrives, on a later tick,
// the mesh is uploaded and fn receives its node. Failed loads never call fn.
func (s *Sketch) LoadModel(path string, fn func(*scene.Node)) {
	s.Loader.Load(path, func(m *mesh.Raw) {
		node, err := s.AddMesh(m)
		if err != nil {
			s.log.Error("Model upload failed", zap.String("path", path), zap.Error(err))
			return
		}
		if fn != nil {
			fn(node)
		}
	})
}

// FrameCount is the number of frames drawn so far.
func (s *Sketch) FrameCount() int { return s.frame }

// NoLoop stops calling Draw; ticks keep delivering loads and shader reloads.
func (s *Sketch) NoLoop() { s.looping = false }

func (s *Sketch) Loop() { s.looping = true }

func (s *Sketch) Looping() bool { return s.looping }

// Redraw draws exactly one more frame while not looping.
func (s *Sketch) Redraw() { s.redraw = true }

// Capture saves the canvas to path after the next frame is drawn.
func (s *Sketch) Capture(path string) {
	s.capture = path
	s.redraw = true
}

// SaveFrame writes the canvas as PNG or WebP, chosen by extension.
func (s *Sketch) SaveFrame(path string) error {
	target := s.Renderer.ActiveTarget()
	if err := s.Renderer.SetRenderTarget(renderer.Canvas); err != nil {
		return err
	}
	img := s.Renderer.ReadPixels()
	_ = s.Renderer.SetRenderTarget(target)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".webp" {
		return fmt.Errorf("save frame %s: unsupported format %q", path, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".webp" {
		err = nativewebp.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("save frame %s: %w", path, err)
	}
	s.log.Info("Frame saved", zap.String("path", path), zap.Int("frame", s.frame))
	return nil
}

// Dispose stops the frame loop at the next tick and releases the loader, the
// shader watcher and every GPU resource. It is safe to call more than once.
func (s *Sketch) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.Loader.Close()
	s.Behaviours.Clear()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.log.Warn("Shader watcher close", zap.Error(err))
		}
	}
	s.Renderer.Dispose()
	s.log.Info("Sketch disposed", zap.Int("frames", s.frame))
}
