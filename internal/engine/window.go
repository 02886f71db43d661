//go:build !js

package engine

import (
	"fmt"
	"runtime"
	"sync"

	"Sketch3D/internal/config"
	"Sketch3D/internal/gpu"
	"Sketch3D/internal/gpu/glcore"
	"Sketch3D/internal/logger"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

// Window is a glfw window with an OpenGL 4.1 core context.
type Window struct {
	window *glfw.Window
	ctx    *glcore.Context
	log    *zap.Logger
	close  sync.Once
}

// OpenWindow creates the window described by cfg and makes its context current.
func OpenWindow(cfg config.Config, log *zap.Logger) (*Window, error) {
	if log == nil {
		log = logger.Log
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("could not initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("could not create glfw window: %w", err)
	}
	win.MakeContextCurrent()
	ctx, err := glcore.New()
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}
	// Frame pacing is vsync; the sketch applies any lower FPS cap itself.
	glfw.SwapInterval(1)
	styleWindow(win, cfg.Clear())

	w := &Window{window: win, ctx: ctx, log: log.Named("window")}
	fw, fh := win.GetFramebufferSize()
	w.log.Info("Window opened",
		zap.String("title", cfg.Title),
		zap.Int("width", fw),
		zap.Int("height", fh))
	return w, nil
}

func (w *Window) Context() gpu.Context { return w.ctx }

// Size is the framebuffer size, which differs from the window size on HiDPI screens.
func (w *Window) Size() (int, int) { return w.window.GetFramebufferSize() }

func (w *Window) Run(frame func(now float64) bool) {
	for !w.window.ShouldClose() {
		glfw.PollEvents()
		if !frame(glfw.GetTime() * 1000) {
			return
		}
		w.window.SwapBuffers()
	}
}

// Close destroys the window and terminates glfw.
func (w *Window) Close() {
	w.close.Do(func() {
		w.window.Destroy()
		glfw.Terminate()
	})
}

// Window returns the underlying glfw window.
func (w *Window) Window() *glfw.Window { return w.window }
