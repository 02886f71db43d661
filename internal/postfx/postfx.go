// Package postfx chains full-screen effects through two ping-pong render targets.
package postfx

import (
	"errors"
	"fmt"

	"Sketch3D/internal/logger"
	"Sketch3D/internal/mesh"
	"Sketch3D/internal/renderer"
	"Sketch3D/internal/shaders"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Names of the resources the stack registers with the renderer.
const (
	BufferA = "post.a"
	BufferB = "post.b"
	Quad    = "post.quad"
)

var ErrUnknownEffect = errors.New("unknown effect")

// Effect is one pass: a program and the uniforms it is drawn with every frame.
type Effect struct {
	Name     string
	Program  string
	Uniforms map[string]any
}

// Stack is an ordered list of effects. The scene is drawn into BufferA (the
// renderer's "default" target once an effect exists); each pass reads one
// buffer and writes the other, and the last pass writes the canvas.
type Stack struct {
	r   *renderer.Renderer
	log *zap.Logger

	effects []Effect
	ready   bool

	// Recycle copies the finished canvas back into BufferA after every frame,
	// so the next frame's passes see the previous output.
	Recycle bool
}

func New(r *renderer.Renderer, log *zap.Logger) *Stack {
	if log == nil {
		log = logger.Log
	}
	return &Stack{r: r, log: log.Named("postfx")}
}

// AddEffect appends the registered shader pass called name.
func (s *Stack) AddEffect(name string, uniforms map[string]any) error {
	src, ok := shaders.Lookup(name)
	if !ok {
		s.log.Warn("Unknown effect", zap.String("effect", name))
		return fmt.Errorf("add effect %q: %w", name, ErrUnknownEffect)
	}
	return s.AddEffectSource(name, src.Frag, uniforms)
}

// AddEffectSource appends an effect built from a fragment shader paired with
// the shared full-screen vertex shader. An existing program called name is reused.
func (s *Stack) AddEffectSource(name, fragment string, uniforms map[string]any) error {
	if err := s.init(); err != nil {
		return err
	}
	if err := s.r.CreateProgram(name, shaders.FullscreenVert, fragment); err != nil {
		return fmt.Errorf("add effect %q: %w", name, err)
	}
	u := make(map[string]any, len(uniforms))
	for k, v := range uniforms {
		u[k] = v
	}
	s.effects = append(s.effects, Effect{Name: name, Program: name, Uniforms: u})
	s.log.Debug("Effect added", zap.String("effect", name), zap.Int("passes", len(s.effects)))
	return nil
}

// init allocates both buffers and the quad on first use.
func (s *Stack) init() error {
	if s.ready {
		return nil
	}
	for _, name := range []string{BufferA, BufferB} {
		if err := s.r.CreateRenderTarget(name, true); err != nil {
			return fmt.Errorf("post buffers: %w", err)
		}
	}
	quad := mesh.Quad()
	quad.Name = Quad
	if _, err := s.r.AddMesh(quad); err != nil {
		return fmt.Errorf("post quad: %w", err)
	}
	if err := s.r.SetDefaultTarget(BufferA); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// Effects returns the passes in order.
func (s *Stack) Effects() []Effect { return append([]Effect(nil), s.effects...) }

func (s *Stack) Len() int { return len(s.effects) }

// Clear removes every pass and points the default target back at the canvas.
// The buffers stay allocated for reuse.
func (s *Stack) Clear() {
	s.effects = nil
	if s.ready {
		_ = s.r.SetDefaultTarget(renderer.Canvas)
		s.ready = false
	}
}

// Begin binds the target the scene should be drawn into.
func (s *Stack) Begin() error {
	return s.r.SetRenderTarget(renderer.Default)
}

// Apply runs every pass. It does nothing when no effect is registered.
func (s *Stack) Apply() error {
	if len(s.effects) == 0 {
		return nil
	}
	width, height := s.r.Size()
	ident := mgl32.Ident4()
	var errs []error
	for i, e := range s.effects {
		src, dst := BufferA, BufferB
		if i%2 == 1 {
			src, dst = BufferB, BufferA
		}
		if i == len(s.effects)-1 {
			dst = renderer.Canvas
		}
		if err := s.r.SetRenderTarget(dst); err != nil {
			errs = append(errs, err)
			continue
		}
		u := map[string]any{
			"uMainTex":    src + ".color",
			"uDepthTex":   src + ".depth",
			"uTexSize":    mgl32.Vec2{float32(width), float32(height)},
			"uModel":      ident,
			"uView":       ident,
			"uProjection": ident,
		}
		for k, v := range e.Uniforms {
			u[k] = v
		}
		s.r.Clear()
		if err := s.r.Draw(Quad, u, e.Program); err != nil {
			errs = append(errs, fmt.Errorf("effect %q: %w", e.Name, err))
		}
	}
	if s.Recycle {
		if err := s.r.Blit(renderer.Canvas, BufferA); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
