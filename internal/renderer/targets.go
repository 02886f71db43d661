package renderer

import (
	"fmt"

	"Sketch3D/internal/gpu"

	"go.uber.org/zap"
)

// Pseudo-target names. Canvas is the visible framebuffer; Default is an alias
// that resolves to the canvas until SetDefaultTarget points it elsewhere.
const (
	Canvas  = "canvas"
	Default = "default"
)

// RenderTarget is a framebuffer with a color texture and an optional depth texture.
type RenderTarget struct {
	Name          string
	FBO           uint32
	Color         *Texture
	Depth         *Texture
	Width, Height int
}

// CreateRenderTarget allocates a canvas-sized target called name. The color
// texture is registered as "<name>.color" and the depth texture, when
// requested, as "<name>.depth"; each claims the next texture unit. Creating an
// existing name is a no-op.
func (r *Renderer) CreateRenderTarget(name string, depth bool) error {
	if name == "" || name == Canvas || name == Default {
		return fmt.Errorf("create render target %q: reserved name", name)
	}
	if _, ok := r.targets[name]; ok {
		return nil
	}
	need := 1
	if depth {
		need = 2
	}
	if r.units.remaining() < need {
		r.log.Warn("Texture units exhausted",
			zap.String("target", name),
			zap.Int("max", r.units.max))
		return fmt.Errorf("create render target %q: %w", name, ErrTextureUnitsExhausted)
	}

	t := &RenderTarget{Name: name, Width: r.width, Height: r.height}
	t.Color = r.newTexture(name+".color", gpu.FormatRGBA8, r.width, r.height, nil, TextureSettings{Filter: gpu.FilterLinear, Wrap: gpu.WrapClamp})
	if depth {
		t.Depth = r.newTexture(name+".depth", gpu.FormatDepth24, r.width, r.height, nil, TextureSettings{Filter: gpu.FilterNearest, Wrap: gpu.WrapClamp})
	}

	t.FBO = r.ctx.CreateFramebuffer()
	r.ctx.BindFramebuffer(t.FBO)
	r.ctx.FramebufferTexture(gpu.ColorAttachment, t.Color.Handle)
	if t.Depth != nil {
		r.ctx.FramebufferTexture(gpu.DepthAttachment, t.Depth.Handle)
	}
	err := r.ctx.CheckFramebuffer()
	r.targets[name] = t
	r.bindTarget(r.target)
	if err != nil {
		r.log.Error("Render target incomplete", zap.String("target", name), zap.Error(err))
		return fmt.Errorf("create render target %q: %w", name, err)
	}
	r.log.Debug("Render target created",
		zap.String("target", name),
		zap.Int("colorUnit", t.Color.Unit),
		zap.Bool("depth", depth))
	return nil
}

// RenderTarget returns the registered target called name.
func (r *Renderer) RenderTarget(name string) (*RenderTarget, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// SetDefaultTarget points the "default" alias at name; "" or "canvas" points
// it back at the visible framebuffer.
func (r *Renderer) SetDefaultTarget(name string) error {
	if name == Canvas {
		name = ""
	}
	if name != "" {
		if _, ok := r.targets[name]; !ok {
			return fmt.Errorf("default target %q: %w", name, ErrTargetNotFound)
		}
	}
	r.alias = name
	return nil
}

// SetRenderTarget binds name for drawing. "" and "canvas" select the visible
// framebuffer and "default" follows the alias. It is a no-op when the
// resolved target is already bound.
func (r *Renderer) SetRenderTarget(name string) error {
	resolved, err := r.resolve(name)
	if err != nil {
		r.log.Warn("Render target not found", zap.String("target", name))
		return fmt.Errorf("set render target: %w", err)
	}
	if resolved == r.target {
		return nil
	}
	r.target = resolved
	r.bindTarget(resolved)
	return nil
}

// ActiveTarget returns the resolved name of the bound target, "" for the canvas.
func (r *Renderer) ActiveTarget() string { return r.target }

func (r *Renderer) resolve(name string) (string, error) {
	switch name {
	case "", Canvas:
		return "", nil
	case Default:
		return r.alias, nil
	}
	if _, ok := r.targets[name]; !ok {
		return "", fmt.Errorf("%q: %w", name, ErrTargetNotFound)
	}
	return name, nil
}

func (r *Renderer) framebuffer(resolved string) (fbo uint32, width, height int) {
	if t, ok := r.targets[resolved]; ok {
		return t.FBO, t.Width, t.Height
	}
	return 0, r.width, r.height
}

func (r *Renderer) bindTarget(resolved string) {
	fbo, w, h := r.framebuffer(resolved)
	r.ctx.BindFramebuffer(fbo)
	r.ctx.Viewport(w, h)
}

// Blit copies the color buffer of src into dst. Both names resolve like
// SetRenderTarget; the bound target is unchanged afterwards.
func (r *Renderer) Blit(src, dst string) error {
	from, err := r.resolve(src)
	if err != nil {
		return fmt.Errorf("blit: %w", err)
	}
	to, err := r.resolve(dst)
	if err != nil {
		return fmt.Errorf("blit: %w", err)
	}
	if from == to {
		return nil
	}
	srcFBO, w, h := r.framebuffer(from)
	dstFBO, _, _ := r.framebuffer(to)
	r.ctx.BlitFramebuffer(srcFBO, dstFBO, w, h)
	r.bindTarget(r.target)
	return nil
}

// DeleteRenderTarget releases name and its textures. Their texture units are
// not reused.
func (r *Renderer) DeleteRenderTarget(name string) error {
	t, ok := r.targets[name]
	if !ok {
		return fmt.Errorf("delete render target %q: %w", name, ErrTargetNotFound)
	}
	if r.target == name {
		r.target = ""
		r.bindTarget("")
	}
	if r.alias == name {
		r.alias = ""
	}
	r.ctx.DeleteFramebuffer(t.FBO)
	for _, tex := range []*Texture{t.Color, t.Depth} {
		if tex != nil {
			r.ctx.DeleteTexture(tex.Handle)
			delete(r.textures, tex.Name)
		}
	}
	delete(r.targets, name)
	return nil
}
