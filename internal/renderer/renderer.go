// Package renderer owns the GPU context and every named resource drawn through it:
// shader programs, meshes, render targets and textures.
package renderer

import (
	"errors"
	"maps"
	"sort"

	"Sketch3D/internal/gpu"
	"Sketch3D/internal/logger"
	"Sketch3D/internal/shaders"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var (
	ErrProgramNotFound       = errors.New("no program found")
	ErrMeshNotFound          = errors.New("mesh not found")
	ErrTargetNotFound        = errors.New("render target not found")
	ErrTextureNotFound       = errors.New("texture not found")
	ErrTextureUnitsExhausted = errors.New("texture units exhausted")
	ErrShaderCompile         = errors.New("shader compile failed")
	ErrProgramLink           = errors.New("program link failed")
	ErrUniformValue          = errors.New("unsupported uniform value")
	ErrVertexCount           = errors.New("vertex count exceeds attribute data")
)

// Renderer is bound to a single gpu.Context and is not safe for concurrent use.
type Renderer struct {
	ctx gpu.Context
	log *zap.Logger

	width, height int

	programs map[string]*Program
	meshes   map[string]*Mesh
	targets  map[string]*RenderTarget
	textures map[string]*Texture
	globals  map[string]any

	program *Program
	target  string // "" is the canvas
	alias   string // what "default" currently resolves to

	units *unitAllocator
	draws int

	// Defaults are applied to every newly linked program that declares them.
	Defaults   map[string]any
	ClearColor mgl32.Vec4
	DepthTest  bool
}

// Stats is a snapshot of the renderer's resource tables.
type Stats struct {
	Programs  int
	Meshes    int
	Targets   int
	Textures  int
	UnitsUsed int
	Vertices  int
	DrawCalls int
}

// New creates a renderer drawing into a canvas of width x height pixels.
// A nil log falls back to logger.Log.
func New(ctx gpu.Context, width, height int, log *zap.Logger) *Renderer {
	if log == nil {
		log = logger.Log
	}
	r := &Renderer{
		ctx:        ctx,
		log:        log.Named("renderer"),
		width:      width,
		height:     height,
		programs:   map[string]*Program{},
		meshes:     map[string]*Mesh{},
		targets:    map[string]*RenderTarget{},
		textures:   map[string]*Texture{},
		globals:    map[string]any{},
		units:      newUnitAllocator(ctx.MaxCombinedTextureUnits()),
		Defaults:   maps.Clone(shaders.Defaults),
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
		DepthTest:  true,
	}
	ctx.SetDepthTest(r.DepthTest)
	ctx.Viewport(width, height)
	r.log.Info("Renderer initialized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("maxTextureUnits", r.units.max))
	return r
}

// Context returns the GPU context the renderer draws through.
func (r *Renderer) Context() gpu.Context { return r.ctx }

// Size returns the canvas size.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Aspect returns the canvas width over height.
func (r *Renderer) Aspect() float32 {
	if r.height == 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

// Clear clears color and depth of the active target.
func (r *Renderer) Clear() {
	c := r.ClearColor
	r.ctx.ClearColor(c[0], c[1], c[2], c[3])
	r.ctx.SetDepthTest(r.DepthTest)
	r.ctx.Clear(true, true)
}

// Resize changes the canvas size and re-specifies every render-target texture
// in place, so texture units and names stay valid.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return
	}
	r.width, r.height = width, height
	for _, name := range sortedKeys(r.targets) {
		t := r.targets[name]
		t.Width, t.Height = width, height
		for _, tex := range []*Texture{t.Color, t.Depth} {
			if tex == nil {
				continue
			}
			tex.Width, tex.Height = width, height
			r.ctx.ActiveTexture(tex.Unit)
			r.ctx.BindTexture(tex.Handle)
			r.ctx.TexImage2D(width, height, tex.Format, nil)
		}
	}
	r.bindTarget(r.target)
	r.log.Debug("Renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Stats reports the current resource counts.
func (r *Renderer) Stats() Stats {
	return Stats{
		Programs:  len(r.programs),
		Meshes:    len(r.meshes),
		Targets:   len(r.targets),
		Textures:  len(r.textures),
		UnitsUsed: r.units.used(),
		Vertices:  r.TotalVertices(),
		DrawCalls: r.draws,
	}
}

// Dispose releases every GPU object the renderer owns exactly once. The
// renderer can be reused afterwards, starting from empty tables.
func (r *Renderer) Dispose() {
	r.ctx.BindFramebuffer(0)
	r.ctx.UseProgram(0)
	r.ctx.BindVertexArray(0)

	for _, name := range sortedKeys(r.meshes) {
		r.meshes[name].release(r.ctx)
	}
	for _, name := range sortedKeys(r.targets) {
		r.ctx.DeleteFramebuffer(r.targets[name].FBO)
	}
	// Target attachments live in the texture table too, so this frees them.
	for _, name := range sortedKeys(r.textures) {
		r.ctx.DeleteTexture(r.textures[name].Handle)
	}
	for _, name := range sortedKeys(r.programs) {
		r.ctx.DeleteProgram(r.programs[name].Handle)
	}

	r.log.Info("Renderer disposed",
		zap.Int("programs", len(r.programs)),
		zap.Int("meshes", len(r.meshes)),
		zap.Int("targets", len(r.targets)),
		zap.Int("textures", len(r.textures)))

	r.programs = map[string]*Program{}
	r.meshes = map[string]*Mesh{}
	r.targets = map[string]*RenderTarget{}
	r.textures = map[string]*Texture{}
	r.program = nil
	r.target, r.alias = "", ""
	r.units = newUnitAllocator(r.ctx.MaxCombinedTextureUnits())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
