package renderer

import (
	"errors"
	"fmt"

	"Sketch3D/internal/gpu"
	"Sketch3D/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// =============================================================
//
//	Programs
//
// =============================================================

// Program is a linked shader program plus its reflected uniforms.
type Program struct {
	Name     string
	Handle   uint32
	Uniforms *UniformTable

	vertexSource   string
	fragmentSource string
}

// Sources returns the sources the program was last linked from, without the
// backend header.
func (p *Program) Sources() (vert, frag string) {
	return p.vertexSource, p.fragmentSource
}

// CreateProgram compiles and links a program and registers it under name.
// Registering an existing name is a no-op; use ReloadProgram to replace sources.
// On failure the diagnostic is logged and nothing is registered.
func (r *Renderer) CreateProgram(name, vertexSrc, fragmentSrc string) error {
	if _, ok := r.programs[name]; ok {
		return nil
	}
	p, err := r.buildProgram(name, vertexSrc, fragmentSrc)
	if err != nil {
		return err
	}
	r.programs[name] = p
	r.log.Debug("Program created",
		zap.String("program", name),
		zap.Int("uniforms", p.Uniforms.Len()))
	return nil
}

// ReloadProgram relinks name from new sources. The old program keeps serving
// until the new one links, and the swap happens in place.
func (r *Renderer) ReloadProgram(name, vertexSrc, fragmentSrc string) error {
	old, ok := r.programs[name]
	if !ok {
		return r.CreateProgram(name, vertexSrc, fragmentSrc)
	}
	p, err := r.buildProgram(name, vertexSrc, fragmentSrc)
	if err != nil {
		return err
	}
	r.ctx.DeleteProgram(old.Handle)
	old.Handle = p.Handle
	old.Uniforms = p.Uniforms
	old.vertexSource, old.fragmentSource = p.vertexSource, p.fragmentSource
	if r.program == old {
		r.ctx.UseProgram(old.Handle)
		r.applyGlobals()
	}
	r.log.Info("Program reloaded", zap.String("program", name))
	return nil
}

func (r *Renderer) buildProgram(name, vertexSrc, fragmentSrc string) (*Program, error) {
	header := r.ctx.ShaderHeader()
	vs, err := r.ctx.CompileShader(gpu.VertexShader, header+vertexSrc)
	if err != nil {
		return nil, r.programError(name, ErrShaderCompile, err)
	}
	fs, err := r.ctx.CompileShader(gpu.FragmentShader, header+fragmentSrc)
	if err != nil {
		r.ctx.DeleteShader(vs)
		return nil, r.programError(name, ErrShaderCompile, err)
	}
	handle, err := r.ctx.LinkProgram(vs, fs, mesh.Bindings())
	if err != nil {
		return nil, r.programError(name, ErrProgramLink, err)
	}

	p := &Program{
		Name:           name,
		Handle:         handle,
		Uniforms:       newUniformTable(r.ctx.ActiveUniforms(handle)),
		vertexSource:   vertexSrc,
		fragmentSource: fragmentSrc,
	}

	r.ctx.UseProgram(handle)
	for _, u := range []string{"uModel", "uView", "uProjection"} {
		r.set(p, u, mgl32.Ident4())
	}
	r.set(p, "uNormalMatrix", mgl32.Ident3())
	for _, u := range sortedKeys(r.Defaults) {
		r.set(p, u, r.Defaults[u])
	}
	if r.program != nil {
		r.ctx.UseProgram(r.program.Handle)
	} else {
		r.ctx.UseProgram(0)
	}
	return p, nil
}

func (r *Renderer) programError(name string, kind, err error) error {
	fields := []zap.Field{zap.String("program", name), zap.Error(err)}
	var ce *gpu.CompileError
	if errors.As(err, &ce) {
		fields = append(fields, zap.String("stage", ce.Stage), zap.String("log", ce.Log))
	}
	r.log.Error("Program build failed", fields...)
	return fmt.Errorf("program %q: %w: %w", name, kind, err)
}

// SetProgram makes name the active program and re-applies the global uniform
// block to it. It is a no-op when name is already active.
func (r *Renderer) SetProgram(name string) error {
	if r.program != nil && r.program.Name == name {
		return nil
	}
	p, ok := r.programs[name]
	if !ok {
		r.log.Warn("No program found", zap.String("program", name))
		return fmt.Errorf("set program %q: %w", name, ErrProgramNotFound)
	}
	r.program = p
	r.ctx.UseProgram(p.Handle)
	r.applyGlobals()
	return nil
}

// Program returns the registered program called name.
func (r *Renderer) Program(name string) (*Program, bool) {
	p, ok := r.programs[name]
	return p, ok
}

// ActiveProgram returns the name of the bound program, or "".
func (r *Renderer) ActiveProgram() string {
	if r.program == nil {
		return ""
	}
	return r.program.Name
}

// DeleteProgram releases the program called name.
func (r *Renderer) DeleteProgram(name string) {
	p, ok := r.programs[name]
	if !ok {
		return
	}
	if r.program == p {
		r.program = nil
		r.ctx.UseProgram(0)
	}
	r.ctx.DeleteProgram(p.Handle)
	delete(r.programs, name)
}
