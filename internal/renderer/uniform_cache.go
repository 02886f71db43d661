package renderer

import (
	"fmt"

	"Sketch3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// UniformTable is a program's active uniforms, reflected once after linking.
type UniformTable struct {
	byName map[string]gpu.UniformInfo
}

func newUniformTable(infos []gpu.UniformInfo) *UniformTable {
	t := &UniformTable{byName: make(map[string]gpu.UniformInfo, len(infos))}
	for _, u := range infos {
		t.byName[u.Name] = u
	}
	return t
}

// Lookup returns the reflected entry for name.
func (t *UniformTable) Lookup(name string) (gpu.UniformInfo, bool) {
	u, ok := t.byName[name]
	return u, ok
}

// Has reports whether the program declares name.
func (t *UniformTable) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

func (t *UniformTable) Len() int { return len(t.byName) }

// Names lists the declared uniforms in sorted order.
func (t *UniformTable) Names() []string { return sortedKeys(t.byName) }

// Uniform sets name on the active program. Names the program does not declare
// are ignored, since every program shares the same call sites. A string value
// names a texture and is replaced by that texture's unit.
func (r *Renderer) Uniform(name string, value any) error {
	if r.program == nil {
		return nil
	}
	return r.set(r.program, name, value)
}

// SetGlobal stores a uniform that is re-applied whenever a program becomes
// active, and applies it to the active program right away.
func (r *Renderer) SetGlobal(name string, value any) {
	r.globals[name] = value
	if r.program != nil {
		if err := r.set(r.program, name, value); err != nil {
			r.log.Warn("Global uniform rejected", zap.String("uniform", name), zap.Error(err))
		}
	}
}

// Global returns the stored global uniform called name.
func (r *Renderer) Global(name string) (any, bool) {
	v, ok := r.globals[name]
	return v, ok
}

func (r *Renderer) applyGlobals() {
	for _, name := range sortedKeys(r.globals) {
		if err := r.set(r.program, name, r.globals[name]); err != nil {
			r.log.Warn("Global uniform rejected", zap.String("uniform", name), zap.Error(err))
		}
	}
}

// set uploads value to p, which must be bound.
func (r *Renderer) set(p *Program, name string, value any) error {
	info, ok := p.Uniforms.Lookup(name)
	if !ok {
		return nil
	}
	if s, ok := value.(string); ok {
		tex, ok := r.textures[s]
		if !ok {
			r.log.Warn("Texture not found",
				zap.String("uniform", name),
				zap.String("texture", s),
				zap.String("program", p.Name))
			return fmt.Errorf("uniform %s: %w: %q", name, ErrTextureNotFound, s)
		}
		value = int32(tex.Unit)
	}
	vals, ok := flatten(value)
	if !ok {
		return fmt.Errorf("uniform %s: %w: %T", name, ErrUniformValue, value)
	}

	n := info.Type.Components()
	if info.Type == gpu.UniformMat3 && len(vals) == 16 {
		vals = mat3Of(vals)
	}
	count := len(vals) / n
	if count == 0 {
		return fmt.Errorf("uniform %s: %w: %d values for %s", name, ErrUniformValue, len(vals), info.Type)
	}
	if size := int(info.Size); size > 0 && count > size {
		count = size
	}
	vals = vals[:count*n]

	switch {
	case info.Type.IsMatrix():
		r.ctx.UniformMatrix(info.Location, info.Type, vals)
	case info.Type.IsInteger():
		ints := make([]int32, len(vals))
		for i, v := range vals {
			ints[i] = int32(v)
		}
		r.ctx.UniformInts(info.Location, info.Type, ints)
	default:
		r.ctx.UniformFloats(info.Location, info.Type, vals)
	}
	return nil
}

// mat3Of takes the upper-left 3x3 of a column-major 4x4.
func mat3Of(m []float32) []float32 {
	return []float32{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

func flatten(value any) ([]float32, bool) {
	switch v := value.(type) {
	case float32:
		return []float32{v}, true
	case float64:
		return []float32{float32(v)}, true
	case int:
		return []float32{float32(v)}, true
	case int32:
		return []float32{float32(v)}, true
	case uint32:
		return []float32{float32(v)}, true
	case bool:
		if v {
			return []float32{1}, true
		}
		return []float32{0}, true
	case mgl32.Vec2:
		return v[:], true
	case mgl32.Vec3:
		return v[:], true
	case mgl32.Vec4:
		return v[:], true
	case mgl32.Mat2:
		return v[:], true
	case mgl32.Mat3:
		return v[:], true
	case mgl32.Mat4:
		return v[:], true
	case [2]float32:
		return v[:], true
	case [3]float32:
		return v[:], true
	case [4]float32:
		return v[:], true
	case []float32:
		return v, true
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, true
	case []int:
		out := make([]float32, len(v))
		for i, n := range v {
			out[i] = float32(n)
		}
		return out, true
	}
	return nil, false
}
