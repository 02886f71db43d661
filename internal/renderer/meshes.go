package renderer

import (
	"errors"
	"fmt"

	"Sketch3D/internal/gpu"
	"Sketch3D/internal/mesh"

	"go.uber.org/zap"
)

// Mesh is an uploaded vertex array. Only the count survives on the CPU side.
type Mesh struct {
	Name    string
	VAO     uint32
	Buffers map[string]uint32
	Mode    gpu.DrawMode
	Count   int
	Program string
}

func (m *Mesh) release(ctx gpu.Context) {
	for _, name := range sortedKeys(m.Buffers) {
		ctx.DeleteBuffer(m.Buffers[name])
	}
	ctx.DeleteVertexArray(m.VAO)
	m.Buffers = nil
}

// AddMesh uploads src and returns the name it is registered under. If the
// mesh's name is already registered the existing buffers are updated in place.
// Unnamed meshes get a de-duplicated name ("mesh", "mesh.001", ...).
func (r *Renderer) AddMesh(src mesh.Renderable) (string, error) {
	if src == nil {
		return "", errors.New("add mesh: nil mesh")
	}
	data := src.Render()
	if data == nil {
		return "", errors.New("add mesh: render produced no data")
	}
	if data.Name != "" {
		if _, ok := r.meshes[data.Name]; ok {
			return data.Name, r.UpdateMesh(data.Name, data)
		}
	}
	if err := checkVertexCount(data); err != nil {
		return "", fmt.Errorf("add mesh %q: %w", data.Name, err)
	}
	name := data.Name
	if name == "" {
		name = r.uniqueMeshName("mesh")
	}

	m := &Mesh{
		Name:    name,
		VAO:     r.ctx.CreateVertexArray(),
		Buffers: map[string]uint32{},
		Program: data.Program,
	}
	r.meshes[name] = m
	r.upload(m, data)
	r.log.Debug("Mesh added",
		zap.String("mesh", name),
		zap.Int("vertices", m.Count),
		zap.Stringer("mode", m.Mode))
	return name, nil
}

// UpdateMesh re-uploads the attribute buffers of an existing mesh without
// reallocating its vertex array.
func (r *Renderer) UpdateMesh(name string, src mesh.Renderable) error {
	m, ok := r.meshes[name]
	if !ok {
		r.log.Warn("Mesh not found", zap.String("mesh", name))
		return fmt.Errorf("update mesh %q: %w", name, ErrMeshNotFound)
	}
	data := src.Render()
	if data == nil {
		return fmt.Errorf("update mesh %q: render produced no data", name)
	}
	if err := checkVertexCount(data); err != nil {
		return fmt.Errorf("update mesh %q: %w", name, err)
	}
	if data.Program != "" {
		m.Program = data.Program
	}
	r.upload(m, data)
	return nil
}

// vertexCount is the declared count, or the position count when none is given.
func vertexCount(data *mesh.Data) int {
	if data.VertexCount == 0 {
		return len(data.Attribs["position"]) / 3
	}
	return data.VertexCount
}

// checkVertexCount rejects data whose count would read past any attribute.
func checkVertexCount(data *mesh.Data) error {
	count := vertexCount(data)
	if count < 0 {
		return fmt.Errorf("%d vertices: %w", count, ErrVertexCount)
	}
	for _, name := range sortedKeys(data.Attribs) {
		attr, ok := mesh.LookupAttribute(name)
		if !ok {
			continue
		}
		if have := len(data.Attribs[name]) / attr.Components; have < count {
			return fmt.Errorf("%s holds %d of %d vertices: %w", name, have, count, ErrVertexCount)
		}
	}
	return nil
}

func (r *Renderer) upload(m *Mesh, data *mesh.Data) {
	count := vertexCount(data)
	m.Mode, m.Count = data.Mode, count

	r.ctx.BindVertexArray(m.VAO)
	for _, name := range sortedKeys(data.Attribs) {
		attr, ok := mesh.LookupAttribute(name)
		if !ok {
			r.log.Warn("Attribute has no slot", zap.String("mesh", m.Name), zap.String("attribute", name))
			continue
		}
		buf, ok := m.Buffers[name]
		if !ok {
			buf = r.ctx.CreateBuffer()
			m.Buffers[name] = buf
		}
		r.ctx.BufferData(buf, attr.Slot, int32(attr.Components), data.Attribs[name])
	}
	// A buffer kept from an earlier upload must not be read past its end.
	for _, name := range sortedKeys(m.Buffers) {
		if _, ok := data.Attribs[name]; ok {
			continue
		}
		attr, _ := mesh.LookupAttribute(name)
		r.ctx.BufferData(m.Buffers[name], attr.Slot, int32(attr.Components), make([]float32, count*attr.Components))
	}
	r.ctx.BindVertexArray(0)
}

func (r *Renderer) uniqueMeshName(base string) string {
	if _, ok := r.meshes[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%03d", base, i)
		if _, ok := r.meshes[name]; !ok {
			return name
		}
	}
}

// DeleteMesh releases the vertex array and buffers of name.
func (r *Renderer) DeleteMesh(name string) error {
	m, ok := r.meshes[name]
	if !ok {
		return fmt.Errorf("delete mesh %q: %w", name, ErrMeshNotFound)
	}
	m.release(r.ctx)
	delete(r.meshes, name)
	return nil
}

// Mesh returns the registered mesh called name.
func (r *Renderer) Mesh(name string) (*Mesh, bool) {
	m, ok := r.meshes[name]
	return m, ok
}

// TotalVertices sums the last uploaded vertex count of every mesh.
func (r *Renderer) TotalVertices() int {
	total := 0
	for _, m := range r.meshes {
		total += m.Count
	}
	return total
}

// Draw issues one draw of the named mesh. program, or else the program the
// mesh was registered with, becomes active first; otherwise the active program
// is used. Each entry of uniforms is applied before drawing.
func (r *Renderer) Draw(name string, uniforms map[string]any, program string) error {
	m, ok := r.meshes[name]
	if !ok {
		r.log.Warn("Mesh not found", zap.String("mesh", name))
		return fmt.Errorf("draw %q: %w", name, ErrMeshNotFound)
	}
	if program == "" {
		program = m.Program
	}
	if program != "" {
		if err := r.SetProgram(program); err != nil {
			return fmt.Errorf("draw %q: %w", name, err)
		}
	}
	if r.program == nil {
		r.log.Warn("No program found", zap.String("mesh", name))
		return fmt.Errorf("draw %q: %w", name, ErrProgramNotFound)
	}
	for _, u := range sortedKeys(uniforms) {
		if err := r.set(r.program, u, uniforms[u]); err != nil {
			r.log.Debug("Uniform skipped", zap.String("mesh", name), zap.Error(err))
		}
	}
	r.ctx.BindVertexArray(m.VAO)
	r.ctx.DrawArrays(m.Mode, 0, int32(m.Count))
	r.draws++
	return nil
}
