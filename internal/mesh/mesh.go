// Package mesh holds the editable polygon form of geometry and its flattened,
// render-ready form.
package mesh

import (
	"Sketch3D/internal/gpu"
)

// Attribute describes where a named vertex attribute lives in every shader program.
type Attribute struct {
	Name       string // key in Vertex and Data.Attribs
	Input      string // vertex shader input
	Slot       uint32
	Components int
}

// Layout is the global attribute table. A program that declares aNormal always
// receives it at slot 1, whatever else it declares, so any vertex array can be
// drawn with any program.
var Layout = []Attribute{
	{Name: "position", Input: "aPosition", Slot: 0, Components: 3},
	{Name: "normal", Input: "aNormal", Slot: 1, Components: 3},
	{Name: "texCoord", Input: "aTexCoord", Slot: 2, Components: 2},
	{Name: "color", Input: "aColor", Slot: 3, Components: 4},
	{Name: "surfaceId", Input: "aSurfaceId", Slot: 4, Components: 1},
	{Name: "register1", Input: "aRegister1", Slot: 5, Components: 4},
	{Name: "register2", Input: "aRegister2", Slot: 6, Components: 4},
}

// LookupAttribute returns the layout entry for an attribute name.
func LookupAttribute(name string) (Attribute, bool) {
	for _, a := range Layout {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Bindings returns the layout as pre-link attribute bindings.
func Bindings() []gpu.AttribBinding {
	b := make([]gpu.AttribBinding, len(Layout))
	for i, a := range Layout {
		b[i] = gpu.AttribBinding{Name: a.Input, Slot: a.Slot}
	}
	return b
}

// Vertex maps attribute names to their components.
type Vertex map[string][]float32

// Position returns the vertex position, padded with zeros.
func (v Vertex) Position() [3]float32 {
	var p [3]float32
	copy(p[:], v["position"])
	return p
}

// Renderable is anything the renderer can upload: either a Raw polygon mesh
// that still needs flattening, or Data that already is flat.
type Renderable interface {
	Render() *Data
}

// Data is the flattened, render-ready form of a mesh.
type Data struct {
	Mode        gpu.DrawMode
	VertexCount int
	Attribs     map[string][]float32
	Name        string
	Program     string
}

// Render returns d itself.
func (d *Data) Render() *Data { return d }

// Raw is an editable polygon mesh: shared vertices plus faces that index them.
// Faces may hold any number of indices.
type Raw struct {
	Name     string
	Program  string
	Mode     gpu.DrawMode
	Vertices []Vertex
	Faces    [][]int
}

// Render flattens the mesh. Triangle meshes are fan-triangulated, line meshes
// emit each face as a closed loop of segments, point meshes emit every face
// index once. Missing attributes are zero filled, out-of-range indices are
// skipped, and surfaceId is set to the index of the face a vertex came from.
func (m *Raw) Render() *Data {
	present := map[string]bool{}
	for _, v := range m.Vertices {
		for name := range v {
			present[name] = true
		}
	}
	present["surfaceId"] = true

	var emitted [][2]int // (vertex index, face index)
	valid := func(i int) bool { return i >= 0 && i < len(m.Vertices) }

	for fi, face := range m.Faces {
		switch m.Mode {
		case gpu.Lines:
			if len(face) < 2 {
				continue
			}
			n := len(face)
			if n == 2 {
				n = 1
			}
			for i := 0; i < n; i++ {
				a, b := face[i], face[(i+1)%len(face)]
				if valid(a) && valid(b) {
					emitted = append(emitted, [2]int{a, fi}, [2]int{b, fi})
				}
			}
		case gpu.Points:
			for _, i := range face {
				if valid(i) {
					emitted = append(emitted, [2]int{i, fi})
				}
			}
		case gpu.TriangleStrip:
			for _, i := range face {
				if valid(i) {
					emitted = append(emitted, [2]int{i, fi})
				}
			}
		default:
			for i := 1; i+1 < len(face); i++ {
				a, b, c := face[0], face[i], face[i+1]
				if valid(a) && valid(b) && valid(c) {
					emitted = append(emitted, [2]int{a, fi}, [2]int{b, fi}, [2]int{c, fi})
				}
			}
		}
	}

	data := &Data{
		Mode:        m.Mode,
		VertexCount: len(emitted),
		Attribs:     map[string][]float32{},
		Name:        m.Name,
		Program:     m.Program,
	}
	for name := range present {
		n := components(name, m.Vertices)
		buf := make([]float32, 0, n*len(emitted))
		for _, e := range emitted {
			if name == "surfaceId" {
				buf = append(buf, float32(e[1]))
				continue
			}
			src := m.Vertices[e[0]][name]
			for c := 0; c < n; c++ {
				if c < len(src) {
					buf = append(buf, src[c])
				} else {
					buf = append(buf, 0)
				}
			}
		}
		data.Attribs[name] = buf
	}
	return data
}

func components(name string, vertices []Vertex) int {
	if a, ok := LookupAttribute(name); ok {
		return a.Components
	}
	n := 1
	for _, v := range vertices {
		if len(v[name]) > n {
			n = len(v[name])
		}
	}
	return n
}

// Triangles returns the number of triangles Render emits for a triangle mesh.
func (m *Raw) Triangles() int {
	n := 0
	for _, f := range m.Faces {
		if len(f) >= 3 {
			n += len(f) - 2
		}
	}
	return n
}

// AddVertex appends a vertex and returns its index.
func (m *Raw) AddVertex(v Vertex) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddFace appends a face.
func (m *Raw) AddFace(indices ...int) {
	m.Faces = append(m.Faces, indices)
}

// Clone returns a deep copy of m.
func (m *Raw) Clone() *Raw {
	out := &Raw{Name: m.Name, Program: m.Program, Mode: m.Mode}
	out.Vertices = make([]Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		nv := make(Vertex, len(v))
		for k, c := range v {
			nv[k] = append([]float32(nil), c...)
		}
		out.Vertices[i] = nv
	}
	out.Faces = make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		out.Faces[i] = append([]int(nil), f...)
	}
	return out
}
