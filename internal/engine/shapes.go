package engine

import (
	"Sketch3D/internal/colors"
	"Sketch3D/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
)

// Shapes builds editable meshes for sketches.
type Shapes struct{}

func (Shapes) Cube(size float32) *mesh.Raw { return mesh.Cube(size) }

func (Shapes) Quad() *mesh.Raw { return mesh.Quad() }

func (Shapes) Grid(size float32, cols, rows int) *mesh.Raw { return mesh.Grid(size, cols, rows) }

func (Shapes) Sphere(radius float32, subdivisions int) *mesh.Raw {
	return mesh.Icosphere(radius, subdivisions)
}

// Colored paints every vertex of m with a CSS color. Unparseable colors leave m as is.
func (Shapes) Colored(m *mesh.Raw, color string) *mesh.Raw {
	c, err := colors.Parse(color)
	if err != nil {
		return m
	}
	m.SetColor(c)
	return m
}

// Palette paints each face of m with the next color of a random palette.
func (Shapes) Palette(m *mesh.Raw) *mesh.Raw {
	flat := m.Flat()
	pal := colors.Palette(max(len(flat.Faces), 1))
	for i, f := range flat.Faces {
		for _, v := range f {
			c := pal[i]
			flat.Vertices[v]["color"] = []float32{c[0], c[1], c[2], c[3]}
		}
	}
	return flat
}

// Color parses a CSS color, falling back to white.
func Color(s string) mgl32.Vec4 {
	c, err := colors.Parse(s)
	if err != nil {
		return mgl32.Vec4{1, 1, 1, 1}
	}
	return c
}
