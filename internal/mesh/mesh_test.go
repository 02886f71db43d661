package mesh

import (
	"testing"

	"Sketch3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeFanTriangulation(t *testing.T) {
	cube := Cube(2)
	require.Len(t, cube.Vertices, 8)
	require.Len(t, cube.Faces, 6)
	assert.Equal(t, 12, cube.Triangles())

	data := cube.Render()
	assert.Equal(t, gpu.Triangles, data.Mode)
	assert.Equal(t, 36, data.VertexCount)
	assert.Len(t, data.Attribs["position"], 36*3)
	assert.Len(t, data.Attribs["surfaceId"], 36)
}

func TestRenderFanOrder(t *testing.T) {
	m := &Raw{}
	for i := 0; i < 5; i++ {
		m.AddVertex(Vertex{"position": {float32(i), 0, 0}})
	}
	m.AddFace(0, 1, 2, 3, 4)

	data := m.Render()
	require.Equal(t, 9, data.VertexCount)
	var xs []float32
	for i := 0; i < len(data.Attribs["position"]); i += 3 {
		xs = append(xs, data.Attribs["position"][i])
	}
	assert.Equal(t, []float32{0, 1, 2, 0, 2, 3, 0, 3, 4}, xs)
}

func TestRenderZeroFillsMissingAttributes(t *testing.T) {
	m := &Raw{}
	m.AddVertex(Vertex{"position": {0, 0, 0}, "color": {1, 0, 0, 1}})
	m.AddVertex(Vertex{"position": {1, 0, 0}})
	m.AddVertex(Vertex{"position": {0, 1, 0}})
	m.AddFace(0, 1, 2)

	data := m.Render()
	assert.Equal(t, []float32{1, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}, data.Attribs["color"])
	_, hasNormal := data.Attribs["normal"]
	assert.False(t, hasNormal)
}

func TestRenderSkipsOutOfRangeIndices(t *testing.T) {
	m := Cube(1)
	m.AddFace(0, 1, 99)
	assert.Equal(t, 36, m.Render().VertexCount)
}

func TestRenderLinesAndPoints(t *testing.T) {
	m := Cube(1)
	m.Mode = gpu.Lines
	// each quad face becomes four segments
	assert.Equal(t, 6*4*2, m.Render().VertexCount)

	m.Mode = gpu.Points
	assert.Equal(t, 6*4, m.Render().VertexCount)
}

func TestSurfaceIDIsFaceIndex(t *testing.T) {
	data := Cube(1).Render()
	ids := data.Attribs["surfaceId"]
	assert.Equal(t, float32(0), ids[0])
	assert.Equal(t, float32(0), ids[5])
	assert.Equal(t, float32(1), ids[6])
	assert.Equal(t, float32(5), ids[35])
}

func TestDataRenderIsIdentity(t *testing.T) {
	d := &Data{Name: "x", VertexCount: 3}
	var r Renderable = d
	assert.Same(t, d, r.Render())
}

func TestFlatNormals(t *testing.T) {
	flat := Cube(2).Flat()
	require.Len(t, flat.Vertices, 24)
	top := flat.Vertices[flat.Faces[4][0]]["normal"]
	assert.InDeltaSlice(t, []float32{0, 1, 0}, top, 1e-6)
}

func TestComputeVertexNormals(t *testing.T) {
	g := Grid(1, 2, 2)
	g.ComputeVertexNormals()
	for _, v := range g.Vertices {
		assert.InDeltaSlice(t, []float32{0, 1, 0}, v["normal"], 1e-6)
	}
}

func TestNormalizeFitsSize(t *testing.T) {
	m := Cube(10)
	m.Transform(mgl32.Translate3D(5, 5, 5))
	m.Normalize(2)
	min, max := m.Bounds()
	assert.InDelta(t, -1, min[0], 1e-5)
	assert.InDelta(t, 1, max[1], 1e-5)
}

func TestIcosphereOnSurface(t *testing.T) {
	s := Icosphere(3, 1)
	assert.Len(t, s.Faces, 80)
	for _, v := range s.Vertices {
		p := v.Position()
		assert.InDelta(t, 3, mgl32.Vec3(p).Len(), 1e-4)
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Cube(1)
	b := a.Clone()
	b.Vertices[0]["position"][0] = 42
	b.Faces[0][0] = 7
	assert.NotEqual(t, float32(42), a.Vertices[0]["position"][0])
	assert.Equal(t, 0, a.Faces[0][0])
}

func TestBindingsFollowLayout(t *testing.T) {
	b := Bindings()
	require.Len(t, b, len(Layout))
	assert.Equal(t, "aPosition", b[0].Name)
	assert.Equal(t, uint32(0), b[0].Slot)
	assert.Equal(t, "aNormal", b[1].Name)
	assert.Equal(t, uint32(1), b[1].Slot)
}
