package renderer

import (
	"testing"

	"Sketch3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestUniformTableLookup(t *testing.T) {
	table := newUniformTable([]gpu.UniformInfo{
		{Name: "uModel", Type: gpu.UniformMat4, Location: 0, Size: 1},
		{Name: "uColor", Type: gpu.UniformVec4, Location: 3, Size: 1},
	})

	u, ok := table.Lookup("uColor")
	assert.True(t, ok)
	assert.Equal(t, int32(3), u.Location)
	assert.False(t, table.Has("uTime"))
	assert.Equal(t, []string{"uColor", "uModel"}, table.Names())
	assert.Equal(t, 2, table.Len())
}

func TestFlatten(t *testing.T) {
	cases := []struct {
		in   any
		want []float32
	}{
		{float32(1.5), []float32{1.5}},
		{2.0, []float32{2}},
		{3, []float32{3}},
		{true, []float32{1}},
		{mgl32.Vec3{1, 2, 3}, []float32{1, 2, 3}},
		{[4]float32{1, 2, 3, 4}, []float32{1, 2, 3, 4}},
		{[]float64{0.5, 0.25}, []float32{0.5, 0.25}},
		{[]int{7, 8}, []float32{7, 8}},
	}
	for _, c := range cases {
		got, ok := flatten(c.in)
		assert.True(t, ok, "%T", c.in)
		assert.Equal(t, c.want, got, "%T", c.in)
	}

	_, ok := flatten("texture")
	assert.False(t, ok)
}

func TestUnitAllocatorNeverReuses(t *testing.T) {
	a := newUnitAllocator(2)
	u, ok := a.alloc()
	assert.True(t, ok)
	assert.Equal(t, 0, u)
	u, _ = a.alloc()
	assert.Equal(t, 1, u)
	u, ok = a.alloc()
	assert.False(t, ok)
	assert.Equal(t, -1, u)
	assert.Equal(t, 2, a.used())
	assert.Equal(t, 0, a.remaining())
}
