package mesh

import (
	"github.com/chewxy/math32"
)

// Cube returns an axis-aligned cube of edge size centered on the origin:
// 8 shared positions and 6 quad faces wound counter-clockwise from outside.
func Cube(size float32) *Raw {
	h := size / 2
	m := &Raw{}
	for _, p := range [][3]float32{
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
	} {
		m.AddVertex(Vertex{"position": {p[0], p[1], p[2]}})
	}
	m.AddFace(0, 1, 2, 3) // front
	m.AddFace(5, 4, 7, 6) // back
	m.AddFace(4, 0, 3, 7) // left
	m.AddFace(1, 5, 6, 2) // right
	m.AddFace(3, 2, 6, 7) // top
	m.AddFace(4, 5, 1, 0) // bottom
	return m
}

// Quad returns a two-triangle quad covering clip space, with texture
// coordinates spanning 0..1. Post effects draw it with identity matrices.
func Quad() *Raw {
	m := &Raw{}
	for _, v := range [][4]float32{{-1, -1, 0, 0}, {1, -1, 1, 0}, {1, 1, 1, 1}, {-1, 1, 0, 1}} {
		m.AddVertex(Vertex{
			"position": {v[0], v[1], 0},
			"normal":   {0, 0, 1},
			"texCoord": {v[2], v[3]},
		})
	}
	m.AddFace(0, 1, 2, 3)
	return m
}

// Grid returns a flat XZ grid of cols x rows cells, size units across, facing +Y.
func Grid(size float32, cols, rows int) *Raw {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	m := &Raw{}
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			u := float32(c) / float32(cols)
			v := float32(r) / float32(rows)
			m.AddVertex(Vertex{
				"position": {(u - 0.5) * size, 0, (v - 0.5) * size},
				"normal":   {0, 1, 0},
				"texCoord": {u, v},
			})
		}
	}
	stride := cols + 1
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*stride + c
			m.AddFace(i, i+stride, i+stride+1, i+1)
		}
	}
	return m
}

// Icosphere returns a unit-radius sphere built by subdividing an icosahedron
// subdivisions times. Normals equal positions.
func Icosphere(radius float32, subdivisions int) *Raw {
	t := (1 + math32.Sqrt(5)) / 2
	pts := [][3]float32{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	unit := func(p [3]float32) [3]float32 {
		l := math32.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		return [3]float32{p[0] / l, p[1] / l, p[2] / l}
	}
	for i := range pts {
		pts[i] = unit(pts[i])
	}

	for s := 0; s < subdivisions; s++ {
		cache := map[[2]int]int{}
		mid := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if i, ok := cache[key]; ok {
				return i
			}
			pa, pb := pts[a], pts[b]
			pts = append(pts, unit([3]float32{(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2, (pa[2] + pb[2]) / 2}))
			cache[key] = len(pts) - 1
			return len(pts) - 1
		}
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			a, b, c := mid(f[0], f[1]), mid(f[1], f[2]), mid(f[2], f[0])
			next = append(next, [3]int{f[0], a, c}, [3]int{f[1], b, a}, [3]int{f[2], c, b}, [3]int{a, b, c})
		}
		faces = next
	}

	m := &Raw{}
	for _, p := range pts {
		u := 0.5 + math32.Atan2(p[2], p[0])/(2*math32.Pi)
		v := 0.5 - math32.Asin(p[1])/math32.Pi
		m.AddVertex(Vertex{
			"position": {p[0] * radius, p[1] * radius, p[2] * radius},
			"normal":   {p[0], p[1], p[2]},
			"texCoord": {u, v},
		})
	}
	for _, f := range faces {
		m.AddFace(f[0], f[1], f[2])
	}
	return m
}
