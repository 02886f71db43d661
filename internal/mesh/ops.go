package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

func vec3(v Vertex, name string) mgl32.Vec3 {
	var out mgl32.Vec3
	copy(out[:], v[name])
	return out
}

// FaceNormal returns the normal of face f using Newell's method, so
// non-planar n-gons still get a sensible direction.
func (m *Raw) FaceNormal(f int) mgl32.Vec3 {
	var n mgl32.Vec3
	face := m.Faces[f]
	for i := range face {
		a := vec3(m.Vertices[face[i]], "position")
		b := vec3(m.Vertices[face[(i+1)%len(face)]], "position")
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// ComputeVertexNormals sets every vertex normal to the normalized sum of the
// normals of the faces that use it.
func (m *Raw) ComputeVertexNormals() {
	sums := make([]mgl32.Vec3, len(m.Vertices))
	for f, face := range m.Faces {
		if len(face) < 3 {
			continue
		}
		n := m.FaceNormal(f)
		for _, i := range face {
			if i >= 0 && i < len(sums) {
				sums[i] = sums[i].Add(n)
			}
		}
	}
	for i, s := range sums {
		if s.Len() > 0 {
			s = s.Normalize()
		}
		m.Vertices[i]["normal"] = []float32{s[0], s[1], s[2]}
	}
}

// Flat returns a copy of m in which no vertex is shared between faces and
// every vertex carries its face normal.
func (m *Raw) Flat() *Raw {
	out := &Raw{Name: m.Name, Program: m.Program, Mode: m.Mode}
	for f, face := range m.Faces {
		n := m.FaceNormal(f)
		nf := make([]int, 0, len(face))
		for _, i := range face {
			if i < 0 || i >= len(m.Vertices) {
				continue
			}
			v := make(Vertex, len(m.Vertices[i])+1)
			for k, c := range m.Vertices[i] {
				v[k] = append([]float32(nil), c...)
			}
			v["normal"] = []float32{n[0], n[1], n[2]}
			nf = append(nf, out.AddVertex(v))
		}
		out.Faces = append(out.Faces, nf)
	}
	return out
}

// Transform applies mat to every position and the inverse transpose of its
// upper 3x3 to every normal.
func (m *Raw) Transform(mat mgl32.Mat4) {
	normalMat := mat.Mat3().Inv().Transpose()
	for _, v := range m.Vertices {
		if p, ok := v["position"]; ok {
			q := mat.Mul4x1(vec3(v, "position").Vec4(1))
			copy(p, q[:len(p)])
		}
		if n, ok := v["normal"]; ok {
			q := normalMat.Mul3x1(vec3(v, "normal"))
			if q.Len() > 0 {
				q = q.Normalize()
			}
			copy(n, q[:len(n)])
		}
	}
}

// SetColor sets the color attribute of every vertex.
func (m *Raw) SetColor(c mgl32.Vec4) {
	for _, v := range m.Vertices {
		v["color"] = []float32{c[0], c[1], c[2], c[3]}
	}
}

// Bounds returns the axis-aligned bounding box of all positions.
func (m *Raw) Bounds() (min, max mgl32.Vec3) {
	for i, v := range m.Vertices {
		p := vec3(v, "position")
		if i == 0 {
			min, max = p, p
			continue
		}
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}

// Normalize centers m on the origin and scales it to fit a cube of edge size.
func (m *Raw) Normalize(size float32) {
	min, max := m.Bounds()
	ext := max.Sub(min)
	longest := ext[0]
	if ext[1] > longest {
		longest = ext[1]
	}
	if ext[2] > longest {
		longest = ext[2]
	}
	if longest == 0 {
		return
	}
	center := min.Add(max).Mul(0.5)
	s := size / longest
	m.Transform(mgl32.Scale3D(s, s, s).Mul4(mgl32.Translate3D(-center[0], -center[1], -center[2])))
}
