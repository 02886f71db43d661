package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"Sketch3D/internal/gpu"
	"Sketch3D/internal/mesh"
)

type faceVertex struct {
	vertex, texCoord, normal int
}

// ParseOBJ reads a Wavefront OBJ file into a triangle mesh. Every distinct
// v/vt/vn triplet becomes one mesh vertex, faces keep their n-gon shape, and
// the optional "v x y z r g b" color extension is honored. Materials are ignored.
func ParseOBJ(r io.Reader) (*mesh.Raw, error) {
	var positions, colors [][]float32
	var texCoords, normals [][]float32
	m := &mesh.Raw{Mode: gpu.Triangles}
	index := map[faceVertex]int{}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v":
			vals, err := parseFloats(parts[1:])
			if err != nil || len(vals) < 3 {
				return nil, fmt.Errorf("obj line %d: invalid vertex", line)
			}
			positions = append(positions, vals[:3])
			if len(vals) >= 6 {
				colors = append(colors, []float32{vals[3], vals[4], vals[5], 1})
			} else {
				colors = append(colors, nil)
			}
		case "vn":
			vals, err := parseFloats(parts[1:])
			if err != nil || len(vals) < 3 {
				return nil, fmt.Errorf("obj line %d: invalid normal", line)
			}
			normals = append(normals, vals[:3])
		case "vt":
			vals, err := parseFloats(parts[1:])
			if err != nil || len(vals) < 1 {
				return nil, fmt.Errorf("obj line %d: invalid texture coordinate", line)
			}
			if len(vals) == 1 {
				vals = append(vals, 0)
			}
			texCoords = append(texCoords, vals[:2])
		case "f":
			corners, err := parseFace(parts[1:], len(positions), len(texCoords), len(normals))
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			face := make([]int, 0, len(corners))
			for _, c := range corners {
				i, ok := index[c]
				if !ok {
					v := mesh.Vertex{"position": append([]float32(nil), positions[c.vertex]...)}
					if col := colors[c.vertex]; col != nil {
						v["color"] = append([]float32(nil), col...)
					}
					if c.texCoord >= 0 {
						v["texCoord"] = append([]float32(nil), texCoords[c.texCoord]...)
					}
					if c.normal >= 0 {
						v["normal"] = append([]float32(nil), normals[c.normal]...)
					}
					i = m.AddVertex(v)
					index[c] = i
				}
				face = append(face, i)
			}
			m.AddFace(face...)
		case "o", "g":
			if m.Name == "" && len(parts) > 1 {
				m.Name = parts[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseFloats(parts []string) ([]float32, error) {
	out := make([]float32, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %v: %w", part, err)
		}
		out = append(out, float32(val))
	}
	return out, nil
}

// objIndex resolves a 1-based (or negative, relative) OBJ index against n entries.
func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %v: %w", s, err)
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range", s)
	}
	return i, nil
}

func parseFace(parts []string, nv, nt, nn int) ([]faceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("face with %d vertices", len(parts))
	}
	face := make([]faceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")
		fv := faceVertex{texCoord: -1, normal: -1}
		var err error
		if fv.vertex, err = objIndex(vals[0], nv); err != nil {
			return nil, err
		}
		if len(vals) > 1 && vals[1] != "" {
			if fv.texCoord, err = objIndex(vals[1], nt); err != nil {
				return nil, err
			}
		}
		if len(vals) > 2 && vals[2] != "" {
			if fv.normal, err = objIndex(vals[2], nn); err != nil {
				return nil, err
			}
		}
		face = append(face, fv)
	}
	return face, nil
}
