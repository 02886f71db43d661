package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"Sketch3D/internal/gpu"
	"Sketch3D/internal/mesh"
)

var (
	ErrMissingHeader     = errors.New("missing ply header")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

type plyProperty struct {
	name      string
	typ       string
	list      bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   string
	elements []plyElement
}

// vertex property -> attribute and component
var plyVertexProps = map[string]struct {
	attr  string
	index int
}{
	"x": {"position", 0}, "y": {"position", 1}, "z": {"position", 2},
	"nx": {"normal", 0}, "ny": {"normal", 1}, "nz": {"normal", 2},
	"s": {"texCoord", 0}, "t": {"texCoord", 1},
	"u": {"texCoord", 0}, "v": {"texCoord", 1},
	"red": {"color", 0}, "green": {"color", 1}, "blue": {"color", 2}, "alpha": {"color", 3},
}

var plyTypeSize = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

// ParsePLY reads an ascii or binary (either endianness) Stanford PLY file into
// a triangle mesh. Integer color channels are scaled to 0..1 and a missing
// alpha channel reads as 1.
func ParsePLY(r io.Reader) (*mesh.Raw, error) {
	br := bufio.NewReader(r)
	h, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	var next func(typ string) (float64, error)
	switch h.format {
	case "ascii":
		sc := bufio.NewScanner(br)
		sc.Split(bufio.ScanWords)
		next = func(string) (float64, error) {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return 0, err
				}
				return 0, io.ErrUnexpectedEOF
			}
			return strconv.ParseFloat(sc.Text(), 64)
		}
	case "binary_little_endian":
		next = binaryScalars(br, binary.LittleEndian)
	case "binary_big_endian":
		next = binaryScalars(br, binary.BigEndian)
	default:
		return nil, fmt.Errorf("ply format %q: %w", h.format, ErrUnsupportedFormat)
	}

	m := &mesh.Raw{Mode: gpu.Triangles}
	for _, el := range h.elements {
		for i := 0; i < el.count; i++ {
			switch el.name {
			case "vertex":
				v, err := readPLYVertex(el, next)
				if err != nil {
					return nil, fmt.Errorf("ply vertex %d: %w", i, err)
				}
				m.Vertices = append(m.Vertices, v)
			case "face":
				f, err := readPLYFace(el, next)
				if err != nil {
					return nil, fmt.Errorf("ply face %d: %w", i, err)
				}
				if len(f) > 0 {
					m.Faces = append(m.Faces, f)
				}
			default:
				if _, err := readPLYRecord(el, next); err != nil {
					return nil, fmt.Errorf("ply %s %d: %w", el.name, i, err)
				}
			}
		}
	}
	return m, nil
}

func readPLYHeader(br *bufio.Reader) (*plyHeader, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return nil, ErrMissingHeader
	}
	if strings.TrimSpace(line) != "ply" {
		return nil, ErrMissingHeader
	}

	h := &plyHeader{}
	for {
		line, err := br.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) > 0 {
			switch fields[0] {
			case "format":
				if len(fields) < 2 {
					return nil, fmt.Errorf("ply header: bad format line: %w", ErrUnsupportedFormat)
				}
				h.format = fields[1]
			case "element":
				if len(fields) != 3 {
					return nil, fmt.Errorf("ply header: bad element line %q", line)
				}
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("ply header: bad element count %q", fields[2])
				}
				h.elements = append(h.elements, plyElement{name: fields[1], count: n})
			case "property":
				if len(h.elements) == 0 {
					return nil, fmt.Errorf("ply header: property before element")
				}
				p, err := parsePLYProperty(fields[1:])
				if err != nil {
					return nil, err
				}
				el := &h.elements[len(h.elements)-1]
				el.props = append(el.props, p)
			case "end_header":
				if h.format == "" {
					return nil, fmt.Errorf("ply header: no format line: %w", ErrUnsupportedFormat)
				}
				return h, nil
			}
		}
		if err != nil {
			return nil, fmt.Errorf("ply header: %w", io.ErrUnexpectedEOF)
		}
	}
}

func parsePLYProperty(fields []string) (plyProperty, error) {
	if len(fields) == 4 && fields[0] == "list" {
		if _, ok := plyTypeSize[fields[1]]; !ok {
			return plyProperty{}, fmt.Errorf("ply property type %q: %w", fields[1], ErrUnsupportedFormat)
		}
		if _, ok := plyTypeSize[fields[2]]; !ok {
			return plyProperty{}, fmt.Errorf("ply property type %q: %w", fields[2], ErrUnsupportedFormat)
		}
		return plyProperty{name: fields[3], typ: fields[2], list: true, countType: fields[1]}, nil
	}
	if len(fields) != 2 {
		return plyProperty{}, fmt.Errorf("ply header: bad property %q", strings.Join(fields, " "))
	}
	if _, ok := plyTypeSize[fields[0]]; !ok {
		return plyProperty{}, fmt.Errorf("ply property type %q: %w", fields[0], ErrUnsupportedFormat)
	}
	return plyProperty{name: fields[1], typ: fields[0]}, nil
}

func binaryScalars(r io.Reader, order binary.ByteOrder) func(string) (float64, error) {
	var buf [8]byte
	return func(typ string) (float64, error) {
		n := plyTypeSize[typ]
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return 0, err
		}
		b := buf[:n]
		switch typ {
		case "char", "int8":
			return float64(int8(b[0])), nil
		case "uchar", "uint8":
			return float64(b[0]), nil
		case "short", "int16":
			return float64(int16(order.Uint16(b))), nil
		case "ushort", "uint16":
			return float64(order.Uint16(b)), nil
		case "int", "int32":
			return float64(int32(order.Uint32(b))), nil
		case "uint", "uint32":
			return float64(order.Uint32(b)), nil
		case "float", "float32":
			return float64(math.Float32frombits(order.Uint32(b))), nil
		default:
			return math.Float64frombits(order.Uint64(b)), nil
		}
	}
}

// ErrBadListLength is returned for a list count that is negative, fractional,
// not finite or beyond maxPLYList.
var ErrBadListLength = errors.New("bad list length")

const maxPLYList = math.MaxInt32

func plyListLen(n float64) (int, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > maxPLYList || n != math.Trunc(n) {
		return 0, fmt.Errorf("%v: %w", n, ErrBadListLength)
	}
	return int(n), nil
}

// readPLYRecord reads one record, returning the scalar values and list values by property.
func readPLYRecord(el plyElement, next func(string) (float64, error)) ([][]float64, error) {
	out := make([][]float64, len(el.props))
	for i, p := range el.props {
		if !p.list {
			v, err := next(p.typ)
			if err != nil {
				return nil, err
			}
			out[i] = []float64{v}
			continue
		}
		n, err := next(p.countType)
		if err != nil {
			return nil, err
		}
		count, err := plyListLen(n)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p.name, err)
		}
		// Grown as values arrive so a bogus count fails at EOF, not in make.
		vals := make([]float64, 0, min(count, 64))
		for j := 0; j < count; j++ {
			v, err := next(p.typ)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		out[i] = vals
	}
	return out, nil
}

func readPLYVertex(el plyElement, next func(string) (float64, error)) (mesh.Vertex, error) {
	rec, err := readPLYRecord(el, next)
	if err != nil {
		return nil, err
	}
	v := mesh.Vertex{}
	for i, p := range el.props {
		m, ok := plyVertexProps[p.name]
		if !ok || p.list {
			continue
		}
		a, _ := mesh.LookupAttribute(m.attr)
		if v[m.attr] == nil {
			v[m.attr] = make([]float32, a.Components)
			if m.attr == "color" {
				v[m.attr][3] = 1
			}
		}
		val := rec[i][0]
		if m.attr == "color" && p.typ != "float" && p.typ != "float32" && p.typ != "double" && p.typ != "float64" {
			val /= float64(uint64(1)<<(8*plyTypeSize[p.typ]) - 1)
		}
		v[m.attr][m.index] = float32(val)
	}
	return v, nil
}

func readPLYFace(el plyElement, next func(string) (float64, error)) ([]int, error) {
	rec, err := readPLYRecord(el, next)
	if err != nil {
		return nil, err
	}
	for i, p := range el.props {
		if !p.list || (p.name != "vertex_indices" && p.name != "vertex_index") {
			continue
		}
		face := make([]int, len(rec[i]))
		for j, f := range rec[i] {
			face[j] = int(f)
		}
		return face, nil
	}
	return nil, nil
}
