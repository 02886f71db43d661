// Package gpu defines the narrow graphics-API surface the renderer draws through.
//
// The interface is shaped after OpenGL ES 3.0 / WebGL2: every call is synchronous,
// issued from the single thread that owns the context, and objects are referred to
// by opaque uint32 handles. Handle 0 always means "none" (for framebuffers: the
// default, visible framebuffer).
package gpu

import "fmt"

type ShaderStage int

const (
	VertexShader ShaderStage = iota
	FragmentShader
)

func (s ShaderStage) String() string {
	if s == FragmentShader {
		return "fragment"
	}
	return "vertex"
}

// DrawMode is the primitive topology of a draw call.
type DrawMode int

const (
	Triangles DrawMode = iota
	Lines
	Points
	TriangleStrip
)

func (m DrawMode) String() string {
	switch m {
	case Lines:
		return "lines"
	case Points:
		return "points"
	case TriangleStrip:
		return "triangle-strip"
	default:
		return "triangles"
	}
}

// UniformType is the reflected GLSL type of an active uniform.
type UniformType int

const (
	UniformUnknown UniformType = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformIVec2
	UniformIVec3
	UniformIVec4
	UniformBool
	UniformMat2
	UniformMat3
	UniformMat4
	UniformSampler2D
	UniformSamplerCube
)

// IsMatrix reports whether values of this type go through the matrix setter.
func (t UniformType) IsMatrix() bool {
	return t == UniformMat2 || t == UniformMat3 || t == UniformMat4
}

// IsInteger reports whether values of this type are uploaded as ints.
func (t UniformType) IsInteger() bool {
	switch t {
	case UniformInt, UniformIVec2, UniformIVec3, UniformIVec4, UniformBool, UniformSampler2D, UniformSamplerCube:
		return true
	}
	return false
}

// Components is the number of scalars one value of the type holds.
func (t UniformType) Components() int {
	switch t {
	case UniformVec2, UniformIVec2:
		return 2
	case UniformVec3, UniformIVec3:
		return 3
	case UniformVec4, UniformIVec4, UniformMat2:
		return 4
	case UniformMat3:
		return 9
	case UniformMat4:
		return 16
	default:
		return 1
	}
}

var uniformTypeNames = map[string]UniformType{
	"float":       UniformFloat,
	"vec2":        UniformVec2,
	"vec3":        UniformVec3,
	"vec4":        UniformVec4,
	"int":         UniformInt,
	"ivec2":       UniformIVec2,
	"ivec3":       UniformIVec3,
	"ivec4":       UniformIVec4,
	"bool":        UniformBool,
	"mat2":        UniformMat2,
	"mat3":        UniformMat3,
	"mat4":        UniformMat4,
	"sampler2D":   UniformSampler2D,
	"samplerCube": UniformSamplerCube,
}

// ParseUniformType maps a GLSL type keyword to a UniformType.
func ParseUniformType(glsl string) UniformType {
	return uniformTypeNames[glsl]
}

func (t UniformType) String() string {
	for name, v := range uniformTypeNames {
		if v == t {
			return name
		}
	}
	return "unknown"
}

// UniformInfo is one entry of a program's active-uniform reflection.
type UniformInfo struct {
	Name     string
	Type     UniformType
	Location int32
	Size     int32
}

// AttribBinding pins a vertex-shader input name to a fixed slot before linking.
type AttribBinding struct {
	Name string
	Slot uint32
}

type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatDepth24
)

type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
	WrapMirror
)

// Attachment selects a framebuffer attachment point.
type Attachment int

const (
	ColorAttachment Attachment = iota
	DepthAttachment
)

// Context is a single GPU context. Implementations are not safe for concurrent use.
type Context interface {
	// ShaderHeader is prepended to every shader source (version line and precision).
	ShaderHeader() string
	MaxCombinedTextureUnits() int

	CompileShader(stage ShaderStage, source string) (uint32, error)
	DeleteShader(shader uint32)
	// LinkProgram binds attribute locations, links, and deletes both shader objects.
	LinkProgram(vertex, fragment uint32, attribs []AttribBinding) (uint32, error)
	ActiveUniforms(program uint32) []UniformInfo
	UseProgram(program uint32)
	DeleteProgram(program uint32)

	UniformFloats(location int32, typ UniformType, values []float32)
	UniformInts(location int32, typ UniformType, values []int32)
	UniformMatrix(location int32, typ UniformType, values []float32)

	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	CreateBuffer() uint32
	// BufferData uploads data into buf and points attribute slot at it with
	// the given component count. The target vertex array must be bound.
	BufferData(buf uint32, slot uint32, components int32, data []float32)
	DeleteBuffer(buf uint32)
	DrawArrays(mode DrawMode, first, count int32)

	CreateTexture() uint32
	ActiveTexture(unit int)
	BindTexture(tex uint32)
	TexImage2D(width, height int, format TextureFormat, pixels []byte)
	TexParameters(filter Filter, wrap Wrap)
	DeleteTexture(tex uint32)

	CreateFramebuffer() uint32
	BindFramebuffer(fb uint32)
	FramebufferTexture(attachment Attachment, tex uint32)
	CheckFramebuffer() error
	DeleteFramebuffer(fb uint32)
	BlitFramebuffer(src, dst uint32, width, height int)

	Viewport(width, height int)
	ClearColor(r, g, b, a float32)
	Clear(color, depth bool)
	SetDepthTest(enabled bool)
	ReadPixels(width, height int) []byte
}

// CompileError carries the driver's info log for a failed compile or link.
type CompileError struct {
	Stage string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Log)
}
