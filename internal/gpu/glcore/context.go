//go:build !js

// Package glcore implements gpu.Context on desktop OpenGL 4.1 core through go-gl.
package glcore

import (
	"fmt"
	"strings"
	"sync"

	"Sketch3D/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var glInitOnce sync.Once

type Context struct {
	maxUnits int
}

// New loads the GL function pointers. A GL context must be current on the calling thread.
func New() (*Context, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	var units int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return &Context{maxUnits: int(units)}, nil
}

func (c *Context) ShaderHeader() string        { return "#version 330 core\n" }
func (c *Context) MaxCombinedTextureUnits() int { return c.maxUnits }

func (c *Context) CompileShader(stage gpu.ShaderStage, source string) (uint32, error) {
	shaderType := uint32(gl.VERTEX_SHADER)
	if stage == gpu.FragmentShader {
		shaderType = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, &gpu.CompileError{Stage: stage.String() + " shader", Log: strings.TrimRight(log, "\x00")}
	}
	return shader, nil
}

func (c *Context) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (c *Context) LinkProgram(vertex, fragment uint32, attribs []gpu.AttribBinding) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	for _, a := range attribs {
		gl.BindAttribLocation(program, a.Slot, gl.Str(a.Name+"\x00"))
	}
	gl.LinkProgram(program)

	gl.DetachShader(program, vertex)
	gl.DeleteShader(vertex)
	gl.DetachShader(program, fragment)
	gl.DeleteShader(fragment)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &gpu.CompileError{Stage: "link", Log: strings.TrimRight(log, "\x00")}
	}
	return program, nil
}

var glUniformTypes = map[uint32]gpu.UniformType{
	gl.FLOAT:        gpu.UniformFloat,
	gl.FLOAT_VEC2:   gpu.UniformVec2,
	gl.FLOAT_VEC3:   gpu.UniformVec3,
	gl.FLOAT_VEC4:   gpu.UniformVec4,
	gl.INT:          gpu.UniformInt,
	gl.INT_VEC2:     gpu.UniformIVec2,
	gl.INT_VEC3:     gpu.UniformIVec3,
	gl.INT_VEC4:     gpu.UniformIVec4,
	gl.BOOL:         gpu.UniformBool,
	gl.FLOAT_MAT2:   gpu.UniformMat2,
	gl.FLOAT_MAT3:   gpu.UniformMat3,
	gl.FLOAT_MAT4:   gpu.UniformMat4,
	gl.SAMPLER_2D:   gpu.UniformSampler2D,
	gl.SAMPLER_CUBE: gpu.UniformSamplerCube,
}

func (c *Context) ActiveUniforms(program uint32) []gpu.UniformInfo {
	var count, maxLen int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)

	uniforms := make([]gpu.UniformInfo, 0, count)
	buf := make([]byte, maxLen+1)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var typ uint32
		gl.GetActiveUniform(program, uint32(i), maxLen, &length, &size, &typ, &buf[0])
		name := string(buf[:length])
		// arrays are reported as name[0]
		name = strings.TrimSuffix(name, "[0]")
		loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
		if loc < 0 {
			continue
		}
		uniforms = append(uniforms, gpu.UniformInfo{
			Name:     name,
			Type:     glUniformTypes[typ],
			Location: loc,
			Size:     size,
		})
	}
	return uniforms
}

func (c *Context) UseProgram(program uint32)    { gl.UseProgram(program) }
func (c *Context) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (c *Context) UniformFloats(location int32, typ gpu.UniformType, values []float32) {
	if len(values) == 0 {
		return
	}
	n := int32(len(values) / typ.Components())
	if n < 1 {
		n = 1
	}
	switch typ.Components() {
	case 2:
		gl.Uniform2fv(location, n, &values[0])
	case 3:
		gl.Uniform3fv(location, n, &values[0])
	case 4:
		gl.Uniform4fv(location, n, &values[0])
	default:
		gl.Uniform1fv(location, int32(len(values)), &values[0])
	}
}

func (c *Context) UniformInts(location int32, typ gpu.UniformType, values []int32) {
	if len(values) == 0 {
		return
	}
	n := int32(len(values) / typ.Components())
	if n < 1 {
		n = 1
	}
	switch typ.Components() {
	case 2:
		gl.Uniform2iv(location, n, &values[0])
	case 3:
		gl.Uniform3iv(location, n, &values[0])
	case 4:
		gl.Uniform4iv(location, n, &values[0])
	default:
		gl.Uniform1iv(location, int32(len(values)), &values[0])
	}
}

func (c *Context) UniformMatrix(location int32, typ gpu.UniformType, values []float32) {
	if len(values) < typ.Components() {
		return
	}
	n := int32(len(values) / typ.Components())
	switch typ {
	case gpu.UniformMat2:
		gl.UniformMatrix2fv(location, n, false, &values[0])
	case gpu.UniformMat3:
		gl.UniformMatrix3fv(location, n, false, &values[0])
	default:
		gl.UniformMatrix4fv(location, n, false, &values[0])
	}
}

func (c *Context) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (c *Context) BindVertexArray(vao uint32)   { gl.BindVertexArray(vao) }
func (c *Context) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (c *Context) CreateBuffer() uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return buf
}

func (c *Context) BufferData(buf uint32, slot uint32, components int32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
	}
	gl.VertexAttribPointer(slot, components, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(slot)
}

func (c *Context) DeleteBuffer(buf uint32) { gl.DeleteBuffers(1, &buf) }

var glModes = map[gpu.DrawMode]uint32{
	gpu.Triangles:     gl.TRIANGLES,
	gpu.Lines:         gl.LINES,
	gpu.Points:        gl.POINTS,
	gpu.TriangleStrip: gl.TRIANGLE_STRIP,
}

func (c *Context) DrawArrays(mode gpu.DrawMode, first, count int32) {
	gl.DrawArrays(glModes[mode], first, count)
}

func (c *Context) CreateTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	return tex
}

func (c *Context) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }
func (c *Context) BindTexture(tex uint32) { gl.BindTexture(gl.TEXTURE_2D, tex) }

func (c *Context) TexImage2D(width, height int, format gpu.TextureFormat, pixels []byte) {
	var ptr = gl.Ptr(nil)
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	if format == gpu.FormatDepth24 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, int32(width), int32(height), 0, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, ptr)
		return
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
}

func (c *Context) TexParameters(filter gpu.Filter, wrap gpu.Wrap) {
	f := int32(gl.LINEAR)
	if filter == gpu.FilterNearest {
		f = gl.NEAREST
	}
	w := int32(gl.CLAMP_TO_EDGE)
	switch wrap {
	case gpu.WrapRepeat:
		w = gl.REPEAT
	case gpu.WrapMirror:
		w = gl.MIRRORED_REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, f)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, f)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, w)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, w)
}

func (c *Context) DeleteTexture(tex uint32) { gl.DeleteTextures(1, &tex) }

func (c *Context) CreateFramebuffer() uint32 {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return fb
}

func (c *Context) BindFramebuffer(fb uint32) { gl.BindFramebuffer(gl.FRAMEBUFFER, fb) }

func (c *Context) FramebufferTexture(attachment gpu.Attachment, tex uint32) {
	point := uint32(gl.COLOR_ATTACHMENT0)
	if attachment == gpu.DepthAttachment {
		point = gl.DEPTH_ATTACHMENT
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, point, gl.TEXTURE_2D, tex, 0)
}

func (c *Context) CheckFramebuffer() error {
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: status 0x%x", status)
	}
	return nil
}

func (c *Context) DeleteFramebuffer(fb uint32) { gl.DeleteFramebuffers(1, &fb) }

func (c *Context) BlitFramebuffer(src, dst uint32, width, height int) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	gl.BlitFramebuffer(0, 0, int32(width), int32(height), 0, 0, int32(width), int32(height), gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, dst)
}

func (c *Context) Viewport(width, height int) { gl.Viewport(0, 0, int32(width), int32(height)) }

func (c *Context) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (c *Context) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

func (c *Context) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthMask(true)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (c *Context) ReadPixels(width, height int) []byte {
	px := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(px))
	return px
}

var _ gpu.Context = (*Context)(nil)
