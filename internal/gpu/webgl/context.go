//go:build js && wasm

// Package webgl implements gpu.Context on a browser WebGL2 rendering context.
package webgl

import (
	"errors"
	"fmt"
	"strings"
	"syscall/js"

	"Sketch3D/internal/gpu"
)

type Context struct {
	gl       js.Value
	objects  map[uint32]js.Value
	uniforms map[uint32]map[int32]js.Value
	next     uint32
	current  uint32
	maxUnits int
	c        consts
}

type consts struct {
	vertexShader, fragmentShader  int
	compileStatus, linkStatus     int
	activeUniforms                int
	arrayBuffer, staticDraw       int
	float, unsignedByte, uint     int
	texture2D, texture0           int
	rgba, rgba8                   int
	depthComponent, depth24       int
	minFilter, magFilter          int
	wrapS, wrapT                  int
	linear, nearest               int
	clampToEdge, repeat, mirrored int
	framebuffer, readFB, drawFB   int
	color0, depthAttachment       int
	complete                      int
	colorBit, depthBit            int
	depthTest                     int
	maxCombinedUnits              int
	triangles, lines, points      int
	triangleStrip                 int
}

// New wraps the WebGL2 context of canvas.
func New(canvas js.Value) (*Context, error) {
	gl := canvas.Call("getContext", "webgl2", map[string]any{"preserveDrawingBuffer": true})
	if gl.IsNull() || gl.IsUndefined() {
		return nil, errors.New("webgl2 is not available")
	}
	c := &Context{
		gl:       gl,
		objects:  map[uint32]js.Value{},
		uniforms: map[uint32]map[int32]js.Value{},
	}
	get := func(name string) int { return gl.Get(name).Int() }
	c.c = consts{
		vertexShader: get("VERTEX_SHADER"), fragmentShader: get("FRAGMENT_SHADER"),
		compileStatus: get("COMPILE_STATUS"), linkStatus: get("LINK_STATUS"),
		activeUniforms: get("ACTIVE_UNIFORMS"),
		arrayBuffer:    get("ARRAY_BUFFER"), staticDraw: get("STATIC_DRAW"),
		float: get("FLOAT"), unsignedByte: get("UNSIGNED_BYTE"), uint: get("UNSIGNED_INT"),
		texture2D: get("TEXTURE_2D"), texture0: get("TEXTURE0"),
		rgba: get("RGBA"), rgba8: get("RGBA8"),
		depthComponent: get("DEPTH_COMPONENT"), depth24: get("DEPTH_COMPONENT24"),
		minFilter: get("TEXTURE_MIN_FILTER"), magFilter: get("TEXTURE_MAG_FILTER"),
		wrapS: get("TEXTURE_WRAP_S"), wrapT: get("TEXTURE_WRAP_T"),
		linear: get("LINEAR"), nearest: get("NEAREST"),
		clampToEdge: get("CLAMP_TO_EDGE"), repeat: get("REPEAT"), mirrored: get("MIRRORED_REPEAT"),
		framebuffer: get("FRAMEBUFFER"), readFB: get("READ_FRAMEBUFFER"), drawFB: get("DRAW_FRAMEBUFFER"),
		color0: get("COLOR_ATTACHMENT0"), depthAttachment: get("DEPTH_ATTACHMENT"),
		complete: get("FRAMEBUFFER_COMPLETE"),
		colorBit: get("COLOR_BUFFER_BIT"), depthBit: get("DEPTH_BUFFER_BIT"),
		depthTest:        get("DEPTH_TEST"),
		maxCombinedUnits: get("MAX_COMBINED_TEXTURE_IMAGE_UNITS"),
		triangles:        get("TRIANGLES"), lines: get("LINES"), points: get("POINTS"),
		triangleStrip: get("TRIANGLE_STRIP"),
	}
	c.maxUnits = gl.Call("getParameter", c.c.maxCombinedUnits).Int()
	gl.Call("enable", c.c.depthTest)
	gl.Call("depthFunc", gl.Get("LEQUAL"))
	gl.Call("enable", gl.Get("BLEND"))
	gl.Call("blendFunc", gl.Get("SRC_ALPHA"), gl.Get("ONE_MINUS_SRC_ALPHA"))
	return c, nil
}

func (c *Context) put(v js.Value) uint32 {
	c.next++
	c.objects[c.next] = v
	return c.next
}

func (c *Context) obj(h uint32) js.Value {
	if h == 0 {
		return js.Null()
	}
	if v, ok := c.objects[h]; ok {
		return v
	}
	return js.Null()
}

func (c *Context) drop(h uint32) js.Value {
	v := c.obj(h)
	delete(c.objects, h)
	return v
}

func (c *Context) ShaderHeader() string {
	return "#version 300 es\nprecision highp float;\nprecision highp int;\n"
}

func (c *Context) MaxCombinedTextureUnits() int { return c.maxUnits }

func (c *Context) CompileShader(stage gpu.ShaderStage, source string) (uint32, error) {
	typ := c.c.vertexShader
	if stage == gpu.FragmentShader {
		typ = c.c.fragmentShader
	}
	sh := c.gl.Call("createShader", typ)
	c.gl.Call("shaderSource", sh, source)
	c.gl.Call("compileShader", sh)
	if !c.gl.Call("getShaderParameter", sh, c.c.compileStatus).Bool() {
		log := c.gl.Call("getShaderInfoLog", sh).String()
		c.gl.Call("deleteShader", sh)
		return 0, &gpu.CompileError{Stage: stage.String() + " shader", Log: log}
	}
	return c.put(sh), nil
}

func (c *Context) DeleteShader(shader uint32) { c.gl.Call("deleteShader", c.drop(shader)) }

func (c *Context) LinkProgram(vertex, fragment uint32, attribs []gpu.AttribBinding) (uint32, error) {
	vs, fs := c.drop(vertex), c.drop(fragment)
	p := c.gl.Call("createProgram")
	c.gl.Call("attachShader", p, vs)
	c.gl.Call("attachShader", p, fs)
	for _, a := range attribs {
		c.gl.Call("bindAttribLocation", p, a.Slot, a.Name)
	}
	c.gl.Call("linkProgram", p)
	c.gl.Call("deleteShader", vs)
	c.gl.Call("deleteShader", fs)
	if !c.gl.Call("getProgramParameter", p, c.c.linkStatus).Bool() {
		log := c.gl.Call("getProgramInfoLog", p).String()
		c.gl.Call("deleteProgram", p)
		return 0, &gpu.CompileError{Stage: "link", Log: log}
	}
	return c.put(p), nil
}

func (c *Context) uniformType(glType int) gpu.UniformType {
	names := map[string]gpu.UniformType{
		"FLOAT": gpu.UniformFloat, "FLOAT_VEC2": gpu.UniformVec2, "FLOAT_VEC3": gpu.UniformVec3,
		"FLOAT_VEC4": gpu.UniformVec4, "INT": gpu.UniformInt, "INT_VEC2": gpu.UniformIVec2,
		"INT_VEC3": gpu.UniformIVec3, "INT_VEC4": gpu.UniformIVec4, "BOOL": gpu.UniformBool,
		"FLOAT_MAT2": gpu.UniformMat2, "FLOAT_MAT3": gpu.UniformMat3, "FLOAT_MAT4": gpu.UniformMat4,
		"SAMPLER_2D": gpu.UniformSampler2D, "SAMPLER_CUBE": gpu.UniformSamplerCube,
	}
	for name, t := range names {
		if c.gl.Get(name).Int() == glType {
			return t
		}
	}
	return gpu.UniformUnknown
}

// ActiveUniforms assigns each uniform a small integer location and keeps the
// WebGLUniformLocation object on the side, since WebGL locations are opaque.
func (c *Context) ActiveUniforms(program uint32) []gpu.UniformInfo {
	p := c.obj(program)
	count := c.gl.Call("getProgramParameter", p, c.c.activeUniforms).Int()
	locs := map[int32]js.Value{}
	out := make([]gpu.UniformInfo, 0, count)
	for i := 0; i < count; i++ {
		info := c.gl.Call("getActiveUniform", p, i)
		name := strings.TrimSuffix(info.Get("name").String(), "[0]")
		loc := c.gl.Call("getUniformLocation", p, name)
		if loc.IsNull() {
			continue
		}
		id := int32(len(locs))
		locs[id] = loc
		out = append(out, gpu.UniformInfo{
			Name:     name,
			Type:     c.uniformType(info.Get("type").Int()),
			Location: id,
			Size:     int32(info.Get("size").Int()),
		})
	}
	c.uniforms[program] = locs
	return out
}

func (c *Context) UseProgram(program uint32) {
	c.current = program
	c.gl.Call("useProgram", c.obj(program))
}

func (c *Context) DeleteProgram(program uint32) {
	delete(c.uniforms, program)
	c.gl.Call("deleteProgram", c.drop(program))
}

func (c *Context) location(loc int32) js.Value {
	if l, ok := c.uniforms[c.current][loc]; ok {
		return l
	}
	return js.Null()
}

func float32Array(values []float32) js.Value {
	arr := js.Global().Get("Float32Array").New(len(values))
	for i, v := range values {
		arr.SetIndex(i, v)
	}
	return arr
}

func (c *Context) UniformFloats(location int32, typ gpu.UniformType, values []float32) {
	fn := map[int]string{1: "uniform1fv", 2: "uniform2fv", 3: "uniform3fv", 4: "uniform4fv"}[typ.Components()]
	if fn == "" {
		fn = "uniform1fv"
	}
	c.gl.Call(fn, c.location(location), float32Array(values))
}

func (c *Context) UniformInts(location int32, typ gpu.UniformType, values []int32) {
	fn := map[int]string{1: "uniform1iv", 2: "uniform2iv", 3: "uniform3iv", 4: "uniform4iv"}[typ.Components()]
	if fn == "" {
		fn = "uniform1iv"
	}
	arr := js.Global().Get("Int32Array").New(len(values))
	for i, v := range values {
		arr.SetIndex(i, v)
	}
	c.gl.Call(fn, c.location(location), arr)
}

func (c *Context) UniformMatrix(location int32, typ gpu.UniformType, values []float32) {
	fn := "uniformMatrix4fv"
	switch typ {
	case gpu.UniformMat2:
		fn = "uniformMatrix2fv"
	case gpu.UniformMat3:
		fn = "uniformMatrix3fv"
	}
	c.gl.Call(fn, c.location(location), false, float32Array(values))
}

func (c *Context) CreateVertexArray() uint32   { return c.put(c.gl.Call("createVertexArray")) }
func (c *Context) BindVertexArray(vao uint32)   { c.gl.Call("bindVertexArray", c.obj(vao)) }
func (c *Context) DeleteVertexArray(vao uint32) { c.gl.Call("deleteVertexArray", c.drop(vao)) }
func (c *Context) CreateBuffer() uint32         { return c.put(c.gl.Call("createBuffer")) }
func (c *Context) DeleteBuffer(buf uint32)      { c.gl.Call("deleteBuffer", c.drop(buf)) }

func (c *Context) BufferData(buf uint32, slot uint32, components int32, data []float32) {
	c.gl.Call("bindBuffer", c.c.arrayBuffer, c.obj(buf))
	c.gl.Call("bufferData", c.c.arrayBuffer, float32Array(data), c.c.staticDraw)
	c.gl.Call("vertexAttribPointer", slot, components, c.c.float, false, 0, 0)
	c.gl.Call("enableVertexAttribArray", slot)
}

func (c *Context) DrawArrays(mode gpu.DrawMode, first, count int32) {
	m := c.c.triangles
	switch mode {
	case gpu.Lines:
		m = c.c.lines
	case gpu.Points:
		m = c.c.points
	case gpu.TriangleStrip:
		m = c.c.triangleStrip
	}
	c.gl.Call("drawArrays", m, first, count)
}

func (c *Context) CreateTexture() uint32  { return c.put(c.gl.Call("createTexture")) }
func (c *Context) ActiveTexture(unit int) { c.gl.Call("activeTexture", c.c.texture0+unit) }
func (c *Context) BindTexture(tex uint32) { c.gl.Call("bindTexture", c.c.texture2D, c.obj(tex)) }
func (c *Context) DeleteTexture(tex uint32) {
	c.gl.Call("deleteTexture", c.drop(tex))
}

func (c *Context) TexImage2D(width, height int, format gpu.TextureFormat, pixels []byte) {
	if format == gpu.FormatDepth24 {
		c.gl.Call("texImage2D", c.c.texture2D, 0, c.c.depth24, width, height, 0, c.c.depthComponent, c.c.uint, js.Null())
		return
	}
	data := js.Null()
	if len(pixels) > 0 {
		data = js.Global().Get("Uint8Array").New(len(pixels))
		js.CopyBytesToJS(data, pixels)
	}
	c.gl.Call("texImage2D", c.c.texture2D, 0, c.c.rgba8, width, height, 0, c.c.rgba, c.c.unsignedByte, data)
}

func (c *Context) TexParameters(filter gpu.Filter, wrap gpu.Wrap) {
	f := c.c.linear
	if filter == gpu.FilterNearest {
		f = c.c.nearest
	}
	w := c.c.clampToEdge
	switch wrap {
	case gpu.WrapRepeat:
		w = c.c.repeat
	case gpu.WrapMirror:
		w = c.c.mirrored
	}
	c.gl.Call("texParameteri", c.c.texture2D, c.c.minFilter, f)
	c.gl.Call("texParameteri", c.c.texture2D, c.c.magFilter, f)
	c.gl.Call("texParameteri", c.c.texture2D, c.c.wrapS, w)
	c.gl.Call("texParameteri", c.c.texture2D, c.c.wrapT, w)
}

func (c *Context) CreateFramebuffer() uint32 { return c.put(c.gl.Call("createFramebuffer")) }
func (c *Context) BindFramebuffer(fb uint32) {
	c.gl.Call("bindFramebuffer", c.c.framebuffer, c.obj(fb))
}
func (c *Context) DeleteFramebuffer(fb uint32) { c.gl.Call("deleteFramebuffer", c.drop(fb)) }

func (c *Context) FramebufferTexture(attachment gpu.Attachment, tex uint32) {
	point := c.c.color0
	if attachment == gpu.DepthAttachment {
		point = c.c.depthAttachment
	}
	c.gl.Call("framebufferTexture2D", c.c.framebuffer, point, c.c.texture2D, c.obj(tex), 0)
}

func (c *Context) CheckFramebuffer() error {
	if status := c.gl.Call("checkFramebufferStatus", c.c.framebuffer).Int(); status != c.c.complete {
		return fmt.Errorf("framebuffer incomplete: status 0x%x", status)
	}
	return nil
}

func (c *Context) BlitFramebuffer(src, dst uint32, width, height int) {
	c.gl.Call("bindFramebuffer", c.c.readFB, c.obj(src))
	c.gl.Call("bindFramebuffer", c.c.drawFB, c.obj(dst))
	c.gl.Call("blitFramebuffer", 0, 0, width, height, 0, 0, width, height, c.c.colorBit, c.c.nearest)
	c.gl.Call("bindFramebuffer", c.c.framebuffer, c.obj(dst))
}

func (c *Context) Viewport(width, height int)    { c.gl.Call("viewport", 0, 0, width, height) }
func (c *Context) ClearColor(r, g, b, a float32) { c.gl.Call("clearColor", r, g, b, a) }

func (c *Context) Clear(color, depth bool) {
	mask := 0
	if color {
		mask |= c.c.colorBit
	}
	if depth {
		mask |= c.c.depthBit
	}
	c.gl.Call("clear", mask)
}

func (c *Context) SetDepthTest(enabled bool) {
	if enabled {
		c.gl.Call("enable", c.c.depthTest)
	} else {
		c.gl.Call("disable", c.c.depthTest)
	}
}

func (c *Context) ReadPixels(width, height int) []byte {
	arr := js.Global().Get("Uint8Array").New(width * height * 4)
	c.gl.Call("readPixels", 0, 0, width, height, c.c.rgba, c.c.unsignedByte, arr)
	px := make([]byte, width*height*4)
	js.CopyBytesToGo(px, arr)
	return px
}

var _ gpu.Context = (*Context)(nil)
