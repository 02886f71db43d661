// Package gputest provides an in-memory gpu.Context that records every call.
//
// Shader "compilation" fails when the source contains an #error directive, and
// linking fails when either stage contains the token LINK_FAIL. Uniform reflection
// parses the plain `uniform <type> <name>;` declarations of both stages, so a
// program reports exactly the uniforms its sources declare.
package gputest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"Sketch3D/internal/gpu"
)

var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)

// Draw is one recorded DrawArrays call with the state it was issued under.
type Draw struct {
	Program     uint32
	VAO         uint32
	Framebuffer uint32
	Mode        gpu.DrawMode
	First       int32
	Count       int32
}

// Blit is one recorded BlitFramebuffer call.
type Blit struct {
	Src, Dst      uint32
	Width, Height int
}

type shader struct {
	stage  gpu.ShaderStage
	source string
}

type program struct {
	uniforms []gpu.UniformInfo
	attribs  []gpu.AttribBinding
	values   map[int32][]float32
}

type texture struct {
	width, height int
	format        gpu.TextureFormat
	filter        gpu.Filter
	wrap          gpu.Wrap
}

type framebuffer struct {
	color, depth uint32
}

// Recorder implements gpu.Context without a GPU.
type Recorder struct {
	Header   string
	MaxUnits int

	// FailFramebuffer makes CheckFramebuffer report an incomplete framebuffer.
	FailFramebuffer bool

	next uint32

	shaders      map[uint32]*shader
	programs     map[uint32]*program
	vaos         map[uint32]map[uint32]uint32 // vao -> slot -> buffer
	buffers      map[uint32][]float32
	textures     map[uint32]*texture
	framebuffers map[uint32]*framebuffer

	CurrentProgram     uint32
	CurrentVAO         uint32
	CurrentFramebuffer uint32
	ActiveUnit         int
	UnitBindings       map[int]uint32
	DepthTest          bool
	LastClearColor     [4]float32
	ViewportSize       [2]int

	Calls  []string
	Draws  []Draw
	Blits  []Blit
	Clears int

	Created map[string]int
	Deleted map[string]int
}

// New returns a recorder with a GLSL 330 header and 16 texture units.
func New() *Recorder {
	return &Recorder{
		Header:       "#version 330 core\n",
		MaxUnits:     16,
		shaders:      map[uint32]*shader{},
		programs:     map[uint32]*program{},
		vaos:         map[uint32]map[uint32]uint32{},
		buffers:      map[uint32][]float32{},
		textures:     map[uint32]*texture{},
		framebuffers: map[uint32]*framebuffer{},
		UnitBindings: map[int]uint32{},
		Created:      map[string]int{},
		Deleted:      map[string]int{},
	}
}

func (r *Recorder) alloc(kind string) uint32 {
	r.next++
	r.Created[kind]++
	return r.next
}

func (r *Recorder) record(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

// Live returns how many objects of kind ("program", "vao", "buffer", "texture",
// "framebuffer") currently exist.
func (r *Recorder) Live(kind string) int {
	switch kind {
	case "program":
		return len(r.programs)
	case "vao":
		return len(r.vaos)
	case "buffer":
		return len(r.buffers)
	case "texture":
		return len(r.textures)
	case "framebuffer":
		return len(r.framebuffers)
	case "shader":
		return len(r.shaders)
	}
	return 0
}

// UniformValue returns the last value uploaded to location of program.
func (r *Recorder) UniformValue(prog uint32, location int32) ([]float32, bool) {
	p, ok := r.programs[prog]
	if !ok {
		return nil, false
	}
	v, ok := p.values[location]
	return v, ok
}

// UniformByName returns the last value uploaded to the named uniform of program.
func (r *Recorder) UniformByName(prog uint32, name string) ([]float32, bool) {
	p, ok := r.programs[prog]
	if !ok {
		return nil, false
	}
	for _, u := range p.uniforms {
		if u.Name == name {
			v, ok := p.values[u.Location]
			return v, ok
		}
	}
	return nil, false
}

// Attribs returns the attribute bindings program was linked with.
func (r *Recorder) Attribs(prog uint32) []gpu.AttribBinding {
	if p, ok := r.programs[prog]; ok {
		return p.attribs
	}
	return nil
}

// VertexArraySlots returns the buffer bound to each slot of vao.
func (r *Recorder) VertexArraySlots(vao uint32) map[uint32]uint32 {
	return r.vaos[vao]
}

// BufferContents returns the data last uploaded to buf.
func (r *Recorder) BufferContents(buf uint32) []float32 {
	return r.buffers[buf]
}

// TextureSize returns the dimensions last specified for tex.
func (r *Recorder) TextureSize(tex uint32) (int, int, bool) {
	t, ok := r.textures[tex]
	if !ok {
		return 0, 0, false
	}
	return t.width, t.height, true
}

// FramebufferAttachments returns the color and depth textures attached to fb.
func (r *Recorder) FramebufferAttachments(fb uint32) (color, depth uint32) {
	if f, ok := r.framebuffers[fb]; ok {
		return f.color, f.depth
	}
	return 0, 0
}

func (r *Recorder) ShaderHeader() string        { return r.Header }
func (r *Recorder) MaxCombinedTextureUnits() int { return r.MaxUnits }

func (r *Recorder) CompileShader(stage gpu.ShaderStage, source string) (uint32, error) {
	r.record("CompileShader %s", stage)
	if strings.Contains(source, "#error") {
		return 0, &gpu.CompileError{Stage: stage.String() + " shader", Log: "ERROR: 0:1: '#error' : user error"}
	}
	h := r.alloc("shader")
	r.shaders[h] = &shader{stage: stage, source: source}
	return h, nil
}

func (r *Recorder) DeleteShader(sh uint32) {
	if _, ok := r.shaders[sh]; ok {
		delete(r.shaders, sh)
		r.Deleted["shader"]++
	}
}

func (r *Recorder) LinkProgram(vertex, fragment uint32, attribs []gpu.AttribBinding) (uint32, error) {
	r.record("LinkProgram %d %d", vertex, fragment)
	vs, vok := r.shaders[vertex]
	fs, fok := r.shaders[fragment]
	delete(r.shaders, vertex)
	delete(r.shaders, fragment)
	r.Deleted["shader"] += 2
	if !vok || !fok {
		return 0, &gpu.CompileError{Stage: "link", Log: "missing shader object"}
	}
	if strings.Contains(vs.source, "LINK_FAIL") || strings.Contains(fs.source, "LINK_FAIL") {
		return 0, &gpu.CompileError{Stage: "link", Log: "ERROR: Linking failed"}
	}

	seen := map[string]bool{}
	var uniforms []gpu.UniformInfo
	for _, src := range []string{vs.source, fs.source} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			name := m[2]
			if seen[name] {
				continue
			}
			seen[name] = true
			size := int32(1)
			if m[3] != "" {
				n, _ := strconv.Atoi(m[3])
				size = int32(n)
			}
			uniforms = append(uniforms, gpu.UniformInfo{Name: name, Type: gpu.ParseUniformType(m[1]), Size: size})
		}
	}
	sort.Slice(uniforms, func(i, j int) bool { return uniforms[i].Name < uniforms[j].Name })
	for i := range uniforms {
		uniforms[i].Location = int32(i)
	}

	h := r.alloc("program")
	r.programs[h] = &program{
		uniforms: uniforms,
		attribs:  append([]gpu.AttribBinding(nil), attribs...),
		values:   map[int32][]float32{},
	}
	return h, nil
}

func (r *Recorder) ActiveUniforms(prog uint32) []gpu.UniformInfo {
	if p, ok := r.programs[prog]; ok {
		return append([]gpu.UniformInfo(nil), p.uniforms...)
	}
	return nil
}

func (r *Recorder) UseProgram(prog uint32) {
	r.record("UseProgram %d", prog)
	r.CurrentProgram = prog
}

func (r *Recorder) DeleteProgram(prog uint32) {
	r.record("DeleteProgram %d", prog)
	if _, ok := r.programs[prog]; ok {
		delete(r.programs, prog)
		r.Deleted["program"]++
	}
	if r.CurrentProgram == prog {
		r.CurrentProgram = 0
	}
}

func (r *Recorder) setUniform(location int32, values []float32) {
	p, ok := r.programs[r.CurrentProgram]
	if !ok || location < 0 {
		return
	}
	p.values[location] = values
}

func (r *Recorder) UniformFloats(location int32, typ gpu.UniformType, values []float32) {
	r.record("UniformFloats %d %s", location, typ)
	r.setUniform(location, append([]float32(nil), values...))
}

func (r *Recorder) UniformInts(location int32, typ gpu.UniformType, values []int32) {
	r.record("UniformInts %d %s", location, typ)
	f := make([]float32, len(values))
	for i, v := range values {
		f[i] = float32(v)
	}
	r.setUniform(location, f)
}

func (r *Recorder) UniformMatrix(location int32, typ gpu.UniformType, values []float32) {
	r.record("UniformMatrix %d %s", location, typ)
	r.setUniform(location, append([]float32(nil), values...))
}

func (r *Recorder) CreateVertexArray() uint32 {
	h := r.alloc("vao")
	r.vaos[h] = map[uint32]uint32{}
	return h
}

func (r *Recorder) BindVertexArray(vao uint32) {
	r.CurrentVAO = vao
}

func (r *Recorder) DeleteVertexArray(vao uint32) {
	if _, ok := r.vaos[vao]; ok {
		delete(r.vaos, vao)
		r.Deleted["vao"]++
	}
	if r.CurrentVAO == vao {
		r.CurrentVAO = 0
	}
}

func (r *Recorder) CreateBuffer() uint32 {
	h := r.alloc("buffer")
	r.buffers[h] = nil
	return h
}

func (r *Recorder) BufferData(buf uint32, slot uint32, components int32, data []float32) {
	r.record("BufferData %d slot=%d n=%d", buf, slot, components)
	r.buffers[buf] = append([]float32(nil), data...)
	if slots, ok := r.vaos[r.CurrentVAO]; ok {
		slots[slot] = buf
	}
}

func (r *Recorder) DeleteBuffer(buf uint32) {
	if _, ok := r.buffers[buf]; ok {
		delete(r.buffers, buf)
		r.Deleted["buffer"]++
	}
}

func (r *Recorder) DrawArrays(mode gpu.DrawMode, first, count int32) {
	r.record("DrawArrays %s %d %d", mode, first, count)
	r.Draws = append(r.Draws, Draw{
		Program:     r.CurrentProgram,
		VAO:         r.CurrentVAO,
		Framebuffer: r.CurrentFramebuffer,
		Mode:        mode,
		First:       first,
		Count:       count,
	})
}

func (r *Recorder) CreateTexture() uint32 {
	h := r.alloc("texture")
	r.textures[h] = &texture{}
	return h
}

func (r *Recorder) ActiveTexture(unit int) {
	r.ActiveUnit = unit
}

func (r *Recorder) BindTexture(tex uint32) {
	r.UnitBindings[r.ActiveUnit] = tex
}

func (r *Recorder) TexImage2D(width, height int, format gpu.TextureFormat, pixels []byte) {
	r.record("TexImage2D %dx%d", width, height)
	if t, ok := r.textures[r.UnitBindings[r.ActiveUnit]]; ok {
		t.width, t.height, t.format = width, height, format
	}
}

func (r *Recorder) TexParameters(filter gpu.Filter, wrap gpu.Wrap) {
	if t, ok := r.textures[r.UnitBindings[r.ActiveUnit]]; ok {
		t.filter, t.wrap = filter, wrap
	}
}

func (r *Recorder) DeleteTexture(tex uint32) {
	if _, ok := r.textures[tex]; ok {
		delete(r.textures, tex)
		r.Deleted["texture"]++
	}
}

func (r *Recorder) CreateFramebuffer() uint32 {
	h := r.alloc("framebuffer")
	r.framebuffers[h] = &framebuffer{}
	return h
}

func (r *Recorder) BindFramebuffer(fb uint32) {
	r.record("BindFramebuffer %d", fb)
	r.CurrentFramebuffer = fb
}

func (r *Recorder) FramebufferTexture(attachment gpu.Attachment, tex uint32) {
	f, ok := r.framebuffers[r.CurrentFramebuffer]
	if !ok {
		return
	}
	if attachment == gpu.DepthAttachment {
		f.depth = tex
	} else {
		f.color = tex
	}
}

func (r *Recorder) CheckFramebuffer() error {
	if r.FailFramebuffer {
		return fmt.Errorf("framebuffer %d incomplete", r.CurrentFramebuffer)
	}
	return nil
}

func (r *Recorder) DeleteFramebuffer(fb uint32) {
	if _, ok := r.framebuffers[fb]; ok {
		delete(r.framebuffers, fb)
		r.Deleted["framebuffer"]++
	}
	if r.CurrentFramebuffer == fb {
		r.CurrentFramebuffer = 0
	}
}

func (r *Recorder) BlitFramebuffer(src, dst uint32, width, height int) {
	r.record("BlitFramebuffer %d -> %d", src, dst)
	r.Blits = append(r.Blits, Blit{Src: src, Dst: dst, Width: width, Height: height})
}

func (r *Recorder) Viewport(width, height int) {
	r.ViewportSize = [2]int{width, height}
}

func (r *Recorder) ClearColor(red, green, blue, alpha float32) {
	r.LastClearColor = [4]float32{red, green, blue, alpha}
}

func (r *Recorder) Clear(color, depth bool) {
	r.record("Clear fb=%d", r.CurrentFramebuffer)
	r.Clears++
}

func (r *Recorder) SetDepthTest(enabled bool) {
	r.DepthTest = enabled
}

// ReadPixels returns a buffer filled with the last clear color.
func (r *Recorder) ReadPixels(width, height int) []byte {
	px := make([]byte, width*height*4)
	c := r.LastClearColor
	for i := 0; i < len(px); i += 4 {
		px[i] = byte(c[0] * 255)
		px[i+1] = byte(c[1] * 255)
		px[i+2] = byte(c[2] * 255)
		px[i+3] = byte(c[3] * 255)
	}
	return px
}

// ResetCalls clears the call, draw and blit logs but keeps object state.
func (r *Recorder) ResetCalls() {
	r.Calls = nil
	r.Draws = nil
	r.Blits = nil
	r.Clears = 0
}

var _ gpu.Context = (*Recorder)(nil)
