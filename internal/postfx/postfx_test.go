package postfx

import (
	"errors"
	"testing"

	"Sketch3D/internal/gpu/gputest"
	"Sketch3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStack(t *testing.T) (*Stack, *renderer.Renderer, *gputest.Recorder) {
	t.Helper()
	rec := gputest.New()
	log := zaptest.NewLogger(t)
	r := renderer.New(rec, 200, 100, log)
	return New(r, log), r, rec
}

func TestAddEffectAllocatesOnce(t *testing.T) {
	s, r, rec := newStack(t)

	require.NoError(t, s.AddEffect("invert", nil))
	assert.Equal(t, 2, r.Stats().Targets)
	assert.Equal(t, 2, rec.Created["framebuffer"])
	assert.Equal(t, 1, r.Stats().Meshes)
	_, ok := r.Mesh(Quad)
	assert.True(t, ok)

	require.NoError(t, s.AddEffect("grayscale", map[string]any{"uAmount": 0.5}))
	assert.Equal(t, 2, rec.Created["framebuffer"])
	assert.Equal(t, 2, r.Stats().Targets)
	assert.Equal(t, 1, r.Stats().Meshes)
	assert.Equal(t, 2, s.Len())
}

func TestAddEffectReusesProgram(t *testing.T) {
	s, r, rec := newStack(t)
	require.NoError(t, s.AddEffect("blur", map[string]any{"uRadius": 2}))
	require.NoError(t, s.AddEffect("blur", map[string]any{"uRadius": 4}))

	assert.Equal(t, 1, rec.Created["program"])
	assert.Equal(t, 1, r.Stats().Programs)
	effects := s.Effects()
	require.Len(t, effects, 2)
	assert.Equal(t, 4, effects[1].Uniforms["uRadius"])
}

func TestAddUnknownEffect(t *testing.T) {
	s, r, _ := newStack(t)
	err := s.AddEffect("sparkles", nil)
	assert.True(t, errors.Is(err, ErrUnknownEffect))
	assert.Equal(t, 0, r.Stats().Targets)
	assert.Equal(t, 0, s.Len())
}

func TestBeginTargetsBufferA(t *testing.T) {
	s, r, rec := newStack(t)
	require.NoError(t, s.Begin())
	assert.Equal(t, uint32(0), rec.CurrentFramebuffer, "no effects: draw to the canvas")

	require.NoError(t, s.AddEffect("invert", nil))
	require.NoError(t, s.Begin())
	a, _ := r.RenderTarget(BufferA)
	assert.Equal(t, a.FBO, rec.CurrentFramebuffer)
}

func TestApplyPingPong(t *testing.T) {
	s, r, rec := newStack(t)
	require.NoError(t, s.AddEffect("invert", nil))
	require.NoError(t, s.AddEffect("grayscale", nil))
	require.NoError(t, s.AddEffect("vignette", map[string]any{"uStrength": float32(0.9)}))
	a, _ := r.RenderTarget(BufferA)
	b, _ := r.RenderTarget(BufferB)

	require.NoError(t, s.Begin())
	rec.ResetCalls()
	require.NoError(t, s.Apply())

	require.Len(t, rec.Draws, 3)
	assert.Equal(t, b.FBO, rec.Draws[0].Framebuffer)
	assert.Equal(t, a.FBO, rec.Draws[1].Framebuffer)
	assert.Equal(t, uint32(0), rec.Draws[2].Framebuffer, "last pass writes the canvas")
	assert.Equal(t, 3, rec.Clears)
	assert.Empty(t, rec.Blits)

	invert, _ := r.Program("invert")
	v, ok := rec.UniformByName(invert.Handle, "uMainTex")
	require.True(t, ok)
	assert.Equal(t, []float32{float32(a.Color.Unit)}, v)

	gray, _ := r.Program("grayscale")
	v, _ = rec.UniformByName(gray.Handle, "uMainTex")
	assert.Equal(t, []float32{float32(b.Color.Unit)}, v)

	vig, _ := r.Program("vignette")
	v, _ = rec.UniformByName(vig.Handle, "uStrength")
	assert.Equal(t, []float32{0.9}, v)
	ident := mgl32.Ident4()
	v, _ = rec.UniformByName(vig.Handle, "uView")
	assert.Equal(t, ident[:], v)
}

func TestApplyWithoutEffects(t *testing.T) {
	s, _, rec := newStack(t)
	rec.ResetCalls()
	require.NoError(t, s.Apply())
	assert.Empty(t, rec.Draws)
}

func TestRecycleBlitsCanvasIntoDefault(t *testing.T) {
	s, r, rec := newStack(t)
	s.Recycle = true
	require.NoError(t, s.AddEffect("feedback", nil))
	a, _ := r.RenderTarget(BufferA)

	require.NoError(t, s.Apply())
	require.Len(t, rec.Blits, 1)
	assert.Equal(t, gputest.Blit{Src: 0, Dst: a.FBO, Width: 200, Height: 100}, rec.Blits[0])
}

func TestClearRestoresCanvas(t *testing.T) {
	s, _, rec := newStack(t)
	require.NoError(t, s.AddEffect("invert", nil))
	s.Clear()
	assert.Equal(t, 0, s.Len())
	require.NoError(t, s.Begin())
	assert.Equal(t, uint32(0), rec.CurrentFramebuffer)
}
