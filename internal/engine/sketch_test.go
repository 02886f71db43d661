package engine

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Sketch3D/internal/behaviour"
	"Sketch3D/internal/config"
	"Sketch3D/internal/gpu"
	"Sketch3D/internal/gpu/gputest"
	"Sketch3D/internal/postfx"
	"Sketch3D/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSurface struct {
	rec    *gputest.Recorder
	width  int
	height int
	frames []float64
	closed bool
}

func (f *fakeSurface) Context() gpu.Context { return f.rec }
func (f *fakeSurface) Size() (int, int)     { return f.width, f.height }
func (f *fakeSurface) Close()               { f.closed = true }

func (f *fakeSurface) Run(frame func(now float64) bool) {
	for _, now := range f.frames {
		if !frame(now) {
			return
		}
	}
}

func newSketch(t *testing.T, cfg config.Config) (*Sketch, *fakeSurface) {
	t.Helper()
	surf := &fakeSurface{rec: gputest.New(), width: 320, height: 240}
	s, err := New(surf, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	return s, surf
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Width = 0
	_, err := New(&fakeSurface{rec: gputest.New()}, cfg, zaptest.NewLogger(t))
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestNewCreatesScenePasses(t *testing.T) {
	s, _ := newSketch(t, config.Default())
	for _, name := range Passes {
		_, ok := s.Renderer.Program(name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, DefaultProgram, s.Renderer.ActiveProgram())
	assert.Equal(t, 0, s.Post.Len())
}

func TestTickOrder(t *testing.T) {
	s, _ := newSketch(t, config.Default())

	var events []string
	var deltas []float64
	s.Setup = func(*Sketch) { events = append(events, "setup") }
	s.Draw = func(s *Sketch, dt float64) {
		_, ok := s.Renderer.Global("uView")
		assert.True(t, ok, "camera uniforms are published before draw")
		events = append(events, "draw")
		deltas = append(deltas, dt)
	}

	s.Tick(1000)
	s.Tick(1000 + frameMs)
	s.Tick(1000 + 3*frameMs)

	assert.Equal(t, []string{"setup", "draw", "draw", "draw"}, events)
	require.Len(t, deltas, 3)
	assert.InDelta(t, 0, deltas[0], 1e-9)
	assert.InDelta(t, 1, deltas[1], 1e-9)
	assert.InDelta(t, 2, deltas[2], 1e-9)
	assert.Equal(t, 3, s.FrameCount())
}

type stepper struct{ behaviour.Base }

func (stepper) Update(n *scene.Node, dt float64) { n.Move(1, 0, 0) }

func TestBehavioursRunBeforeSceneUpdate(t *testing.T) {
	s, _ := newSketch(t, config.Default())
	n := s.Scene.Add(scene.NewNode("walker"))
	s.Behaviours.Attach(n, stepper{})
	_, err := s.Attach(n, "rotate")
	require.NoError(t, err)

	var seen []float32
	s.Draw = func(s *Sketch, dt float64) { seen = append(seen, n.WorldPosition().X()) }
	s.Tick(0)
	s.Tick(frameMs)
	assert.Equal(t, []float32{1, 2}, seen)
	assert.Len(t, s.Behaviours.Components(n), 2)

	_, err = s.Attach(n, "missing")
	assert.Error(t, err)
}

func TestPreDrawPublishesCamera(t *testing.T) {
	s, surf := newSketch(t, config.Default())
	s.Tick(0)

	cam := s.Scene.Camera
	assert.InDelta(t, 320.0/240.0, cam.Aspect, 1e-6)
	view, _ := s.Renderer.Global("uView")
	assert.Equal(t, mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}), view)
	eye, _ := s.Renderer.Global("uEye")
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, eye)

	prog, _ := s.Renderer.Program(DefaultProgram)
	got, ok := surf.rec.UniformByName(prog.Handle, "uProjection")
	require.True(t, ok)
	want := cam.Projection()
	assert.Equal(t, want[:], got)
}

func TestDefaultDrawDrawsSceneToCanvas(t *testing.T) {
	s, surf := newSketch(t, config.Default())
	node, err := s.AddMesh(s.Shapes.Cube(1))
	require.NoError(t, err)
	s.Scene.Add(scene.NewNode("hidden")).SetGeometry(node.Geometry).SetVisible(false)

	s.Tick(0)

	prog, _ := s.Renderer.Program(DefaultProgram)
	require.Len(t, surf.rec.Draws, 1)
	d := surf.rec.Draws[0]
	assert.Equal(t, prog.Handle, d.Program)
	assert.Equal(t, uint32(0), d.Framebuffer)
	assert.Equal(t, int32(36), d.Count)
}

func TestEffectsDrawSceneOffscreen(t *testing.T) {
	cfg := config.Default()
	cfg.Effects = []config.EffectConfig{
		{Name: "grayscale", Uniforms: map[string]any{"uAmount": 0.5}},
		{Name: "no-such-effect"},
	}
	s, surf := newSketch(t, cfg)
	require.Equal(t, 1, s.Post.Len(), "unknown effects are skipped")

	_, err := s.AddMesh(s.Shapes.Cube(1))
	require.NoError(t, err)
	s.Tick(0)

	bufA, ok := s.Renderer.RenderTarget(postfx.BufferA)
	require.True(t, ok)
	require.Len(t, surf.rec.Draws, 2)
	assert.Equal(t, bufA.FBO, surf.rec.Draws[0].Framebuffer, "scene goes to the first buffer")
	assert.Equal(t, uint32(0), surf.rec.Draws[1].Framebuffer, "last pass goes to the canvas")

	gray, _ := s.Renderer.Program("grayscale")
	assert.Equal(t, gray.Handle, surf.rec.Draws[1].Program)
	amount, ok := surf.rec.UniformByName(gray.Handle, "uAmount")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, amount)

	// The next frame starts from the scene program again.
	surf.rec.ResetCalls()
	s.Tick(frameMs)
	prog, _ := s.Renderer.Program(DefaultProgram)
	assert.Equal(t, prog.Handle, surf.rec.Draws[0].Program)
}

func TestRecycleBlitsCanvasBack(t *testing.T) {
	cfg := config.Default()
	cfg.Recycle = true
	cfg.Effects = []config.EffectConfig{{Name: "feedback"}}
	s, surf := newSketch(t, cfg)
	s.Tick(0)

	bufA, _ := s.Renderer.RenderTarget(postfx.BufferA)
	require.Len(t, surf.rec.Blits, 1)
	assert.Equal(t, uint32(0), surf.rec.Blits[0].Src)
	assert.Equal(t, bufA.FBO, surf.rec.Blits[0].Dst)
}

func TestRecycledFrameSurvivesUntilEffects(t *testing.T) {
	cfg := config.Default()
	cfg.Recycle = true
	cfg.Effects = []config.EffectConfig{{Name: "feedback"}}
	s, surf := newSketch(t, cfg)
	bufA, _ := s.Renderer.RenderTarget(postfx.BufferA)
	clearA := fmt.Sprintf("Clear fb=%d", bufA.FBO)

	s.Tick(0)
	assert.Contains(t, surf.rec.Calls, clearA, "the first frame starts clean")

	surf.rec.ResetCalls()
	s.Tick(frameMs)
	assert.NotContains(t, surf.rec.Calls, clearA)
	require.Len(t, surf.rec.Draws, 1)
	assert.Equal(t, uint32(0), surf.rec.Draws[0].Framebuffer)
	require.Len(t, surf.rec.Blits, 1)
	assert.Equal(t, bufA.FBO, surf.rec.Blits[0].Dst)

	s.Post.Recycle = false
	surf.rec.ResetCalls()
	s.Tick(2 * frameMs)
	assert.Contains(t, surf.rec.Calls, clearA)
}

func TestAutoClear(t *testing.T) {
	cfg := config.Default()
	cfg.ClearColor = "#ff0000"
	s, surf := newSketch(t, cfg)

	s.Tick(0)
	assert.Equal(t, 1, surf.rec.Clears)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, surf.rec.LastClearColor)

	s.AutoClear = false
	s.Tick(frameMs)
	assert.Equal(t, 1, surf.rec.Clears)
}

func TestResizeFollowsSurface(t *testing.T) {
	s, surf := newSketch(t, config.Default())
	s.Tick(0)

	surf.width, surf.height = 640, 320
	s.Tick(frameMs)
	w, h := s.Renderer.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 320, h)
	assert.InDelta(t, 2, s.Scene.Camera.Aspect, 1e-6)
}

func TestNoLoopAndRedraw(t *testing.T) {
	cfg := config.Default()
	cfg.Loop = false
	s, _ := newSketch(t, cfg)
	draws := 0
	s.Draw = func(*Sketch, float64) { draws++ }

	s.Tick(0)
	s.Tick(frameMs)
	assert.Equal(t, 1, draws, "a non-looping sketch draws its first frame only")
	assert.False(t, s.Looping())

	s.Redraw()
	s.Tick(2 * frameMs)
	s.Tick(3 * frameMs)
	assert.Equal(t, 2, draws)

	s.Loop()
	s.Tick(4 * frameMs)
	assert.Equal(t, 3, draws)
}

func TestFPSCap(t *testing.T) {
	cfg := config.Default()
	cfg.FPS = 30
	s, _ := newSketch(t, cfg)

	s.Tick(0)
	s.Tick(10)
	assert.Equal(t, 1, s.FrameCount())
	s.Tick(40)
	assert.Equal(t, 2, s.FrameCount())
}

func TestDisposeStopsTheLoop(t *testing.T) {
	s, surf := newSketch(t, config.Default())
	surf.frames = []float64{0, 16, 33, 50, 66}
	s.Draw = func(s *Sketch, _ float64) {
		if s.FrameCount() == 1 {
			s.Dispose()
		}
	}

	s.Run()
	assert.Equal(t, 2, s.FrameCount())
	assert.True(t, surf.closed)
	assert.False(t, s.Tick(100))
	assert.Equal(t, 0, surf.rec.Live("program"))
	assert.Equal(t, 0, s.Renderer.Stats().Programs)

	s.Dispose()
}

func TestLoadModelArrivesOnTick(t *testing.T) {
	s, _ := newSketch(t, config.Default())
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	var got *scene.Node
	s.LoadModel(path, func(n *scene.Node) { got = n })
	s.LoadModel(filepath.Join(t.TempDir(), "missing.obj"), func(*scene.Node) { t.Error("callback for a failed load") })
	s.Loader.Wait()
	assert.Nil(t, got)

	s.Tick(0)
	require.NotNil(t, got)
	assert.Equal(t, "tri", got.Geometry)
	m, ok := s.Renderer.Mesh("tri")
	require.True(t, ok)
	assert.Equal(t, 3, m.Count)
	assert.Same(t, s.Scene.Node, got.Parent())
}

func TestSaveFrame(t *testing.T) {
	cfg := config.Default()
	cfg.ClearColor = "#00ff00"
	s, _ := newSketch(t, cfg)
	s.Tick(0)
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "frame.png")
	require.NoError(t, s.SaveFrame(pngPath))
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0}, []uint32{r, g, b})

	webpPath := filepath.Join(dir, "frame.webp")
	require.NoError(t, s.SaveFrame(webpPath))
	info, err := os.Stat(webpPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, s.SaveFrame(filepath.Join(dir, "frame.gif")))
	assert.Equal(t, "", s.Renderer.ActiveTarget(), "the canvas stays bound")
}

func TestCaptureAfterNextFrame(t *testing.T) {
	cfg := config.Default()
	cfg.Loop = false
	s, _ := newSketch(t, cfg)
	s.Tick(0)

	path := filepath.Join(t.TempDir(), "shot.png")
	s.Capture(path)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	s.Tick(frameMs)
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.FrameCount())
}

func TestShaderDirHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ripple.frag")
	frag := "uniform float uTime;\nout vec4 fragColor;\nvoid main() { fragColor = vec4(uTime); }\n"
	require.NoError(t, os.WriteFile(path, []byte(frag), 0o644))

	cfg := config.Default()
	cfg.ShaderDir = dir
	s, _ := newSketch(t, cfg)
	_, ok := s.Renderer.Program("ripple")
	require.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(frag+"// edited\n"), 0o644))
	now := 0.0
	require.Eventually(t, func() bool {
		now += frameMs
		s.Tick(now)
		_, ok := s.Renderer.Program("ripple")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	before, _ := s.Renderer.Program("ripple")
	handle := before.Handle
	require.NoError(t, os.WriteFile(path, []byte("#error broken\n"), 0o644))
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		now += frameMs
		s.Tick(now)
	}
	after, _ := s.Renderer.Program("ripple")
	assert.Equal(t, handle, after.Handle, "a failed reload keeps the old program")
}

func TestShapes(t *testing.T) {
	var sh Shapes
	cube := sh.Colored(sh.Cube(2), "red")
	assert.Equal(t, []float32{1, 0, 0, 1}, cube.Vertices[0]["color"])

	pal := sh.Palette(sh.Cube(1))
	assert.Len(t, pal.Vertices, 24)
	assert.Len(t, pal.Faces, 6)
	for _, v := range pal.Vertices {
		assert.Len(t, v["color"], 4)
	}

	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, Color("???"))
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, Color("blue"))
}
