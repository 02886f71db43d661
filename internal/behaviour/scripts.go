package behaviour

import (
	"math"

	"Sketch3D/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	RegisterScript("rotate", func() Component { return &Rotate{Speed: mgl32.Vec3{0, 45, 0}} })
	RegisterScript("orbit", func() Component { return &Orbit{Radius: 3, Speed: 1} })
	RegisterScript("bounce", func() Component { return &Bounce{Height: 0.5, Speed: 2} })
}

// seconds converts a frame-unit dt to seconds.
func seconds(dt float64) float64 { return dt / 60 }

// Rotate spins a node by Speed degrees per second around each axis.
type Rotate struct {
	Base
	Speed mgl32.Vec3
}

func (r *Rotate) Update(n *scene.Node, dt float64) {
	s := float32(seconds(dt))
	n.Rotate(
		mgl32.DegToRad(r.Speed[0]*s),
		mgl32.DegToRad(r.Speed[1]*s),
		mgl32.DegToRad(r.Speed[2]*s))
}

// Orbit circles a node around its starting point in the XZ plane at Speed
// radians per second.
type Orbit struct {
	Radius float32
	Speed  float32

	center mgl32.Vec3
	angle  float64
}

func (o *Orbit) Start(n *scene.Node) {
	o.center = n.Transform.Position()
}

func (o *Orbit) Update(n *scene.Node, dt float64) {
	o.angle += seconds(dt) * float64(o.Speed)
	x := float32(math.Cos(o.angle)) * o.Radius
	z := float32(math.Sin(o.angle)) * o.Radius
	n.SetPosition(o.center[0]+x, o.center[1], o.center[2]+z)
}

// OnDestroy puts the node back where the orbit started.
func (o *Orbit) OnDestroy(n *scene.Node) {
	n.SetPosition(o.center[0], o.center[1], o.center[2])
}

// Bounce moves a node up and down around its starting height.
type Bounce struct {
	Height float32
	Speed  float32

	startY float32
	time   float64
}

func (b *Bounce) Start(n *scene.Node) {
	b.startY = n.Transform.Position().Y()
}

func (b *Bounce) Update(n *scene.Node, dt float64) {
	b.time += seconds(dt) * float64(b.Speed)
	p := n.Transform.Position()
	n.SetPosition(p[0], b.startY+float32(math.Sin(b.time))*b.Height, p[2])
}
