package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a node with a perspective projection looking at Target.
type Camera struct {
	*Node

	Fov    float32 // vertical, degrees
	Near   float32
	Far    float32
	Aspect float32 // set by the driver every frame
	Target mgl32.Vec3
	Up     mgl32.Vec3

	view       mgl32.Mat4
	projection mgl32.Mat4
}

func NewCamera(name string) *Camera {
	c := &Camera{
		Node:       NewNode(name),
		Fov:        45,
		Near:       0.1,
		Far:        100,
		Aspect:     1,
		Up:         mgl32.Vec3{0, 1, 0},
		view:       mgl32.Ident4(),
		projection: mgl32.Ident4(),
	}
	c.Transform.SetPosition(mgl32.Vec3{0, 0, 5})
	return c
}

// UpdateViewProjection rebuilds both matrices from the camera's world
// position. When the eye sits on the target the view matrix is left as it
// was, since the look direction is undefined.
func (c *Camera) UpdateViewProjection() {
	eye := c.WorldPosition()
	if eye.Sub(c.Target).Len() > 1e-6 {
		c.view = mgl32.LookAtV(eye, c.Target, c.Up)
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.Aspect, c.Near, c.Far)
}

// LookAt sets the target point.
func (c *Camera) LookAt(x, y, z float32) *Camera {
	c.Target = mgl32.Vec3{x, y, z}
	return c
}

func (c *Camera) View() mgl32.Mat4       { return c.view }
func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.view)
}
