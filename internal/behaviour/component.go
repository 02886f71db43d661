// Package behaviour attaches per-frame scripts to scene nodes.
package behaviour

import "Sketch3D/internal/scene"

// Component is a script attached to a node. Start runs before its first
// Update; dt is elapsed time in 60Hz frame units.
type Component interface {
	Start(n *scene.Node)
	Update(n *scene.Node, dt float64)
}

// Destroyer is implemented by components that release something on detach.
type Destroyer interface {
	OnDestroy(n *scene.Node)
}

// Base gives a component no-op lifecycle methods to embed.
type Base struct{}

func (Base) Start(*scene.Node)           {}
func (Base) Update(*scene.Node, float64) {}

type attached struct {
	node    *scene.Node
	comp    Component
	enabled bool
	started bool
}
