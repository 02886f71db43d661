package engine

import "Sketch3D/internal/gpu"

// Surface is where frames end up: a desktop window or a browser canvas. It
// owns the GPU context and the frame clock.
type Surface interface {
	Context() gpu.Context
	// Size is the drawable size in pixels.
	Size() (width, height int)
	// Run calls frame once per display refresh with a timestamp in
	// milliseconds until frame returns false or the surface is closed by the user.
	Run(frame func(now float64) bool)
	Close()
}
