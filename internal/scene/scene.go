package scene

// DrawCall is one mesh draw with its merged uniforms, in scene order.
type DrawCall struct {
	Node     *Node
	Mesh     string
	Program  string
	Uniforms map[string]any
}

// Scene is the root node. It always holds its camera as a child.
type Scene struct {
	*Node
	Camera *Camera
}

func New() *Scene {
	s := &Scene{Node: NewNode("scene")}
	s.Camera = NewCamera("camera")
	s.Camera.SetParent(s.Node)
	return s
}

// Update propagates world matrices from the root down and then refreshes the
// camera matrices. Running it twice with unchanged inputs yields the same state.
func (s *Scene) Update() {
	s.Node.updateWorld(nil, false)
	s.Camera.UpdateViewProjection()
}

// DrawCalls returns a fresh list with one entry per visible node that has
// geometry, in depth-first pre-order. An invisible node drops only its own
// entry; its children are still collected.
func (s *Scene) DrawCalls() []DrawCall {
	var calls []DrawCall
	s.Traverse(func(n *Node) {
		if !n.Visible || n.Geometry == "" {
			return
		}
		u := map[string]any{
			"uModel":        n.world,
			"uNormalMatrix": n.worldNormal,
			"uObjectId":     float32(len(calls) + 1),
			"uUseTexture":   n.Texture != "",
		}
		if n.Texture != "" {
			u["uTexture"] = n.Texture
		}
		for k, v := range n.uniforms {
			u[k] = v
		}
		calls = append(calls, DrawCall{
			Node:     n,
			Mesh:     n.Geometry,
			Program:  n.Program,
			Uniforms: u,
		})
	})
	return calls
}

// Add parents n to the scene root.
func (s *Scene) Add(n *Node) *Node {
	return n.SetParent(s.Node)
}
