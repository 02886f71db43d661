// Package scene is the retained scene graph: nodes with local transforms,
// a camera, and the root Scene that turns the tree into ordered draw calls.
package scene

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}

// Node is a positioned entity in the hierarchy. A node owns its children;
// parent is a back-reference only.
type Node struct {
	ID        string
	Name      string
	Transform *Transform
	Visible   bool

	// Geometry is the renderer mesh name drawn for this node, "" for none.
	Geometry string
	// Program overrides the program the mesh was registered with.
	Program string
	// Texture is bound to uTexture when set.
	Texture string

	parent   *Node
	children []*Node
	uniforms map[string]any

	world       mgl32.Mat4
	worldNormal mgl32.Mat3
}

func NewNode(name string) *Node {
	return &Node{
		ID:          newID(),
		Name:        name,
		Transform:   NewTransform(),
		Visible:     true,
		uniforms:    map[string]any{},
		world:       mgl32.Ident4(),
		worldNormal: mgl32.Ident3(),
	}
}

// Move translates the node by (x, y, z).
func (n *Node) Move(x, y, z float32) *Node {
	n.Transform.SetPosition(n.Transform.Position().Add(mgl32.Vec3{x, y, z}))
	return n
}

// Rotate adds (x, y, z) radians to the node's Euler rotation.
func (n *Node) Rotate(x, y, z float32) *Node {
	n.Transform.SetRotation(n.Transform.Rotation().Add(mgl32.Vec3{x, y, z}))
	return n
}

// Scale multiplies the node's scale component-wise.
func (n *Node) Scale(x, y, z float32) *Node {
	s := n.Transform.Scale()
	n.Transform.SetScale(mgl32.Vec3{s[0] * x, s[1] * y, s[2] * z})
	return n
}

// SetPosition places the node at (x, y, z) in its parent's space.
func (n *Node) SetPosition(x, y, z float32) *Node {
	n.Transform.SetPosition(mgl32.Vec3{x, y, z})
	return n
}

// SetParent moves n under parent, detaching it from its previous parent.
// A nil parent detaches n. Re-parenting under n itself or one of its
// descendants is ignored.
func (n *Node) SetParent(parent *Node) *Node {
	if parent == n.parent {
		return n
	}
	for p := parent; p != nil; p = p.parent {
		if p == n {
			return n
		}
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	n.Transform.MarkChanged()
	return n
}

func (n *Node) removeChild(c *Node) {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// SetGeometry attaches or replaces the mesh reference; "" removes it.
func (n *Node) SetGeometry(mesh string) *Node {
	n.Geometry = mesh
	return n
}

// SetTexture sets the texture bound to uTexture when the node is drawn.
func (n *Node) SetTexture(texture string) *Node {
	n.Texture = texture
	return n
}

// SetVisible toggles the node's own draw call. Children are unaffected.
func (n *Node) SetVisible(visible bool) *Node {
	n.Visible = visible
	return n
}

// CreateChildNode creates a node parented to n.
func (n *Node) CreateChildNode(name string) *Node {
	return NewNode(name).SetParent(n)
}

// Uniform sets a per-node uniform merged into the node's draw call.
func (n *Node) Uniform(name string, value any) *Node {
	n.uniforms[name] = value
	return n
}

// Uniforms returns a copy of the node's uniform overrides.
func (n *Node) Uniforms() map[string]any {
	out := make(map[string]any, len(n.uniforms))
	for k, v := range n.uniforms {
		out[k] = v
	}
	return out
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns the children in draw order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Traverse visits n and every descendant depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Find returns the first node in n's subtree with the given name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// WorldMatrix is the matrix computed by the last scene-graph update.
func (n *Node) WorldMatrix() mgl32.Mat4 { return n.world }

// WorldNormalMatrix is the inverse transpose of the world matrix's 3x3.
func (n *Node) WorldNormalMatrix() mgl32.Mat3 { return n.worldNormal }

// WorldPosition is the translation column of the world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 { return n.world.Col(3).Vec3() }

// updateWorld recomputes world matrices top-down from n. Subtrees whose
// transforms and ancestors are unchanged since the last pass keep their matrices.
func (n *Node) updateWorld(parent *mgl32.Mat4, parentChanged bool) {
	changed := n.Transform.Changed() || parentChanged
	if changed {
		local := n.Transform.Matrix()
		if parent == nil {
			n.world = local
		} else {
			n.world = parent.Mul4(local)
		}
		n.worldNormal = NormalMatrix(n.world)
	}
	for _, c := range n.children {
		c.updateWorld(&n.world, changed)
	}
}
