package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(mgl32.Vec3{1, -2, 3})
	tr.SetRotation(mgl32.Vec3{0.3, 1.1, -0.7})
	tr.SetScale(mgl32.Vec3{2, 0.5, 1.5})

	want := mgl32.Translate3D(1, -2, 3).
		Mul4(mgl32.HomogRotate3DY(1.1)).
		Mul4(mgl32.HomogRotate3DX(0.3)).
		Mul4(mgl32.HomogRotate3DZ(-0.7)).
		Mul4(mgl32.Scale3D(2, 0.5, 1.5))
	assert.True(t, tr.Matrix().ApproxEqualThreshold(want, 1e-5))
	assert.False(t, tr.Dirty())

	// Later mutations are reflected on the next read.
	tr.SetPosition(mgl32.Vec3{0, 0, 0})
	assert.True(t, tr.Dirty())
	assert.InDelta(t, 0, tr.Matrix().Col(3).X(), 1e-6)
}

func TestTransformChangedIsReadOnce(t *testing.T) {
	tr := NewTransform()
	assert.True(t, tr.Changed())
	assert.False(t, tr.Changed())

	tr.SetScale(mgl32.Vec3{2, 2, 2})
	tr.SetRotation(mgl32.Vec3{0, 1, 0})
	assert.True(t, tr.Changed())
	assert.False(t, tr.Changed())

	tr.Matrix()
	assert.False(t, tr.Changed())
}

func TestNormalMatrixIsInverseTranspose(t *testing.T) {
	tr := NewTransform()
	tr.SetScale(mgl32.Vec3{2, 4, 8})
	n := tr.NormalMatrix()
	assert.InDelta(t, 0.5, n.At(0, 0), 1e-6)
	assert.InDelta(t, 0.25, n.At(1, 1), 1e-6)
	assert.InDelta(t, 0.125, n.At(2, 2), 1e-6)

	tr.SetScale(mgl32.Vec3{0, 1, 1})
	assert.Equal(t, mgl32.Ident3(), tr.NormalMatrix())
}

func TestNodeChaining(t *testing.T) {
	n := NewNode("a").Move(1, 2, 3).Move(1, 0, 0).Rotate(0, 1, 0).Scale(2, 2, 2).Scale(1, 3, 1)
	assert.Equal(t, mgl32.Vec3{2, 2, 3}, n.Transform.Position())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, n.Transform.Rotation())
	assert.Equal(t, mgl32.Vec3{2, 6, 2}, n.Transform.Scale())
	assert.Len(t, n.ID, 8)
	assert.NotEqual(t, n.ID, NewNode("b").ID)
}

func TestSetParentMovesNode(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	c := a.CreateChildNode("c")
	require.Equal(t, a, c.Parent())
	c.Transform.Changed()

	c.SetParent(b)
	assert.Empty(t, a.Children())
	assert.Equal(t, []*Node{c}, b.Children())
	assert.True(t, c.Transform.Changed())

	// Cycles are refused.
	b.SetParent(c)
	assert.Nil(t, b.Parent())

	c.SetParent(nil)
	assert.Empty(t, b.Children())
	assert.Nil(t, c.Parent())
}

func TestWorldMatrixPropagation(t *testing.T) {
	s := New()
	s.Node.Move(0, 1, 0)
	parent := s.CreateChildNode("parent").Move(1, 0, 0).Rotate(0, 0.5, 0)
	child := parent.CreateChildNode("child").Move(0, 0, 2).Scale(2, 2, 2)

	s.Update()

	assert.Equal(t, s.Transform.Matrix(), s.WorldMatrix(), "root world equals local exactly")
	assert.True(t, parent.WorldMatrix().ApproxEqual(s.WorldMatrix().Mul4(parent.Transform.Matrix())))
	assert.True(t, child.WorldMatrix().ApproxEqual(parent.WorldMatrix().Mul4(child.Transform.Matrix())))

	before := child.WorldMatrix()
	s.Update()
	assert.Equal(t, before, child.WorldMatrix())
}

func TestUpdateFollowsChanges(t *testing.T) {
	s := New()
	a := s.CreateChildNode("a").Move(1, 0, 0)
	b := s.CreateChildNode("b").Move(0, 5, 0)
	leaf := a.CreateChildNode("leaf").Move(0, 0, 1)
	s.Update()
	assert.False(t, leaf.Transform.Changed(), "the pass consumes the change flag")
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, leaf.WorldPosition())

	// An ancestor moving carries its untouched descendants along.
	a.Move(2, 0, 0)
	s.Update()
	assert.Equal(t, mgl32.Vec3{3, 0, 1}, leaf.WorldPosition())

	// Re-parenting alone is enough to recompute the world matrix.
	leaf.SetParent(b)
	s.Update()
	assert.Equal(t, mgl32.Vec3{0, 5, 1}, leaf.WorldPosition())
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, a.WorldPosition())
}

func TestDrawCallsPreOrder(t *testing.T) {
	s := New()
	a := s.CreateChildNode("a").SetGeometry("cube")
	a1 := a.CreateChildNode("a1").SetGeometry("sphere")
	a.CreateChildNode("empty")
	b := s.CreateChildNode("b").SetGeometry("grid")
	s.Update()

	calls := s.DrawCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, []*Node{a, a1, b}, []*Node{calls[0].Node, calls[1].Node, calls[2].Node})
	assert.Equal(t, "sphere", calls[1].Mesh)
	for i, c := range calls {
		assert.Equal(t, float32(i+1), c.Uniforms["uObjectId"])
		assert.Equal(t, c.Node.WorldMatrix(), c.Uniforms["uModel"])
	}

	// A fresh list every call.
	calls[0].Uniforms["uModel"] = nil
	assert.NotNil(t, s.DrawCalls()[0].Uniforms["uModel"])
}

func TestInvisibleParentKeepsChildren(t *testing.T) {
	s := New()
	parent := s.CreateChildNode("parent").SetGeometry("cube")
	child := parent.CreateChildNode("child").SetGeometry("cube")
	other := s.CreateChildNode("other").SetGeometry("cube")
	s.Update()
	require.Len(t, s.DrawCalls(), 3)

	parent.SetVisible(false)
	calls := s.DrawCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, child, calls[0].Node)
	assert.Equal(t, other, calls[1].Node)
}

func TestDrawCallUniforms(t *testing.T) {
	s := New()
	n := s.CreateChildNode("n").SetGeometry("quad").SetTexture("photo")
	n.Uniform("uColor", mgl32.Vec4{1, 0, 0, 1})
	n.Program = "unlit"
	plain := s.CreateChildNode("plain").SetGeometry("quad")
	s.Update()

	calls := s.DrawCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "photo", calls[0].Uniforms["uTexture"])
	assert.Equal(t, true, calls[0].Uniforms["uUseTexture"])
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, calls[0].Uniforms["uColor"])
	assert.Equal(t, "unlit", calls[0].Program)

	assert.Equal(t, plain, calls[1].Node)
	_, ok := calls[1].Uniforms["uTexture"]
	assert.False(t, ok)
	assert.Equal(t, false, calls[1].Uniforms["uUseTexture"])
}

func TestCameraViewProjection(t *testing.T) {
	s := New()
	s.Camera.Aspect = 2
	s.Camera.SetPosition(0, 0, 10)
	s.Update()

	eye := mgl32.Vec3{0, 0, 10}
	assert.True(t, s.Camera.View().ApproxEqual(mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})))
	assert.True(t, s.Camera.Projection().ApproxEqual(mgl32.Perspective(mgl32.DegToRad(45), 2, 0.1, 100)))

	// Eye on target leaves the view untouched.
	view := s.Camera.View()
	s.Camera.SetPosition(0, 0, 0)
	s.Update()
	assert.Equal(t, view, s.Camera.View())
	assert.False(t, hasNaN(s.Camera.View()))
}

func TestCameraFollowsParent(t *testing.T) {
	s := New()
	rig := s.CreateChildNode("rig").Move(0, 3, 0)
	s.Camera.SetParent(rig)
	s.Update()
	assert.InDelta(t, 3, s.Camera.WorldPosition().Y(), 1e-6)
	assert.InDelta(t, 5, s.Camera.WorldPosition().Z(), 1e-6)
}

func hasNaN(m mgl32.Mat4) bool {
	for _, v := range m {
		if v != v {
			return true
		}
	}
	return false
}
