package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, Euler rotation (radians) and scale with a lazily
// recomputed local matrix. Rotation is applied Y, then X, then Z.
type Transform struct {
	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3

	positionDirty bool
	rotationDirty bool
	scaleDirty    bool
	changed       bool

	matrix mgl32.Mat4
	normal mgl32.Mat3
}

func NewTransform() *Transform {
	return &Transform{
		scale:         mgl32.Vec3{1, 1, 1},
		positionDirty: true,
		rotationDirty: true,
		scaleDirty:    true,
		changed:       true,
		matrix:        mgl32.Ident4(),
		normal:        mgl32.Ident3(),
	}
}

func (t *Transform) Position() mgl32.Vec3 { return t.position }
func (t *Transform) Rotation() mgl32.Vec3 { return t.rotation }
func (t *Transform) Scale() mgl32.Vec3    { return t.scale }

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.position = p
	t.positionDirty, t.changed = true, true
}

func (t *Transform) SetRotation(r mgl32.Vec3) {
	t.rotation = r
	t.rotationDirty, t.changed = true, true
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.scale = s
	t.scaleDirty, t.changed = true, true
}

// Dirty reports whether the matrix will be recomputed on the next read.
func (t *Transform) Dirty() bool {
	return t.positionDirty || t.rotationDirty || t.scaleDirty
}

// Changed reports whether the transform was mutated since the last call.
// The flag is cleared by reading it.
func (t *Transform) Changed() bool {
	c := t.changed
	t.changed = false
	return c
}

// MarkChanged flags the transform as changed without touching its fields,
// e.g. after the node was re-parented.
func (t *Transform) MarkChanged() { t.changed = true }

// Matrix returns translate * rotateY * rotateX * rotateZ * scale.
func (t *Transform) Matrix() mgl32.Mat4 {
	if !t.Dirty() {
		return t.matrix
	}
	p, r, s := t.position, t.rotation, t.scale
	t.matrix = mgl32.Translate3D(p[0], p[1], p[2]).
		Mul4(mgl32.HomogRotate3DY(r[1])).
		Mul4(mgl32.HomogRotate3DX(r[0])).
		Mul4(mgl32.HomogRotate3DZ(r[2])).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	t.normal = NormalMatrix(t.matrix)
	t.positionDirty, t.rotationDirty, t.scaleDirty = false, false, false
	return t.matrix
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of Matrix.
func (t *Transform) NormalMatrix() mgl32.Mat3 {
	t.Matrix()
	return t.normal
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of m, or the
// identity when that block is singular (e.g. a zero scale).
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	m3 := m.Mat3()
	if mgl32.Abs(m3.Det()) < 1e-12 {
		return mgl32.Ident3()
	}
	return m3.Inv().Transpose()
}
