package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Pivot is a parent node that lights and overlays can hang from.
type Pivot struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewPivot() *Pivot {
	return &Pivot{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// SetEuler replaces the rotation with X, then Y, then Z rotations in radians.
func (p *Pivot) SetEuler(x, y, z float32) {
	p.Rotation = mgl32.QuatRotate(z, mgl32.Vec3{0, 0, 1}).
		Mul(mgl32.QuatRotate(y, mgl32.Vec3{0, 1, 0})).
		Mul(mgl32.QuatRotate(x, mgl32.Vec3{1, 0, 0}))
}

// Matrix composes translation, rotation and scale.
func (p *Pivot) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(p.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(p.Scale[0], p.Scale[1], p.Scale[2]))
}

// Apply maps a point in pivot space to world space.
func (p *Pivot) Apply(v mgl32.Vec3) mgl32.Vec3 {
	return p.Matrix().Mul4x1(v.Vec4(1)).Vec3()
}
