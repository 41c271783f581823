package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is a perspective camera orbiting the origin, where the
// volume is centered.
type CameraState struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FovY   float32 // degrees
	Aspect float32
	Near   float32
	Far    float32
}

func NewCameraState(distance float32, aspect float32) *CameraState {
	return &CameraState{
		Position: mgl32.Vec3{0, 0, distance},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     45,
		Aspect:   aspect,
		Near:     0.01,
		Far:      11,
	}
}

// DefaultCameraDistance moves the camera closer on landscape viewports.
func DefaultCameraDistance(width, height int) float32 {
	if width > height {
		return 2
	}
	return 3
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *CameraState) GetProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// clipDepthCorrection maps OpenGL clip depth [-w,w] to the WebGPU range [0,w].
var clipDepthCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ViewProjection returns the clip transform in WebGPU conventions.
func (c *CameraState) ViewProjection() mgl32.Mat4 {
	return clipDepthCorrection.Mul4(c.GetProjectionMatrix()).Mul4(c.GetViewMatrix())
}

func (c *CameraState) SetAspect(width, height int) {
	if height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// Orbit rotates the camera around its target by yaw (around Up) and pitch
// (around the camera right vector). Pitch stops short of the poles.
func (c *CameraState) Orbit(yaw, pitch float32) {
	offset := c.Position.Sub(c.Target)
	radius := offset.Len()
	if radius == 0 {
		return
	}

	up := c.Up.Normalize()
	yawRot := mgl32.QuatRotate(yaw, up)
	offset = yawRot.Rotate(offset)

	right := offset.Cross(up)
	if right.Len() > 1e-6 {
		forward := offset.Normalize()
		angle := float32(math.Acos(float64(mgl32.Clamp(forward.Dot(up), -1, 1))))
		limit := float32(0.01)
		next := mgl32.Clamp(angle-pitch, limit, math.Pi-limit)
		pitchRot := mgl32.QuatRotate(angle-next, right.Normalize())
		offset = pitchRot.Rotate(offset)
	}

	c.Position = c.Target.Add(offset.Normalize().Mul(radius))
}

// Dolly scales the orbit radius, clamped to the clip range.
func (c *CameraState) Dolly(factor float32) {
	offset := c.Position.Sub(c.Target)
	radius := mgl32.Clamp(offset.Len()*factor, c.Near*10, c.Far*0.9)
	if offset.Len() == 0 {
		return
	}
	c.Position = c.Target.Add(offset.Normalize().Mul(radius))
}

// Light is a point light attached to a pivot object.
type Light struct {
	Local mgl32.Vec3
	Pivot *Pivot
}

// NewLight places the light at (1,0,0) under an identity pivot.
func NewLight() *Light {
	return &Light{Local: mgl32.Vec3{1, 0, 0}, Pivot: NewPivot()}
}

// WorldPosition resolves the light through its pivot.
func (l *Light) WorldPosition() mgl32.Vec3 {
	if l.Pivot == nil {
		return l.Local
	}
	return l.Pivot.Apply(l.Local)
}
