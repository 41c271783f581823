package core

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

type GizmoType int

const (
	GizmoLine GizmoType = iota
	GizmoCube
)

// Gizmo is a wireframe overlay drawn over the compositing pass.
type Gizmo struct {
	Type        GizmoType
	Color       [4]float32
	ModelMatrix mgl32.Mat4

	// For Line: P1 is Start, P2 is End.
	P1, P2 mgl32.Vec3
}

// RGBA converts an 8-bit color into gizmo color space.
func RGBA(c color.RGBA) [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

var (
	WireframeColor = color.RGBA{0xe3, 0xe3, 0xe3, 0xff}
	ZoomBoxColor   = color.RGBA{0x00, 0x00, 0xff, 0xff}
)

// NewBoundingWireframe outlines the unit cube around the volume.
func NewBoundingWireframe() Gizmo {
	return Gizmo{Type: GizmoCube, Color: RGBA(WireframeColor), ModelMatrix: mgl32.Ident4()}
}

// ZoomOverlay is the wireframe that follows a ZoomRegion.
type ZoomOverlay struct {
	Region   ZoomRegion
	Color    color.RGBA
	Scale    mgl32.Vec3
	Position mgl32.Vec3
}

func NewZoomOverlay() *ZoomOverlay {
	z := &ZoomOverlay{Region: UnitBox(), Color: ZoomBoxColor}
	z.Update()
	return z
}

// Update re-derives the transform from the whole region.
func (z *ZoomOverlay) Update() {
	z.Scale, z.Position = z.Region.OverlayTransform()
}

func (z *ZoomOverlay) Gizmo() Gizmo {
	model := mgl32.Translate3D(z.Position[0], z.Position[1], z.Position[2]).
		Mul4(mgl32.Scale3D(z.Scale[0], z.Scale[1], z.Scale[2]))
	return Gizmo{Type: GizmoCube, Color: RGBA(z.Color), ModelMatrix: model}
}

// BuildAxes returns six lines of the given length along +-X, +-Y, +-Z.
// Positive axes are red, green and blue; negative axes are dimmed.
func BuildAxes(length float32) []Gizmo {
	axes := []struct {
		dir   mgl32.Vec3
		color [4]float32
	}{
		{mgl32.Vec3{1, 0, 0}, [4]float32{1, 0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, [4]float32{0.5, 0, 0, 1}},
		{mgl32.Vec3{0, 1, 0}, [4]float32{0, 1, 0, 1}},
		{mgl32.Vec3{0, -1, 0}, [4]float32{0, 0.5, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, [4]float32{0, 0, 1, 1}},
		{mgl32.Vec3{0, 0, -1}, [4]float32{0, 0, 0.5, 1}},
	}
	out := make([]Gizmo, 0, len(axes))
	for _, a := range axes {
		out = append(out, Gizmo{
			Type:        GizmoLine,
			Color:       a.color,
			ModelMatrix: mgl32.Ident4(),
			P2:          a.dir.Mul(length),
		})
	}
	return out
}
