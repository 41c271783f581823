package core

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidVolume = errors.New("invalid volume")

// VolumeDescriptor holds the physical voxel counts of the scanned volume.
type VolumeDescriptor struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`
}

func (v VolumeDescriptor) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 {
		return fmt.Errorf("%w: size %dx%dx%d must be positive on every axis", ErrInvalidVolume, v.Width, v.Height, v.Depth)
	}
	return nil
}

// Normalized divides every axis by the largest one.
func (v VolumeDescriptor) Normalized() mgl32.Vec3 {
	m := max(v.Width, v.Height, v.Depth)
	if m <= 0 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{
		float32(v.Width) / float32(m),
		float32(v.Height) / float32(m),
		float32(v.Depth) / float32(m),
	}
}

// MaxSteps is the largest useful ray-march step count for this volume.
func (v VolumeDescriptor) MaxSteps() int {
	return min(v.Width, v.Height)
}

// Box is an axis-aligned region in normalized object space.
type Box struct {
	XMin float32 `yaml:"xmin"`
	XMax float32 `yaml:"xmax"`
	YMin float32 `yaml:"ymin"`
	YMax float32 `yaml:"ymax"`
	ZMin float32 `yaml:"zmin"`
	ZMax float32 `yaml:"zmax"`
}

// CropBox is the sub-volume rendered as geometry.
type CropBox = Box

// ZoomRegion only positions the zoom overlay; it never affects geometry.
type ZoomRegion = Box

// UnitBox covers the whole volume.
func UnitBox() Box {
	return Box{XMax: 1, YMax: 1, ZMax: 1}
}

func (b Box) Min() mgl32.Vec3 { return mgl32.Vec3{b.XMin, b.YMin, b.ZMin} }
func (b Box) Max() mgl32.Vec3 { return mgl32.Vec3{b.XMax, b.YMax, b.ZMax} }

// Extent is max-min per axis.
func (b Box) Extent() mgl32.Vec3 { return b.Max().Sub(b.Min()) }

func (b Box) Validate() error {
	if b.XMin > b.XMax || b.YMin > b.YMax || b.ZMin > b.ZMax {
		return fmt.Errorf("%w: box %+v has min greater than max", ErrInvalidVolume, b)
	}
	return nil
}

// OverlayTransform derives the wireframe scale and position for a zoom
// region. The overlay is a unit cube centered at the origin, so the region
// is shifted by half a unit to land inside the centered volume.
func (b Box) OverlayTransform() (scale, position mgl32.Vec3) {
	scale = b.Extent()
	half := mgl32.Vec3{0.5, 0.5, 0.5}
	position = b.Max().Sub(half).Sub(scale.Mul(0.5))
	return scale, position
}
