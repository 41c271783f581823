package volren

import (
	"fmt"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// rebuildGeometry builds the cropped box for the current volume and places
// it: centered, then rotated about X, Y and Z. The shared mesh keeps its
// identity so both passes see the new vertices.
func (c *Core) rebuildGeometry() {
	normalized := c.volume.Normalized()
	built := c.geometry.Build(c.crop, normalized, c.appearance.ZFactor)
	built.ApplyMatrix(core.PlacementMatrix(normalized, c.rotation))
	if c.mesh == nil {
		c.mesh = built
		return
	}
	c.mesh.Replace(built)
}

// SetGeometryDimensions sets the crop box rendered as geometry.
func (c *Core) SetGeometryDimensions(box core.CropBox) error {
	if err := box.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	c.crop = box
	c.rebuildGeometry()
	return nil
}

// GeometryDimensions returns the crop box in unit cube coordinates.
func (c *Core) GeometryDimensions() core.CropBox { return c.crop }

// SetVolumeSize sets the voxel dimensions; the geometry is rebuilt from
// the normalized size.
func (c *Core) SetVolumeSize(width, height, depth int) error {
	v := core.VolumeDescriptor{Width: width, Height: height, Depth: depth}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	c.volume = v
	c.rebuildGeometry()
	return nil
}

// SetGeometryRotation sets the Euler angles, in radians, applied after
// centering.
func (c *Core) SetGeometryRotation(x, y, z float32) {
	c.rotation = mgl32.Vec3{x, y, z}
	c.rebuildGeometry()
}

// GeometryRotation returns the geometry rotation in radians.
func (c *Core) GeometryRotation() mgl32.Vec3 { return c.rotation }

// Mesh exposes the shared pass geometry.
func (c *Core) Mesh() *core.Mesh { return c.mesh }
