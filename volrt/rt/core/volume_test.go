package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeNormalized(t *testing.T) {
	v := VolumeDescriptor{Width: 2048, Height: 1024, Depth: 512}
	require.NoError(t, v.Validate())

	n := v.Normalized()
	assert.Equal(t, mgl32.Vec3{1.0, 0.5, 0.25}, n)
	assert.Equal(t, 1024, v.MaxSteps())
}

func TestVolumeValidate(t *testing.T) {
	for _, v := range []VolumeDescriptor{
		{Width: 0, Height: 1, Depth: 1},
		{Width: 1, Height: -1, Depth: 1},
		{Width: 1, Height: 1, Depth: 0},
	} {
		assert.ErrorIs(t, v.Validate(), ErrInvalidVolume, "%+v", v)
	}
}

func TestZoomOverlayTransform(t *testing.T) {
	cases := []Box{
		UnitBox(),
		{XMin: 0.25, XMax: 0.75, YMin: 0, YMax: 0.5, ZMin: 0.1, ZMax: 0.9},
		{XMin: 0.5, XMax: 0.5, YMin: 0.2, YMax: 1, ZMin: 0, ZMax: 0.3},
	}
	for _, b := range cases {
		scale, pos := b.OverlayTransform()
		for axis, mm := range [3][2]float32{{b.XMin, b.XMax}, {b.YMin, b.YMax}, {b.ZMin, b.ZMax}} {
			width := mm[1] - mm[0]
			assert.InDelta(t, width, scale[axis], 1e-6)
			assert.InDelta(t, (mm[1]-0.5)-width/2, pos[axis], 1e-6)
		}
	}

	scale, pos := UnitBox().OverlayTransform()
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, scale)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, pos)
}

func TestZoomOverlayGizmo(t *testing.T) {
	z := NewZoomOverlay()
	z.Region.XMin = 0.5
	z.Update()

	g := z.Gizmo()
	assert.Equal(t, GizmoCube, g.Type)
	assert.Equal(t, RGBA(ZoomBoxColor), g.Color)

	// the +x face of the unit cube stays on the volume boundary
	corner := g.ModelMatrix.Mul4x1(mgl32.Vec4{0.5, 0.5, 0.5, 1})
	assert.InDelta(t, 0.5, corner[0], 1e-6)
	lo := g.ModelMatrix.Mul4x1(mgl32.Vec4{-0.5, -0.5, -0.5, 1})
	assert.InDelta(t, 0.0, lo[0], 1e-6)
}

func TestBoxValidate(t *testing.T) {
	assert.NoError(t, UnitBox().Validate())
	assert.ErrorIs(t, Box{XMin: 1, XMax: 0, YMax: 1, ZMax: 1}.Validate(), ErrInvalidVolume)
}

func TestSlicesRange(t *testing.T) {
	l := DefaultAtlasLayout()
	l.ImageCount = 2

	from, to := l.SlicesRange()
	assert.Equal(t, 0, from)
	assert.Equal(t, 16*16*2-1, to)
	assert.Equal(t, float32(512), l.NumberOfSlices())

	l.SlicesFrom, l.SlicesTo = 10, Fixed(100)
	from, to = l.SlicesRange()
	assert.Equal(t, 10, from)
	assert.Equal(t, 100, to)
}

func TestThresholdLookup(t *testing.T) {
	p := ThresholdPresets{Otsu: 0.1, Isodata: 0.2, Yen: 0.3, Li: 0.4}
	for name, want := range map[string]float32{"otsu": 0.1, "isodata": 0.2, "yen": 0.3, "li": 0.4} {
		got, ok := p.Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := p.Lookup("triangle")
	assert.False(t, ok)
}
