package volren

import (
	"image"
	"testing"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatUniform(t *testing.T, c *Core, k core.FloatUniform) float32 {
	t.Helper()
	v, ok := c.second.Float(k)
	require.True(t, ok, "%s not declared", k)
	return v
}

func TestSettersPushUniforms(t *testing.T) {
	c, _ := newTestCore(t, nil)

	c.SetOpacityFactor(10)
	c.SetColorFactor(0.5)
	c.SetGrayMinValue(0.1)
	c.SetGrayMaxValue(0.9)
	c.SetAbsorptionMode(2)
	c.SetIndexOfImage(3)
	c.SetSteps(128)

	assert.Equal(t, float32(10), floatUniform(t, c, core.UOpacityVal))
	assert.Equal(t, float32(0.5), floatUniform(t, c, core.UDarkness))
	assert.Equal(t, float32(0.1), floatUniform(t, c, core.UMinGrayVal))
	assert.Equal(t, float32(0.9), floatUniform(t, c, core.UMaxGrayVal))
	assert.Equal(t, float32(2), floatUniform(t, c, core.UAbsorptionModeIndex))
	assert.Equal(t, float32(3), floatUniform(t, c, core.UIndexOfImage))
	steps, ok := c.second.Int(core.USteps)
	require.True(t, ok)
	assert.Equal(t, int32(128), steps)

	assert.Equal(t, float32(10), c.OpacityFactor())
	assert.Equal(t, 128, c.Steps())
	assert.Equal(t, 2, c.AbsorptionMode())
}

func TestSetColorRanges(t *testing.T) {
	c, _ := newTestCore(t, nil)
	r := core.ColorRanges{MinRefl: 1, MaxRefl: 2, MinSos: 3, MaxSos: 4, MinAtten: 5, MaxAtten: 6, L: 0.5, S: 0.7, HMin: 0.1, HMax: 0.9}
	c.SetColorRanges(r)

	assert.Equal(t, r, c.Appearance().Ranges)
	assert.Equal(t, float32(4), floatUniform(t, c, core.UMaxSos))
	assert.Equal(t, float32(0.9), floatUniform(t, c, core.UHMax))
}

func TestSlicesRangeAndRowCol(t *testing.T) {
	c, _ := newTestCore(t, nil)

	c.SetSlicesRange(core.Fixed(0), core.Fixed(511))
	from, to := c.SlicesRange()
	assert.Equal(t, [2]int{0, 511}, [2]int{from, to})
	assert.Equal(t, float32(512), floatUniform(t, c, core.UNumberOfSlices))

	c.SetRowCol(8, 4)
	rows, cols := c.RowCol()
	assert.Equal(t, [2]int{8, 4}, [2]int{rows, cols})
	assert.Equal(t, float32(8), floatUniform(t, c, core.USlicesOverX))
	assert.Equal(t, float32(4), floatUniform(t, c, core.USlicesOverY))
	assert.Equal(t, float32(512), floatUniform(t, c, core.UNumberOfSlices), "fixed bound ignores the grid")
}

func TestVolumeSize(t *testing.T) {
	c, _ := newTestCore(t, func(cfg *Config) { cfg.VolumeSize = [3]int{256, 128, 64} })

	assert.Equal(t, mgl32.Vec3{1, 0.5, 0.25}, c.VolumeSizeNormalized())
	assert.Equal(t, 128, c.MaxStepsNumber())

	require.NoError(t, c.SetVolumeSize(100, 100, 100))
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, c.VolumeSizeNormalized())
	assert.ErrorIs(t, c.SetVolumeSize(0, 1, 1), core.ErrInvalidVolume)
}

func TestTextureLimits(t *testing.T) {
	c, rec := newTestCore(t, nil)
	assert.Equal(t, rec.MaxUnits-6, c.MaxTexturesNumber())
	assert.Equal(t, 8192, c.MaxTextureSize())
}

func TestSetModeReducedUniforms(t *testing.T) {
	c, rec := newTestCore(t, nil)
	first := rec.Programs[len(rec.Programs)-1]

	require.NoError(t, c.SetMode(shaders.SecondPassMip))
	assert.Equal(t, shaders.SecondPassMip, c.ShaderName())
	assert.True(t, first.Released)

	_, ok := c.second.Int(core.USteps)
	assert.False(t, ok, "steps are not part of the mode bundle")
	_, ok = c.second.Texture(core.UTransferFunction)
	assert.False(t, ok)
	_, ok = c.second.Float(core.UMinGrayVal)
	assert.False(t, ok)

	// Setters for missing keys are ignored.
	c.SetSteps(99)
	_, ok = c.second.Int(core.USteps)
	assert.False(t, ok)
	assert.Equal(t, 99, c.Steps())

	assert.True(t, c.IsWireframeShown())
	assert.False(t, c.IsZoomBoxShown())
	assert.Empty(t, rec.Ops("Render"), "SetMode does not render")
}

func TestSetShaderNameFullUniforms(t *testing.T) {
	c, rec := newTestCore(t, nil)

	c.SetThresholdWindow(0.1, 0.2, 0.3, 0.4)
	_, ok := c.second.Float(core.USosThresholdBot)
	assert.False(t, ok, "init bundle has no threshold window")

	require.NoError(t, c.ShowISO())
	require.NoError(t, c.SetShaderName(shaders.SecondPassMip))
	assert.Equal(t, core.VolumeRender, c.ViewMode())
	assert.Equal(t, float32(0.1), floatUniform(t, c, core.USosThresholdBot))
	assert.Equal(t, float32(0.4), floatUniform(t, c, core.UAttenThresholdTop))
	_, ok = c.second.Texture(core.UTransferFunction)
	assert.True(t, ok)

	assert.Equal(t,
		[]string{"Render:FirstPass:offscreen", "Render:FirstPass:screen", "Render:Compositing:screen"},
		rec.Ops("Render")[1:])
	assert.Equal(t, 1, rec.RenderCalls()[3].Overlays, "wireframe only")

	assert.ErrorIs(t, c.SetShaderName(shaders.FirstPass), ErrInvalidConfiguration)
	assert.Equal(t, shaders.SecondPassMip, c.ShaderName())
}

func TestThresholdPresets(t *testing.T) {
	c, _ := newTestCore(t, nil)
	c.SetThresholdIndexes(0.2, 0.3, 0.4, 0.5)

	c.ApplyThresholding("yen")
	assert.Equal(t, float32(0.4), c.GrayMinValue())
	assert.Equal(t, float32(0.4), floatUniform(t, c, core.UMinGrayVal))

	c.ApplyThresholding("unknown")
	assert.Equal(t, float32(0.4), c.GrayMinValue())

	_, ok := c.ComputeThresholdIndexes()
	assert.False(t, ok, "no atlas loaded")
}

func TestZoomOverlay(t *testing.T) {
	c, rec := newTestCore(t, nil)

	c.SetZoomXMinValue(0.5)
	c.SetZoomYMaxValue(0.5)
	z := c.ZoomOverlay()
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 1}, z.Scale)
	assert.Equal(t, mgl32.Vec3{0.25, -0.25, 0}, z.Position)

	require.NoError(t, c.SetZoomColor("#ff0000"))
	assert.Equal(t, uint8(255), c.ZoomOverlay().Color.R)
	assert.Error(t, c.SetZoomColor("not-a-color"))

	require.NoError(t, c.ShowZoomBox(false))
	assert.False(t, c.IsZoomBoxShown())
	assert.Equal(t, []string{"Render:Compositing:screen"}, rec.Ops("Render"))
}

func TestGeometryRebuild(t *testing.T) {
	c, _ := newTestCore(t, nil)
	before := c.Mesh().VertexCount()
	require.NotZero(t, before)

	box := core.UnitBox()
	box.XMax = 0.5
	require.NoError(t, c.SetGeometryDimensions(box))
	assert.Equal(t, box, c.GeometryDimensions())
	assert.Equal(t, before, c.Mesh().VertexCount())
	assert.True(t, c.Mesh().PositionsDirty)

	bad := core.UnitBox()
	bad.XMin = 2
	assert.Error(t, c.SetGeometryDimensions(bad))
	assert.Equal(t, box, c.GeometryDimensions())

	c.SetGeometryRotation(0, 90, 0)
	assert.Equal(t, mgl32.Vec3{0, 90, 0}, c.GeometryRotation())
}

func TestTransferFunction(t *testing.T) {
	c, rec := newTestCore(t, nil)
	var events []image.Image
	c.OnChangeTransferFunction.Subscribe(func(img image.Image) { events = append(events, img) })

	first := c.transferTex
	require.NoError(t, c.SetTransferFunctionByColors(core.DefaultTransferFunction()))
	require.Len(t, events, 1)

	img := c.TransferFunctionImage()
	require.Equal(t, image.Rect(0, 0, core.TransferFunctionWidth, core.TransferFunctionHeight), img.Bounds())
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.LessOrEqual(t, r>>8, uint32(1))
	r, _, _, _ = img.At(core.TransferFunctionWidth-1, core.TransferFunctionHeight-1).RGBA()
	assert.Equal(t, uint32(255), r>>8)

	live := rec.LiveTextures("TransferFunction")
	require.Len(t, live, 1)
	assert.NotEqual(t, first, live[0], "previous texture released")
	assert.True(t, live[0].Opts.FlipY)
	bound, _ := c.second.Texture(core.UTransferFunction)
	assert.Equal(t, live[0], bound)

	err := c.SetTransferFunctionByColors([]core.ColorStop{{Pos: 0.5, Color: "#fff"}, {Pos: 0.2, Color: "#000"}})
	assert.ErrorIs(t, err, ErrInvalidTransferFunction)
	assert.Len(t, events, 1)
	assert.Equal(t, core.DefaultTransferFunction(), c.TransferFunctionColors())

	preview := c.TransferFunctionPreview(64, 8)
	require.NotNil(t, preview)
	assert.Equal(t, 64, preview.Bounds().Dx())
}
