package volren

import (
	"fmt"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
)

// bundleKind selects which uniforms a compositing program is built with.
type bundleKind int

const (
	// bundleInit is the set created by Init.
	bundleInit bundleKind = iota
	// bundleMode is the reduced set created by SetMode.
	bundleMode
	// bundleFull adds the threshold window, created by SetShaderName.
	bundleFull
)

// compositingUniforms builds a uniform table from a state snapshot and the
// currently bound textures.
func (c *Core) compositingUniforms(s core.AppearanceState, kind bundleKind) *core.UniformTable {
	t := core.NewUniformTable()
	t.DeclareMat(core.UViewProjection, c.camera.ViewProjection())
	t.DeclareFloat(core.URatio, s.ZFactor)
	t.DeclareTexture(core.UBackCoord, c.target)
	t.DeclareSliceMaps(c.sliceMapHandles())
	t.DeclareVec3(core.ULightPos, c.light.WorldPosition())
	t.DeclareInt(core.USetViewMode, 0)
	if kind != bundleMode {
		t.DeclareInt(core.USteps, int32(s.Steps))
	}
	t.DeclareFloat(core.USlicemapWidth, float32(s.Layout.SliceWidth))
	t.DeclareFloat(core.UNumberOfSlices, s.Layout.NumberOfSlices())
	t.DeclareFloat(core.USlicesOverX, float32(s.Layout.Rows))
	t.DeclareFloat(core.USlicesOverY, float32(s.Layout.Cols))
	t.DeclareFloat(core.UOpacityVal, s.OpacityFactor)
	t.DeclareFloat(core.UDarkness, s.ColorFactor)

	r := s.Ranges
	t.DeclareFloat(core.UL, r.L)
	t.DeclareFloat(core.US, r.S)
	t.DeclareFloat(core.UHMin, r.HMin)
	t.DeclareFloat(core.UHMax, r.HMax)
	t.DeclareFloat(core.UMinSos, r.MinSos)
	t.DeclareFloat(core.UMaxSos, r.MaxSos)
	t.DeclareFloat(core.UMinAtten, r.MinAtten)
	t.DeclareFloat(core.UMaxAtten, r.MaxAtten)
	t.DeclareFloat(core.UMinRefl, r.MinRefl)
	t.DeclareFloat(core.UMaxRefl, r.MaxRefl)

	if kind == bundleMode {
		return t
	}
	t.DeclareTexture(core.UTransferFunction, c.transferTex)
	t.DeclareFloat(core.UColorVal, s.ColorFactor)
	t.DeclareFloat(core.UAbsorptionModeIndex, float32(s.AbsorptionMode))
	t.DeclareFloat(core.UMinGrayVal, s.GrayMin)
	t.DeclareFloat(core.UMaxGrayVal, s.GrayMax)
	t.DeclareFloat(core.UIndexOfImage, float32(s.IndexOfImage))

	if kind == bundleFull {
		w := s.Window
		t.DeclareFloat(core.USosThresholdBot, w.SosBot)
		t.DeclareFloat(core.USosThresholdTop, w.SosTop)
		t.DeclareFloat(core.UAttenThresholdBot, w.AttenBot)
		t.DeclareFloat(core.UAttenThresholdTop, w.AttenTop)
	}
	return t
}

func (c *Core) sliceMapHandles() []core.TextureHandle {
	out := make([]core.TextureHandle, len(c.atlasTextures))
	for i, t := range c.atlasTextures {
		out[i] = t
	}
	return out
}

// rebuildCompositing compiles name and swaps it in together with a fresh
// uniform table. On failure the previous program stays bound.
func (c *Core) rebuildCompositing(name string, kind bundleKind) error {
	if !shaders.IsCompositing(name) {
		return fmt.Errorf("%w: unknown shader %q", ErrInvalidConfiguration, name)
	}
	src, err := shaders.Render(name, c.MaxTexturesNumber())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	program, err := c.backend.CreateProgram(src)
	if err != nil {
		return fmt.Errorf("build %s: %w", name, err)
	}

	old := c.secondProgram
	c.secondProgram = program
	c.second = c.compositingUniforms(c.appearance, kind)
	c.shaderName = name
	c.appearance.ViewMode = core.VolumeRender
	if old != nil {
		old.Release()
	}
	c.log.Debugf("compositing program %s rebuilt", name)
	return nil
}

// SetMode rebuilds the compositing program with the reduced uniform set
// and a scene holding only the bounding wireframe.
func (c *Core) SetMode(shaderName string) error {
	if !c.threeD() {
		if !shaders.IsCompositing(shaderName) {
			return fmt.Errorf("%w: unknown shader %q", ErrInvalidConfiguration, shaderName)
		}
		c.shaderName = shaderName
		return nil
	}
	if err := c.rebuildCompositing(shaderName, bundleMode); err != nil {
		return err
	}
	c.resetScene()
	return nil
}

// SetShaderName rebuilds the compositing program with every uniform,
// threshold window included, and re-renders with the wireframe shown.
func (c *Core) SetShaderName(name string) error {
	if !c.threeD() {
		if !shaders.IsCompositing(name) {
			return fmt.Errorf("%w: unknown shader %q", ErrInvalidConfiguration, name)
		}
		c.shaderName = name
		return nil
	}
	if err := c.rebuildCompositing(name, bundleFull); err != nil {
		return err
	}
	c.resetScene()
	return c.AddWireframe()
}

// resetScene leaves the new compositing scene with the mesh and the
// bounding wireframe only.
func (c *Core) resetScene() {
	c.wireframeOn = true
	c.zoomOn = false
	c.axisOn = false
}
