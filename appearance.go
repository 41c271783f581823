package volren

import (
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Appearance setters update state unconditionally and push to the live
// compositing uniforms only in 3D mode. Values are not range checked.

func (c *Core) setFloat(k core.FloatUniform, v float32) {
	if !c.threeD() {
		return
	}
	if !c.second.SetFloat(k, v) {
		c.log.Debugf("uniform %s not declared by %s", k, c.shaderName)
	}
}

func (c *Core) setInt(k core.IntUniform, v int32) {
	if !c.threeD() {
		return
	}
	if !c.second.SetInt(k, v) {
		c.log.Debugf("uniform %s not declared by %s", k, c.shaderName)
	}
}

// SetOpacityFactor scales the accumulated opacity along each ray.
func (c *Core) SetOpacityFactor(v float32) {
	c.appearance.OpacityFactor = v
	c.setFloat(core.UOpacityVal, v)
}

// SetColorFactor updates the darkness uniform.
func (c *Core) SetColorFactor(v float32) {
	c.appearance.ColorFactor = v
	c.setFloat(core.UDarkness, v)
}

// SetGrayMinValue sets the lower gray cutoff in [0,1].
func (c *Core) SetGrayMinValue(v float32) {
	c.appearance.GrayMin = v
	c.setFloat(core.UMinGrayVal, v)
}

// SetGrayMaxValue sets the upper gray cutoff in [0,1].
func (c *Core) SetGrayMaxValue(v float32) {
	c.appearance.GrayMax = v
	c.setFloat(core.UMaxGrayVal, v)
}

// SetAbsorptionMode selects the compositing absorption model.
func (c *Core) SetAbsorptionMode(index int) {
	c.appearance.AbsorptionMode = index
	c.setFloat(core.UAbsorptionModeIndex, float32(index))
}

// SetIndexOfImage pushes the selected atlas image index.
func (c *Core) SetIndexOfImage(index int) {
	c.appearance.IndexOfImage = index
	c.setFloat(core.UIndexOfImage, float32(index))
}

// SetSteps sets the ray march step count.
func (c *Core) SetSteps(steps int) {
	c.appearance.Steps = steps
	c.setInt(core.USteps, int32(steps))
}

// SetSlicesRange bounds the rendered slices. An open upper bound covers
// every cell of every loaded atlas image.
func (c *Core) SetSlicesRange(from, to core.Bound) {
	c.appearance.Layout.SlicesFrom = from.Resolve(0)
	c.appearance.Layout.SlicesTo = to
	c.setFloat(core.UNumberOfSlices, c.appearance.Layout.NumberOfSlices())
}

// SetRowCol sets the atlas grid. The slice count follows when the upper
// slice bound is open.
func (c *Core) SetRowCol(rows, cols int) {
	c.appearance.Layout.Rows = rows
	c.appearance.Layout.Cols = cols
	c.setFloat(core.USlicesOverX, float32(rows))
	c.setFloat(core.USlicesOverY, float32(cols))
	if c.appearance.Layout.SlicesTo.Open {
		c.setFloat(core.UNumberOfSlices, c.appearance.Layout.NumberOfSlices())
	}
}

// SetColorRanges replaces every color window at once.
func (c *Core) SetColorRanges(r core.ColorRanges) {
	c.appearance.Ranges = r
	for k, v := range map[core.FloatUniform]float32{
		core.UMinRefl: r.MinRefl, core.UMaxRefl: r.MaxRefl,
		core.UMinSos: r.MinSos, core.UMaxSos: r.MaxSos,
		core.UMinAtten: r.MinAtten, core.UMaxAtten: r.MaxAtten,
		core.UL: r.L, core.US: r.S,
		core.UHMin: r.HMin, core.UHMax: r.HMax,
	} {
		c.setFloat(k, v)
	}
}

// SetThresholdWindow updates the threshold window uniforms. They exist
// only in programs built by SetShaderName.
func (c *Core) SetThresholdWindow(sosBot, sosTop, attenBot, attenTop float32) {
	c.appearance.Window = core.ThresholdWindow{SosBot: sosBot, SosTop: sosTop, AttenBot: attenBot, AttenTop: attenTop}
	c.setFloat(core.USosThresholdBot, sosBot)
	c.setFloat(core.USosThresholdTop, sosTop)
	c.setFloat(core.UAttenThresholdBot, attenBot)
	c.setFloat(core.UAttenThresholdTop, attenTop)
}

// SetThresholdIndexes stores the presets used by ApplyThresholding.
func (c *Core) SetThresholdIndexes(otsu, isodata, yen, li float32) {
	c.appearance.Thresholds = core.ThresholdPresets{Otsu: otsu, Isodata: isodata, Yen: yen, Li: li}
}

// ApplyThresholding moves the lower gray bound to a stored preset. Unknown
// names are ignored.
func (c *Core) ApplyThresholding(name string) {
	v, ok := c.appearance.Thresholds.Lookup(name)
	if !ok {
		c.log.Debugf("unknown threshold preset %q", name)
		return
	}
	c.SetGrayMinValue(v)
}

// ComputeThresholdIndexes derives the presets from the gray histogram of
// the active atlas images and stores them.
func (c *Core) ComputeThresholdIndexes() (core.ThresholdPresets, bool) {
	if len(c.atlasImages) == 0 {
		return core.ThresholdPresets{}, false
	}
	p := core.ComputeThresholds(core.GrayHistogram(c.atlasImages...))
	c.SetThresholdIndexes(p.Otsu, p.Isodata, p.Yen, p.Li)
	c.log.Debugf("threshold presets %+v", p)
	return p, true
}

// Appearance returns a snapshot of the tunable parameters.
func (c *Core) Appearance() core.AppearanceState { return c.appearance }

// Steps returns the ray march step count.
func (c *Core) Steps() int { return c.appearance.Steps }

// OpacityFactor returns the opacity multiplier.
func (c *Core) OpacityFactor() float32 { return c.appearance.OpacityFactor }

// ColorFactor returns the color darkness factor.
func (c *Core) ColorFactor() float32 { return c.appearance.ColorFactor }

// GrayMinValue returns the lower gray cutoff.
func (c *Core) GrayMinValue() float32 { return c.appearance.GrayMin }

// GrayMaxValue returns the upper gray cutoff.
func (c *Core) GrayMaxValue() float32 { return c.appearance.GrayMax }

// AbsorptionMode returns the absorption model index.
func (c *Core) AbsorptionMode() int { return c.appearance.AbsorptionMode }

// IndexOfImage returns the selected atlas image index.
func (c *Core) IndexOfImage() int { return c.appearance.IndexOfImage }

// ViewMode reports whether ISO or volume rendering is active.
func (c *Core) ViewMode() core.ViewMode { return c.appearance.ViewMode }

// ThresholdIndexes returns the last computed or set presets.
func (c *Core) ThresholdIndexes() core.ThresholdPresets {
	return c.appearance.Thresholds
}

// RowCol returns the slice grid of one atlas image.
func (c *Core) RowCol() (rows, cols int) {
	return c.appearance.Layout.Rows, c.appearance.Layout.Cols
}

// SlicesRange resolves an open upper bound to rows*cols*images-1.
func (c *Core) SlicesRange() (from, to int) {
	return c.appearance.Layout.SlicesRange()
}

// VolumeSize returns the volume dimensions in voxels.
func (c *Core) VolumeSize() core.VolumeDescriptor { return c.volume }

// VolumeSizeNormalized scales the volume so its largest side is 1.
func (c *Core) VolumeSizeNormalized() mgl32.Vec3 { return c.volume.Normalized() }

// MaxStepsNumber is the useful upper bound for SetSteps.
func (c *Core) MaxStepsNumber() int { return c.volume.MaxSteps() }

// MaxTexturesNumber is the number of atlas images a compositing program
// can bind.
func (c *Core) MaxTexturesNumber() int {
	return c.backend.MaxTextureImageUnits() - gpu.ReservedTextureUnits
}

// MaxTextureSize is the backend texture size limit.
func (c *Core) MaxTextureSize() int { return c.backend.MaxTextureSize() }
