package core

// ViewMode selects the shading path of the compositing pass.
type ViewMode int32

const (
	VolumeRender ViewMode = iota
	IsoSurface
)

func (m ViewMode) String() string {
	switch m {
	case VolumeRender:
		return "volren"
	case IsoSurface:
		return "iso"
	}
	return "unknown"
}

// ColorRanges are the per-channel color mapping windows consumed by the
// compositing shaders.
type ColorRanges struct {
	MinRefl  float32 `yaml:"min_refl"`
	MaxRefl  float32 `yaml:"max_refl"`
	MinSos   float32 `yaml:"min_sos"`
	MaxSos   float32 `yaml:"max_sos"`
	MinAtten float32 `yaml:"min_atten"`
	MaxAtten float32 `yaml:"max_atten"`
	L        float32 `yaml:"l"`
	S        float32 `yaml:"s"`
	HMin     float32 `yaml:"h_min"`
	HMax     float32 `yaml:"h_max"`
}

// ThresholdWindow bounds the sound-speed and attenuation channels.
type ThresholdWindow struct {
	SosBot   float32 `yaml:"sos_bot"`
	SosTop   float32 `yaml:"sos_top"`
	AttenBot float32 `yaml:"atten_bot"`
	AttenTop float32 `yaml:"atten_top"`
}

// ThresholdPresets stores the gray level of each named thresholding method.
type ThresholdPresets struct {
	Otsu    float32 `yaml:"otsu"`
	Isodata float32 `yaml:"isodata"`
	Yen     float32 `yaml:"yen"`
	Li      float32 `yaml:"li"`
}

// Lookup maps a preset name to its stored index.
func (p ThresholdPresets) Lookup(name string) (float32, bool) {
	switch name {
	case "otsu":
		return p.Otsu, true
	case "isodata":
		return p.Isodata, true
	case "yen":
		return p.Yen, true
	case "li":
		return p.Li, true
	}
	return 0, false
}

// AppearanceState is the full set of tunable rendering parameters. It is a
// plain value: copies are snapshots and never alias the pipeline's state.
type AppearanceState struct {
	OpacityFactor  float32
	ColorFactor    float32
	GrayMin        float32
	GrayMax        float32
	AbsorptionMode int
	Steps          int
	IndexOfImage   int
	ViewMode       ViewMode
	ZFactor        float32

	Ranges     ColorRanges
	Window     ThresholdWindow
	Thresholds ThresholdPresets
	Layout     SliceAtlasLayout
}

func DefaultAppearance() AppearanceState {
	return AppearanceState{
		OpacityFactor: 35,
		ColorFactor:   3,
		GrayMin:       0,
		GrayMax:       1,
		Steps:         20,
		ZFactor:       1,
		Layout:        DefaultAtlasLayout(),
	}
}
