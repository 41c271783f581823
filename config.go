package volren

import (
	"fmt"
	"os"
	"strings"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"gopkg.in/yaml.v3"
)

// PipelineMode is the structural mode of the pipeline.
type PipelineMode int

const (
	ModeUninitialized PipelineMode = iota
	ModeThreeD
	ModeTwoD
)

func (m PipelineMode) String() string {
	switch m {
	case ModeThreeD:
		return "3d"
	case ModeTwoD:
		return "2d"
	}
	return "uninitialized"
}

// ParseMode accepts "3d" and "2d".
func ParseMode(s string) (PipelineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "3d":
		return ModeThreeD, nil
	case "2d":
		return ModeTwoD, nil
	}
	return ModeUninitialized, fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

type CameraConfig struct {
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
}

// Controller is the external interaction controller advanced once per Draw.
type Controller interface {
	Update()
}

// AutoRotator is implemented by controllers that can spin the camera.
type AutoRotator interface {
	SetAutoRotate(enabled bool)
}

type Config struct {
	Mode       string `yaml:"mode"`
	ShaderName string `yaml:"shader_name"`

	Steps          int           `yaml:"steps"`
	SlicesRange    [2]core.Bound `yaml:"slices_range"`
	RowCol         [2]int        `yaml:"row_col"`
	OpacityFactor  float32       `yaml:"opacity_factor"`
	ColorFactor    float32       `yaml:"color_factor"`
	GrayValue      [2]float32    `yaml:"gray_value"`
	AbsorptionMode int           `yaml:"absorption_mode"`
	IndexOfImage   int           `yaml:"index_of_image"`
	ZFactor        float32       `yaml:"z_factor"`

	VolumeSize         [3]int       `yaml:"volume_size"`
	GeometryDimensions core.Box     `yaml:"geometry_dimensions"`
	ZoomParameters     core.Box     `yaml:"zoom_parameters"`
	GeometryRotation   [3]float32   `yaml:"geometry_rotation"`
	Camera             CameraConfig `yaml:"camera"`

	// WindowSize is the host surface size used to resolve '*' canvas
	// bounds until the first Resize.
	WindowSize         [2]int        `yaml:"window_size"`
	RendererSize       [2]core.Bound `yaml:"renderer_size"`
	RendererCanvasSize [2]core.Bound `yaml:"renderer_canvas_size"`

	BackgroundColor  string               `yaml:"background_color"`
	TransferFunction []core.ColorStop     `yaml:"transfer_function"`
	Ranges           core.ColorRanges     `yaml:",inline"`
	ThresholdWindow  core.ThresholdWindow `yaml:"threshold_window"`

	DomContainer   string   `yaml:"dom_container"`
	SlicemapsPaths []string `yaml:"slicemaps_paths"`
	Debug          bool     `yaml:"debug"`

	// Callback runs once after Init. Panics are recovered and logged.
	Callback   func()               `yaml:"-"`
	Logger     Logger               `yaml:"-"`
	Geometry   core.GeometryBuilder `yaml:"-"`
	Controller Controller           `yaml:"-"`
}

// DefaultConfig returns the settings a pipeline starts with.
func DefaultConfig() Config {
	return Config{
		Mode:               "3d",
		ShaderName:         shaders.SecondPassDefault,
		Steps:              20,
		SlicesRange:        [2]core.Bound{core.Fixed(0), core.Open()},
		RowCol:             [2]int{16, 16},
		OpacityFactor:      35,
		ColorFactor:        3,
		GrayValue:          [2]float32{0, 1},
		ZFactor:            1,
		VolumeSize:         [3]int{1, 1, 1},
		GeometryDimensions: core.UnitBox(),
		ZoomParameters:     core.UnitBox(),
		Camera:             CameraConfig{Position: [3]float32{0, 0, 3}},
		WindowSize:         [2]int{800, 600},
		RendererSize:       [2]core.Bound{core.Open(), core.Open()},
		RendererCanvasSize: [2]core.Bound{core.Open(), core.Open()},
		BackgroundColor:    "#000000",
		TransferFunction:   core.DefaultTransferFunction(),
		DomContainer:       "wave-container",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes c as YAML.
func (c Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}
	if !shaders.IsCompositing(c.ShaderName) {
		return fmt.Errorf("%w: unknown shader %q", ErrInvalidConfiguration, c.ShaderName)
	}
	if err := c.volume().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if c.RowCol[0] <= 0 || c.RowCol[1] <= 0 {
		return fmt.Errorf("%w: row_col must be positive, got %v", ErrInvalidConfiguration, c.RowCol)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: negative steps", ErrInvalidConfiguration)
	}
	if err := c.GeometryDimensions.Validate(); err != nil {
		return fmt.Errorf("%w: geometry_dimensions: %w", ErrInvalidConfiguration, err)
	}
	if err := c.ZoomParameters.Validate(); err != nil {
		return fmt.Errorf("%w: zoom_parameters: %w", ErrInvalidConfiguration, err)
	}
	if err := core.ValidateStops(c.TransferFunction); err != nil {
		return err
	}
	if _, err := core.ParseColor(c.BackgroundColor); err != nil {
		return fmt.Errorf("%w: background_color: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func (c Config) volume() core.VolumeDescriptor {
	return core.VolumeDescriptor{Width: c.VolumeSize[0], Height: c.VolumeSize[1], Depth: c.VolumeSize[2]}
}

func (c Config) appearance() core.AppearanceState {
	a := core.DefaultAppearance()
	a.OpacityFactor = c.OpacityFactor
	a.ColorFactor = c.ColorFactor
	a.GrayMin, a.GrayMax = c.GrayValue[0], c.GrayValue[1]
	a.AbsorptionMode = c.AbsorptionMode
	a.Steps = c.Steps
	a.IndexOfImage = c.IndexOfImage
	a.ZFactor = c.ZFactor
	a.Ranges = c.Ranges
	a.Window = c.ThresholdWindow
	a.Layout.Rows, a.Layout.Cols = c.RowCol[0], c.RowCol[1]
	a.Layout.SlicesFrom = c.SlicesRange[0].Resolve(0)
	a.Layout.SlicesTo = c.SlicesRange[1]
	return a
}

// cameraPosition moves the default camera closer when a fixed canvas is
// wider than tall.
func (c Config) cameraPosition() [3]float32 {
	pos := c.Camera.Position
	w, h := c.RendererCanvasSize[0], c.RendererCanvasSize[1]
	if !w.Open && !h.Open && pos == DefaultConfig().Camera.Position {
		pos[2] = core.DefaultCameraDistance(w.Value, h.Value)
	}
	return pos
}
