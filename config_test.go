package volren

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "3d", cfg.Mode)
	assert.Equal(t, shaders.SecondPassDefault, cfg.ShaderName)
	assert.Equal(t, 20, cfg.Steps)
	assert.Equal(t, float32(35), cfg.OpacityFactor)
	assert.Equal(t, float32(3), cfg.ColorFactor)
	assert.Equal(t, float32(1), cfg.ZFactor)
	assert.Equal(t, "wave-container", cfg.DomContainer)
	assert.True(t, cfg.SlicesRange[1].Open)
	assert.True(t, cfg.RendererSize[0].Open)
	assert.Equal(t, [3]float32{0, 0, 3}, cfg.cameraPosition())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want PipelineMode
		err  bool
	}{
		{"", ModeThreeD, false},
		{"3d", ModeThreeD, false},
		{"2d", ModeTwoD, false},
		{"4d", ModeUninitialized, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrUnsupportedMode, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
		want error
	}{
		{"mode", func(c *Config) { c.Mode = "4d" }, ErrUnsupportedMode},
		{"shader", func(c *Config) { c.ShaderName = shaders.FirstPass }, ErrInvalidConfiguration},
		{"volume", func(c *Config) { c.VolumeSize = [3]int{0, 1, 1} }, ErrInvalidConfiguration},
		{"row col", func(c *Config) { c.RowCol = [2]int{0, 16} }, ErrInvalidConfiguration},
		{"steps", func(c *Config) { c.Steps = -1 }, ErrInvalidConfiguration},
		{"background", func(c *Config) { c.BackgroundColor = "not-a-color" }, ErrInvalidConfiguration},
		{"transfer", func(c *Config) { c.TransferFunction = nil }, ErrInvalidTransferFunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volren.yaml")

	cfg := DefaultConfig()
	cfg.Steps = 64
	cfg.SlicesRange = [2]core.Bound{core.Fixed(10), core.Fixed(200)}
	cfg.RendererSize = [2]core.Bound{core.Fixed(512), core.Open()}
	cfg.VolumeSize = [3]int{256, 256, 128}
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, loaded.Steps)
	assert.Equal(t, cfg.SlicesRange, loaded.SlicesRange)
	assert.Equal(t, cfg.RendererSize, loaded.RendererSize)
	assert.Equal(t, cfg.VolumeSize, loaded.VolumeSize)
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "steps: 128\nslices_range: [5, \"*\"]\nrenderer_canvas_size: [640, 480]\nshader_name: secondPassMip\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Steps)
	assert.Equal(t, shaders.SecondPassMip, cfg.ShaderName)
	assert.Equal(t, core.Fixed(5), cfg.SlicesRange[0])
	assert.True(t, cfg.SlicesRange[1].Open)
	assert.Equal(t, float32(35), cfg.OpacityFactor, "absent keys keep defaults")
	// Landscape canvas with the default camera moves it closer.
	assert.Equal(t, float32(2), cfg.cameraPosition()[2])
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: 4d\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}
