package volren

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/gekko3d/volren/volrt/rt/gpu/gputest"
	"github.com/stretchr/testify/require"
)

// newTestCore returns an initialized pipeline on a recording backend with
// the init calls already cleared.
func newTestCore(t *testing.T, edit func(cfg *Config)) (*Core, *gputest.Recorder) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logger = NewNopLogger()
	if edit != nil {
		edit(&cfg)
	}
	rec := gputest.New(cfg.WindowSize[0], cfg.WindowSize[1])
	c, err := New(cfg, rec)
	require.NoError(t, err)
	require.NoError(t, c.Init())
	t.Cleanup(c.Release)
	rec.Reset()
	return c, rec
}

func solidImage(w, h int, gray uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

// gatedSource blocks until its gate is closed.
type gatedSource struct {
	label string
	img   image.Image
	err   error
	gate  chan struct{}
}

func newGatedSource(label string, img image.Image) *gatedSource {
	return &gatedSource{label: label, img: img, gate: make(chan struct{})}
}

func (s *gatedSource) Name() string { return s.label }

func (s *gatedSource) Load(ctx context.Context) (image.Image, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}

func (s *gatedSource) open() { close(s.gate) }
