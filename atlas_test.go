package volren

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gekko3d/volren/volrt/rt/atlas"
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAtlasCommit(t *testing.T) {
	c, rec := newTestCore(t, nil)
	ctx := awaitCtx(t)

	gen, err := c.LoadAtlas(ctx, []atlas.Source{
		atlas.ImageSource{Label: "a", Image: solidImage(64, 64, 10)},
		atlas.ImageSource{Label: "b", Image: solidImage(64, 64, 20)},
	})
	require.NoError(t, err)
	require.NoError(t, c.AwaitAtlas(ctx, gen))

	assert.Len(t, c.SlicemapsImages(), 2)
	assert.Len(t, rec.LiveTextures("SliceMap0"), 1)
	assert.Len(t, rec.LiveTextures("SliceMap1"), 1)

	// Open upper bound over a 16x16 grid and two images.
	from, to := c.SlicesRange()
	assert.Equal(t, [2]int{0, 511}, [2]int{from, to})
	assert.Equal(t, float32(512), floatUniform(t, c, core.UNumberOfSlices))
	assert.Equal(t, float32(64), floatUniform(t, c, core.USlicemapWidth))

	maps, ok := c.second.SliceMaps()
	require.True(t, ok)
	assert.Len(t, maps, 2)

	require.NoError(t, c.Draw(60))
	assert.Len(t, rec.Renders[2].Maps, 2)

	p, ok := c.ComputeThresholdIndexes()
	require.True(t, ok)
	assert.Equal(t, p, c.ThresholdIndexes())
}

func TestAtlasLatestGenerationWins(t *testing.T) {
	tests := []struct {
		name       string
		olderFirst bool
	}{
		{"older finishes first", true},
		{"newer finishes first", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestCore(t, nil)
			ctx := awaitCtx(t)

			older := newGatedSource("older", solidImage(32, 32, 1))
			newer := newGatedSource("newer", solidImage(48, 48, 2))

			g1, err := c.LoadAtlas(ctx, []atlas.Source{older})
			require.NoError(t, err)
			g2, err := c.LoadAtlas(ctx, []atlas.Source{newer})
			require.NoError(t, err)
			require.Greater(t, g2, g1)

			if tt.olderFirst {
				older.open()
				err = c.AwaitAtlas(ctx, g1)
				assert.True(t, IsSuperseded(err), "got %v", err)
				newer.open()
				require.NoError(t, c.AwaitAtlas(ctx, g2))
			} else {
				newer.open()
				require.NoError(t, c.AwaitAtlas(ctx, g2))
				older.open()
				err = c.AwaitAtlas(ctx, g1)
				assert.True(t, IsSuperseded(err), "got %v", err)
			}

			images := c.SlicemapsImages()
			require.Len(t, images, 1)
			assert.Equal(t, 48, images[0].Bounds().Dx())
			assert.Equal(t, 48, c.Appearance().Layout.SliceWidth)
			// The stale load never reached the GPU.
			assert.Len(t, rec.LiveTextures("SliceMap0"), 1)
			assert.Len(t, rec.Ops("CreateTexture"), 1)
		})
	}
}

func TestAtlasFailureKeepsActiveSet(t *testing.T) {
	c, rec := newTestCore(t, nil)
	ctx := awaitCtx(t)

	gen, err := c.LoadAtlas(ctx, []atlas.Source{atlas.ImageSource{Label: "ok", Image: solidImage(16, 16, 5)}})
	require.NoError(t, err)
	require.NoError(t, c.AwaitAtlas(ctx, gen))
	active := rec.LiveTextures("SliceMap0")
	require.Len(t, active, 1)

	broken := newGatedSource("broken", nil)
	broken.err = errors.New("truncated file")
	broken.open()
	gen, err = c.LoadAtlas(ctx, []atlas.Source{broken})
	require.NoError(t, err)
	err = c.AwaitAtlas(ctx, gen)
	assert.ErrorIs(t, err, atlas.ErrLoadFailed)
	assert.False(t, IsSuperseded(err))

	rec.FailTexture["SliceMap1"] = true
	gen, err = c.LoadAtlas(ctx, []atlas.Source{
		atlas.ImageSource{Label: "x", Image: solidImage(32, 32, 1)},
		atlas.ImageSource{Label: "y", Image: solidImage(32, 32, 2)},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, c.AwaitAtlas(ctx, gen), atlas.ErrLoadFailed)

	assert.Equal(t, active, rec.LiveTextures("SliceMap0"), "partial uploads are released")
	assert.Equal(t, 16, c.Appearance().Layout.SliceWidth)
	maps, _ := c.second.SliceMaps()
	assert.Len(t, maps, 1)
}

func TestAtlasAwaitIsRepeatable(t *testing.T) {
	c, rec := newTestCore(t, nil)
	ctx := awaitCtx(t)

	older := newGatedSource("older", solidImage(32, 32, 1))
	g1, err := c.LoadAtlas(ctx, []atlas.Source{older})
	require.NoError(t, err)
	g2, err := c.LoadAtlas(ctx, []atlas.Source{atlas.ImageSource{Label: "newer", Image: solidImage(48, 48, 2)}})
	require.NoError(t, err)
	older.open()

	require.NoError(t, c.AwaitAtlas(ctx, g2))
	require.NoError(t, c.AwaitAtlas(ctx, g2))
	assert.True(t, IsSuperseded(c.AwaitAtlas(ctx, g1)))
	assert.True(t, IsSuperseded(c.AwaitAtlas(ctx, g1)))
	assert.Len(t, rec.Ops("CreateTexture"), 1)
}

func TestAtlasSettledHistoryIsBounded(t *testing.T) {
	c, _ := newTestCore(t, nil)
	ctx := awaitCtx(t)

	const loads = 3 * settledHistory
	var last uint64
	for i := 0; i < loads; i++ {
		gen, err := c.LoadAtlas(ctx, []atlas.Source{
			atlas.ImageSource{Label: "slice", Image: solidImage(8, 8, uint8(i))},
		})
		require.NoError(t, err)
		require.NoError(t, c.AwaitAtlas(ctx, gen))
		last = gen
	}
	assert.LessOrEqual(t, len(c.settled), settledHistory)

	assert.NoError(t, c.AwaitAtlas(ctx, last))
	assert.ErrorIs(t, c.AwaitAtlas(ctx, 1), ErrAtlasOutcomeExpired)
}

func TestAtlasLimits(t *testing.T) {
	c, _ := newTestCore(t, nil)
	ctx := context.Background()

	_, err := c.LoadAtlas(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	sources := make([]atlas.Source, c.MaxTexturesNumber()+1)
	for i := range sources {
		sources[i] = atlas.ImageSource{Label: "s", Image: solidImage(1, 1, 0)}
	}
	_, err = c.LoadAtlas(ctx, sources)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	assert.Error(t, c.AwaitAtlas(ctx, 42))
}

func TestLoadSlicemapsPaths(t *testing.T) {
	c, _ := newTestCore(t, nil)
	ctx := awaitCtx(t)

	path := filepath.Join(t.TempDir(), "slices.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 128, 128))))
	require.NoError(t, f.Close())

	gen, err := c.LoadSlicemapsPaths(ctx, path)
	require.NoError(t, err)
	require.NoError(t, c.AwaitAtlas(ctx, gen))
	assert.Equal(t, []string{path}, c.SlicemapsPaths())
	assert.Equal(t, 128, c.Appearance().Layout.SliceWidth)
}
