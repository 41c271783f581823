package volren

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gekko3d/volren/volrt/rt/atlas"
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/gpu"
)

// settledHistory is how many recent generations keep their outcome for
// AwaitAtlas.
const settledHistory = 16

// AtlasOutcome reports how one atlas load was settled.
type AtlasOutcome struct {
	Generation uint64
	Committed  bool
	Err        error
}

// LoadAtlas starts decoding sources in the background and returns the
// load's generation. Only the most recently issued generation may become
// the active atlas; see ProcessAtlasLoads.
func (c *Core) LoadAtlas(ctx context.Context, sources []atlas.Source) (uint64, error) {
	if len(sources) == 0 {
		return 0, fmt.Errorf("%w: empty atlas", ErrInvalidConfiguration)
	}
	if limit := c.MaxTexturesNumber(); len(sources) > limit {
		return 0, fmt.Errorf("%w: %d atlas images, at most %d can be bound", ErrInvalidConfiguration, len(sources), limit)
	}
	gen := c.loader.Start(ctx, sources)
	c.log.Debugf("atlas load %d issued with %d images", gen, len(sources))
	return gen, nil
}

// SetSlicemapsImages records paths, when given, and loads sources.
func (c *Core) SetSlicemapsImages(sources []atlas.Source, paths []string) (uint64, error) {
	if paths != nil {
		c.slicemapsPaths = append([]string(nil), paths...)
	}
	return c.LoadAtlas(context.Background(), sources)
}

// LoadSlicemapsPaths loads the atlas files named by paths.
func (c *Core) LoadSlicemapsPaths(ctx context.Context, paths ...string) (uint64, error) {
	c.slicemapsPaths = append([]string(nil), paths...)
	return c.LoadAtlas(ctx, atlas.Files(paths...))
}

// ProcessAtlasLoads settles every finished load. A failed load leaves the
// active atlas untouched. A load superseded by a newer call is discarded
// before any texture is created. Call it from the render goroutine.
func (c *Core) ProcessAtlasLoads() []AtlasOutcome {
	results := c.loader.Poll()
	out := make([]AtlasOutcome, 0, len(results))
	for _, res := range results {
		o := c.settle(res)
		c.settled[o.Generation] = o.Err
		out = append(out, o)
	}
	if len(results) > 0 {
		c.pruneSettled()
	}
	return out
}

func (c *Core) pruneSettled() {
	latest := c.loader.Latest()
	for gen := range c.settled {
		if gen+settledHistory <= latest {
			delete(c.settled, gen)
		}
	}
}

func (c *Core) settle(res atlas.Result) AtlasOutcome {
	o := AtlasOutcome{Generation: res.Generation}
	switch {
	case res.Err != nil:
		o.Err = res.Err
		c.log.Warnf("atlas load %d failed: %v", res.Generation, res.Err)
		return o
	case !c.loader.IsCurrent(res.Generation):
		o.Err = fmt.Errorf("%w: generation %d, latest %d", atlas.ErrSuperseded, res.Generation, c.loader.Latest())
		c.log.Debugf("atlas load %d discarded", res.Generation)
		return o
	}

	textures := make([]gpu.Texture, 0, len(res.Images))
	for i, img := range res.Images {
		tex, err := c.backend.CreateTexture(img, gpu.AtlasTextureOptions(fmt.Sprintf("SliceMap%d", i)))
		if err != nil {
			for _, t := range textures {
				t.Release()
			}
			o.Err = fmt.Errorf("%w: %s: %w", atlas.ErrLoadFailed, res.Names[i], err)
			c.log.Warnf("atlas load %d failed: %v", res.Generation, o.Err)
			return o
		}
		textures = append(textures, tex)
	}
	c.commitAtlas(res.Images, textures)
	o.Committed = true
	c.log.Infof("atlas load %d committed: %d images, slice width %d", res.Generation, len(textures), c.appearance.Layout.SliceWidth)
	return o
}

// commitAtlas swaps the active atlas in one step.
func (c *Core) commitAtlas(images []image.Image, textures []gpu.Texture) {
	old := c.atlasTextures
	c.atlasImages = images
	c.atlasTextures = textures
	c.appearance.Layout.ImageCount = len(images)
	c.appearance.Layout.SliceWidth = images[0].Bounds().Dx()

	if c.threeD() {
		if !c.second.SetSliceMaps(c.sliceMapHandles()) {
			c.log.Debugf("uniform uSliceMaps not declared by %s", c.shaderName)
		}
		c.setFloat(core.USlicemapWidth, float32(c.appearance.Layout.SliceWidth))
		c.setFloat(core.UNumberOfSlices, c.appearance.Layout.NumberOfSlices())
	}
	for _, t := range old {
		t.Release()
	}
}

// AwaitAtlas blocks until generation gen is settled and returns its
// outcome. Other loads finishing meanwhile are settled as well. Awaiting a
// settled generation again returns the same outcome while it is among the
// last few generations, ErrAtlasOutcomeExpired after that.
func (c *Core) AwaitAtlas(ctx context.Context, gen uint64) error {
	for {
		if err, ok := c.settled[gen]; ok {
			return err
		}
		if gen == 0 || gen > c.loader.Latest() {
			return fmt.Errorf("unknown atlas load %d", gen)
		}
		c.ProcessAtlasLoads()
		if _, ok := c.settled[gen]; ok {
			continue
		}
		if !c.loader.Unsettled(gen) {
			return fmt.Errorf("%w: generation %d", ErrAtlasOutcomeExpired, gen)
		}
		if err := c.loader.Wait(ctx); err != nil {
			return err
		}
	}
}

// IsSuperseded reports whether err comes from a load replaced by a newer one.
func IsSuperseded(err error) bool { return errors.Is(err, atlas.ErrSuperseded) }

// SlicemapsPaths returns the paths recorded by the last path-based load.
func (c *Core) SlicemapsPaths() []string { return append([]string(nil), c.slicemapsPaths...) }

// SlicemapsImages returns the images of the active atlas.
func (c *Core) SlicemapsImages() []image.Image { return append([]image.Image(nil), c.atlasImages...) }
