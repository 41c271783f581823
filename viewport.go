package volren

import (
	"fmt"

	"github.com/gekko3d/volren/volrt/rt/core"
)

// Resize records a new window size, fires OnResizeWindow and refits the
// viewport. With an open canvas the subscription installed by Init refits
// it again from the new window.
func (c *Core) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfiguration, width, height)
	}
	c.window = [2]int{width, height}
	c.OnResizeWindow.Emit(struct{}{})
	return c.applyViewport()
}

// SetRenderCanvasSize sets the canvas bounds. Only a fully open canvas keeps
// the resize subscription; a fixed axis stays fixed across window resizes
// while an open one is resolved against the window on every refit.
func (c *Core) SetRenderCanvasSize(width, height core.Bound) error {
	c.canvasSize = [2]core.Bound{width, height}
	if c.resizeSub != nil {
		if width.Open && height.Open {
			c.resizeSub.Resume()
		} else {
			c.resizeSub.Pause()
		}
	}
	return c.applyViewport()
}

func (c *Core) applyViewport() error {
	cw, ch := c.CanvasSizeInPixels()
	c.camera.SetAspect(cw, ch)
	if !c.threeD() {
		return nil
	}

	w, h := c.RenderSizeInPixels()
	if [2]int{w, h} == c.renderPx {
		return nil
	}
	if err := c.backend.Resize(w, h); err != nil {
		return err
	}
	target, err := c.backend.CreateRenderTarget(w, h)
	if err != nil {
		return fmt.Errorf("create render target: %w", err)
	}
	if c.target != nil {
		c.target.Release()
	}
	c.target = target
	c.renderPx = [2]int{w, h}
	c.second.SetTexture(core.UBackCoord, target)
	c.log.Debugf("viewport %dx%d", w, h)
	return nil
}

// RenderSize returns the render target bounds, relative to the canvas.
func (c *Core) RenderSize() [2]core.Bound { return c.renderSize }

// RenderSizeInPixels resolves the render size against the canvas.
func (c *Core) RenderSizeInPixels() (width, height int) {
	cw, ch := c.CanvasSizeInPixels()
	return c.renderSize[0].Resolve(cw), c.renderSize[1].Resolve(ch)
}

// CanvasSize returns the canvas bounds, relative to the window.
func (c *Core) CanvasSize() [2]core.Bound { return c.canvasSize }

// CanvasSizeInPixels resolves the canvas size against the window.
func (c *Core) CanvasSizeInPixels() (width, height int) {
	return c.canvasSize[0].Resolve(c.window[0]), c.canvasSize[1].Resolve(c.window[1])
}

// SetBackgroundColor changes the clear color of every pass.
func (c *Core) SetBackgroundColor(value string) error {
	bg, err := core.ParseColor(value)
	if err != nil {
		return err
	}
	c.clearColor = value
	bg.A = 255
	c.backend.SetClearColor(bg)
	return nil
}

// ClearColor returns the background color as last set.
func (c *Core) ClearColor() string { return c.clearColor }
