package volren

import (
	"github.com/gekko3d/volren/volrt/rt/core"
)

func (c *Core) setZoom(update func(r *core.ZoomRegion)) {
	update(&c.zoom.Region)
	c.zoom.Update()
}

// SetZoomXMinValue and its siblings move one face of the zoom box, in unit
// cube coordinates. The overlay picks the change up on the next render.
func (c *Core) SetZoomXMinValue(v float32) { c.setZoom(func(r *core.ZoomRegion) { r.XMin = v }) }
func (c *Core) SetZoomXMaxValue(v float32) { c.setZoom(func(r *core.ZoomRegion) { r.XMax = v }) }
func (c *Core) SetZoomYMinValue(v float32) { c.setZoom(func(r *core.ZoomRegion) { r.YMin = v }) }
func (c *Core) SetZoomYMaxValue(v float32) { c.setZoom(func(r *core.ZoomRegion) { r.YMax = v }) }
func (c *Core) SetZoomZMinValue(v float32) { c.setZoom(func(r *core.ZoomRegion) { r.ZMin = v }) }
func (c *Core) SetZoomZMaxValue(v float32) { c.setZoom(func(r *core.ZoomRegion) { r.ZMax = v }) }

// SetZoomColor recolors the zoom box. Accepts hex or CSS color names.
func (c *Core) SetZoomColor(value string) error {
	col, err := core.ParseColor(value)
	if err != nil {
		return err
	}
	c.zoom.Color = col
	return nil
}

// ZoomOverlay returns the zoom box state: region, scale and position.
func (c *Core) ZoomOverlay() core.ZoomOverlay { return *c.zoom }

// IsZoomBoxShown reports whether the zoom box overlay is on.
func (c *Core) IsZoomBoxShown() bool { return c.zoomOn }

// ShowZoomBox adds or removes the zoom box and re-renders the compositing
// pass.
func (c *Core) ShowZoomBox(show bool) error {
	c.zoomOn = show
	if !c.threeD() {
		return ErrNotInitialized
	}
	return c.renderCompositing()
}
