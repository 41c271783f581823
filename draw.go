package volren

import (
	"fmt"
	"strconv"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/gpu"
)

const (
	scopeFirstOffscreen = "FirstPass"
	scopeFirstScreen    = "FirstPassScreen"
	scopeCompositing    = "Compositing"
	scopeDraw           = "Draw"
)

// Draw renders one frame:
//
//  1. OnPreDraw with fps formatted to three decimals
//  2. light position pushed to the compositing uniforms
//  3. controller update
//  4. first pass into the offscreen target, then into the framebuffer
//  5. compositing pass into the framebuffer
//  6. OnPostDraw with the same string
func (c *Core) Draw(fps float64) error {
	if !c.threeD() {
		return ErrNotInitialized
	}
	p := c.profiler
	p.BeginScope(scopeDraw)
	defer p.EndScope(scopeDraw)

	label := strconv.FormatFloat(fps, 'f', 3, 64)
	c.OnPreDraw.Emit(label)

	c.second.SetVec3(core.ULightPos, c.light.WorldPosition())
	if c.controller != nil {
		c.controller.Update()
	}

	if err := c.renderFirst(); err != nil {
		return err
	}
	p.BeginScope(scopeCompositing)
	err := c.renderCompositing()
	p.EndScope(scopeCompositing)
	if err != nil {
		return err
	}

	p.Count("Draws")
	c.OnPostDraw.Emit(label)
	return nil
}

func (c *Core) syncCamera() {
	vp := c.camera.ViewProjection()
	c.first.SetMat(core.UViewProjection, vp)
	c.second.SetMat(core.UViewProjection, vp)
}

// renderFirst draws the front faces' atlas coordinates into the offscreen
// target, then once more into the framebuffer.
func (c *Core) renderFirst() error {
	c.syncCamera()
	pass := &gpu.Pass{
		Label:    "FirstPass",
		Program:  c.firstProgram,
		Mesh:     c.meshBuf,
		Cull:     gpu.CullBack,
		Uniforms: c.first,
		ViewProj: c.camera.ViewProjection(),
	}

	c.profiler.BeginScope(scopeFirstOffscreen)
	err := c.backend.Render(pass, c.target)
	c.profiler.EndScope(scopeFirstOffscreen)
	if err != nil {
		c.log.Errorf("first pass: %v", err)
		return fmt.Errorf("first pass: %w", err)
	}

	c.profiler.BeginScope(scopeFirstScreen)
	err = c.backend.Render(pass, nil)
	c.profiler.EndScope(scopeFirstScreen)
	if err != nil {
		c.log.Errorf("first pass: %v", err)
		return fmt.Errorf("first pass: %w", err)
	}
	return nil
}

// renderCompositing ray marches the back faces against the offscreen
// target and draws the overlays in the compositing scene.
func (c *Core) renderCompositing() error {
	c.syncCamera()
	pass := &gpu.Pass{
		Label:    "Compositing",
		Program:  c.secondProgram,
		Mesh:     c.meshBuf,
		Cull:     gpu.CullFront,
		Uniforms: c.second,
		Overlays: c.overlays(),
		ViewProj: c.camera.ViewProjection(),
	}
	if err := c.backend.Render(pass, nil); err != nil {
		c.log.Errorf("compositing pass: %v", err)
		return fmt.Errorf("compositing pass: %w", err)
	}
	return nil
}

func (c *Core) renderAll() error {
	if err := c.renderFirst(); err != nil {
		return err
	}
	return c.renderCompositing()
}

func (c *Core) overlays() []core.Gizmo {
	var out []core.Gizmo
	if c.wireframeOn {
		out = append(out, core.NewBoundingWireframe())
	}
	if c.zoomOn {
		out = append(out, c.zoom.Gizmo())
	}
	if c.axisOn {
		out = append(out, c.axes...)
	}
	return out
}

// ShowISO switches the compositing pass to iso-surface shading.
func (c *Core) ShowISO() error { return c.setViewMode(core.IsoSurface) }

// ShowVolren switches the compositing pass back to volume rendering.
func (c *Core) ShowVolren() error { return c.setViewMode(core.VolumeRender) }

func (c *Core) setViewMode(m core.ViewMode) error {
	c.appearance.ViewMode = m
	if !c.threeD() {
		return ErrNotInitialized
	}
	c.setInt(core.USetViewMode, int32(m))
	return c.renderCompositing()
}

// AddWireframe shows the bounding wireframe and redraws.
func (c *Core) AddWireframe() error {
	c.wireframeOn = true
	if !c.threeD() {
		return ErrNotInitialized
	}
	return c.renderAll()
}

// RemoveWireframe hides the bounding wireframe and redraws.
func (c *Core) RemoveWireframe() error {
	c.wireframeOn = false
	if !c.threeD() {
		return ErrNotInitialized
	}
	return c.renderAll()
}

// IsWireframeShown reports whether the wireframe overlay is on.
func (c *Core) IsWireframeShown() bool { return c.wireframeOn }

// SetAxis toggles the axes overlay.
func (c *Core) SetAxis() error {
	c.axisOn = !c.axisOn
	if !c.threeD() {
		return ErrNotInitialized
	}
	return c.renderAll()
}

// IsAxisOn reports whether the axis overlay is on.
func (c *Core) IsAxisOn() bool { return c.axisOn }
