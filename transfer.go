package volren

import (
	"fmt"
	"image"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/gpu"
	"golang.org/x/image/draw"
)

// SetTransferFunctionByColors rasterizes stops into the 512x2 lookup image,
// binds it and notifies OnChangeTransferFunction.
func (c *Core) SetTransferFunctionByColors(stops []core.ColorStop) error {
	img, err := core.EncodeTransferFunction(stops)
	if err != nil {
		return err
	}
	c.transferStops = append([]core.ColorStop(nil), stops...)
	if err := c.SetTransferFunctionByImage(img); err != nil {
		return err
	}
	c.OnChangeTransferFunction.Emit(img)
	return nil
}

// SetTransferFunctionByImage binds img as the transfer function texture,
// flipped vertically. The texture is only created in 3D mode.
func (c *Core) SetTransferFunctionByImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidTransferFunction)
	}
	c.transferImage = img
	if !c.threeD() {
		return nil
	}
	tex, err := c.backend.CreateTexture(img, gpu.TransferTextureOptions())
	if err != nil {
		return fmt.Errorf("upload transfer function: %w", err)
	}
	old := c.transferTex
	c.transferTex = tex
	if !c.second.SetTexture(core.UTransferFunction, tex) {
		c.log.Debugf("uniform %s not declared by %s", core.UTransferFunction, c.shaderName)
	}
	if old != nil {
		old.Release()
	}
	return nil
}

// TransferFunctionColors returns a copy of the active stops.
func (c *Core) TransferFunctionColors() []core.ColorStop {
	return append([]core.ColorStop(nil), c.transferStops...)
}

// TransferFunctionImage is the last image bound as transfer function.
func (c *Core) TransferFunctionImage() image.Image { return c.transferImage }

// TransferFunctionPreview scales the transfer function to w x h for display.
func (c *Core) TransferFunctionPreview(w, h int) *image.RGBA {
	if c.transferImage == nil || w <= 0 || h <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), c.transferImage, c.transferImage.Bounds(), draw.Src, nil)
	return dst
}
