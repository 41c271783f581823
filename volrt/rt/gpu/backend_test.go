package gpu

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRGBAConvertsAndRebases(t *testing.T) {
	gray := image.NewGray(image.Rect(2, 3, 4, 5))
	gray.SetGray(2, 3, color.Gray{Y: 200})

	out := ToRGBA(gray)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Rect)
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, out.RGBAAt(0, 0))
}

func TestToRGBAKeepsPackedImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	assert.Same(t, img, ToRGBA(img))
}

func TestFlipRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 1, A: 255})
	img.SetRGBA(0, 2, color.RGBA{R: 3, A: 255})

	out := FlipRows(img)
	if out.RGBAAt(0, 0).R != 3 || out.RGBAAt(0, 2).R != 1 {
		t.Errorf("rows not mirrored: top=%v bottom=%v", out.RGBAAt(0, 0), out.RGBAAt(0, 2))
	}
	assert.Equal(t, uint8(1), img.RGBAAt(0, 0).R, "source must be untouched")
}

func TestTransferTextureOptionsFlipY(t *testing.T) {
	assert.True(t, TransferTextureOptions().FlipY)
	assert.False(t, AtlasTextureOptions("a").FlipY)
	assert.False(t, AtlasTextureOptions("a").GenerateMipmaps)
}
