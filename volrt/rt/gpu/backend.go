package gpu

import (
	"image"
	"image/color"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// ReservedTextureUnits are the sampled textures a compositing program needs
// besides the atlas, plus headroom kept for host overlays.
const ReservedTextureUnits = 6

// Texture is a GPU texture owned by whoever created it.
type Texture interface {
	ID() uuid.UUID
	Size() (width, height int)
	Release()
}

// Program is a compiled shader module with its pipelines.
type Program interface {
	Name() string
	Release()
}

// MeshBuffer mirrors a core.Mesh on the GPU. Dirty attributes are uploaded
// the next time the mesh is rendered.
type MeshBuffer interface {
	Mesh() *core.Mesh
	Release()
}

type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

type Wrap int

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
)

type TextureOptions struct {
	Label           string
	MinFilter       Filter
	MagFilter       Filter
	Wrap            Wrap
	GenerateMipmaps bool
	FlipY           bool
}

// AtlasTextureOptions configures slice atlas images.
func AtlasTextureOptions(label string) TextureOptions {
	return TextureOptions{Label: label, MinFilter: FilterLinear, MagFilter: FilterLinear, Wrap: WrapClampToEdge}
}

// TransferTextureOptions configures the transfer function lookup texture.
func TransferTextureOptions() TextureOptions {
	return TextureOptions{Label: "TransferFunction", MinFilter: FilterLinear, MagFilter: FilterLinear, Wrap: WrapClampToEdge, FlipY: true}
}

type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// Pass is one render of a scene. Program and Mesh may be nil for a scene
// that only holds overlays.
type Pass struct {
	Label    string
	Program  Program
	Mesh     MeshBuffer
	Cull     CullMode
	Uniforms *core.UniformTable
	Overlays []core.Gizmo
	ViewProj mgl32.Mat4
}

// Backend is everything the render pipeline needs from a GPU API.
type Backend interface {
	// MaxTextureImageUnits is the number of sampled textures a fragment
	// shader may bind.
	MaxTextureImageUnits() int
	MaxTextureSize() int

	CreateTexture(img image.Image, opts TextureOptions) (Texture, error)
	// CreateRenderTarget creates an offscreen color target that later
	// passes can sample.
	CreateRenderTarget(width, height int) (Texture, error)
	CreateProgram(src shaders.Source) (Program, error)
	CreateMesh(mesh *core.Mesh) (MeshBuffer, error)

	SetClearColor(c color.RGBA)
	// Render clears target and draws pass into it. A nil target is the
	// visible framebuffer. Each call is submitted before it returns.
	Render(pass *Pass, target Texture) error
	// Resize resizes the visible framebuffer.
	Resize(width, height int) error
	// ReadPixels copies the visible framebuffer back to the CPU.
	ReadPixels() (*image.RGBA, error)
}

// ToRGBA converts any image to a tightly packed *image.RGBA with origin 0,0.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// FlipRows returns a vertically mirrored copy.
func FlipRows(img *image.RGBA) *image.RGBA {
	h := img.Rect.Dy()
	out := image.NewRGBA(img.Rect)
	rowLen := img.Rect.Dx() * 4
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		dst := out.Pix[(h-1-y)*out.Stride : (h-1-y)*out.Stride+rowLen]
		copy(dst, src)
	}
	return out
}
