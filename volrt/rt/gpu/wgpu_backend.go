package gpu

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/cogentcore/webgpu/wgpu"
)

// TargetFormat is used for the offscreen target and the visible framebuffer.
const TargetFormat = wgpu.TextureFormatRGBA8Unorm

var ErrNoSurface = errors.New("backend has no surface")

// WGPUBackend renders through WebGPU. The visible framebuffer is an
// offscreen texture so it can be read back; Present blits it to the surface.
type WGPUBackend struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	limits wgpu.Limits
	clear  wgpu.Color

	screen   *wgpuTexture
	dummy    *wgpuTexture
	sampler  *wgpu.Sampler
	blit     *blitPass
	overlays *GizmoRenderPass
}

// NewWGPUBackend requests an adapter and device. surface may be nil for
// headless rendering.
func NewWGPUBackend(instance *wgpu.Instance, surface *wgpu.Surface, width, height int) (*WGPUBackend, error) {
	b := &WGPUBackend{Instance: instance, Surface: surface, clear: wgpu.Color{R: 0, G: 0, B: 0, A: 0}}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.Adapter = adapter

	supported := adapter.GetLimits()
	limits := wgpu.DefaultLimits()
	limits.MaxSampledTexturesPerShaderStage = supported.Limits.MaxSampledTexturesPerShaderStage
	limits.MaxTextureDimension2D = supported.Limits.MaxTextureDimension2D
	b.limits = limits

	b.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "Volren Device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.Queue = b.Device.GetQueue()

	b.sampler, err = b.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	b.dummy, err = b.newTexture("AtlasPlaceholder", 1, 1, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst, AtlasTextureOptions("AtlasPlaceholder"))
	if err != nil {
		return nil, err
	}
	if err := b.Queue.WriteTexture(b.dummy.texture.AsImageCopy(), []byte{0, 0, 0, 0},
		&wgpu.TextureDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}); err != nil {
		return nil, fmt.Errorf("upload placeholder: %w", err)
	}

	b.overlays, err = NewGizmoRenderPass(b.Device, TargetFormat)
	if err != nil {
		return nil, fmt.Errorf("create overlay pass: %w", err)
	}

	if surface != nil {
		caps := surface.GetCapabilities(adapter)
		b.Config = &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      caps.Formats[0],
			Width:       uint32(width),
			Height:      uint32(height),
			PresentMode: wgpu.PresentModeFifo,
			AlphaMode:   caps.AlphaModes[0],
		}
		surface.Configure(adapter, b.Device, b.Config)

		b.blit, err = newBlitPass(b.Device, b.Config.Format)
		if err != nil {
			return nil, fmt.Errorf("create blit pass: %w", err)
		}
	}

	if err := b.Resize(width, height); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *WGPUBackend) MaxTextureImageUnits() int {
	return int(b.limits.MaxSampledTexturesPerShaderStage)
}

func (b *WGPUBackend) MaxTextureSize() int {
	return int(b.limits.MaxTextureDimension2D)
}

func (b *WGPUBackend) SetClearColor(c color.RGBA) {
	b.clear = wgpu.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// Resize recreates the visible framebuffer and reconfigures the surface.
func (b *WGPUBackend) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if b.Surface != nil && b.Config != nil {
		b.Config.Width = uint32(width)
		b.Config.Height = uint32(height)
		b.Surface.Configure(b.Adapter, b.Device, b.Config)
	}

	if b.screen != nil {
		b.screen.Release()
	}
	screen, err := b.CreateRenderTarget(width, height)
	if err != nil {
		return fmt.Errorf("create framebuffer: %w", err)
	}
	b.screen = screen.(*wgpuTexture)
	if b.blit != nil {
		b.blit.invalidate()
	}
	return nil
}

// Present blits the visible framebuffer to the surface.
func (b *WGPUBackend) Present() error {
	if b.Surface == nil || b.blit == nil {
		return ErrNoSurface
	}
	next, err := b.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer next.Release()

	view, err := next.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create surface view: %w", err)
	}
	defer view.Release()

	encoder, err := b.Device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	if err := b.blit.Draw(encoder, view, b.screen.view, b.sampler); err != nil {
		return err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish present: %w", err)
	}
	defer cmd.Release()
	b.Queue.Submit(cmd)
	b.Surface.Present()
	return nil
}

func (b *WGPUBackend) Release() {
	if b.screen != nil {
		b.screen.Release()
	}
	if b.dummy != nil {
		b.dummy.Release()
	}
	if b.blit != nil {
		b.blit.Release()
	}
	if b.overlays != nil {
		b.overlays.Release()
	}
	if b.sampler != nil {
		b.sampler.Release()
	}
	if b.Device != nil {
		b.Device.Release()
	}
	if b.Adapter != nil {
		b.Adapter.Release()
	}
}
