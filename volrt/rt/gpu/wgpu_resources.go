package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/google/uuid"
)

type wgpuTexture struct {
	id            uuid.UUID
	label         string
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	width, height int
	opts          TextureOptions
}

func (t *wgpuTexture) ID() uuid.UUID           { return t.id }
func (t *wgpuTexture) Size() (int, int)        { return t.width, t.height }
func (t *wgpuTexture) String() string          { return t.label + ":" + t.id.String() }
func (t *wgpuTexture) Options() TextureOptions { return t.opts }

func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func (b *WGPUBackend) newTexture(label string, width, height int, usage wgpu.TextureUsage, opts TextureOptions) (*wgpuTexture, error) {
	texture, err := b.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("create view %s: %w", label, err)
	}
	return &wgpuTexture{
		id:      uuid.New(),
		label:   label,
		texture: texture,
		view:    view,
		width:   width,
		height:  height,
		opts:    opts,
	}, nil
}

// CreateTexture uploads img as an RGBA8 texture. Mipmaps are never
// generated; FlipY mirrors the rows before upload.
func (b *WGPUBackend) CreateTexture(img image.Image, opts TextureOptions) (Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("create texture %s: nil image", opts.Label)
	}
	rgba := ToRGBA(img)
	if opts.FlipY {
		rgba = FlipRows(rgba)
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("create texture %s: empty image", opts.Label)
	}
	if max(w, h) > b.MaxTextureSize() {
		return nil, fmt.Errorf("create texture %s: %dx%d exceeds max texture size %d", opts.Label, w, h, b.MaxTextureSize())
	}

	tex, err := b.newTexture(opts.Label, w, h, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst, opts)
	if err != nil {
		return nil, err
	}
	err = b.Queue.WriteTexture(
		tex.texture.AsImageCopy(),
		rgba.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rgba.Stride),
			RowsPerImage: uint32(h),
		},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("upload texture %s: %w", opts.Label, err)
	}
	return tex, nil
}

func (b *WGPUBackend) CreateRenderTarget(width, height int) (Texture, error) {
	return b.newTexture("RenderTarget", width, height,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc,
		AtlasTextureOptions("RenderTarget"))
}

type wgpuMesh struct {
	mesh      *core.Mesh
	positions *wgpu.Buffer
	colors    *wgpu.Buffer
	capacity  int
	device    *wgpu.Device
}

func (m *wgpuMesh) Mesh() *core.Mesh { return m.mesh }

func (m *wgpuMesh) Release() {
	if m.positions != nil {
		m.positions.Release()
		m.positions = nil
	}
	if m.colors != nil {
		m.colors.Release()
		m.colors = nil
	}
}

func (b *WGPUBackend) CreateMesh(mesh *core.Mesh) (MeshBuffer, error) {
	m := &wgpuMesh{mesh: mesh, device: b.Device}
	if err := m.upload(b.Queue); err != nil {
		return nil, err
	}
	return m, nil
}

// upload grows the vertex buffers when needed and writes dirty attributes.
func (m *wgpuMesh) upload(queue *wgpu.Queue) error {
	n := m.mesh.VertexCount()
	if n == 0 {
		return nil
	}
	if m.positions == nil || m.capacity < n {
		m.Release()
		size := uint64(n * 12)
		var err error
		m.positions, err = m.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "VolumePositions",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		m.colors, err = m.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "VolumeVertColor",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		m.capacity = n
		m.mesh.PositionsDirty = true
		m.mesh.ColorsDirty = true
	}
	if m.mesh.PositionsDirty {
		if err := queue.WriteBuffer(m.positions, 0, wgpu.ToBytes(m.mesh.Positions)); err != nil {
			return err
		}
		m.mesh.PositionsDirty = false
	}
	if m.mesh.ColorsDirty {
		if err := queue.WriteBuffer(m.colors, 0, wgpu.ToBytes(m.mesh.VertColor)); err != nil {
			return err
		}
		m.mesh.ColorsDirty = false
	}
	return nil
}

type wgpuProgram struct {
	name        string
	kind        shaders.Kind
	maxTextures int
	device      *wgpu.Device

	module    *wgpu.ShaderModule
	layout    *wgpu.PipelineLayout
	paramsBGL *wgpu.BindGroupLayout
	atlasBGL  *wgpu.BindGroupLayout
	pipelines map[CullMode]*wgpu.RenderPipeline

	params      *wgpu.Buffer
	paramsGroup *wgpu.BindGroup

	atlasKey   string
	atlasGroup *wgpu.BindGroup
}

func (p *wgpuProgram) Name() string { return p.name }

func (p *wgpuProgram) Release() {
	for _, pl := range p.pipelines {
		pl.Release()
	}
	p.pipelines = nil
	if p.atlasGroup != nil {
		p.atlasGroup.Release()
		p.atlasGroup = nil
	}
	if p.paramsGroup != nil {
		p.paramsGroup.Release()
		p.paramsGroup = nil
	}
	if p.params != nil {
		p.params.Release()
		p.params = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.atlasBGL != nil {
		p.atlasBGL.Release()
		p.atlasBGL = nil
	}
	if p.paramsBGL != nil {
		p.paramsBGL.Release()
		p.paramsBGL = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}

func (b *WGPUBackend) CreateProgram(src shaders.Source) (Program, error) {
	p := &wgpuProgram{
		name:        src.Name,
		kind:        src.Kind,
		maxTextures: src.MaxTexturesNumber,
		device:      b.Device,
		pipelines:   make(map[CullMode]*wgpu.RenderPipeline),
	}

	var err error
	p.module, err = b.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", src.Name, err)
	}

	p.paramsBGL, err = b.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: src.Name + "ParamsBGL",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: core.UniformBufferSize,
			},
		}},
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	layouts := []*wgpu.BindGroupLayout{p.paramsBGL}

	if src.Kind == shaders.KindCompositing {
		entries := []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		}
		for i := 0; i < 2+src.MaxTexturesNumber; i++ {
			entries = append(entries, wgpu.BindGroupLayoutEntry{
				Binding:    uint32(1 + i),
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			})
		}
		p.atlasBGL, err = b.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   src.Name + "AtlasBGL",
			Entries: entries,
		})
		if err != nil {
			p.Release()
			return nil, err
		}
		layouts = append(layouts, p.atlasBGL)
	}

	p.layout, err = b.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            src.Name + "Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		p.Release()
		return nil, err
	}

	p.params, err = b.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: src.Name + "Params",
		Size:  core.UniformBufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	p.paramsGroup, err = b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   src.Name + "ParamsBG",
		Layout:  p.paramsBGL,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: p.params, Size: core.UniformBufferSize}},
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// pipeline returns the pipeline for a cull mode, creating it on first use.
func (p *wgpuProgram) pipeline(cull CullMode) (*wgpu.RenderPipeline, error) {
	if pl, ok := p.pipelines[cull]; ok {
		return pl, nil
	}

	var blend *wgpu.BlendState
	if p.kind == shaders.KindCompositing {
		blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	}

	pl, err := p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.name,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 12,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: 12,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    TargetFormat,
				Blend:     blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpuCullMode(cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline %s: %w", p.name, err)
	}
	p.pipelines[cull] = pl
	return pl, nil
}

func wgpuCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullFront:
		return wgpu.CullModeFront
	case CullBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}
