package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volren/volrt/rt/shaders"
)

// blitPass copies the visible framebuffer onto the surface texture.
type blitPass struct {
	device   *wgpu.Device
	pipeline *wgpu.RenderPipeline
	group    *wgpu.BindGroup
	source   *wgpu.TextureView
}

func newBlitPass(device *wgpu.Device, format wgpu.TextureFormat) (*blitPass, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "BlitShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BlitWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "BlitPipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	return &blitPass{device: device, pipeline: pipeline}, nil
}

// invalidate drops the cached bind group after the framebuffer is recreated.
func (p *blitPass) invalidate() {
	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	p.source = nil
}

func (p *blitPass) Draw(encoder *wgpu.CommandEncoder, target, source *wgpu.TextureView, sampler *wgpu.Sampler) error {
	if p.group == nil || p.source != source {
		p.invalidate()
		group, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "BlitBG",
			Layout: p.pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Sampler: sampler},
				{Binding: 1, TextureView: source},
			},
		})
		if err != nil {
			return err
		}
		p.group = group
		p.source = source
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.group, nil)
	pass.Draw(3, 1, 0, 0)
	return pass.End()
}

func (p *blitPass) Release() {
	p.invalidate()
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
}
