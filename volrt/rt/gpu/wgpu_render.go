package gpu

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
)

var ErrForeignTexture = errors.New("texture was not created by this backend")

func (b *WGPUBackend) Render(pass *Pass, target Texture) error {
	dst := b.screen
	if target != nil {
		t, ok := target.(*wgpuTexture)
		if !ok {
			return ErrForeignTexture
		}
		dst = t
	}
	if dst == nil {
		return fmt.Errorf("render %s: no framebuffer", pass.Label)
	}

	var program *wgpuProgram
	var mesh *wgpuMesh
	if pass.Program != nil && pass.Mesh != nil {
		var ok bool
		if program, ok = pass.Program.(*wgpuProgram); !ok {
			return fmt.Errorf("render %s: foreign program", pass.Label)
		}
		if mesh, ok = pass.Mesh.(*wgpuMesh); !ok {
			return fmt.Errorf("render %s: foreign mesh", pass.Label)
		}
		if err := mesh.upload(b.Queue); err != nil {
			return fmt.Errorf("render %s: upload mesh: %w", pass.Label, err)
		}
		if pass.Uniforms != nil {
			if err := b.Queue.WriteBuffer(program.params, 0, pass.Uniforms.Bytes()); err != nil {
				return fmt.Errorf("render %s: write uniforms: %w", pass.Label, err)
			}
		}
	}
	if len(pass.Overlays) > 0 {
		if err := b.overlays.Update(b.Queue, pass.ViewProj, pass.Overlays); err != nil {
			return fmt.Errorf("render %s: overlays: %w", pass.Label, err)
		}
	}

	encoder, err := b.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: pass.Label})
	if err != nil {
		return err
	}
	defer encoder.Release()

	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: pass.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       dst.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: b.clear,
		}},
	})

	if program != nil && mesh.mesh.VertexCount() > 0 {
		pipeline, err := program.pipeline(pass.Cull)
		if err != nil {
			rp.End()
			return err
		}
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, program.paramsGroup, nil)
		if program.kind == shaders.KindCompositing {
			group, err := b.atlasGroup(program, pass.Uniforms, dst)
			if err != nil {
				rp.End()
				return fmt.Errorf("render %s: %w", pass.Label, err)
			}
			rp.SetBindGroup(1, group, nil)
		}
		rp.SetVertexBuffer(0, mesh.positions, 0, wgpu.WholeSize)
		rp.SetVertexBuffer(1, mesh.colors, 0, wgpu.WholeSize)
		rp.Draw(uint32(mesh.mesh.VertexCount()), 1, 0, 0)
	}
	if len(pass.Overlays) > 0 {
		b.overlays.Draw(rp)
	}
	if err := rp.End(); err != nil {
		return fmt.Errorf("render %s: %w", pass.Label, err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("render %s: finish: %w", pass.Label, err)
	}
	defer cmd.Release()
	b.Queue.Submit(cmd)
	return nil
}

// atlasGroup binds back coordinates, the transfer function and every slice
// map slot. Unset slots use the placeholder texture. The group is rebuilt
// only when the bound textures change.
func (b *WGPUBackend) atlasGroup(p *wgpuProgram, uniforms *core.UniformTable, dst *wgpuTexture) (*wgpu.BindGroup, error) {
	views := make([]*wgpuTexture, 0, 2+p.maxTextures)
	resolve := func(h core.TextureHandle) *wgpuTexture {
		if t, ok := h.(*wgpuTexture); ok && t != nil && t.view != nil && t != dst {
			return t
		}
		return b.dummy
	}

	var back, tf core.TextureHandle
	var maps []core.TextureHandle
	if uniforms != nil {
		back, _ = uniforms.Texture(core.UBackCoord)
		tf, _ = uniforms.Texture(core.UTransferFunction)
		maps, _ = uniforms.SliceMaps()
	}
	views = append(views, resolve(back), resolve(tf))
	for i := 0; i < p.maxTextures; i++ {
		var h core.TextureHandle
		if i < len(maps) {
			h = maps[i]
		}
		views = append(views, resolve(h))
	}

	var key strings.Builder
	for _, v := range views {
		key.WriteString(v.id.String())
	}
	if p.atlasGroup != nil && p.atlasKey == key.String() {
		return p.atlasGroup, nil
	}

	entries := []wgpu.BindGroupEntry{{Binding: 0, Sampler: b.sampler}}
	for i, v := range views {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(1 + i), TextureView: v.view})
	}
	group, err := b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + "AtlasBG",
		Layout:  p.atlasBGL,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	if p.atlasGroup != nil {
		p.atlasGroup.Release()
	}
	p.atlasGroup = group
	p.atlasKey = key.String()
	return group, nil
}

// ReadPixels copies the visible framebuffer into host memory.
func (b *WGPUBackend) ReadPixels() (*image.RGBA, error) {
	if b.screen == nil {
		return nil, errors.New("read pixels: no framebuffer")
	}
	w, h := b.screen.width, b.screen.height
	bytesPerRow := (uint32(w)*4 + 255) &^ 255
	size := uint64(bytesPerRow) * uint64(h)

	buffer, err := b.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ReadbackBuffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer buffer.Release()

	encoder, err := b.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()

	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  b.screen.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: uint32(h),
			},
		},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	defer cmd.Release()
	b.Queue.Submit(cmd)

	var status wgpu.BufferMapAsyncStatus
	err = buffer.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	b.Device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("read pixels: map status %v", status)
	}
	defer buffer.Unmap()

	data := buffer.GetMappedRange(0, uint(size))
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], data[y*int(bytesPerRow):])
	}
	return out, nil
}
