package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// GizmoVertex matches the WGSL VertexInput
type GizmoVertex struct {
	Pos [3]float32
}

// GizmoInstance matches the WGSL instance attributes
type GizmoInstance struct {
	ModelMat mgl32.Mat4
	Color    [4]float32
}

const cameraBufferSize = 256

var gizmoShapes = []core.GizmoType{core.GizmoLine, core.GizmoCube}

// GizmoRenderPass draws wireframe overlays (bounding box, zoom box, axes)
// on top of the compositing pass.
type GizmoRenderPass struct {
	Pipeline       *wgpu.RenderPipeline
	VertexBuffer   *wgpu.Buffer
	ShapeOffsets   map[core.GizmoType]uint32
	ShapeCounts    map[core.GizmoType]uint32
	InstanceBuffer *wgpu.Buffer
	InstanceCap    uint32
	GizmosByShape  map[core.GizmoType][]GizmoInstance
	CameraBuffer   *wgpu.Buffer
	CameraGroup    *wgpu.BindGroup
	Device         *wgpu.Device
}

func NewGizmoRenderPass(device *wgpu.Device, format wgpu.TextureFormat) (*GizmoRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "GizmoShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.WireframeWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shaderModule.Release()

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "GizmoCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraBufferSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	defer bgl.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}
	defer pipelineLayout.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "GizmoPipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(GizmoVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(GizmoInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 6},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
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
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyLineList,
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

	p := &GizmoRenderPass{
		Pipeline:      pipeline,
		Device:        device,
		ShapeOffsets:  make(map[core.GizmoType]uint32),
		ShapeCounts:   make(map[core.GizmoType]uint32),
		GizmosByShape: make(map[core.GizmoType][]GizmoInstance),
	}

	var vertices []GizmoVertex
	addShape := func(t core.GizmoType, shapeVertices []GizmoVertex) {
		p.ShapeOffsets[t] = uint32(len(vertices))
		p.ShapeCounts[t] = uint32(len(shapeVertices))
		vertices = append(vertices, shapeVertices...)
	}

	// Unit line along +Z, oriented per instance from P1 to P2.
	addShape(core.GizmoLine, []GizmoVertex{
		{Pos: [3]float32{0, 0, 0}},
		{Pos: [3]float32{0, 0, 1}},
	})
	addShape(core.GizmoCube, unitCubeEdges())

	vSize := uint64(len(vertices) * int(unsafe.Sizeof(GizmoVertex{})))
	p.VertexBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "GizmoUnitVertexBuffer",
		Size:  vSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	device.GetQueue().WriteBuffer(p.VertexBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), vSize))

	p.CameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "GizmoCameraBuffer",
		Size:  cameraBufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	p.CameraGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "GizmoCameraBG",
		Layout: p.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.CameraBuffer, Size: cameraBufferSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// unitCubeEdges spans -0.5..0.5 as twelve line segments.
func unitCubeEdges() []GizmoVertex {
	lo, hi := float32(-0.5), float32(0.5)
	corner := func(x, y, z float32) GizmoVertex { return GizmoVertex{Pos: [3]float32{x, y, z}} }
	var out []GizmoVertex
	for _, y := range []float32{lo, hi} {
		out = append(out,
			corner(lo, y, lo), corner(hi, y, lo),
			corner(hi, y, lo), corner(hi, y, hi),
			corner(hi, y, hi), corner(lo, y, hi),
			corner(lo, y, hi), corner(lo, y, lo),
		)
	}
	for _, xz := range [][2]float32{{lo, lo}, {hi, lo}, {hi, hi}, {lo, hi}} {
		out = append(out, corner(xz[0], lo, xz[1]), corner(xz[0], hi, xz[1]))
	}
	return out
}

// Update writes the camera and instance data for this frame.
func (p *GizmoRenderPass) Update(queue *wgpu.Queue, viewProj mgl32.Mat4, gizmos []core.Gizmo) error {
	for k := range p.GizmosByShape {
		p.GizmosByShape[k] = p.GizmosByShape[k][:0]
	}

	for _, g := range gizmos {
		inst := GizmoInstance{Color: g.Color}

		if g.Type == core.GizmoLine {
			wp1 := g.ModelMatrix.Mul4x1(g.P1.Vec4(1.0)).Vec3()
			wp2 := g.ModelMatrix.Mul4x1(g.P2.Vec4(1.0)).Vec3()

			diff := wp2.Sub(wp1)
			dist := diff.Len()
			if dist < 0.0001 {
				continue
			}
			rot := mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, diff.Normalize())

			inst.ModelMat = mgl32.Translate3D(wp1.X(), wp1.Y(), wp1.Z()).
				Mul4(rot.Mat4()).
				Mul4(mgl32.Scale3D(1, 1, dist))
		} else {
			inst.ModelMat = g.ModelMatrix
		}

		p.GizmosByShape[g.Type] = append(p.GizmosByShape[g.Type], inst)
	}

	var allInstances []GizmoInstance
	for _, shapeType := range gizmoShapes {
		allInstances = append(allInstances, p.GizmosByShape[shapeType]...)
	}
	if len(allInstances) == 0 {
		return nil
	}

	if err := queue.WriteBuffer(p.CameraBuffer, 0, wgpu.ToBytes(viewProj[:])); err != nil {
		return err
	}

	instanceCount := uint32(len(allInstances))
	sizeBytes := uint64(len(allInstances) * int(unsafe.Sizeof(GizmoInstance{})))

	if p.InstanceBuffer == nil || p.InstanceCap < instanceCount {
		if p.InstanceBuffer != nil {
			p.InstanceBuffer.Release()
		}
		p.InstanceCap = instanceCount + 16
		var err error
		p.InstanceBuffer, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "GizmoInstanceBuffer",
			Size:  uint64(p.InstanceCap) * uint64(unsafe.Sizeof(GizmoInstance{})),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.InstanceBuffer = nil
			return err
		}
	}

	return queue.WriteBuffer(p.InstanceBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&allInstances[0])), sizeBytes))
}

func (p *GizmoRenderPass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.InstanceBuffer == nil {
		return
	}

	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.CameraGroup, nil)
	pass.SetVertexBuffer(0, p.VertexBuffer, 0, p.VertexBuffer.GetSize())
	pass.SetVertexBuffer(1, p.InstanceBuffer, 0, p.InstanceBuffer.GetSize())

	var instanceOffset uint32
	for _, shapeType := range gizmoShapes {
		count := uint32(len(p.GizmosByShape[shapeType]))
		if count > 0 {
			pass.Draw(p.ShapeCounts[shapeType], count, p.ShapeOffsets[shapeType], instanceOffset)
		}
		instanceOffset += count
	}
}

func (p *GizmoRenderPass) Release() {
	if p.CameraGroup != nil {
		p.CameraGroup.Release()
	}
	if p.CameraBuffer != nil {
		p.CameraBuffer.Release()
	}
	if p.InstanceBuffer != nil {
		p.InstanceBuffer.Release()
	}
	if p.VertexBuffer != nil {
		p.VertexBuffer.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}
