// Package volren renders a scalar volume stored as a slice atlas with
// two-pass GPU ray casting. Core owns the rendering parameters, keeps the
// shader uniforms in sync with them and sequences both passes per frame.
package volren

import (
	"fmt"
	"image"

	"github.com/gekko3d/volren/volrt/rt/atlas"
	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/gpu"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// Core is the render pipeline. It is not safe for concurrent use; atlas
// decoding runs in the background but only commits from ProcessAtlasLoads.
type Core struct {
	log        Logger
	backend    gpu.Backend
	geometry   core.GeometryBuilder
	controller Controller
	callback   func()

	configMode PipelineMode
	mode       PipelineMode
	shaderName string
	domID      string
	appearance core.AppearanceState
	volume     core.VolumeDescriptor
	crop       core.CropBox
	rotation   mgl32.Vec3
	clearColor string
	renderSize [2]core.Bound
	canvasSize [2]core.Bound
	window     [2]int
	renderPx   [2]int
	rotating   bool
	camera     *core.CameraState
	light      *core.Light
	zoom       *core.ZoomOverlay
	axes       []core.Gizmo
	profiler   *Profiler

	// Compositing scene contents.
	wireframeOn bool
	zoomOn      bool
	axisOn      bool

	transferStops []core.ColorStop
	transferImage image.Image
	transferTex   gpu.Texture

	slicemapsPaths []string
	atlasImages    []image.Image
	atlasTextures  []gpu.Texture
	loader         *atlas.Loader
	settled        map[uint64]error

	mesh          *core.Mesh
	meshBuf       gpu.MeshBuffer
	target        gpu.Texture
	firstProgram  gpu.Program
	secondProgram gpu.Program
	first         *core.UniformTable
	second        *core.UniformTable

	OnPreDraw                core.Signal[string]
	OnPostDraw               core.Signal[string]
	OnResizeWindow           core.Signal[struct{}]
	OnCameraChange           core.Signal[struct{}]
	OnCameraChangeStart      core.Signal[struct{}]
	OnCameraChangeEnd        core.Signal[struct{}]
	OnChangeTransferFunction core.Signal[image.Image]

	resizeSub *core.Subscription[struct{}]
}

// New validates cfg and prepares a pipeline on backend. No GPU resources
// are created until Init.
func New(cfg Config, backend gpu.Backend) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := ParseMode(cfg.Mode)

	log := cfg.Logger
	if log == nil {
		log = NewDefaultLogger("volren", cfg.Debug)
	}
	geometry := cfg.Geometry
	if geometry == nil {
		geometry = core.BoxBuilder{}
	}

	pos := cfg.cameraPosition()
	camera := core.NewCameraState(pos[2], 1)
	camera.Position = mgl32.Vec3{pos[0], pos[1], pos[2]}

	zoom := core.NewZoomOverlay()
	zoom.Region = cfg.ZoomParameters
	zoom.Update()

	c := &Core{
		log:            log,
		backend:        backend,
		geometry:       geometry,
		controller:     cfg.Controller,
		callback:       cfg.Callback,
		configMode:     mode,
		shaderName:     cfg.ShaderName,
		domID:          cfg.DomContainer,
		appearance:     cfg.appearance(),
		volume:         cfg.volume(),
		crop:           cfg.GeometryDimensions,
		rotation:       mgl32.Vec3(cfg.GeometryRotation),
		clearColor:     cfg.BackgroundColor,
		renderSize:     cfg.RendererSize,
		canvasSize:     cfg.RendererCanvasSize,
		window:         cfg.WindowSize,
		camera:         camera,
		light:          core.NewLight(),
		zoom:           zoom,
		axes:           core.BuildAxes(0.5),
		profiler:       NewProfiler(),
		transferStops:  append([]core.ColorStop(nil), cfg.TransferFunction...),
		slicemapsPaths: append([]string(nil), cfg.SlicemapsPaths...),
		loader:         atlas.NewLoader(),
		settled:        make(map[uint64]error),
	}
	return c, nil
}

// Init builds the GPU side of the pipeline. TwoD is reserved and fails with
// ErrUnsupportedMode; the pipeline then keeps accepting setters without
// touching any GPU state.
func (c *Core) Init() (err error) {
	if c.mode == ModeThreeD {
		return nil
	}
	if c.configMode == ModeTwoD {
		c.mode = ModeTwoD
		c.log.Warnf("2d mode is not supported")
		return fmt.Errorf("%w: 2d", ErrUnsupportedMode)
	}

	maxTextures := c.MaxTexturesNumber()
	if maxTextures < 1 {
		return fmt.Errorf("%w: backend binds %d textures, need more than %d",
			ErrInvalidConfiguration, c.backend.MaxTextureImageUnits(), gpu.ReservedTextureUnits)
	}

	// A failed build leaves nothing allocated, so Init can be retried.
	defer func() {
		if err != nil {
			c.releaseGPU()
		}
	}()

	w, h := c.RenderSizeInPixels()
	if err := c.backend.Resize(w, h); err != nil {
		return err
	}
	c.renderPx = [2]int{w, h}
	c.camera.SetAspect(w, h)
	if bg, err := core.ParseColor(c.clearColor); err == nil {
		bg.A = 0
		c.backend.SetClearColor(bg)
	}

	target, err := c.backend.CreateRenderTarget(w, h)
	if err != nil {
		return fmt.Errorf("create render target: %w", err)
	}
	c.target = target

	src, err := shaders.Render(shaders.FirstPass, maxTextures)
	if err != nil {
		return err
	}
	if c.firstProgram, err = c.backend.CreateProgram(src); err != nil {
		return fmt.Errorf("build %s: %w", shaders.FirstPass, err)
	}
	c.first = core.NewUniformTable()
	c.first.DeclareMat(core.UViewProjection, c.camera.ViewProjection())

	c.rebuildGeometry()
	if c.meshBuf, err = c.backend.CreateMesh(c.mesh); err != nil {
		return fmt.Errorf("create mesh: %w", err)
	}

	if err := c.rebuildCompositing(c.shaderName, bundleInit); err != nil {
		return err
	}
	c.mode = ModeThreeD
	c.wireframeOn = true
	c.zoomOn = true

	if err := c.SetTransferFunctionByColors(c.transferStops); err != nil {
		return err
	}

	c.resizeSub = c.OnResizeWindow.Subscribe(func(struct{}) {
		if err := c.SetRenderCanvasSize(c.canvasSize[0], c.canvasSize[1]); err != nil {
			c.log.Errorf("resize: %v", err)
		}
	})
	c.resizeSub.Pause()
	if err := c.SetRenderCanvasSize(c.canvasSize[0], c.canvasSize[1]); err != nil {
		return err
	}

	c.log.Infof("initialized %s pipeline %dx%d, shader %s, %d atlas slots", c.mode, w, h, c.shaderName, maxTextures)
	c.runCallback()
	return nil
}

// runCallback is a best-effort hook: failures never reach the caller.
func (c *Core) runCallback() {
	if c.callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warnf("init callback failed: %v", r)
		}
	}()
	c.callback()
}

// Mode is the structural mode; ModeUninitialized until Init.
func (c *Core) Mode() PipelineMode { return c.mode }

func (c *Core) threeD() bool { return c.mode == ModeThreeD }

// Release frees every GPU resource and cancels running atlas loads.
func (c *Core) Release() {
	c.loader.Close()
	for _, t := range c.atlasTextures {
		t.Release()
	}
	c.atlasTextures = nil
	c.releaseGPU()
}

func (c *Core) releaseGPU() {
	if c.resizeSub != nil {
		c.resizeSub.Cancel()
		c.resizeSub = nil
	}
	for _, r := range []interface{ Release() }{c.transferTex, c.target, c.meshBuf, c.firstProgram, c.secondProgram} {
		if r != nil {
			r.Release()
		}
	}
	c.transferTex, c.target, c.meshBuf, c.firstProgram, c.secondProgram = nil, nil, nil, nil, nil
	c.first, c.second = nil, nil
	c.renderPx = [2]int{}
	c.mode = ModeUninitialized
}

// Camera returns the live camera; call NotifyCameraChange after moving it.
func (c *Core) Camera() *core.CameraState { return c.camera }

// Light returns the light used by the compositing pass.
func (c *Core) Light() *core.Light { return c.light }

// Profiler returns the per-pass timings of Draw.
func (c *Core) Profiler() *Profiler { return c.profiler }

// DomContainerID is the host container id from the config.
func (c *Core) DomContainerID() string { return c.domID }

// ShaderName is the active compositing program.
func (c *Core) ShaderName() string { return c.shaderName }

// SetController replaces the interaction controller advanced by Draw.
func (c *Core) SetController(ctrl Controller) {
	c.controller = ctrl
	if r, ok := ctrl.(AutoRotator); ok {
		r.SetAutoRotate(c.rotating)
	}
}

// NotifyCameraChange fires OnCameraChange.
func (c *Core) NotifyCameraChange() { c.OnCameraChange.Emit(struct{}{}) }

// NotifyCameraChangeStart fires OnCameraChangeStart.
func (c *Core) NotifyCameraChangeStart() { c.OnCameraChangeStart.Emit(struct{}{}) }

// NotifyCameraChangeEnd fires OnCameraChangeEnd.
func (c *Core) NotifyCameraChangeEnd() { c.OnCameraChangeEnd.Emit(struct{}{}) }

// StartRotate turns on controller auto-rotation.
func (c *Core) StartRotate() { c.setRotate(true) }

// StopRotate turns off controller auto-rotation.
func (c *Core) StopRotate() { c.setRotate(false) }

// IsRotating reports whether auto-rotation is on.
func (c *Core) IsRotating() bool { return c.rotating }

func (c *Core) setRotate(on bool) {
	c.rotating = on
	if r, ok := c.controller.(AutoRotator); ok {
		r.SetAutoRotate(on)
	}
}
