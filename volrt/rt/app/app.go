// Package app hosts a volren pipeline in a GLFW window.
package app

import (
	"context"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/volren"
	"github.com/gekko3d/volren/volrt/rt/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Surface  *wgpu.Surface
	Backend  *gpu.WGPUBackend

	Renderer *volren.Core
	Orbit    *OrbitController
	Config   volren.Config

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
	ShowStats      bool
}

func NewApp(window *glfw.Window, cfg volren.Config) *App {
	return &App{Window: window, Config: cfg, FPS: 60}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	width, height := a.Window.GetFramebufferSize()
	backend, err := gpu.NewWGPUBackend(a.Instance, a.Surface, width, height)
	if err != nil {
		return err
	}
	a.Backend = backend

	cfg := a.Config
	cfg.WindowSize = [2]int{width, height}
	r, err := volren.New(cfg, backend)
	if err != nil {
		return err
	}
	a.Renderer = r
	a.Orbit = NewOrbitController(r.Camera(), r)
	r.SetController(a.Orbit)

	if err := r.Init(); err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	if paths := r.SlicemapsPaths(); len(paths) > 0 {
		if _, err := r.LoadSlicemapsPaths(context.Background(), paths...); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	if err := a.Renderer.Resize(w, h); err != nil {
		a.Renderer.Logger().Errorf("resize: %v", err)
	}
}

// Update settles finished atlas loads. Outcomes are logged by the renderer.
func (a *App) Update() {
	a.Renderer.ProcessAtlasLoads()
}

func (a *App) Render() {
	if err := a.Renderer.Draw(a.FPS); err != nil {
		a.Renderer.Logger().Errorf("draw: %v", err)
		return
	}
	if err := a.Backend.Present(); err != nil {
		a.Renderer.Logger().Errorf("present: %v", err)
		return
	}

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			if a.ShowStats {
				fmt.Printf("FPS %.1f\n%s", a.FPS, a.Renderer.Profiler().GetStatsString())
			}
		}
	}
	a.LastRenderTime = now
}

// HandleKey maps keyboard shortcuts onto renderer toggles.
func (a *App) HandleKey(key glfw.Key) error {
	r := a.Renderer
	switch key {
	case glfw.KeyI:
		return r.ShowISO()
	case glfw.KeyV:
		return r.ShowVolren()
	case glfw.KeyW:
		if r.IsWireframeShown() {
			return r.RemoveWireframe()
		}
		return r.AddWireframe()
	case glfw.KeyA:
		return r.SetAxis()
	case glfw.KeyZ:
		return r.ShowZoomBox(!r.IsZoomBoxShown())
	case glfw.KeyR:
		if r.IsRotating() {
			r.StopRotate()
		} else {
			r.StartRotate()
		}
	case glfw.KeyT:
		if _, ok := r.ComputeThresholdIndexes(); ok {
			r.ApplyThresholding("otsu")
		}
	case glfw.KeyP:
		a.ShowStats = !a.ShowStats
	case glfw.KeyEqual, glfw.KeyKPAdd:
		r.SetOpacityFactor(r.OpacityFactor() * 1.1)
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		r.SetOpacityFactor(r.OpacityFactor() / 1.1)
	case glfw.KeyRightBracket:
		r.SetSteps(min(r.Steps()+10, r.MaxStepsNumber()))
	case glfw.KeyLeftBracket:
		r.SetSteps(max(r.Steps()-10, 1))
	}
	return nil
}

func (a *App) Release() {
	if a.Renderer != nil {
		a.Renderer.Release()
	}
	if a.Backend != nil {
		a.Backend.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
