package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/gekko3d/volren"
	"github.com/gekko3d/volren/volrt/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML renderer configuration")
	slices := flag.String("slices", "", "Comma separated slice atlas images")
	shader := flag.String("shader", "", "Compositing shader (secondPassDefault, secondPassMip)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := volren.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = volren.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *slices != "" {
		cfg.SlicemapsPaths = strings.Split(*slices, ",")
	}
	if *shader != "" {
		cfg.ShaderName = *shader
	}
	cfg.Debug = cfg.Debug || *debug

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.WindowSize[0], cfg.WindowSize[1], "Volren", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg)
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			x, y := w.GetCursorPos()
			application.Orbit.BeginDrag(x, y)
		case glfw.Release:
			application.Orbit.EndDrag()
		}
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.Orbit.Drag(xpos, ypos)
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.Orbit.Scroll(yoff)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		if err := application.HandleKey(key); err != nil {
			application.Renderer.Logger().Errorf("key %v: %v", key, err)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
