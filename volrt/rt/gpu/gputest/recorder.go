// Package gputest provides an in-memory gpu.Backend that records every call.
package gputest

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"sync"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/gekko3d/volren/volrt/rt/gpu"
	"github.com/gekko3d/volren/volrt/rt/shaders"
	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected failure")

// Call is one recorded backend operation.
type Call struct {
	Op       string
	Label    string
	Target   string
	Overlays int
	Cull     gpu.CullMode
}

type Texture struct {
	id       uuid.UUID
	Label    string
	W, H     int
	Opts     gpu.TextureOptions
	Released bool
	Target   bool
}

func (t *Texture) ID() uuid.UUID    { return t.id }
func (t *Texture) Size() (int, int) { return t.W, t.H }
func (t *Texture) Release()         { t.Released = true }

type Program struct {
	Source   shaders.Source
	Released bool
}

func (p *Program) Name() string { return p.Source.Name }
func (p *Program) Release()     { p.Released = true }

type Mesh struct {
	mesh     *core.Mesh
	Uploads  int
	Released bool
}

func (m *Mesh) Mesh() *core.Mesh { return m.mesh }
func (m *Mesh) Release()         { m.Released = true }

// Snapshot captures the uniform table as seen by one Render call.
type Snapshot struct {
	Label    string
	Program  string
	Target   string
	Uniforms []byte
	Back     core.TextureHandle
	Transfer core.TextureHandle
	Maps     []core.TextureHandle
}

// Recorder implements gpu.Backend without a device.
type Recorder struct {
	mu sync.Mutex

	MaxUnits int
	MaxSize  int
	Width    int
	Height   int
	Clear    color.RGBA
	Calls    []Call
	Renders  []Snapshot
	Textures []*Texture
	Programs []*Program
	Meshes   []*Mesh
	Frame    *image.RGBA

	// FailTexture makes CreateTexture fail for the given labels.
	FailTexture map[string]bool
	FailProgram map[string]bool
}

func New(width, height int) *Recorder {
	return &Recorder{
		MaxUnits:    16,
		MaxSize:     8192,
		Width:       width,
		Height:      height,
		FailTexture: map[string]bool{},
		FailProgram: map[string]bool{},
	}
}

func (r *Recorder) record(c Call) {
	r.Calls = append(r.Calls, c)
}

func (r *Recorder) MaxTextureImageUnits() int { return r.MaxUnits }
func (r *Recorder) MaxTextureSize() int       { return r.MaxSize }

func (r *Recorder) CreateTexture(img image.Image, opts gpu.TextureOptions) (gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "CreateTexture", Label: opts.Label})
	if r.FailTexture[opts.Label] {
		return nil, ErrInjected
	}
	b := img.Bounds()
	t := &Texture{id: uuid.New(), Label: opts.Label, W: b.Dx(), H: b.Dy(), Opts: opts}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Recorder) CreateRenderTarget(width, height int) (gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "CreateRenderTarget"})
	t := &Texture{id: uuid.New(), Label: "RenderTarget", W: width, H: height, Target: true}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Recorder) CreateProgram(src shaders.Source) (gpu.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "CreateProgram", Label: src.Name})
	if r.FailProgram[src.Name] {
		return nil, ErrInjected
	}
	p := &Program{Source: src}
	r.Programs = append(r.Programs, p)
	return p, nil
}

func (r *Recorder) CreateMesh(mesh *core.Mesh) (gpu.MeshBuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "CreateMesh"})
	m := &Mesh{mesh: mesh}
	r.Meshes = append(r.Meshes, m)
	return m, nil
}

func (r *Recorder) SetClearColor(c color.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Clear = c
}

func (r *Recorder) Render(pass *gpu.Pass, target gpu.Texture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dst := "screen"
	if target != nil {
		dst = "offscreen"
	}
	r.record(Call{Op: "Render", Label: pass.Label, Target: dst, Overlays: len(pass.Overlays), Cull: pass.Cull})

	snap := Snapshot{Label: pass.Label, Target: dst}
	if pass.Program != nil {
		snap.Program = pass.Program.Name()
	}
	if pass.Mesh != nil {
		if m, ok := pass.Mesh.(*Mesh); ok {
			if m.mesh.PositionsDirty || m.mesh.ColorsDirty {
				m.Uploads++
			}
			m.mesh.PositionsDirty = false
			m.mesh.ColorsDirty = false
		}
	}
	if pass.Uniforms != nil {
		snap.Uniforms = pass.Uniforms.Bytes()
		snap.Back, _ = pass.Uniforms.Texture(core.UBackCoord)
		snap.Transfer, _ = pass.Uniforms.Texture(core.UTransferFunction)
		snap.Maps, _ = pass.Uniforms.SliceMaps()
	}
	r.Renders = append(r.Renders, snap)

	if target == nil {
		r.Frame = image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
		for i := 0; i < len(r.Frame.Pix); i += 4 {
			r.Frame.Pix[i] = r.Clear.R
			r.Frame.Pix[i+1] = r.Clear.G
			r.Frame.Pix[i+2] = r.Clear.B
			r.Frame.Pix[i+3] = r.Clear.A
		}
	}
	return nil
}

func (r *Recorder) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: "Resize"})
	r.Width, r.Height = width, height
	return nil
}

func (r *Recorder) ReadPixels() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frame == nil {
		return image.NewRGBA(image.Rect(0, 0, r.Width, r.Height)), nil
	}
	out := image.NewRGBA(r.Frame.Rect)
	copy(out.Pix, r.Frame.Pix)
	return out, nil
}

// Ops lists recorded operation names, optionally filtered.
func (r *Recorder) Ops(filter ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.Calls {
		if len(filter) > 0 && !slices.Contains(filter, c.Op) {
			continue
		}
		out = append(out, c.Op+":"+c.Label+":"+c.Target)
	}
	return out
}

// RenderCalls returns only the Render calls.
func (r *Recorder) RenderCalls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.Calls {
		if c.Op == "Render" {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls and snapshots.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
	r.Renders = nil
}

// LiveTextures returns textures not yet released.
func (r *Recorder) LiveTextures(label string) []*Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Texture
	for _, t := range r.Textures {
		if !t.Released && (label == "" || t.Label == label) {
			out = append(out, t)
		}
	}
	return out
}

var _ gpu.Backend = (*Recorder)(nil)
