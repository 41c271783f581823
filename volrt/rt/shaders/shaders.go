package shaders

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"text/template"
)

//go:embed wireframe.wgsl
var WireframeWGSL string

//go:embed blit.wgsl
var BlitWGSL string

//go:embed params.wgsl first_pass.wgsl second_pass_default.wgsl second_pass_mip.wgsl
var programFS embed.FS

// Program names.
const (
	FirstPass         = "firstPass"
	SecondPassDefault = "secondPassDefault"
	SecondPassMip     = "secondPassMip"
)

// Kind tells the backend which bind group layout a program expects.
type Kind int

const (
	// KindGeometry programs only read the Params block.
	KindGeometry Kind = iota
	// KindCompositing programs also sample the back-coordinate target, the
	// transfer function and MaxTexturesNumber atlas textures.
	KindCompositing
)

// Source is a rendered WGSL module.
type Source struct {
	Name              string
	Kind              Kind
	Code              string
	VertexEntry       string
	FragmentEntry     string
	MaxTexturesNumber int
}

type entry struct {
	file string
	kind Kind
}

var registry = map[string]entry{
	FirstPass:         {file: "first_pass.wgsl", kind: KindGeometry},
	SecondPassDefault: {file: "second_pass_default.wgsl", kind: KindCompositing},
	SecondPassMip:     {file: "second_pass_mip.wgsl", kind: KindCompositing},
}

var funcs = template.FuncMap{
	"seq": func(n int) []int {
		out := make([]int, max(n, 0))
		for i := range out {
			out[i] = i
		}
		return out
	},
	"add": func(a, b int) int { return a + b },
}

// Names lists the registered programs.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a registered program.
func Has(name string) bool {
	_, ok := registry[name]
	return ok
}

// IsCompositing reports whether name can drive the compositing pass.
func IsCompositing(name string) bool {
	e, ok := registry[name]
	return ok && e.kind == KindCompositing
}

// Render expands the program template for the given atlas texture count.
func Render(name string, maxTextures int) (Source, error) {
	e, ok := registry[name]
	if !ok {
		return Source{}, fmt.Errorf("unknown shader %q", name)
	}
	if e.kind == KindCompositing && maxTextures < 1 {
		return Source{}, fmt.Errorf("shader %q: max textures number %d must be positive", name, maxTextures)
	}

	tmpl, err := template.New(e.file).Funcs(funcs).ParseFS(programFS, "params.wgsl", e.file)
	if err != nil {
		return Source{}, fmt.Errorf("parse shader %q: %w", name, err)
	}

	var buf bytes.Buffer
	data := struct{ MaxTexturesNumber int }{maxTextures}
	if err := tmpl.ExecuteTemplate(&buf, e.file, data); err != nil {
		return Source{}, fmt.Errorf("render shader %q: %w", name, err)
	}

	return Source{
		Name:              name,
		Kind:              e.kind,
		Code:              buf.String(),
		VertexEntry:       "vs_main",
		FragmentEntry:     "fs_main",
		MaxTexturesNumber: maxTextures,
	}, nil
}
