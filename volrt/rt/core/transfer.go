package core

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"cogentcore.org/core/colors"
	"cogentcore.org/core/colors/gradient"
	"cogentcore.org/core/math32"
)

// Transfer function raster size. The gradient runs corner to corner, so the
// two rows differ by at most one texel step.
const (
	TransferFunctionWidth  = 512
	TransferFunctionHeight = 2
)

var ErrInvalidTransferFunction = errors.New("invalid transfer function")

// ColorStop is one authored point of the transfer function.
type ColorStop struct {
	Pos   float32 `yaml:"pos"`
	Color string  `yaml:"color"`
}

// DefaultTransferFunction maps black to white.
func DefaultTransferFunction() []ColorStop {
	return []ColorStop{
		{Pos: 0, Color: "#000000"},
		{Pos: 1, Color: "#ffffff"},
	}
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa or a named color.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return colors.FromHex(s)
	}
	return colors.FromName(strings.ToLower(s))
}

type parsedStop struct {
	pos float32
	c   color.RGBA
}

func parseStops(stops []ColorStop) ([]parsedStop, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: no color stops", ErrInvalidTransferFunction)
	}
	out := make([]parsedStop, len(stops))
	for i, s := range stops {
		if s.Pos < 0 || s.Pos > 1 {
			return nil, fmt.Errorf("%w: stop %d position %g outside [0,1]", ErrInvalidTransferFunction, i, s.Pos)
		}
		if i > 0 && s.Pos < stops[i-1].Pos {
			return nil, fmt.Errorf("%w: stop %d position %g precedes %g", ErrInvalidTransferFunction, i, s.Pos, stops[i-1].Pos)
		}
		c, err := ParseColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: stop %d: %w", ErrInvalidTransferFunction, i, err)
		}
		out[i] = parsedStop{pos: s.Pos, c: c}
	}
	return out, nil
}

// ValidateStops checks ordering, range and color syntax.
func ValidateStops(stops []ColorStop) error {
	_, err := parseStops(stops)
	return err
}

// EncodeTransferFunction rasterizes the stops as a linear gradient from the
// top-left to the bottom-right texel of a 512x2 image. Texels keep straight
// alpha.
func EncodeTransferFunction(stops []ColorStop) (*image.RGBA, error) {
	parsed, err := parseStops(stops)
	if err != nil {
		return nil, err
	}

	w, h := float32(TransferFunctionWidth), float32(TransferFunctionHeight)
	g := gradient.NewLinear()
	g.Units = gradient.UserSpaceOnUse
	g.Spread = gradient.Pad
	g.Blend = colors.RGB
	g.Start = math32.Vec2(0, 0)
	g.End = math32.Vec2(w-1, h-1)
	for _, s := range parsed {
		opaque := color.RGBA{s.c.R, s.c.G, s.c.B, 255}
		g.Stops = append(g.Stops, gradient.Stop{Color: opaque, Opacity: float32(s.c.A) / 255, Pos: s.pos})
	}
	g.Update(1, math32.B2(0, 0, w, h), math32.Identity2())

	img := image.NewRGBA(image.Rect(0, 0, TransferFunctionWidth, TransferFunctionHeight))
	for y := 0; y < TransferFunctionHeight; y++ {
		for x := 0; x < TransferFunctionWidth; x++ {
			c := color.NRGBAModel.Convert(g.At(x, y)).(color.NRGBA)
			img.SetRGBA(x, y, color.RGBA(c))
		}
	}
	return img, nil
}
