package atlas

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source yields one slice atlas image.
type Source interface {
	Name() string
	Load(ctx context.Context) (image.Image, error)
}

// FileSource decodes an image file. PNG, JPEG, BMP, TIFF and WebP are
// recognized by content.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Load(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return img, nil
}

// ImageSource wraps an image already in memory.
type ImageSource struct {
	Label string
	Image image.Image
}

func (s ImageSource) Name() string { return s.Label }

func (s ImageSource) Load(ctx context.Context) (image.Image, error) {
	if s.Image == nil {
		return nil, fmt.Errorf("%s: no image", s.Label)
	}
	return s.Image, ctx.Err()
}

// Files builds file sources for each path.
func Files(paths ...string) []Source {
	out := make([]Source, len(paths))
	for i, p := range paths {
		out[i] = FileSource{Path: p}
	}
	return out
}
