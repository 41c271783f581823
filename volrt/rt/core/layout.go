package core

// SliceAtlasLayout describes how 2D slices are tiled into the atlas images.
type SliceAtlasLayout struct {
	Rows int // slices over X
	Cols int // slices over Y

	// SlicesFrom and SlicesTo bound the rendered slice range. An open
	// SlicesTo covers every cell of every loaded atlas image.
	SlicesFrom int
	SlicesTo   Bound

	ImageCount int
	SliceWidth int
}

func DefaultAtlasLayout() SliceAtlasLayout {
	return SliceAtlasLayout{
		Rows:     16,
		Cols:     16,
		SlicesTo: Open(),
	}
}

// SlicesRange resolves the wildcard upper bound to rows*cols*images-1.
func (l SliceAtlasLayout) SlicesRange() (from, to int) {
	return l.SlicesFrom, l.SlicesTo.Resolve(l.Rows*l.Cols*l.ImageCount - 1)
}

// NumberOfSlices is the value pushed to the slice count uniform.
func (l SliceAtlasLayout) NumberOfSlices() float32 {
	_, to := l.SlicesRange()
	return float32(to) + 1
}
