package core

import "github.com/go-gl/mathgl/mgl32"

// Mesh is a non-indexed triangle list. VertColor carries the atlas
// coordinate of each vertex; the first pass writes it out as color and the
// compositing pass reads it back as the ray exit point.
type Mesh struct {
	Positions []mgl32.Vec3
	VertColor []mgl32.Vec3

	PositionsDirty bool
	ColorsDirty    bool
}

func (m *Mesh) VertexCount() int { return len(m.Positions) }

// ApplyMatrix transforms every position in place.
func (m *Mesh) ApplyMatrix(mat mgl32.Mat4) {
	for i, p := range m.Positions {
		m.Positions[i] = mat.Mul4x1(p.Vec4(1)).Vec3()
	}
	m.PositionsDirty = true
}

// Replace copies the attribute arrays of src into m and marks both dirty.
// Meshes shared by several passes keep their identity.
func (m *Mesh) Replace(src *Mesh) {
	m.Positions = append(m.Positions[:0], src.Positions...)
	m.VertColor = append(m.VertColor[:0], src.VertColor...)
	m.PositionsDirty = true
	m.ColorsDirty = true
}

// GeometryBuilder maps a crop box of the volume to a mesh with atlas UVs.
type GeometryBuilder interface {
	Build(crop CropBox, volume mgl32.Vec3, zFactor float32) *Mesh
}

// GeometryBuilderFunc adapts a function to GeometryBuilder.
type GeometryBuilderFunc func(crop CropBox, volume mgl32.Vec3, zFactor float32) *Mesh

func (f GeometryBuilderFunc) Build(crop CropBox, volume mgl32.Vec3, zFactor float32) *Mesh {
	return f(crop, volume, zFactor)
}

// BoxBuilder builds the cropped box as 12 triangles.
type BoxBuilder struct{}

// boxFaces lists the corners of each face, wound counter-clockwise when seen
// from outside. Corner bits: 1=x max, 2=y max, 4=z max.
var boxFaces = [6][4]int{
	{1, 3, 7, 5}, // +x
	{0, 4, 6, 2}, // -x
	{2, 6, 7, 3}, // +y
	{0, 1, 5, 4}, // -y
	{4, 5, 7, 6}, // +z
	{0, 2, 3, 1}, // -z
}

func (BoxBuilder) Build(crop CropBox, volume mgl32.Vec3, zFactor float32) *Mesh {
	var corners [8]mgl32.Vec3
	var uvs [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		u := mgl32.Vec3{crop.XMin, crop.YMin, crop.ZMin}
		if i&1 != 0 {
			u[0] = crop.XMax
		}
		if i&2 != 0 {
			u[1] = crop.YMax
		}
		if i&4 != 0 {
			u[2] = crop.ZMax
		}
		uvs[i] = u
		corners[i] = mgl32.Vec3{u[0] * volume[0], u[1] * volume[1], u[2] * volume[2] * zFactor}
	}

	m := &Mesh{
		Positions:      make([]mgl32.Vec3, 0, 36),
		VertColor:      make([]mgl32.Vec3, 0, 36),
		PositionsDirty: true,
		ColorsDirty:    true,
	}
	for _, f := range boxFaces {
		for _, c := range [6]int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			m.Positions = append(m.Positions, corners[c])
			m.VertColor = append(m.VertColor, uvs[c])
		}
	}
	return m
}

// PlacementMatrix centers the volume on the origin and then applies the
// configured Euler rotation, X first.
func PlacementMatrix(volume mgl32.Vec3, rotation mgl32.Vec3) mgl32.Mat4 {
	center := mgl32.Translate3D(-volume[0]/2, -volume[1]/2, -volume[2]/2)
	rx := mgl32.HomogRotate3DX(rotation[0])
	ry := mgl32.HomogRotate3DY(rotation[1])
	rz := mgl32.HomogRotate3DZ(rotation[2])
	return rz.Mul4(ry).Mul4(rx).Mul4(center)
}
