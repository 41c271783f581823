package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformBufferSize is the size of the packed shader parameter block.
const UniformBufferSize = 256

// TextureHandle is any GPU texture the uniform table can bind.
type TextureHandle interface {
	Size() (width, height int)
}

// FloatUniform names a scalar shader parameter.
type FloatUniform uint8

const (
	URatio FloatUniform = iota
	USlicemapWidth
	UNumberOfSlices
	USlicesOverX
	USlicesOverY
	UOpacityVal
	UDarkness
	UL
	US
	UHMin
	UHMax
	UMinSos
	UMaxSos
	UMinAtten
	UMaxAtten
	UMinRefl
	UMaxRefl
	UColorVal
	UAbsorptionModeIndex
	UMinGrayVal
	UMaxGrayVal
	UIndexOfImage
	USosThresholdBot
	USosThresholdTop
	UAttenThresholdBot
	UAttenThresholdTop
	numFloatUniforms
)

var floatUniformNames = [numFloatUniforms]string{
	"uRatio", "uSlicemapWidth", "uNumberOfSlices", "uSlicesOverX", "uSlicesOverY",
	"uOpacityVal", "darkness", "l", "s", "hMin", "hMax",
	"minSos", "maxSos", "minAtten", "maxAtten", "minRefl", "maxRefl",
	"uColorVal", "uAbsorptionModeIndex", "uMinGrayVal", "uMaxGrayVal", "uIndexOfImage",
	"uSosThresholdBot", "uSosThresholdTop", "uAttenThresholdBot", "uAttenThresholdTop",
}

func (k FloatUniform) String() string { return floatUniformNames[k] }

// IntUniform names an integer shader parameter.
type IntUniform uint8

const (
	USetViewMode IntUniform = iota
	USteps
	numIntUniforms
)

func (k IntUniform) String() string {
	return [numIntUniforms]string{"uSetViewMode", "uSteps"}[k]
}

// Vec3Uniform names a vector shader parameter.
type Vec3Uniform uint8

const (
	ULightPos Vec3Uniform = iota
	numVec3Uniforms
)

func (k Vec3Uniform) String() string { return "uLightPos" }

// MatUniform names a matrix shader parameter.
type MatUniform uint8

const (
	UViewProjection MatUniform = iota
	numMatUniforms
)

func (k MatUniform) String() string { return "uViewProjection" }

// TextureUniform names a single sampled texture.
type TextureUniform uint8

const (
	UBackCoord TextureUniform = iota
	UTransferFunction
	numTextureUniforms
)

func (k TextureUniform) String() string {
	return [numTextureUniforms]string{"uBackCoord", "uTransferFunction"}[k]
}

// Byte offsets inside the packed parameter block. They mirror the Params
// struct declared by the compositing shaders.
//
//	view_proj: mat4x4<f32>  -- 0
//	light_pos: vec3<f32>    -- 64
//	ratio: f32              -- 76
//	set_view_mode: i32      -- 80
//	steps: i32              -- 84
//	remaining f32 fields    -- 88.. in FloatUniform order
const (
	offViewProj   = 0
	offLightPos   = 64
	offRatio      = 76
	offViewMode   = 80
	offSteps      = 84
	offFloatsBase = 88
)

func floatOffset(k FloatUniform) int {
	if k == URatio {
		return offRatio
	}
	return offFloatsBase + int(k-1)*4
}

// UniformTable is a typed uniform bundle. A key must be declared before it
// can be written; writes to undeclared keys are ignored and reported, the
// same way a material only carries the uniforms it was built with.
type UniformTable struct {
	floats    [numFloatUniforms]float32
	floatDecl [numFloatUniforms]bool
	ints      [numIntUniforms]int32
	intDecl   [numIntUniforms]bool
	vec3s     [numVec3Uniforms]mgl32.Vec3
	vec3Decl  [numVec3Uniforms]bool
	mats      [numMatUniforms]mgl32.Mat4
	matDecl   [numMatUniforms]bool
	textures  [numTextureUniforms]TextureHandle
	texDecl   [numTextureUniforms]bool

	sliceMaps     []TextureHandle
	sliceMapsDecl bool

	version uint64
}

func NewUniformTable() *UniformTable {
	t := &UniformTable{}
	t.mats[UViewProjection] = mgl32.Ident4()
	return t
}

// Version increases on every successful write. Backends use it to skip
// redundant uploads.
func (t *UniformTable) Version() uint64 { return t.version }

func (t *UniformTable) DeclareFloat(k FloatUniform, v float32) {
	t.floatDecl[k] = true
	t.floats[k] = v
	t.version++
}

func (t *UniformTable) DeclareInt(k IntUniform, v int32) {
	t.intDecl[k] = true
	t.ints[k] = v
	t.version++
}

func (t *UniformTable) DeclareVec3(k Vec3Uniform, v mgl32.Vec3) {
	t.vec3Decl[k] = true
	t.vec3s[k] = v
	t.version++
}

func (t *UniformTable) DeclareMat(k MatUniform, v mgl32.Mat4) {
	t.matDecl[k] = true
	t.mats[k] = v
	t.version++
}

func (t *UniformTable) DeclareTexture(k TextureUniform, v TextureHandle) {
	t.texDecl[k] = true
	t.textures[k] = v
	t.version++
}

func (t *UniformTable) DeclareSliceMaps(v []TextureHandle) {
	t.sliceMapsDecl = true
	t.sliceMaps = append([]TextureHandle(nil), v...)
	t.version++
}

func (t *UniformTable) SetFloat(k FloatUniform, v float32) bool {
	if !t.floatDecl[k] {
		return false
	}
	t.floats[k] = v
	t.version++
	return true
}

func (t *UniformTable) SetInt(k IntUniform, v int32) bool {
	if !t.intDecl[k] {
		return false
	}
	t.ints[k] = v
	t.version++
	return true
}

func (t *UniformTable) SetVec3(k Vec3Uniform, v mgl32.Vec3) bool {
	if !t.vec3Decl[k] {
		return false
	}
	t.vec3s[k] = v
	t.version++
	return true
}

func (t *UniformTable) SetMat(k MatUniform, v mgl32.Mat4) bool {
	if !t.matDecl[k] {
		return false
	}
	t.mats[k] = v
	t.version++
	return true
}

func (t *UniformTable) SetTexture(k TextureUniform, v TextureHandle) bool {
	if !t.texDecl[k] {
		return false
	}
	t.textures[k] = v
	t.version++
	return true
}

func (t *UniformTable) SetSliceMaps(v []TextureHandle) bool {
	if !t.sliceMapsDecl {
		return false
	}
	t.sliceMaps = append([]TextureHandle(nil), v...)
	t.version++
	return true
}

func (t *UniformTable) Float(k FloatUniform) (float32, bool) { return t.floats[k], t.floatDecl[k] }
func (t *UniformTable) Int(k IntUniform) (int32, bool)       { return t.ints[k], t.intDecl[k] }
func (t *UniformTable) Vec3(k Vec3Uniform) (mgl32.Vec3, bool) {
	return t.vec3s[k], t.vec3Decl[k]
}
func (t *UniformTable) Mat(k MatUniform) (mgl32.Mat4, bool) { return t.mats[k], t.matDecl[k] }
func (t *UniformTable) Texture(k TextureUniform) (TextureHandle, bool) {
	return t.textures[k], t.texDecl[k]
}

// SliceMaps returns a copy of the bound atlas textures.
func (t *UniformTable) SliceMaps() ([]TextureHandle, bool) {
	return append([]TextureHandle(nil), t.sliceMaps...), t.sliceMapsDecl
}

// Bytes packs the declared scalar, vector and matrix values into the layout
// of the shader Params block. Undeclared values are written as zero.
func (t *UniformTable) Bytes() []byte {
	buf := make([]byte, UniformBufferSize)
	putF := func(offset int, v float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
	}

	if t.matDecl[UViewProjection] {
		for i, v := range t.mats[UViewProjection] {
			putF(offViewProj+i*4, v)
		}
	}
	if t.vec3Decl[ULightPos] {
		lp := t.vec3s[ULightPos]
		putF(offLightPos, lp[0])
		putF(offLightPos+4, lp[1])
		putF(offLightPos+8, lp[2])
	}
	if t.intDecl[USetViewMode] {
		binary.LittleEndian.PutUint32(buf[offViewMode:], uint32(t.ints[USetViewMode]))
	}
	if t.intDecl[USteps] {
		binary.LittleEndian.PutUint32(buf[offSteps:], uint32(t.ints[USteps]))
	}
	for k := FloatUniform(0); k < numFloatUniforms; k++ {
		if t.floatDecl[k] {
			putF(floatOffset(k), t.floats[k])
		}
	}
	return buf
}
