package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTexture struct{ w, h int }

func (f fakeTexture) Size() (int, int) { return f.w, f.h }

func TestUniformTableDeclareBeforeSet(t *testing.T) {
	u := NewUniformTable()

	assert.False(t, u.SetFloat(UOpacityVal, 10), "undeclared keys must be ignored")
	_, ok := u.Float(UOpacityVal)
	assert.False(t, ok)

	u.DeclareFloat(UOpacityVal, 35)
	v0 := u.Version()
	assert.True(t, u.SetFloat(UOpacityVal, 10))
	assert.Greater(t, u.Version(), v0)

	got, ok := u.Float(UOpacityVal)
	require.True(t, ok)
	assert.Equal(t, float32(10), got)
}

func TestUniformTableTextures(t *testing.T) {
	u := NewUniformTable()
	assert.False(t, u.SetSliceMaps([]TextureHandle{fakeTexture{1, 1}}))

	u.DeclareSliceMaps(nil)
	maps := []TextureHandle{fakeTexture{2048, 2048}, fakeTexture{2048, 2048}}
	require.True(t, u.SetSliceMaps(maps))

	maps[0] = fakeTexture{1, 1}
	bound, ok := u.SliceMaps()
	require.True(t, ok)
	require.Len(t, bound, 2)
	w, _ := bound[0].Size()
	assert.Equal(t, 2048, w, "table must not alias the caller's slice")

	u.DeclareTexture(UTransferFunction, fakeTexture{512, 2})
	tex, ok := u.Texture(UTransferFunction)
	require.True(t, ok)
	w, h := tex.Size()
	assert.Equal(t, 512, w)
	assert.Equal(t, 2, h)
}

func TestUniformTableBytes(t *testing.T) {
	u := NewUniformTable()
	vp := mgl32.Translate3D(1, 2, 3)
	u.DeclareMat(UViewProjection, vp)
	u.DeclareVec3(ULightPos, mgl32.Vec3{1, 0, 0})
	u.DeclareFloat(URatio, 1)
	u.DeclareInt(USetViewMode, 1)
	u.DeclareInt(USteps, 20)
	u.DeclareFloat(USlicemapWidth, 128)
	u.DeclareFloat(UAttenThresholdTop, 0.75)

	buf := u.Bytes()
	require.Len(t, buf, UniformBufferSize)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	i32 := func(off int) int32 { return int32(binary.LittleEndian.Uint32(buf[off:])) }

	assert.Equal(t, float32(1), f32(12*4), "translation x lives in column 3")
	assert.Equal(t, float32(1), f32(64))
	assert.Equal(t, float32(1), f32(76))
	assert.Equal(t, int32(1), i32(80))
	assert.Equal(t, int32(20), i32(84))
	assert.Equal(t, float32(128), f32(88))
	assert.Equal(t, float32(0.75), f32(184))

	// undeclared values stay zero
	assert.Equal(t, float32(0), f32(104))
}

func TestUniformNames(t *testing.T) {
	assert.Equal(t, "uOpacityVal", UOpacityVal.String())
	assert.Equal(t, "darkness", UDarkness.String())
	assert.Equal(t, "uSteps", USteps.String())
	assert.Equal(t, "uTransferFunction", UTransferFunction.String())
}
