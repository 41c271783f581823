package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBoundYAML(t *testing.T) {
	var v struct {
		Range []Bound `yaml:"range"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`range: [0, "*"]`), &v))
	require.Len(t, v.Range, 2)
	assert.Equal(t, Fixed(0), v.Range[0])
	assert.True(t, v.Range[1].Open)
	assert.Equal(t, 7, v.Range[1].Resolve(7))
	assert.Equal(t, 0, v.Range[0].Resolve(7))

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(out), "*")

	err = yaml.Unmarshal([]byte(`range: [abc]`), &v)
	assert.Error(t, err)
}

func TestParseBound(t *testing.T) {
	b, err := ParseBound("*")
	require.NoError(t, err)
	assert.Equal(t, "*", b.String())

	b, err = ParseBound("640")
	require.NoError(t, err)
	assert.Equal(t, "640", b.String())

	_, err = ParseBound("wide")
	assert.Error(t, err)
}
