package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndMatch(t *testing.T) {
	patterns, err := Compile([]string{"unit", "/^integ/", "  ", ""})
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.True(t, patterns[0].Match("pkg.UnitSuite"))
	assert.False(t, patterns[0].Match("integration"))
	assert.True(t, patterns[1].Match("integration"))
	assert.False(t, patterns[1].Match("reintegration"))
	assert.False(t, patterns[0].Match(""))
}

func TestCompileBadRegexp(t *testing.T) {
	_, err := Compile([]string{"/[/"})
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	names := []string{"unit.TestA", "unit.TestB", "integ.TestC"}

	only, err := Compile([]string{"unit"})
	require.NoError(t, err)
	skip, err := Compile([]string{"TestB"})
	require.NoError(t, err)

	assert.Equal(t, []string{"unit.TestA"}, Select(names, only, skip))
	assert.Equal(t, []string{"unit.TestA", "integ.TestC"}, Select(names, nil, skip))
	assert.Equal(t, names, Select(names, nil, nil))
}
