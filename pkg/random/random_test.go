package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomString_Length(t *testing.T) {
	for _, length := range []int{1, 4, 8, 32} {
		s, err := NewRandomString(length)
		require.NoError(t, err)
		assert.Len(t, s, length)
	}
}

func TestNewRandomString_Alphabet(t *testing.T) {
	s, err := NewRandomString(256)
	require.NoError(t, err)

	for _, r := range s {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected character %q", r)
	}
}

func TestNewRandomString_InvalidLength(t *testing.T) {
	_, err := NewRandomString(0)
	assert.Error(t, err)

	_, err = NewRandomString(-1)
	assert.Error(t, err)
}

func TestNewRandomString_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := NewRandomString(8)
		require.NoError(t, err)
		seen[s] = true
	}

	// 100 draws from a 62^8 space should essentially never collide.
	assert.Greater(t, len(seen), 95)
}
