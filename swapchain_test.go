package vkr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidImageIndex(t *testing.T) {
	require.True(t, validImageIndex(0, 3))
	require.True(t, validImageIndex(2, 3))
	require.False(t, validImageIndex(3, 3))
	require.False(t, validImageIndex(-1, 3))
	require.False(t, validImageIndex(0, 0))
}
