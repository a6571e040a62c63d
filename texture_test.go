package vkr

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHalveRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	// Left 2x2 block solid red, right block solid blue.
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			o := src.PixOffset(x, y)
			if x < 2 {
				src.Pix[o+0] = 255
			} else {
				src.Pix[o+2] = 255
			}
			src.Pix[o+3] = 255
		}
	}

	dst := halveRGBA(src)
	require.Equal(t, 2, dst.Rect.Dx())
	require.Equal(t, 1, dst.Rect.Dy())
	require.Equal(t, uint8(255), dst.Pix[0], "left texel stays red")
	require.Equal(t, uint8(0), dst.Pix[2])
	o := dst.PixOffset(1, 0)
	require.Equal(t, uint8(0), dst.Pix[o+0])
	require.Equal(t, uint8(255), dst.Pix[o+2], "right texel stays blue")
}

func TestHalveRGBAAverages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	values := []uint8{0, 100, 200, 60}
	for i, v := range values {
		o := src.PixOffset(i%2, i/2)
		src.Pix[o] = v
		src.Pix[o+3] = 255
	}
	dst := halveRGBA(src)
	require.Equal(t, 1, dst.Rect.Dx())
	require.Equal(t, uint8(90), dst.Pix[0])
	require.Equal(t, uint8(255), dst.Pix[3])
}

func TestMipFallback(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i+1] = 120
		src.Pix[i+3] = 255
	}

	require.Same(t, src, mipFallback(src, 0), "level 0 is the base image itself")

	dst := mipFallback(src, 2)
	require.Equal(t, 2, dst.Rect.Dx())
	require.Equal(t, 2, dst.Rect.Dy())
	o := dst.PixOffset(1, 1)
	require.Equal(t, uint8(120), dst.Pix[o+1], "a uniform image survives repeated filtering")
	require.Equal(t, uint8(255), dst.Pix[o+3])
}

func TestHalveRGBATinyImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Pix[0], src.Pix[3] = 77, 255
	dst := halveRGBA(src)
	require.Equal(t, 1, dst.Rect.Dx())
	require.Equal(t, 1, dst.Rect.Dy())
	require.Equal(t, uint8(77), dst.Pix[0], "clamped sampling repeats the only texel")
}
