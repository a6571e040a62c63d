package vkr

import (
	"image"
	"os"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CaptureSwapchainImage copies the given swapchain image into host memory
// and returns it as an RGBA image. The GPU must be idle around the copy, so
// this is a debugging aid rather than a per-frame tool.
func CaptureSwapchainImage(p *Platform, s *Swapchain, imageIndex int) (*image.RGBA, error) {
	extent := s.Extent()
	size := vk.DeviceSize(extent.Width) * vk.DeviceSize(extent.Height) * 4
	readback, err := p.NewBuffer(size, vk.BufferUsageTransferDstBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, err
	}
	defer readback.Destroy()

	src := s.Image(imageIndex)
	err = p.OneTimeCommands(func(cmd vk.CommandBuffer) {
		cmdTransitionLayout(cmd, src, vk.ImageAspectColorBit,
			vk.ImageLayoutPresentSrc, vk.ImageLayoutTransferSrcOptimal, 1, 1)
		vk.CmdCopyImageToBuffer(cmd, src, vk.ImageLayoutTransferSrcOptimal,
			readback.Buffer, 1, []vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{
					Width:  extent.Width,
					Height: extent.Height,
					Depth:  1,
				},
			}})
		cmdTransitionLayout(cmd, src, vk.ImageAspectColorBit,
			vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutPresentSrc, 1, 1)
	})
	if err != nil {
		return nil, err
	}

	pixels := make([]byte, size)
	if err := readback.Download(pixels); err != nil {
		return nil, err
	}
	rgba := &image.RGBA{
		Pix:    pixels,
		Stride: int(extent.Width) * 4,
		Rect:   image.Rect(0, 0, int(extent.Width), int(extent.Height)),
	}
	if isBGRA(s.Format().Format) {
		swizzleBGRA(rgba.Pix)
	}
	return rgba, nil
}

// WriteScreenshot captures the image and writes it as a PPM file.
func WriteScreenshot(p *Platform, s *Swapchain, imageIndex int, path string) error {
	rgba, err := CaptureSwapchainImage(p, s, imageIndex)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "screenshot")
	}
	defer f.Close()
	if err := ppm.Encode(f, rgba); err != nil {
		return errors.Wrap(err, "screenshot encode")
	}
	return nil
}

func isBGRA(format vk.Format) bool {
	switch format {
	case vk.FormatB8g8r8a8Unorm, vk.FormatB8g8r8a8Srgb:
		return true
	}
	return false
}

// swizzleBGRA converts BGRA pixel data to RGBA in place.
func swizzleBGRA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
