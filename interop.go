package vkr

import (
	"image"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Instance and device extensions required to share image memory with
// another graphics API instance through opaque file descriptor handles.
var (
	ExternalMemoryInstanceExtensions = []string{
		"VK_KHR_external_memory_capabilities",
		"VK_KHR_external_semaphore_capabilities",
	}
	ExternalMemoryDeviceExtensions = []string{
		"VK_KHR_external_memory",
		"VK_KHR_external_memory_fd",
		"VK_KHR_external_semaphore",
		"VK_KHR_external_semaphore_fd",
	}
)

const externalMemoryHandleTypeOpaqueFd = 0x00000001

// exportAllocInfo returns the PNext chain entry marking an allocation as
// exportable via an opaque fd. Kept alive by the package-level variable so
// the pointer survives the cgo call.
func exportAllocInfo() unsafe.Pointer {
	return unsafe.Pointer(&exportInfo)
}

var exportInfo = vk.ExportMemoryAllocateInfo{
	SType:       vk.StructureTypeExportMemoryAllocateInfo,
	HandleTypes: vk.ExternalMemoryHandleTypeFlags(externalMemoryHandleTypeOpaqueFd),
}

// SharedImage is a texture whose memory another API instance renders into.
// The Vulkan side owns the allocation and samples from it; the producer
// imports the exported handle and writes pixels.
type SharedImage struct {
	*Image
	Sampler vk.Sampler
}

// NewSharedImage creates a sampled image with exportable backing memory.
func NewSharedImage(p *Platform, format vk.Format, extent vk.Extent2D) (*SharedImage, error) {
	img, err := p.NewImage(format, extent, ImageOptions{
		Usage:        vk.ImageUsageSampledBit | vk.ImageUsageTransferDstBit,
		ExportMemory: true,
	})
	if err != nil {
		return nil, err
	}
	s := &SharedImage{Image: img}
	s.Sampler, err = p.newTextureSampler(1)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	// The producer writes through the imported handle, so the layout is
	// settled once up front instead of per frame.
	err = p.OneTimeCommands(func(cmd vk.CommandBuffer) {
		cmdTransitionLayout(cmd, img.Image, vk.ImageAspectColorBit,
			vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal, 1, 1)
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// Update replaces the image contents from the render thread. Stands in for
// the external producer when none is attached; a real producer writes the
// memory directly through the imported handle instead.
func (s *SharedImage) Update(p *Platform, rgba *image.RGBA) error {
	staging, err := p.NewHostBuffer(rgba.Pix, vk.BufferUsageTransferSrcBit)
	if err != nil {
		return err
	}
	defer staging.Destroy()

	return p.OneTimeCommands(func(cmd vk.CommandBuffer) {
		cmdTransitionLevel(cmd, s.Image.Image, 0,
			vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
		vk.CmdCopyBufferToImage(cmd, staging.Buffer, s.Image.Image,
			vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{
					Width:  uint32(rgba.Rect.Dx()),
					Height: uint32(rgba.Rect.Dy()),
					Depth:  1,
				},
			}})
		cmdTransitionLevel(cmd, s.Image.Image, 0,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
}

func (s *SharedImage) Destroy() {
	if s.Sampler != vk.NullSampler {
		vk.DestroySampler(s.Image.device, s.Sampler, nil)
		s.Sampler = vk.NullSampler
	}
	s.Image.Destroy()
}
