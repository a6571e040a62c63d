package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Swapchain owns the ring of presentable images and their per-image views
// and framebuffers. The ring is recreated whenever the surface resizes and
// is otherwise stable for the process lifetime.
type Swapchain struct {
	platform *Platform

	swapchain   vk.Swapchain
	format      vk.SurfaceFormat
	depthFormat vk.Format
	extent      vk.Extent2D
	rect        vk.Rect2D
	viewport    vk.Viewport

	images       []vk.Image
	views        []vk.ImageView
	framebuffers []vk.Framebuffer

	depthImage  vk.Image
	depthMemory vk.DeviceMemory
	depthView   vk.ImageView

	renderPass vk.RenderPass
}

// depthFormatCandidates in decreasing precision order; the first one the
// device supports for optimal-tiling depth attachment wins.
var depthFormatCandidates = []vk.Format{
	vk.FormatD32SfloatS8Uint,
	vk.FormatD32Sfloat,
	vk.FormatD24UnormS8Uint,
	vk.FormatD16UnormS8Uint,
	vk.FormatD16Unorm,
}

// NewSwapchain negotiates the surface and depth formats but does not create
// the image ring yet; call Create with the initial extent.
func NewSwapchain(platform *Platform, dims *SwapchainDimensions) (*Swapchain, error) {
	s := &Swapchain{platform: platform}

	gpu := platform.PhysicalDevice()
	surface := platform.Surface()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil)
	if formatCount == 0 {
		return nil, fmt.Errorf("vulkan error: no surface formats reported for display")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, formats)

	formats[0].Deref()
	s.format = formats[0]
	if formats[0].Format == vk.FormatUndefined {
		// Surface has no preference.
		s.format.Format = vk.FormatB8g8r8a8Unorm
	}
	if dims != nil && dims.Format != vk.FormatUndefined {
		for i := uint32(1); i < formatCount; i++ {
			formats[i].Deref()
			if formats[i].Format == dims.Format {
				s.format = formats[i]
				break
			}
		}
	}

	for _, candidate := range depthFormatCandidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(gpu, candidate, &props)
		props.Deref()
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			s.depthFormat = candidate
			break
		}
	}
	if s.depthFormat == vk.FormatUndefined {
		return nil, fmt.Errorf("vulkan error: no supported depth format on device")
	}
	return s, nil
}

func (s *Swapchain) Format() vk.SurfaceFormat { return s.format }
func (s *Swapchain) DepthFormat() vk.Format   { return s.depthFormat }
func (s *Swapchain) Extent() vk.Extent2D      { return s.extent }
func (s *Swapchain) Rect() vk.Rect2D          { return s.rect }
func (s *Swapchain) Viewport() vk.Viewport    { return s.viewport }
func (s *Swapchain) ImageCount() int          { return len(s.images) }

func (s *Swapchain) Image(i int) vk.Image             { return s.images[i] }
func (s *Swapchain) View(i int) vk.ImageView          { return s.views[i] }
func (s *Swapchain) Framebuffer(i int) vk.Framebuffer { return s.framebuffers[i] }

// Create builds the image ring for the given extent, destroying any previous
// ring. The ring holds the platform minimum plus one image, clamped to the
// platform maximum; present mode is FIFO, which the API guarantees.
func (s *Swapchain) Create(extent vk.Extent2D) error {
	device := s.platform.Device()
	gpu := s.platform.PhysicalDevice()
	surface := s.platform.Surface()

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)
	if isError(ret) {
		return NewError(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	if caps.CurrentExtent.Width != vk.MaxUint32 {
		extent = caps.CurrentExtent
	} else {
		extent.Width = clampUint32(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
		extent.Height = clampUint32(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	}

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	preTransform := vk.SurfaceTransformIdentityBit
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&preTransform == 0 {
		preTransform = caps.CurrentTransform
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	oldSwapchain := s.swapchain
	var swapchain vk.Swapchain
	ret = vk.CreateSwapchain(device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      s.format.Format,
		ImageColorSpace:  s.format.ColorSpace,
		ImageExtent:      extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferSrcBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentModeFifo,
		OldSwapchain:     oldSwapchain,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if isError(ret) {
		return NewError(ret)
	}

	// The old ring, including its views and framebuffers, goes away in full:
	// recreation must not leak handles.
	s.destroyRing()
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(device, oldSwapchain, nil)
	}
	s.swapchain = swapchain
	s.extent = extent
	s.rect = vk.Rect2D{Extent: extent}
	s.viewport = vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}

	var count uint32
	ret = vk.GetSwapchainImages(device, s.swapchain, &count, nil)
	if isError(ret) {
		return NewError(ret)
	}
	s.images = make([]vk.Image, count)
	ret = vk.GetSwapchainImages(device, s.swapchain, &count, s.images)
	if isError(ret) {
		return NewError(ret)
	}

	s.views = make([]vk.ImageView, count)
	for i := uint32(0); i < count; i++ {
		var view vk.ImageView
		ret = vk.CreateImageView(device, &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    s.images[i],
			ViewType: vk.ImageViewType2d,
			Format:   s.format.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleR,
				G: vk.ComponentSwizzleG,
				B: vk.ComponentSwizzleB,
				A: vk.ComponentSwizzleA,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}, nil, &view)
		if isError(ret) {
			return NewError(ret)
		}
		s.views[i] = view
	}

	if s.renderPass != vk.NullRenderPass {
		return s.CreateFramebuffers(s.renderPass)
	}
	return nil
}

// CreateFramebuffers allocates the shared depth attachment and one
// framebuffer per swapchain image for the given render pass. The pass is
// remembered so resize can rebuild the framebuffers.
func (s *Swapchain) CreateFramebuffers(renderPass vk.RenderPass) error {
	device := s.platform.Device()
	s.renderPass = renderPass

	var depthImage vk.Image
	ret := vk.CreateImage(device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    s.depthFormat,
		Extent: vk.Extent3D{
			Width:  s.extent.Width,
			Height: s.extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &depthImage)
	if isError(ret) {
		return NewError(ret)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, depthImage, &memReqs)
	memReqs.Deref()
	memType, err := FindMemoryType(s.platform.MemoryTypes(), memReqs.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(device, depthImage, nil)
		return err
	}
	var depthMemory vk.DeviceMemory
	ret = vk.AllocateMemory(device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &depthMemory)
	if isError(ret) {
		vk.DestroyImage(device, depthImage, nil)
		return NewError(ret)
	}
	vk.BindImageMemory(device, depthImage, depthMemory, 0)

	var depthView vk.ImageView
	ret = vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    depthImage,
		ViewType: vk.ImageViewType2d,
		Format:   s.depthFormat,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &depthView)
	if isError(ret) {
		return NewError(ret)
	}
	s.depthImage = depthImage
	s.depthMemory = depthMemory
	s.depthView = depthView

	s.framebuffers = make([]vk.Framebuffer, len(s.images))
	for i := range s.images {
		attachments := []vk.ImageView{s.views[i], depthView}
		var fb vk.Framebuffer
		ret = vk.CreateFramebuffer(device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           s.extent.Width,
			Height:          s.extent.Height,
			Layers:          1,
		}, nil, &fb)
		if isError(ret) {
			return NewError(ret)
		}
		s.framebuffers[i] = fb
	}
	return nil
}

// AcquireNextImage blocks, possibly indefinitely, until a swapchain image is
// available and returns its index. outdated reports that the ring must be
// recreated before rendering can continue.
func (s *Swapchain) AcquireNextImage(signalSemaphore vk.Semaphore) (idx int, outdated bool, err error) {
	var imageIndex uint32
	ret := vk.AcquireNextImage(s.platform.Device(), s.swapchain, vk.MaxUint64,
		signalSemaphore, vk.NullFence, &imageIndex)
	switch ret {
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return 0, true, nil
	case vk.Success:
	default:
		return 0, false, NewError(ret)
	}
	if !validImageIndex(int(imageIndex), len(s.images)) {
		return 0, false, fmt.Errorf("vulkan error: acquired image index %d outside ring of %d", imageIndex, len(s.images))
	}
	return int(imageIndex), false, nil
}

// QueuePresent submits a present request for the given image and returns
// without waiting for completion.
func (s *Swapchain) QueuePresent(imageIndex int, waitSemaphore vk.Semaphore) (outdated bool, err error) {
	ret := vk.QueuePresent(s.platform.PresentQueue(), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{waitSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.swapchain},
		PImageIndices:      []uint32{uint32(imageIndex)},
	})
	switch ret {
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return true, nil
	case vk.Success:
		return false, nil
	default:
		return false, NewError(ret)
	}
}

// destroyRing releases views, framebuffers and the depth attachment of the
// current ring. The swapchain handle itself is handed off via OldSwapchain.
func (s *Swapchain) destroyRing() {
	device := s.platform.Device()
	for _, fb := range s.framebuffers {
		vk.DestroyFramebuffer(device, fb, nil)
	}
	s.framebuffers = nil
	for _, view := range s.views {
		vk.DestroyImageView(device, view, nil)
	}
	s.views = nil
	s.images = nil
	if s.depthView != vk.NullImageView {
		vk.DestroyImageView(device, s.depthView, nil)
		s.depthView = vk.NullImageView
	}
	if s.depthImage != vk.NullImage {
		vk.DestroyImage(device, s.depthImage, nil)
		s.depthImage = vk.NullImage
	}
	if s.depthMemory != vk.NullDeviceMemory {
		vk.FreeMemory(device, s.depthMemory, nil)
		s.depthMemory = vk.NullDeviceMemory
	}
}

func (s *Swapchain) Destroy() {
	s.destroyRing()
	if s.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(s.platform.Device(), s.swapchain, nil)
		s.swapchain = vk.NullSwapchain
	}
}

// validImageIndex reports whether idx lies inside [0, imageCount).
func validImageIndex(idx, imageCount int) bool {
	return idx >= 0 && idx < imageCount
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
