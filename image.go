package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// Image bundles a device-local image with its memory and default view.
type Image struct {
	device vk.Device

	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView

	Format vk.Format
	Extent vk.Extent2D
	Layers uint32
	Levels uint32
}

// ImageOptions selects the non-default knobs of NewImage. Zero values mean a
// single-layer, single-level sampled color attachment.
type ImageOptions struct {
	Usage  vk.ImageUsageFlagBits
	Aspect vk.ImageAspectFlagBits
	Layers uint32
	Levels uint32

	// ExportMemory allocates the backing memory as exportable so another
	// API instance can import it through an opaque handle.
	ExportMemory bool
}

// NewImage creates a device-local 2D image with bound memory and a view
// covering all layers and levels. Multi-layer images get an array view.
func (p *Platform) NewImage(format vk.Format, extent vk.Extent2D, opts ImageOptions) (*Image, error) {
	if opts.Usage == 0 {
		opts.Usage = vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit
	}
	if opts.Aspect == 0 {
		opts.Aspect = vk.ImageAspectColorBit
	}
	if opts.Layers == 0 {
		opts.Layers = 1
	}
	if opts.Levels == 0 {
		opts.Levels = 1
	}
	img := &Image{
		device: p.Device(),
		Format: format,
		Extent: extent,
		Layers: opts.Layers,
		Levels: opts.Levels,
	}
	ret := vk.CreateImage(p.Device(), &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     opts.Levels,
		ArrayLayers:   opts.Layers,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(opts.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img.Image)
	if isError(ret) {
		return nil, NewError(ret)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(p.Device(), img.Image, &memReqs)
	memReqs.Deref()
	memIndex, err := FindMemoryType(p.MemoryTypes(), memReqs.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		img.Destroy()
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memIndex,
	}
	if opts.ExportMemory {
		allocInfo.PNext = exportAllocInfo()
	}
	ret = vk.AllocateMemory(p.Device(), &allocInfo, nil, &img.Memory)
	if isError(ret) {
		img.Destroy()
		return nil, NewError(ret)
	}
	vk.BindImageMemory(p.Device(), img.Image, img.Memory, 0)

	viewType := vk.ImageViewType2d
	if opts.Layers > 1 {
		viewType = vk.ImageViewType2dArray
	}
	ret = vk.CreateImageView(p.Device(), &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.Image,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(opts.Aspect),
			LevelCount: opts.Levels,
			LayerCount: opts.Layers,
		},
	}, nil, &img.View)
	if isError(ret) {
		img.Destroy()
		return nil, NewError(ret)
	}
	return img, nil
}

// LayerView creates a view of a single array layer, used to give each stereo
// eye its own framebuffer attachment.
func (i *Image) LayerView(layer uint32) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(i.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.Image,
		ViewType: vk.ImageViewType2d,
		Format:   i.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseArrayLayer: layer,
			LevelCount:     1,
			LayerCount:     1,
		},
	}, nil, &view)
	if isError(ret) {
		return vk.NullImageView, NewError(ret)
	}
	return view, nil
}

func (i *Image) Destroy() {
	if i.View != vk.NullImageView {
		vk.DestroyImageView(i.device, i.View, nil)
		i.View = vk.NullImageView
	}
	if i.Image != vk.NullImage {
		vk.DestroyImage(i.device, i.Image, nil)
		i.Image = vk.NullImage
	}
	if i.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(i.device, i.Memory, nil)
		i.Memory = vk.NullDeviceMemory
	}
}

// cmdTransitionLayout records a pipeline barrier moving the image between
// layouts. Stage and access masks are derived from the layouts involved.
func cmdTransitionLayout(cmd vk.CommandBuffer, image vk.Image,
	aspect vk.ImageAspectFlagBits, oldLayout, newLayout vk.ImageLayout, levels, layers uint32) {

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: levels,
			LayerCount: layers,
		},
	}
	srcStage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	dstStage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case oldLayout == vk.ImageLayoutPresentSrc && newLayout == vk.ImageLayoutTransferSrcOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessMemoryReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferSrcOptimal && newLayout == vk.ImageLayoutPresentSrc:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessMemoryReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
