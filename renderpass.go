package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// NewPresentRenderPass creates the default single-subpass render pass with a
// color attachment that ends in present layout and a cleared depth
// attachment.
func NewPresentRenderPass(device vk.Device, colorFormat, depthFormat vk.Format) (vk.RenderPass, error) {
	return newRenderPass(device, colorFormat, depthFormat, vk.ImageLayoutPresentSrc, nil)
}

// NewOffscreenRenderPass is the variant for intermediate targets: the color
// attachment ends in shader-read layout so a later pass can sample it.
func NewOffscreenRenderPass(device vk.Device, colorFormat, depthFormat vk.Format) (vk.RenderPass, error) {
	return newRenderPass(device, colorFormat, depthFormat, vk.ImageLayoutShaderReadOnlyOptimal, nil)
}

// NewMultiviewRenderPass renders to all array layers selected by viewMask in
// a single pass. With mask 0b11 both stereo eyes are produced by one set of
// draws.
func NewMultiviewRenderPass(device vk.Device, colorFormat, depthFormat vk.Format, viewMask uint32) (vk.RenderPass, error) {
	masks := []uint32{viewMask}
	correlation := []uint32{viewMask}
	multiview := vk.RenderPassMultiviewCreateInfo{
		SType:                vk.StructureTypeRenderPassMultiviewCreateInfo,
		SubpassCount:         1,
		PViewMasks:           masks,
		CorrelationMaskCount: 1,
		PCorrelationMasks:    correlation,
	}
	return newRenderPass(device, colorFormat, depthFormat,
		vk.ImageLayoutShaderReadOnlyOptimal, unsafe.Pointer(&multiview))
}

func newRenderPass(device vk.Device, colorFormat, depthFormat vk.Format,
	finalLayout vk.ImageLayout, pNext unsafe.Pointer) (vk.RenderPass, error) {

	attachments := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		},
		{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorRefs,
		PDepthStencilAttachment: &depthRef,
	}}

	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:      vk.SubpassExternal,
			DstSubpass:      0,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessMemoryReadBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
		{
			SrcSubpass:      0,
			DstSubpass:      vk.SubpassExternal,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessShaderReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
	}

	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		PNext:           pNext,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &renderPass)
	if isError(ret) {
		return vk.NullRenderPass, NewError(ret)
	}
	return renderPass, nil
}
