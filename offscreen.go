package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// OffscreenTarget is a render-to-texture destination: a sampled color
// attachment plus depth, bound into one framebuffer. After its render pass
// ends the color image is in shader-read layout.
type OffscreenTarget struct {
	platform *Platform

	Color       *Image
	Depth       *Image
	Framebuffer vk.Framebuffer
	RenderPass  vk.RenderPass
	Sampler     vk.Sampler
	Extent      vk.Extent2D

	ownsRenderPass bool
}

// NewOffscreenTarget creates a target of the given size. When renderPass is
// null an offscreen pass matching the formats is created and owned by the
// target.
func NewOffscreenTarget(p *Platform, extent vk.Extent2D,
	colorFormat, depthFormat vk.Format, renderPass vk.RenderPass) (*OffscreenTarget, error) {

	t := &OffscreenTarget{
		platform:   p,
		RenderPass: renderPass,
		Extent:     extent,
	}
	var err error
	if t.RenderPass == vk.NullRenderPass {
		t.RenderPass, err = NewOffscreenRenderPass(p.Device(), colorFormat, depthFormat)
		if err != nil {
			return nil, err
		}
		t.ownsRenderPass = true
	}
	t.Color, err = p.NewImage(colorFormat, extent, ImageOptions{
		Usage: vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit,
	})
	if err != nil {
		t.Destroy()
		return nil, err
	}
	t.Depth, err = p.NewImage(depthFormat, extent, ImageOptions{
		Usage:  vk.ImageUsageDepthStencilAttachmentBit,
		Aspect: vk.ImageAspectDepthBit,
	})
	if err != nil {
		t.Destroy()
		return nil, err
	}

	attachments := []vk.ImageView{t.Color.View, t.Depth.View}
	ret := vk.CreateFramebuffer(p.Device(), &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      t.RenderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &t.Framebuffer)
	if isError(ret) {
		t.Destroy()
		return nil, NewError(ret)
	}

	ret = vk.CreateSampler(p.Device(), &vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     vk.FilterLinear,
		MinFilter:     vk.FilterLinear,
		MipmapMode:    vk.SamplerMipmapModeLinear,
		AddressModeU:  vk.SamplerAddressModeClampToEdge,
		AddressModeV:  vk.SamplerAddressModeClampToEdge,
		AddressModeW:  vk.SamplerAddressModeClampToEdge,
		MaxLod:        1.0,
		BorderColor:   vk.BorderColorFloatOpaqueWhite,
		MaxAnisotropy: 1.0,
	}, nil, &t.Sampler)
	if isError(ret) {
		t.Destroy()
		return nil, NewError(ret)
	}
	return t, nil
}

// CmdBegin records the render pass begin, clearing both attachments and
// setting the dynamic viewport and scissor to the target size.
func (t *OffscreenTarget) CmdBegin(cmd vk.CommandBuffer, clearColor [4]float32) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clearColor[:])
	clearValues[1].SetDepthStencil(1.0, 0)
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  t.RenderPass,
		Framebuffer: t.Framebuffer,
		RenderArea: vk.Rect2D{
			Extent: t.Extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
	CmdSetViewportScissor(cmd, t.Extent)
}

func (t *OffscreenTarget) CmdEnd(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (t *OffscreenTarget) Destroy() {
	device := t.platform.Device()
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(device, t.Sampler, nil)
		t.Sampler = vk.NullSampler
	}
	if t.Framebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(device, t.Framebuffer, nil)
		t.Framebuffer = vk.NullFramebuffer
	}
	if t.Color != nil {
		t.Color.Destroy()
		t.Color = nil
	}
	if t.Depth != nil {
		t.Depth.Destroy()
		t.Depth = nil
	}
	if t.ownsRenderPass && t.RenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(device, t.RenderPass, nil)
		t.RenderPass = vk.NullRenderPass
	}
}

// CmdSetViewportScissor sets the full-extent dynamic viewport and scissor.
func CmdSetViewportScissor(cmd vk.CommandBuffer, extent vk.Extent2D) {
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
		Extent: extent,
	}})
}
