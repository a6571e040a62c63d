package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// PipelineBuilder assembles a graphics pipeline from a small set of options.
// Viewport and scissor are always dynamic so pipelines survive swapchain
// recreation unchanged.
type PipelineBuilder struct {
	device vk.Device

	stages     []vk.PipelineShaderStageCreateInfo
	bindings   []vk.VertexInputBindingDescription
	attributes []vk.VertexInputAttributeDescription

	topology    vk.PrimitiveTopology
	cullMode    vk.CullModeFlagBits
	frontFace   vk.FrontFace
	depthTest   bool
	depthWrite  bool
	blendEnable bool
}

func NewPipelineBuilder(device vk.Device) *PipelineBuilder {
	return &PipelineBuilder{
		device:     device,
		topology:   vk.PrimitiveTopologyTriangleList,
		cullMode:   vk.CullModeBackBit,
		frontFace:  vk.FrontFaceCounterClockwise,
		depthTest:  true,
		depthWrite: true,
	}
}

// Shader adds a stage built from a SPIR-V module. The entry point is "main".
func (b *PipelineBuilder) Shader(stage vk.ShaderStageFlagBits, module vk.ShaderModule) *PipelineBuilder {
	b.stages = append(b.stages, vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  "main\x00",
	})
	return b
}

// VertexBinding declares one vertex buffer binding. Call VertexAttribute for
// each of its attributes afterwards.
func (b *PipelineBuilder) VertexBinding(binding, stride uint32, rate vk.VertexInputRate) *PipelineBuilder {
	b.bindings = append(b.bindings, vk.VertexInputBindingDescription{
		Binding:   binding,
		Stride:    stride,
		InputRate: rate,
	})
	return b
}

func (b *PipelineBuilder) VertexAttribute(location, binding uint32, format vk.Format, offset uint32) *PipelineBuilder {
	b.attributes = append(b.attributes, vk.VertexInputAttributeDescription{
		Location: location,
		Binding:  binding,
		Format:   format,
		Offset:   offset,
	})
	return b
}

func (b *PipelineBuilder) Topology(t vk.PrimitiveTopology) *PipelineBuilder {
	b.topology = t
	return b
}

func (b *PipelineBuilder) CullMode(mode vk.CullModeFlagBits, front vk.FrontFace) *PipelineBuilder {
	b.cullMode = mode
	b.frontFace = front
	return b
}

func (b *PipelineBuilder) Depth(test, write bool) *PipelineBuilder {
	b.depthTest = test
	b.depthWrite = write
	return b
}

// AdditiveBlend enables src-alpha additive blending on the color attachment,
// used by particle and glow passes.
func (b *PipelineBuilder) AdditiveBlend() *PipelineBuilder {
	b.blendEnable = true
	return b
}

// Build creates the pipeline against the given layout and render pass.
func (b *PipelineBuilder) Build(layout vk.PipelineLayout, renderPass vk.RenderPass) (vk.Pipeline, error) {
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(b.bindings)),
		PVertexBindingDescriptions:      b.bindings,
		VertexAttributeDescriptionCount: uint32(len(b.attributes)),
		PVertexAttributeDescriptions:    b.attributes,
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: b.topology,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterization := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(b.cullMode),
		FrontFace:   b.frontFace,
		LineWidth:   1.0,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthCompareOp:   vk.CompareOpLessOrEqual,
		MaxDepthBounds:   1.0,
		DepthTestEnable:  boolToVk(b.depthTest),
		DepthWriteEnable: boolToVk(b.depthWrite),
	}
	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if b.blendEnable {
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOne
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorDstAlpha
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamic := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(b.device, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{{
			SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
			StageCount:          uint32(len(b.stages)),
			PStages:             b.stages,
			PVertexInputState:   &vertexInput,
			PInputAssemblyState: &inputAssembly,
			PViewportState:      &viewportState,
			PRasterizationState: &rasterization,
			PMultisampleState:   &multisample,
			PDepthStencilState:  &depthStencil,
			PColorBlendState:    &colorBlend,
			PDynamicState:       &dynamic,
			Layout:              layout,
			RenderPass:          renderPass,
		}}, nil, pipelines)
	if isError(ret) {
		return vk.NullPipeline, NewError(ret)
	}
	return pipelines[0], nil
}

// NewComputePipeline creates a compute pipeline from a single SPIR-V module.
func NewComputePipeline(device vk.Device, layout vk.PipelineLayout, module vk.ShaderModule) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateComputePipelines(device, vk.NullPipelineCache, 1,
		[]vk.ComputePipelineCreateInfo{{
			SType: vk.StructureTypeComputePipelineCreateInfo,
			Stage: vk.PipelineShaderStageCreateInfo{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageComputeBit,
				Module: module,
				PName:  "main\x00",
			},
			Layout: layout,
		}}, nil, pipelines)
	if isError(ret) {
		return vk.NullPipeline, NewError(ret)
	}
	return pipelines[0], nil
}

// NewPipelineLayout creates a layout from descriptor set layouts and optional
// push constant ranges.
func NewPipelineLayout(device vk.Device, setLayouts []vk.DescriptorSetLayout,
	pushRanges []vk.PushConstantRange) (vk.PipelineLayout, error) {

	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushRanges)),
		PPushConstantRanges:    pushRanges,
	}, nil, &layout)
	if isError(ret) {
		return vk.NullPipelineLayout, NewError(ret)
	}
	return layout, nil
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
