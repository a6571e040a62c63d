package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool wraps a fixed-size pool and set allocation. Sizes are
// generous enough for the bundled examples; callers with larger needs create
// their own.
type DescriptorPool struct {
	device vk.Device
	pool   vk.DescriptorPool
}

func NewDescriptorPool(device vk.Device, maxSets uint32, sizes []vk.DescriptorPoolSize) (*DescriptorPool, error) {
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &pool)
	if isError(ret) {
		return nil, NewError(ret)
	}
	return &DescriptorPool{device: device, pool: pool}, nil
}

// Allocate returns one descriptor set per given layout.
func (d *DescriptorPool) Allocate(layouts ...vk.DescriptorSetLayout) ([]vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, len(layouts))
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.pool,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        layouts,
	}, &sets[0])
	if isError(ret) {
		return nil, NewError(ret)
	}
	return sets, nil
}

func (d *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(d.device, d.pool, nil)
}

// NewDescriptorSetLayout creates a layout from plain bindings.
func NewDescriptorSetLayout(device vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &layout)
	if isError(ret) {
		return vk.NullDescriptorSetLayout, NewError(ret)
	}
	return layout, nil
}

// WriteBufferDescriptor points a buffer descriptor binding at the buffer.
func WriteBufferDescriptor(device vk.Device, set vk.DescriptorSet,
	binding uint32, kind vk.DescriptorType, buf *Buffer) {

	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  kind,
		PBufferInfo:     []vk.DescriptorBufferInfo{buf.Descriptor()},
	}}, 0, nil)
}

// WriteImageDescriptor points a combined image sampler binding at the view.
func WriteImageDescriptor(device vk.Device, set vk.DescriptorSet,
	binding uint32, view vk.ImageView, sampler vk.Sampler, layout vk.ImageLayout) {

	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: layout,
		}},
	}}, 0, nil)
}
