package vkr

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// memoryTypeFlags snapshots the property flags of every memory type on the
// device into a plain slice, so later lookups are pure Go.
func memoryTypeFlags(props vk.PhysicalDeviceMemoryProperties) []vk.MemoryPropertyFlags {
	props.Deref()
	flags := make([]vk.MemoryPropertyFlags, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		props.MemoryTypes[i].Deref()
		flags[i] = props.MemoryTypes[i].PropertyFlags
	}
	return flags
}

// FindMemoryType linearly scans the candidate memory types and returns the
// first one that is allowed by typeBits and carries all required property
// flags. Lookup failure is an error the callers treat as fatal.
func FindMemoryType(types []vk.MemoryPropertyFlags, typeBits uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	for i := 0; i < len(types) && i < 32; i++ {
		if typeBits&(1<<uint32(i)) == 0 {
			continue
		}
		if types[i]&required == required {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("vulkan error: no memory type matches bits 0x%x with properties 0x%x", typeBits, required)
}

// Buffer owns a vk.Buffer and the device memory backing it.
type Buffer struct {
	device vk.Device
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

func (b *Buffer) Destroy() {
	vk.FreeMemory(b.device, b.Memory, nil)
	vk.DestroyBuffer(b.device, b.Buffer, nil)
	b.device = nil
}

// Descriptor returns the full-range descriptor info for binding this buffer.
func (b *Buffer) Descriptor() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.Buffer,
		Offset: 0,
		Range:  b.Size,
	}
}

// NewBuffer creates a buffer of the given size, backed by memory with the
// requested property flags.
func (p *Platform) NewBuffer(size vk.DeviceSize, usage vk.BufferUsageFlagBits, props vk.MemoryPropertyFlagBits) (*Buffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(p.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        size,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if isError(ret) {
		return nil, NewError(ret)
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(p.device, buffer, &memReqs)
	memReqs.Deref()

	memType, err := FindMemoryType(p.memTypes, memReqs.MemoryTypeBits, vk.MemoryPropertyFlags(props))
	if err != nil {
		vk.DestroyBuffer(p.device, buffer, nil)
		return nil, err
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(p.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if isError(ret) {
		vk.DestroyBuffer(p.device, buffer, nil)
		return nil, NewError(ret)
	}
	vk.BindBufferMemory(p.device, buffer, memory, 0)

	return &Buffer{
		device: p.device,
		Buffer: buffer,
		Memory: memory,
		Size:   size,
	}, nil
}

// NewHostBuffer creates a host-visible coherent buffer and copies data into it.
func (p *Platform) NewHostBuffer(data []byte, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	buf, err := p.NewBuffer(vk.DeviceSize(len(data)), usage,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := buf.Upload(data); err != nil {
			buf.Destroy()
			return nil, err
		}
	}
	return buf, nil
}

// NewDeviceBuffer creates a device-local buffer and fills it through a
// transient staging buffer on the graphics queue.
func (p *Platform) NewDeviceBuffer(data []byte, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	staging, err := p.NewHostBuffer(data, vk.BufferUsageTransferSrcBit)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	buf, err := p.NewBuffer(vk.DeviceSize(len(data)), usage|vk.BufferUsageTransferDstBit,
		vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, err
	}
	err = p.OneTimeCommands(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, staging.Buffer, buf.Buffer, 1, []vk.BufferCopy{{
			Size: vk.DeviceSize(len(data)),
		}})
	})
	if err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}

// Upload maps the buffer memory and copies data in. The buffer must be host
// visible.
func (b *Buffer) Upload(data []byte) error {
	var pData unsafe.Pointer
	ret := vk.MapMemory(b.device, b.Memory, 0, vk.DeviceSize(len(data)), 0, &pData)
	if isError(ret) {
		return NewError(ret)
	}
	n := vk.Memcopy(pData, data)
	vk.UnmapMemory(b.device, b.Memory)
	if n != len(data) {
		return fmt.Errorf("vulkan error: short copy to device memory, %d != %d", n, len(data))
	}
	return nil
}

// Download maps the buffer memory and copies its contents out.
func (b *Buffer) Download(out []byte) error {
	var pData unsafe.Pointer
	ret := vk.MapMemory(b.device, b.Memory, 0, vk.DeviceSize(len(out)), 0, &pData)
	if isError(ret) {
		return NewError(ret)
	}
	src := (*[1 << 30]byte)(pData)[:len(out)]
	copy(out, src)
	vk.UnmapMemory(b.device, b.Memory)
	return nil
}
