package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// UniformRing keeps one host-visible uniform buffer per swapchain image so a
// frame's uniforms can be rewritten while earlier frames are still in flight.
type UniformRing struct {
	buffers []*Buffer
}

func NewUniformRing(p *Platform, size vk.DeviceSize, frames int) (*UniformRing, error) {
	r := &UniformRing{}
	for i := 0; i < frames; i++ {
		buf, err := p.NewBuffer(size, vk.BufferUsageUniformBufferBit,
			vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
		if err != nil {
			r.Destroy()
			return nil, err
		}
		r.buffers = append(r.buffers, buf)
	}
	return r, nil
}

// At returns the buffer dedicated to the given swapchain image.
func (r *UniformRing) At(imageIndex int) *Buffer {
	return r.buffers[imageIndex]
}

// Update writes this frame's uniform data into the image's buffer.
func (r *UniformRing) Update(imageIndex int, data []byte) error {
	return r.buffers[imageIndex].Upload(data)
}

func (r *UniformRing) Destroy() {
	for i := range r.buffers {
		r.buffers[i].Destroy()
	}
	r.buffers = nil
}
