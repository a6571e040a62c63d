package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamily is a plain Go-side description of one queue family, captured
// once at device selection so that queue lookup never touches the C structs
// again.
type QueueFamily struct {
	Index      uint32
	Flags      vk.QueueFlags
	Count      uint32
	CanPresent bool
}

// gatherQueueFamilies snapshots the queue family properties of gpu. When a
// surface is given, present support is queried per family.
func gatherQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) []QueueFamily {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)

	families := make([]QueueFamily, count)
	for i := uint32(0); i < count; i++ {
		props[i].Deref()
		families[i] = QueueFamily{
			Index: i,
			Flags: props[i].QueueFlags,
			Count: props[i].QueueCount,
		}
		if surface != vk.NullSurface {
			var supported vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &supported)
			families[i].CanPresent = supported.B()
		}
	}
	return families
}

// SelectQueueFamily returns the first queue family satisfying the capability
// bitmask (and present support when needPresent is set). Ties are broken by
// lowest index, never by a performance heuristic.
func SelectQueueFamily(families []QueueFamily, required vk.QueueFlags, needPresent bool) (uint32, bool) {
	for _, fam := range families {
		if fam.Count == 0 {
			continue
		}
		if fam.Flags&required != required {
			continue
		}
		if needPresent && !fam.CanPresent {
			continue
		}
		return fam.Index, true
	}
	return 0, false
}

// SelectComputeFamily picks a queue family for async compute work. A family
// distinct from the graphics family is preferred so compute and graphics
// submissions can overlap; the graphics family itself is the fallback when it
// advertises compute.
func SelectComputeFamily(families []QueueFamily, graphicsFamily uint32) (uint32, bool) {
	compute := vk.QueueFlags(vk.QueueComputeBit)
	for _, fam := range families {
		if fam.Index == graphicsFamily || fam.Count == 0 {
			continue
		}
		if fam.Flags&compute == compute {
			return fam.Index, true
		}
	}
	for _, fam := range families {
		if fam.Index == graphicsFamily && fam.Flags&compute == compute {
			return fam.Index, true
		}
	}
	return 0, false
}

// SelectPresentFamily returns the first family that can present, used when
// the graphics family itself cannot.
func SelectPresentFamily(families []QueueFamily) (uint32, bool) {
	for _, fam := range families {
		if fam.Count > 0 && fam.CanPresent {
			return fam.Index, true
		}
	}
	return 0, false
}
