package vkr

import (
	"errors"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Platform owns the Vulkan instance, the selected physical device and the
// logical device with its queues. It is created once at program start and
// destroyed at exit; device selection is never re-evaluated.
type Platform struct {
	instance vk.Instance
	gpu      vk.PhysicalDevice
	device   vk.Device

	graphicsQueueIndex uint32
	presentQueueIndex  uint32
	computeQueueIndex  uint32
	hasCompute         bool

	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	computeQueue  vk.Queue

	surface       vk.Surface
	debugCallback vk.DebugReportCallback

	gpuProperties    vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties
	memTypes         []vk.MemoryPropertyFlags
	families         []QueueFamily

	cmdPool vk.CommandPool
}

// NewPlatform bootstraps the full device context for app: instance, debug
// callback, physical device, queue selection and logical device. Every
// failure is fatal; errors bubble to the process boundary.
func NewPlatform(app Application) (p *Platform, err error) {
	defer checkErr(&err)
	p = &Platform{}

	// Select instance extensions
	requiredInstanceExtensions := safeStrings(app.VulkanInstanceExtensions())
	actualInstanceExtensions, err := InstanceExtensions()
	orPanic(err)
	instanceExtensions, missing := checkExisting(actualInstanceExtensions, requiredInstanceExtensions)
	if missing > 0 {
		warnLog.Println("vulkan: missing", missing, "required instance extensions during init")
	}
	log.Printf("vulkan: enabling %d instance extensions", len(instanceExtensions))

	// Select instance layers
	var validationLayers []string
	if iface, ok := app.(ApplicationVulkanLayers); ok {
		requiredValidationLayers := safeStrings(iface.VulkanLayers())
		actualValidationLayers, err := ValidationLayers()
		orPanic(err)
		validationLayers, missing = checkExisting(actualValidationLayers, requiredValidationLayers)
		if missing > 0 {
			warnLog.Println("vulkan: missing", missing, "required validation layers during init")
		}
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(app.VulkanAPIVersion()),
			ApplicationVersion: uint32(app.VulkanAppVersion()),
			PApplicationName:   safeString(app.VulkanAppName()),
			PEngineName:        "vkr\x00",
		},
		EnabledExtensionCount:   uint32(len(instanceExtensions)),
		PpEnabledExtensionNames: instanceExtensions,
		EnabledLayerCount:       uint32(len(validationLayers)),
		PpEnabledLayerNames:     validationLayers,
	}, nil, &instance)
	orPanic(NewError(ret))
	p.instance = instance
	vk.InitInstance(instance)

	if app.VulkanDebug() {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}, nil, &p.debugCallback)
		orPanic(NewError(ret))
		log.Println("vulkan: DebugReportCallback enabled by application")
	}

	// Select the physical device. An external runtime may force one,
	// otherwise the first enumerated device wins and is never reconsidered.
	if iface, ok := app.(ApplicationRequiredDevice); ok {
		p.gpu = iface.VulkanPhysicalDevice(instance)
	}
	if p.gpu == nil {
		var gpuCount uint32
		ret = vk.EnumeratePhysicalDevices(p.instance, &gpuCount, nil)
		orPanic(NewError(ret))
		if gpuCount == 0 {
			return nil, errors.New("vulkan error: no GPU devices found")
		}
		gpus := make([]vk.PhysicalDevice, gpuCount)
		ret = vk.EnumeratePhysicalDevices(p.instance, &gpuCount, gpus)
		orPanic(NewError(ret))
		p.gpu = gpus[0]
	}
	vk.GetPhysicalDeviceProperties(p.gpu, &p.gpuProperties)
	p.gpuProperties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(p.gpu, &p.memoryProperties)
	p.memoryProperties.Deref()
	p.memTypes = memoryTypeFlags(p.memoryProperties)

	// Select device extensions
	requiredDeviceExtensions := safeStrings(app.VulkanDeviceExtensions())
	actualDeviceExtensions, err := DeviceExtensions(p.gpu)
	orPanic(err)
	deviceExtensions, missing := checkExisting(actualDeviceExtensions, requiredDeviceExtensions)
	if missing > 0 {
		warnLog.Println("vulkan: missing", missing, "required device extensions during init")
	}
	log.Printf("vulkan: enabling %d device extensions", len(deviceExtensions))

	mode := app.VulkanMode()
	if mode.Has(VulkanPresent) {
		p.surface = app.VulkanSurface(p.instance)
		if p.surface == vk.NullSurface {
			return nil, errors.New("vulkan error: surface required but not provided")
		}
	}

	p.families = gatherQueueFamilies(p.gpu, p.surface)
	if len(p.families) == 0 {
		return nil, errors.New("vulkan error: no queue families found on the selected GPU")
	}

	var required vk.QueueFlags
	if mode.Has(VulkanGraphics) {
		required |= vk.QueueFlags(vk.QueueGraphicsBit)
	}
	graphicsIndex, ok := SelectQueueFamily(p.families, required, mode.Has(VulkanPresent))
	if !ok {
		// The graphics family cannot present; fall back to a separate
		// present family when one exists.
		graphicsIndex, ok = SelectQueueFamily(p.families, required, false)
		if !ok {
			return nil, errors.New("vulkan error: could not find a suitable queue family for the target Vulkan mode")
		}
	}
	p.graphicsQueueIndex = graphicsIndex
	p.presentQueueIndex = graphicsIndex
	if mode.Has(VulkanPresent) && !p.families[graphicsIndex].CanPresent {
		presentIndex, ok := SelectPresentFamily(p.families)
		if !ok {
			return nil, errors.New("vulkan error: could not find a queue family with present capabilities")
		}
		p.presentQueueIndex = presentIndex
	}
	if mode.Has(VulkanCompute) {
		computeIndex, ok := SelectComputeFamily(p.families, graphicsIndex)
		if !ok {
			return nil, errors.New("vulkan error: could not find a compute-capable queue family")
		}
		p.computeQueueIndex = computeIndex
		p.hasCompute = true
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: p.graphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	if p.presentQueueIndex != p.graphicsQueueIndex {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: p.presentQueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	if p.hasCompute && p.computeQueueIndex != p.graphicsQueueIndex && p.computeQueueIndex != p.presentQueueIndex {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: p.computeQueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	var featuresPNext unsafe.Pointer
	if iface, ok := app.(ApplicationDeviceFeatures); ok {
		featuresPNext = iface.VulkanDeviceFeaturesPNext()
	}

	var device vk.Device
	ret = vk.CreateDevice(p.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   featuresPNext,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		EnabledLayerCount:       uint32(len(validationLayers)),
		PpEnabledLayerNames:     validationLayers,
	}, nil, &device)
	orPanic(NewError(ret))
	p.device = device

	var queue vk.Queue
	vk.GetDeviceQueue(p.device, p.graphicsQueueIndex, 0, &queue)
	p.graphicsQueue = queue
	p.presentQueue = queue
	if p.presentQueueIndex != p.graphicsQueueIndex {
		vk.GetDeviceQueue(p.device, p.presentQueueIndex, 0, &p.presentQueue)
	}
	if p.hasCompute {
		if p.computeQueueIndex == p.graphicsQueueIndex {
			p.computeQueue = p.graphicsQueue
		} else {
			vk.GetDeviceQueue(p.device, p.computeQueueIndex, 0, &p.computeQueue)
		}
	}

	// Transient pool for one-off transfer work.
	var pool vk.CommandPool
	ret = vk.CreateCommandPool(p.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: p.graphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}, nil, &pool)
	orPanic(NewError(ret))
	p.cmdPool = pool

	return p, nil
}

func (p *Platform) Instance() vk.Instance { return p.instance }
func (p *Platform) PhysicalDevice() vk.PhysicalDevice { return p.gpu }
func (p *Platform) Device() vk.Device { return p.device }
func (p *Platform) Surface() vk.Surface { return p.surface }
func (p *Platform) GraphicsQueue() vk.Queue { return p.graphicsQueue }
func (p *Platform) PresentQueue() vk.Queue { return p.presentQueue }
func (p *Platform) GraphicsQueueFamilyIndex() uint32 { return p.graphicsQueueIndex }
func (p *Platform) PresentQueueFamilyIndex() uint32 { return p.presentQueueIndex }

func (p *Platform) HasSeparatePresentQueue() bool {
	return p.presentQueueIndex != p.graphicsQueueIndex
}

// ComputeQueue returns the queue for compute submissions. Valid only when the
// application requested VulkanCompute.
func (p *Platform) ComputeQueue() vk.Queue { return p.computeQueue }
func (p *Platform) ComputeQueueFamilyIndex() uint32 { return p.computeQueueIndex }
func (p *Platform) HasSeparateComputeQueue() bool {
	return p.hasCompute && p.computeQueueIndex != p.graphicsQueueIndex
}

func (p *Platform) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return p.memoryProperties
}

// MemoryTypes exposes the Go-side snapshot of memory type flags used by
// FindMemoryType.
func (p *Platform) MemoryTypes() []vk.MemoryPropertyFlags { return p.memTypes }

func (p *Platform) PhysicalDeviceProperties() vk.PhysicalDeviceProperties {
	return p.gpuProperties
}

func (p *Platform) QueueFamilies() []QueueFamily { return p.families }

// OneTimeCommands records fn into a transient command buffer, submits it on
// the graphics queue and blocks until the GPU is done with it.
func (p *Platform) OneTimeCommands(fn func(cmd vk.CommandBuffer)) error {
	cmds := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(p.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.cmdPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmds)
	if isError(ret) {
		return NewError(ret)
	}
	defer vk.FreeCommandBuffers(p.device, p.cmdPool, 1, cmds)

	vk.BeginCommandBuffer(cmds[0], &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	fn(cmds[0])
	vk.EndCommandBuffer(cmds[0])

	var fence vk.Fence
	ret = vk.CreateFence(p.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &fence)
	if isError(ret) {
		return NewError(ret)
	}
	defer vk.DestroyFence(p.device, fence, nil)

	ret = vk.QueueSubmit(p.graphicsQueue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}}, fence)
	if isError(ret) {
		return NewError(ret)
	}
	vk.WaitForFences(p.device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64)
	return nil
}

// NewSemaphore creates an unsignaled binary semaphore.
func (p *Platform) NewSemaphore() vk.Semaphore {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(p.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	orPanic(NewError(ret))
	return sem
}

// NewFence creates a fence, optionally already signaled so a first frame
// does not block on it.
func (p *Platform) NewFence(signaled bool) vk.Fence {
	info := &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(p.device, info, nil, &fence)
	orPanic(NewError(ret))
	return fence
}

// Destroy waits for the device to go idle and tears everything down.
func (p *Platform) Destroy() {
	if p.device != nil {
		vk.DeviceWaitIdle(p.device)
	}
	if p.cmdPool != vk.NullCommandPool {
		vk.DestroyCommandPool(p.device, p.cmdPool, nil)
		p.cmdPool = vk.NullCommandPool
	}
	if p.surface != vk.NullSurface {
		vk.DestroySurface(p.instance, p.surface, nil)
		p.surface = vk.NullSurface
	}
	if p.device != nil {
		vk.DestroyDevice(p.device, nil)
		p.device = nil
	}
	if p.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(p.instance, p.debugCallback, nil)
	}
	if p.instance != nil {
		vk.DestroyInstance(p.instance, nil)
		p.instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Printf("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Printf("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Printf("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		log.Printf("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
