package vkr

import (
	"log"
	"os"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// VulkanMode is a bitmask of the capabilities an application requires from
// the platform.
type VulkanMode uint32

const (
	VulkanNone    VulkanMode = 0
	VulkanCompute VulkanMode = 1 << iota
	VulkanGraphics
	VulkanPresent
)

func (v VulkanMode) Has(mode VulkanMode) bool {
	return v&mode == mode
}

// Application describes what an example program needs from the platform.
// Examples embed BaseApp and override only what they care about; optional
// behavior is expressed through the decorator interfaces below rather than
// through inheritance.
type Application interface {
	VulkanAPIVersion() vk.Version
	VulkanAppVersion() vk.Version
	VulkanAppName() string
	VulkanMode() VulkanMode
	// VulkanSurface creates a presentable surface for the given instance.
	// May return vk.NullSurface when VulkanPresent is not in the mode.
	VulkanSurface(instance vk.Instance) vk.Surface
	VulkanInstanceExtensions() []string
	VulkanDeviceExtensions() []string
	VulkanDebug() bool
}

// ApplicationVulkanLayers is implemented by applications that want specific
// validation layers enabled.
type ApplicationVulkanLayers interface {
	VulkanLayers() []string
}

// ApplicationSwapchainDimensions overrides the default swapchain size/format.
type ApplicationSwapchainDimensions interface {
	VulkanSwapchainDimensions() *SwapchainDimensions
}

// ApplicationRequiredDevice is implemented when an external runtime (an HMD
// SDK) dictates the physical device to render on. When absent, device 0 is
// selected and never re-evaluated.
type ApplicationRequiredDevice interface {
	VulkanPhysicalDevice(instance vk.Instance) vk.PhysicalDevice
}

// ApplicationDeviceFeatures chains an extra feature struct into device
// creation, e.g. PhysicalDeviceMultiviewFeatures for layered rendering. The
// returned pointer must stay reachable until NewPlatform returns.
type ApplicationDeviceFeatures interface {
	VulkanDeviceFeaturesPNext() unsafe.Pointer
}

var (
	DefaultVulkanAppVersion = vk.MakeVersion(1, 0, 0)
	DefaultVulkanAPIVersion = vk.MakeVersion(1, 1, 0)
	DefaultVulkanMode       = VulkanGraphics | VulkanPresent
)

// SwapchainDimensions describes the size and format of the swapchain.
type SwapchainDimensions struct {
	Width  uint32
	Height uint32
	Format vk.Format
}

var (
	infoLog = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime)
	warnLog = log.New(os.Stderr, "WARNING: ", log.Ldate|log.Ltime)
	errLog  = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime)
)

// BaseApp provides defaults for Application so examples only override the
// hooks they need.
type BaseApp struct {
	Window *Window
}

func (a *BaseApp) Infof(format string, v ...interface{})  { infoLog.Printf(format, v...) }
func (a *BaseApp) Warnf(format string, v ...interface{})  { warnLog.Printf(format, v...) }
func (a *BaseApp) Errorf(format string, v ...interface{}) { errLog.Printf(format, v...) }

func (a *BaseApp) VulkanAPIVersion() vk.Version { return vk.Version(DefaultVulkanAPIVersion) }
func (a *BaseApp) VulkanAppVersion() vk.Version { return vk.Version(DefaultVulkanAppVersion) }
func (a *BaseApp) VulkanAppName() string        { return "vkr" }
func (a *BaseApp) VulkanMode() VulkanMode       { return DefaultVulkanMode }
func (a *BaseApp) VulkanDebug() bool            { return false }

func (a *BaseApp) VulkanSurface(instance vk.Instance) vk.Surface {
	if a.Window == nil {
		return vk.NullSurface
	}
	return a.Window.CreateSurface(instance)
}

func (a *BaseApp) VulkanInstanceExtensions() []string {
	if a.Window == nil {
		return nil
	}
	return a.Window.RequiredExtensions()
}

func (a *BaseApp) VulkanDeviceExtensions() []string {
	return []string{"VK_KHR_swapchain"}
}
