package vkr

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// KeyHandler receives raw key events from the window.
type KeyHandler interface {
	OnKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey)
}

// MouseHandler receives cursor and button events.
type MouseHandler interface {
	OnMouseMove(x, y float64)
	OnMouseButton(button glfw.MouseButton, action glfw.Action)
}

// ScrollHandler receives scroll wheel events.
type ScrollHandler interface {
	OnScroll(dx, dy float64)
}

// ResizeHandler is notified when the framebuffer size changes. The frame
// loop recreates the swapchain before this fires.
type ResizeHandler interface {
	OnResize(width, height int)
}

// Window wraps a native window and forwards its raw callbacks to whatever
// handler interfaces the active example implements.
type Window struct {
	*glfw.Window

	resized bool
}

// InitWindowing initializes GLFW for Vulkan rendering and loads the Vulkan
// proc addr through it. Must be called from the main thread, once.
func InitWindowing() error {
	if err := glfw.Init(); err != nil {
		return err
	}
	if !glfw.VulkanSupported() {
		return fmt.Errorf("vulkan error: GLFW reports no Vulkan support")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return vk.Init()
}

// NewWindow creates a native window sized per the config. No GL context is
// attached; presentation goes through the swapchain.
func NewWindow(cfg *Config) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Window{Window: win}, nil
}

// Bind registers raw callbacks that forward to the handler interfaces the
// application implements. Unimplemented events are dropped.
func (w *Window) Bind(app interface{}) {
	if h, ok := app.(KeyHandler); ok {
		w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
			h.OnKey(key, action, mods)
		})
	}
	if h, ok := app.(MouseHandler); ok {
		w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
			h.OnMouseMove(x, y)
		})
		w.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
			h.OnMouseButton(button, action)
		})
	}
	if h, ok := app.(ScrollHandler); ok {
		w.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
			h.OnScroll(dx, dy)
		})
	}
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		w.resized = true
	})
}

// ConsumeResize reports whether the framebuffer was resized since the last
// call and clears the flag.
func (w *Window) ConsumeResize() bool {
	r := w.resized
	w.resized = false
	return r
}

// CreateSurface creates a Vulkan surface for this window. Failure is fatal;
// there is no fallback presentation path.
func (w *Window) CreateSurface(instance vk.Instance) vk.Surface {
	surfPtr, err := w.Window.CreateWindowSurface(instance, nil)
	orPanic(err)
	return vk.SurfaceFromPointer(surfPtr)
}

// RequiredExtensions lists the instance extensions the windowing system
// needs for presentation.
func (w *Window) RequiredExtensions() []string {
	return w.Window.GetRequiredInstanceExtensions()
}

// Extent returns the current framebuffer size as a Vulkan extent.
func (w *Window) Extent() vk.Extent2D {
	width, height := w.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(width), Height: uint32(height)}
}
