package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GpuState owns the device/queue/surface triad every pass compiles against.
type GpuState struct {
	Window        *glfw.Window
	Surface       *wgpu.Surface
	Adapter       *wgpu.Adapter
	Device        *wgpu.Device
	Queue         *wgpu.Queue
	SurfaceConfig *wgpu.SurfaceConfiguration
	Width, Height int
}

func NewGpuState(window *glfw.Window, width, height int) (*GpuState, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(device, config)

	return &GpuState{
		Window:        window,
		Surface:       surface,
		Adapter:       adapter,
		Device:        device,
		Queue:         device.GetQueue(),
		SurfaceConfig: config,
		Width:         width,
		Height:        height,
	}, nil
}

// Resize reconfigures the surface at the new dimensions; called both for a
// real window resize and for the reconfigure-and-skip-frame path on a
// lost/outdated surface.
func (g *GpuState) Resize(width, height int) {
	g.Width, g.Height = width, height
	g.SurfaceConfig.Width = uint32(width)
	g.SurfaceConfig.Height = uint32(height)
	g.Surface.Configure(g.Device, g.SurfaceConfig)
}
