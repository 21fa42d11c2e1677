// Package native implements gpucore.Context on the WebGPU HAL.
//
// Shader stages are WGSL. CompileShader runs the pure-Go naga compiler and
// reports its diagnostics as the info log; LinkProgram matches the
// @location interface of the @vertex and @fragment entry points. Draw
// calls render into an offscreen RGBA8 texture that is read back into a
// render.PixmapTarget after every draw.
//
// A Context either owns its device (Open, or OpenNoop for headless runs
// without a GPU), borrows one from a host
// application (FromProvider), or wraps a device the caller manages (New,
// used with the noop HAL in tests).
package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/shadergen/render"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Open acquires a Vulkan device, preferring discrete and integrated GPUs,
// and returns a Context rendering into target. The Context owns the device
// and destroys it on Close.
func Open(target *render.PixmapTarget) (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan backend not available: %w", ErrNoGPU)
	}
	return openBackend(backend, target)
}

// OpenNoop returns a Context on the noop HAL. Every call succeeds and
// nothing is rendered: frames read back as zero pixels. Shader compilation
// and linking behave as on a real device.
func OpenNoop(target *render.PixmapTarget) (*Context, error) {
	return openBackend(noop.API{}, target)
}

func openBackend(backend hal.Backend, target *render.PixmapTarget) (*Context, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	c := newContext(openDev.Device, openDev.Queue, target)
	c.instance = instance
	c.ownsDevice = true
	slogger().Info("native: GPU context initialized",
		"backend", backend.Variant(), "adapter", selected.Info.Name)
	return c, nil
}

// halProvider is implemented by hosts that expose their HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider returns a Context that renders with the device of a host
// application. The provider must also expose HalDevice() and HalQueue()
// returning hal.Device and hal.Queue. The device is not destroyed on Close.
func FromProvider(provider gpucontext.DeviceProvider, target *render.PixmapTarget) (*Context, error) {
	if provider == nil {
		return nil, fmt.Errorf("native: nil device provider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("native: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: provider HalQueue is not hal.Queue")
	}
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	slogger().Info("native: using shared GPU device",
		"adapter", provider.AdapterInfo().Name, "surface_format", provider.SurfaceFormat())
	return newContext(device, queue, target), nil
}

// New wraps a device and queue managed by the caller.
func New(device hal.Device, queue hal.Queue, target *render.PixmapTarget) (*Context, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("native: nil device or queue")
	}
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	return newContext(device, queue, target), nil
}

func checkTarget(target *render.PixmapTarget) error {
	if target == nil {
		return ErrNilTarget
	}
	if target.Width() <= 0 || target.Height() <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, target.Width(), target.Height())
	}
	return nil
}
