// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/aether/render"
)

func init() {
	render.Register(render.BackendNative, Open)
}

// halProvider is implemented by host surfaces that share their raw HAL
// handles.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// halAccessor is implemented by the wgpu device a render.DeviceHandle
// returns.
type halAccessor interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// Device is a render.Device backed by a HAL device.
type Device struct {
	device hal.Device
	queue  hal.Queue
	log    *slog.Logger
	limits gputypes.Limits
	info   gputypes.AdapterInfo

	adapterType   gpucontext.AdapterType
	surfaceFormat gputypes.TextureFormat

	// instance is set for standalone devices only.
	instance hal.Instance

	sampler     hal.Sampler
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	placeholder *texture

	pipelines *pipelineCache
	meshes    map[*render.Mesh]*meshBuffers

	mu        sync.Mutex
	textures  map[*texture]struct{}
	destroyed bool
}

var (
	_ render.Device   = (*Device)(nil)
	_ render.Preparer = (*Device)(nil)
)

// Open returns a device for surface. It is the render.BackendFactory of
// the native backend.
//
// A surface implementing render.DeviceHandle with a non-nil Device shares
// the host's device. A surface implementing HalDevice and HalQueue shares
// those handles. Any other surface gets a standalone device.
func Open(surface render.Surface, opts render.DeviceOptions) (render.Device, error) {
	if dh, ok := surface.(render.DeviceHandle); ok && dh.Device() != nil {
		return openShared(dh, opts)
	}
	if hp, ok := surface.(halProvider); ok {
		device, ok := hp.HalDevice().(hal.Device)
		if !ok || device == nil {
			return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNilHALDevice)
		}
		queue, ok := hp.HalQueue().(hal.Queue)
		if !ok || queue == nil {
			return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNilHALDevice)
		}
		return New(device, queue, gputypes.DefaultLimits(), opts)
	}
	return openStandalone(opts)
}

// openShared wraps the device of a host handle.
func openShared(dh render.DeviceHandle, opts render.DeviceOptions) (*Device, error) {
	acc, ok := dh.Device().(halAccessor)
	if !ok {
		return nil, fmt.Errorf("%w: provider device %T has no HAL device", ErrNilHALDevice, dh.Device())
	}
	d, err := New(acc.HalDevice(), acc.HalQueue(), gputypes.DefaultLimits(), opts)
	if err != nil {
		return nil, err
	}
	info := dh.AdapterInfo()
	d.info.Name = info.Name
	d.adapterType = info.Type
	d.surfaceFormat = dh.SurfaceFormat()
	d.log.Info("native: sharing host device",
		"adapter", info.Name, "type", info.Type, "surface_format", d.surfaceFormat)
	return d, nil
}

// openStandalone opens the first discrete or integrated Vulkan adapter.
func openStandalone(opts render.DeviceOptions) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := selected.Capabilities.Limits
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}
	d, err := New(openDev.Device, openDev.Queue, limits, opts)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.info = selected.Info
	d.adapterType = adapterType(selected.Info.DeviceType)
	d.log.Info("native: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// New wraps an open HAL device. The caller keeps ownership of device and
// queue unless they were opened by Open.
func New(device hal.Device, queue hal.Queue, limits gputypes.Limits, opts render.DeviceOptions) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if limits.MaxTextureDimension2D == 0 {
		limits = gputypes.DefaultLimits()
	}
	d := &Device{
		device:   device,
		queue:    queue,
		log:      log,
		limits:   limits,
		meshes:   make(map[*render.Mesh]*meshBuffers),

		adapterType: gpucontext.AdapterTypeUnknown,
		textures: make(map[*texture]struct{}),
	}
	if err := d.createShared(); err != nil {
		d.destroyShared()
		return nil, err
	}
	d.pipelines = newPipelineCache(device, d.pipeLayout)
	return d, nil
}

// createShared creates the sampler, the layouts every program uses and the
// placeholder texture bound to procedural programs.
func (d *Device) createShared() error {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "aether_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("native: create sampler: %w", err)
	}
	d.sampler = sampler

	// Binding 0: Uniforms (vertex+fragment)
	// Binding 1: source texture (fragment)
	// Binding 2: sampler (fragment)
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "aether_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout: %w", err)
	}
	d.bindLayout = layout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "aether_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout

	placeholder, err := d.newTexture(render.DefaultTextureDescriptor("placeholder", 1, 1))
	if err != nil {
		return err
	}
	d.placeholder = placeholder
	return placeholder.Upload(image.NewRGBA(image.Rect(0, 0, 1, 1)))
}

func (d *Device) destroyShared() {
	if d.placeholder != nil {
		d.placeholder.release()
		d.placeholder = nil
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
}

// Name implements render.Device.
func (d *Device) Name() string { return render.BackendNative }

// Capabilities implements render.Device.
func (d *Device) Capabilities() render.DeviceCapabilities {
	return render.DeviceCapabilities{
		MaxTextureSize: d.limits.MaxTextureDimension2D,
		VendorName:     d.info.Driver,
		DeviceName:     d.info.Name,
		AdapterType:    d.adapterType,
		SurfaceFormat:  d.surfaceFormat,
	}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// CreateTexture implements render.Device.
func (d *Device) CreateTexture(desc render.TextureDescriptor) (render.Texture, error) {
	d.mu.Lock()
	destroyed := d.destroyed
	d.mu.Unlock()
	if destroyed {
		return nil, render.ErrDeviceDestroyed
	}
	t, err := d.newTexture(desc)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.textures[t] = struct{}{}
	d.mu.Unlock()
	return t, nil
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// Prepare implements render.Preparer by compiling the pipeline of every
// material.
func (d *Device) Prepare(materials []render.Material) error {
	for _, m := range materials {
		if _, err := d.pipelines.get(m); err != nil {
			return err
		}
	}
	d.log.Debug("native: programs prepared", "count", d.pipelines.len())
	return nil
}

// Destroy implements render.Device. A shared device is left open.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	textures := d.textures
	d.textures = make(map[*texture]struct{})
	d.mu.Unlock()

	_ = d.device.WaitIdle()
	for mesh, mb := range d.meshes {
		mb.destroy(d.device)
		delete(d.meshes, mesh)
	}
	for t := range textures {
		t.release()
	}
	d.pipelines.destroy()
	d.destroyShared()

	if d.instance != nil {
		d.device.Destroy()
		d.instance.Destroy()
		d.instance = nil
	}
	d.log.Debug("native: device destroyed", "textures", len(textures))
}

func (d *Device) own(tex render.Texture) (*texture, error) {
	t, ok := tex.(*texture)
	if !ok || t.device != d {
		return nil, render.ErrForeignTexture
	}
	if t.Destroyed() {
		return nil, render.ErrTextureDestroyed
	}
	return t, nil
}

func (d *Device) forget(t *texture) {
	d.mu.Lock()
	delete(d.textures, t)
	d.mu.Unlock()
}
