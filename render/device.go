// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Errors returned by devices.
var (
	// ErrTextureDestroyed is returned when a destroyed texture is used.
	ErrTextureDestroyed = errors.New("render: texture destroyed")

	// ErrForeignTexture is returned when a texture created by another
	// device is passed to a device.
	ErrForeignTexture = errors.New("render: texture belongs to another device")

	// ErrUnsupportedFormat is returned for texture formats a device cannot store.
	ErrUnsupportedFormat = errors.New("render: unsupported texture format")

	// ErrSizeMismatch is returned when an upload or readback does not match
	// the texture dimensions.
	ErrSizeMismatch = errors.New("render: size mismatch")

	// ErrInvalidSize is returned for zero or oversized texture dimensions.
	ErrInvalidSize = errors.New("render: invalid texture size")

	// ErrDeviceDestroyed is returned by devices after Destroy.
	ErrDeviceDestroyed = errors.New("render: device destroyed")
)

// DeviceHandle provides GPU device access from the host application.
//
// A host that already owns a GPU device (a gogpu window, an editor shell)
// passes its surface implementing DeviceHandle so that the engine shares the
// device instead of opening its own. A handle whose Device returns nil
// leaves the backend free to open a standalone device.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// Surface is the display surface the engine presents to.
// Size reports the current size in pixels and may change between frames.
type Surface interface {
	Size() (width, height int)
}

// TextureDescriptor describes parameters for creating a texture.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be read back.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows uploads into the texture.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be sampled.
	TextureUsageTextureBinding

	// TextureUsageRenderAttachment allows the texture to be a pass target.
	TextureUsageRenderAttachment
)

// Texture is a device-owned RGBA image.
//
// Pixel data is premultiplied RGBA8, the layout of *image.RGBA.
type Texture interface {
	// Label returns the debug label given at creation.
	Label() string

	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// Upload replaces the texture contents. img must have the texture's size.
	Upload(img *image.RGBA) error

	// Destroyed reports whether Destroy has been called.
	Destroyed() bool

	// Destroy releases the resources of the texture. Safe to call twice.
	Destroy()
}

// Device creates textures and executes render passes.
//
// Devices are driven from a single goroutine (the frame tick); only Destroy
// may be called from another goroutine once the tick has stopped.
type Device interface {
	// Name returns the backend name that created the device.
	Name() string

	// CreateTexture allocates a texture.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// Execute records and submits one render pass.
	Execute(pass *Pass) error

	// ReadPixels copies the contents of src into dst.
	ReadPixels(src Texture, dst *image.RGBA) error

	// Capabilities reports device limits.
	Capabilities() DeviceCapabilities

	// Destroy releases the device and every texture it still owns.
	Destroy()
}

// Preparer is implemented by devices that compile programs ahead of use.
// Prepare is called once during engine initialization with every material
// the engine may draw, so that shader errors surface as init failures.
type Preparer interface {
	Prepare(materials []Material) error
}

// DefaultTextureDescriptor returns a TextureDescriptor for an RGBA8 texture
// that can be sampled, rendered to, uploaded and read back.
func DefaultTextureDescriptor(label string, width, height uint32) TextureDescriptor {
	return TextureDescriptor{
		Label:  label,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage: TextureUsageTextureBinding | TextureUsageRenderAttachment |
			TextureUsageCopyDst | TextureUsageCopySrc,
	}
}

// DeviceCapabilities describes the capabilities of a device.
type DeviceCapabilities struct {
	// MaxTextureSize is the maximum texture dimension supported.
	MaxTextureSize uint32

	// VendorName is the GPU vendor name.
	VendorName string

	// DeviceName is the GPU device name.
	DeviceName string

	// AdapterType is the kind of adapter behind the device.
	AdapterType gpucontext.AdapterType

	// SurfaceFormat is the preferred format of the host surface, or
	// TextureFormatUndefined when the device is not shared with a host.
	SurfaceFormat gputypes.TextureFormat
}

// ValidateDescriptor checks desc against a maximum texture size.
func ValidateDescriptor(desc TextureDescriptor, maxSize uint32) error {
	if desc.Width == 0 || desc.Height == 0 || desc.Width > maxSize || desc.Height > maxSize {
		return ErrInvalidSize
	}
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return ErrUnsupportedFormat
	}
	return nil
}

// NullDeviceHandle is a DeviceHandle without a device.
// Hosts that only provide a size pass it to force a standalone device.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports an unknown adapter for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

var _ DeviceHandle = NullDeviceHandle{}
