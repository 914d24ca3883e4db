// Package device manages GPU-side objects (buffers, images, image views,
// samplers) behind generation-stamped taskgraph handles, on top of a
// gogpu/wgpu HAL device.
package device

import "errors"

// Package errors for the device layer.
var (
	// ErrNilDevice is returned when constructing a Device without a HAL device.
	ErrNilDevice = errors.New("device: HAL device is nil")

	// ErrNilQueue is returned when constructing a Device without a HAL queue.
	ErrNilQueue = errors.New("device: HAL queue is nil")

	// ErrNoHALProvider is returned when a device provider does not expose
	// direct HAL access.
	ErrNoHALProvider = errors.New("device: provider does not expose a HAL device")

	// ErrInvalidBufferSize is returned when a buffer descriptor has size zero.
	ErrInvalidBufferSize = errors.New("device: invalid buffer size")

	// ErrInvalidImageSize is returned when an image descriptor has zero
	// width or height.
	ErrInvalidImageSize = errors.New("device: invalid image size")

	// ErrClosed is returned when operating on a closed device.
	ErrClosed = errors.New("device: device is closed")
)
