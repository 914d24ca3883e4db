package device

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/taskgraph"
)

// Device owns the GPU-side objects referenced by taskgraph handles.
//
// Each resource class lives in its own generation-stamped pool, so a
// handle held after the resource was destroyed fails with
// [taskgraph.ErrStaleHandle] instead of resolving to a newer object.
// Creation and destruction happen here; task graphs only ever see the
// handles.
//
// Device is safe for concurrent use. Each pool serializes its own
// mutation and allows concurrent lookups.
type Device struct {
	hal   hal.Device
	queue hal.Queue

	buffers  *taskgraph.Pool[*Buffer]
	images   *taskgraph.Pool[*Image]
	views    *taskgraph.Pool[*ImageView]
	samplers *taskgraph.Pool[*Sampler]

	closed atomic.Bool
}

// halProvider is the optional interface a gpucontext.DeviceProvider
// implements to expose its underlying HAL objects. The methods return any
// to avoid a hard dependency between the context and HAL packages.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// New creates a Device from a shared gpucontext provider, typically the
// host application's GPU context. The provider must expose direct HAL
// access via HalDevice() any / HalQueue() any.
//
// The Device receives the HAL device from the host; it does not create
// one. Use [NewWithHAL] to inject HAL objects directly (tests, embedding).
func New(provider gpucontext.DeviceProvider) (*Device, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	return NewWithHAL(dev, queue)
}

// NewWithHAL creates a Device directly from HAL objects.
func NewWithHAL(dev hal.Device, queue hal.Queue) (*Device, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	d := &Device{
		hal:      dev,
		queue:    queue,
		buffers:  taskgraph.NewPool[*Buffer](),
		images:   taskgraph.NewPool[*Image](),
		views:    taskgraph.NewPool[*ImageView](),
		samplers: taskgraph.NewPool[*Sampler](),
	}
	taskgraph.Logger().Info("taskgraph device created")
	return d, nil
}

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device { return d.hal }

// Queue returns the underlying HAL queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// BufferCount returns the number of live buffers.
func (d *Device) BufferCount() int { return d.buffers.Len() }

// ImageCount returns the number of live images.
func (d *Device) ImageCount() int { return d.images.Len() }

// ImageViewCount returns the number of live image views.
func (d *Device) ImageViewCount() int { return d.views.Len() }

// SamplerCount returns the number of live samplers.
func (d *Device) SamplerCount() int { return d.samplers.Len() }

// Close destroys every live object still in the pools. Handles issued by
// this device are invalid afterwards, and all further Create calls fail
// with [ErrClosed].
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}

	// Views before their parent images.
	for _, h := range collectHandles(d.views) {
		if view, err := d.views.Delete(h); err == nil {
			d.hal.DestroyTextureView(view.raw)
		}
	}
	for _, h := range collectHandles(d.images) {
		if img, err := d.images.Delete(h); err == nil {
			d.hal.DestroyTexture(img.raw)
		}
	}
	for _, h := range collectHandles(d.buffers) {
		if buf, err := d.buffers.Delete(h); err == nil {
			d.hal.DestroyBuffer(buf.raw)
		}
	}
	for _, h := range collectHandles(d.samplers) {
		if s, err := d.samplers.Delete(h); err == nil {
			d.hal.DestroySampler(s.raw)
		}
	}

	taskgraph.Logger().Info("taskgraph device closed")
	return nil
}

// collectHandles snapshots the live handles of a pool. Deletion happens
// after the snapshot because Range holds the pool's read lock.
func collectHandles[T any](p *taskgraph.Pool[T]) []taskgraph.Handle {
	handles := make([]taskgraph.Handle, 0, p.Len())
	p.Range(func(h taskgraph.Handle, _ T) bool {
		handles = append(handles, h)
		return true
	})
	return handles
}
