package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/taskgraph"
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// Buffer is a pooled GPU buffer. It pairs the HAL buffer with the
// descriptor it was created from; the descriptor is immutable after
// creation.
type Buffer struct {
	raw  hal.Buffer
	desc BufferDescriptor
}

// Label returns the buffer's debug label.
func (b *Buffer) Label() string { return b.desc.Label }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.desc.Usage }

// Raw returns the underlying HAL buffer for recording callbacks.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// CreateBuffer creates a GPU buffer and returns its handle.
func (d *Device) CreateBuffer(desc *BufferDescriptor) (taskgraph.BufferID, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	if desc.Size == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBufferSize, desc.Label)
	}

	raw, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return 0, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}

	id := taskgraph.BufferID(d.buffers.Add(&Buffer{raw: raw, desc: *desc}))
	taskgraph.Logger().Debug("buffer created", "label", desc.Label, "size", desc.Size, "id", id)
	return id, nil
}

// Buffer resolves a buffer handle. Returns a wrapped
// [taskgraph.ErrStaleHandle] or [taskgraph.ErrInvalidHandle] if the
// buffer has been destroyed.
func (d *Device) Buffer(id taskgraph.BufferID) (*Buffer, error) {
	buf, err := d.buffers.Get(taskgraph.Handle(id))
	if err != nil {
		return nil, fmt.Errorf("resolve buffer: %w", err)
	}
	return buf, nil
}

// DestroyBuffer destroys the buffer and retires its handle.
func (d *Device) DestroyBuffer(id taskgraph.BufferID) error {
	buf, err := d.buffers.Delete(taskgraph.Handle(id))
	if err != nil {
		return fmt.Errorf("destroy buffer: %w", err)
	}
	d.hal.DestroyBuffer(buf.raw)
	taskgraph.Logger().Debug("buffer destroyed", "label", buf.desc.Label, "id", id)
	return nil
}
