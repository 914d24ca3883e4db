package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/taskgraph"
)

// SamplerDescriptor describes a sampler to create. Zero values mean
// clamp-to-edge addressing and nearest filtering, the gputypes defaults.
type SamplerDescriptor struct {
	// Label is an optional debug name.
	Label string

	// AddressModeU/V/W control wrapping along each texture axis.
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	AddressModeW gputypes.AddressMode

	// MagFilter is the filter used when the texture is magnified.
	MagFilter gputypes.FilterMode

	// MinFilter is the filter used when the texture is minified.
	MinFilter gputypes.FilterMode

	// MipmapFilter is the filter used between mip levels.
	MipmapFilter gputypes.FilterMode
}

// Sampler is a pooled GPU sampler.
type Sampler struct {
	raw   hal.Sampler
	label string
}

// Label returns the sampler's debug label.
func (s *Sampler) Label() string { return s.label }

// Raw returns the underlying HAL sampler for recording callbacks.
func (s *Sampler) Raw() hal.Sampler { return s.raw }

// CreateSampler creates a GPU sampler and returns its handle.
func (d *Device) CreateSampler(desc *SamplerDescriptor) (taskgraph.SamplerID, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}

	raw, err := d.hal.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: desc.AddressModeW,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MipmapFilter,
	})
	if err != nil {
		return 0, fmt.Errorf("create sampler %q: %w", desc.Label, err)
	}

	id := taskgraph.SamplerID(d.samplers.Add(&Sampler{raw: raw, label: desc.Label}))
	taskgraph.Logger().Debug("sampler created", "label", desc.Label, "id", id)
	return id, nil
}

// Sampler resolves a sampler handle.
func (d *Device) Sampler(id taskgraph.SamplerID) (*Sampler, error) {
	s, err := d.samplers.Get(taskgraph.Handle(id))
	if err != nil {
		return nil, fmt.Errorf("resolve sampler: %w", err)
	}
	return s, nil
}

// DestroySampler destroys the sampler and retires its handle.
func (d *Device) DestroySampler(id taskgraph.SamplerID) error {
	s, err := d.samplers.Delete(taskgraph.Handle(id))
	if err != nil {
		return fmt.Errorf("destroy sampler: %w", err)
	}
	d.hal.DestroySampler(s.raw)
	taskgraph.Logger().Debug("sampler destroyed", "label", s.label, "id", id)
	return nil
}
