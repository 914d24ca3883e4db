package taskgraph

import "fmt"

// Handle bit layout. Each field gets 16 bits; the top 16 bits of the
// uint64 are reserved and always zero.
//
//	<-- reserved --> <-- page --> <-- slot --> <-- version -->
//	     16 bits        16 bits      16 bits       16 bits
const (
	handleFieldBits = 16
	handleFieldMask = 1<<handleFieldBits - 1

	handlePageShift = 32
	handleSlotShift = 16
)

// Handle is an opaque, generation-stamped identifier for a pooled resource.
//
// A handle encodes the page and slot where the resource lives plus the
// version the slot had when the handle was issued. The pool rejects any
// handle whose version no longer matches the slot, so a handle held across
// a Delete fails instead of silently resolving to whatever resource later
// reuses the slot.
//
// Handles are comparable with ==. The zero Handle is a valid reference to
// the first resource ever added to a pool (page 0, slot 0, version 0):
// validity is decided by the pool, not by the bit pattern.
type Handle uint64

// newHandle packs page, slot and version into a Handle.
// Callers guarantee the fields fit in 16 bits each.
func newHandle(page, slot int, version uint64) Handle {
	return Handle(uint64(page)<<handlePageShift | uint64(slot)<<handleSlotShift | version&handleFieldMask)
}

// page returns the page index encoded in the handle.
func (h Handle) page() int { return int(uint64(h) >> handlePageShift & handleFieldMask) }

// slot returns the slot-in-page index encoded in the handle.
func (h Handle) slot() int { return int(uint64(h) >> handleSlotShift & handleFieldMask) }

// version returns the generation counter encoded in the handle.
func (h Handle) version() uint64 { return uint64(h) & handleFieldMask }

// String returns a human-readable description of the handle for debugging.
func (h Handle) String() string {
	return fmt.Sprintf("Handle(page=%d slot=%d v=%d)", h.page(), h.slot(), h.version())
}

// Typed handles for the resource classes managed by the device layer.
// Distinct named types so that, for example, a BufferID cannot be passed
// where an ImageID is expected.
type (
	// BufferID identifies a pooled GPU buffer.
	BufferID Handle

	// ImageID identifies a pooled GPU image (texture).
	ImageID Handle

	// ImageViewID identifies a pooled view onto a GPU image.
	ImageViewID Handle

	// SamplerID identifies a pooled GPU sampler.
	SamplerID Handle
)

// String returns a human-readable description of the buffer handle.
func (id BufferID) String() string { return "Buffer" + Handle(id).String() }

// String returns a human-readable description of the image handle.
func (id ImageID) String() string { return "Image" + Handle(id).String() }

// String returns a human-readable description of the image-view handle.
func (id ImageViewID) String() string { return "ImageView" + Handle(id).String() }

// String returns a human-readable description of the sampler handle.
func (id SamplerID) String() string { return "Sampler" + Handle(id).String() }
