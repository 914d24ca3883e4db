package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/taskgraph"
)

// ImageDescriptor describes a 2D image (texture) to create.
type ImageDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Width is the image width in pixels.
	Width uint32

	// Height is the image height in pixels.
	Height uint32

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Usage specifies how the image will be used.
	Usage gputypes.TextureUsage

	// MipLevelCount is the number of mip levels. Zero means 1.
	MipLevelCount uint32

	// SampleCount is the number of MSAA samples. Zero means 1.
	SampleCount uint32
}

// Image is a pooled GPU image.
type Image struct {
	raw  hal.Texture
	desc ImageDescriptor
}

// Label returns the image's debug label.
func (i *Image) Label() string { return i.desc.Label }

// Width returns the image width in pixels.
func (i *Image) Width() uint32 { return i.desc.Width }

// Height returns the image height in pixels.
func (i *Image) Height() uint32 { return i.desc.Height }

// Format returns the texel format.
func (i *Image) Format() gputypes.TextureFormat { return i.desc.Format }

// Raw returns the underlying HAL texture for recording callbacks.
func (i *Image) Raw() hal.Texture { return i.raw }

// ImageViewDescriptor describes a view onto an image.
type ImageViewDescriptor struct {
	// Label is an optional debug name.
	Label string

	// BaseMipLevel is the first mip level visible through the view.
	BaseMipLevel uint32

	// MipLevelCount is the number of mip levels visible through the view.
	// Zero means all remaining levels.
	MipLevelCount uint32
}

// ImageView is a pooled view onto a GPU image. It records the parent
// image's handle so recording callbacks can find the backing image.
type ImageView struct {
	raw    hal.TextureView
	parent taskgraph.ImageID
	label  string
}

// Label returns the view's debug label.
func (v *ImageView) Label() string { return v.label }

// Parent returns the handle of the image the view was created from.
func (v *ImageView) Parent() taskgraph.ImageID { return v.parent }

// Raw returns the underlying HAL texture view for recording callbacks.
func (v *ImageView) Raw() hal.TextureView { return v.raw }

// CreateImage creates a 2D GPU image and returns its handle.
func (d *Device) CreateImage(desc *ImageDescriptor) (taskgraph.ImageID, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return 0, fmt.Errorf("%w: %q (%dx%d)", ErrInvalidImageSize, desc.Label, desc.Width, desc.Height)
	}

	mipLevels := desc.MipLevelCount
	if mipLevels == 0 {
		mipLevels = 1
	}
	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}

	raw, err := d.hal.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: mipLevels,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return 0, fmt.Errorf("create image %q: %w", desc.Label, err)
	}

	id := taskgraph.ImageID(d.images.Add(&Image{raw: raw, desc: *desc}))
	taskgraph.Logger().Debug("image created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height, "id", id)
	return id, nil
}

// Image resolves an image handle.
func (d *Device) Image(id taskgraph.ImageID) (*Image, error) {
	img, err := d.images.Get(taskgraph.Handle(id))
	if err != nil {
		return nil, fmt.Errorf("resolve image: %w", err)
	}
	return img, nil
}

// DestroyImage destroys the image and retires its handle. Views created
// from the image must be destroyed first; the HAL does not track the
// relationship.
func (d *Device) DestroyImage(id taskgraph.ImageID) error {
	img, err := d.images.Delete(taskgraph.Handle(id))
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	d.hal.DestroyTexture(img.raw)
	taskgraph.Logger().Debug("image destroyed", "label", img.desc.Label, "id", id)
	return nil
}

// CreateImageView creates a view onto an existing image and returns its
// handle. Fails if the parent handle is stale.
func (d *Device) CreateImageView(parent taskgraph.ImageID, desc *ImageViewDescriptor) (taskgraph.ImageViewID, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}

	img, err := d.images.Get(taskgraph.Handle(parent))
	if err != nil {
		return 0, fmt.Errorf("create image view %q: %w", desc.Label, err)
	}

	raw, err := d.hal.CreateTextureView(img.raw, &hal.TextureViewDescriptor{
		Label:         desc.Label,
		BaseMipLevel:  desc.BaseMipLevel,
		MipLevelCount: desc.MipLevelCount,
	})
	if err != nil {
		return 0, fmt.Errorf("create image view %q: %w", desc.Label, err)
	}

	id := taskgraph.ImageViewID(d.views.Add(&ImageView{raw: raw, parent: parent, label: desc.Label}))
	taskgraph.Logger().Debug("image view created", "label", desc.Label, "parent", parent, "id", id)
	return id, nil
}

// ImageView resolves an image-view handle.
func (d *Device) ImageView(id taskgraph.ImageViewID) (*ImageView, error) {
	view, err := d.views.Get(taskgraph.Handle(id))
	if err != nil {
		return nil, fmt.Errorf("resolve image view: %w", err)
	}
	return view, nil
}

// DestroyImageView destroys the view and retires its handle.
func (d *Device) DestroyImageView(id taskgraph.ImageViewID) error {
	view, err := d.views.Delete(taskgraph.Handle(id))
	if err != nil {
		return fmt.Errorf("destroy image view: %w", err)
	}
	d.hal.DestroyTextureView(view.raw)
	taskgraph.Logger().Debug("image view destroyed", "label", view.label, "id", id)
	return nil
}
