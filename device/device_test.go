package device

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/taskgraph"
)

// newNoopHAL opens a noop HAL device and queue for testing.
func newNoopHAL(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestDevice(t *testing.T) (*Device, func()) {
	t.Helper()
	halDev, queue, cleanup := newNoopHAL(t)
	d, err := NewWithHAL(halDev, queue)
	if err != nil {
		cleanup()
		t.Fatalf("NewWithHAL failed: %v", err)
	}
	return d, func() {
		d.Close()
		cleanup()
	}
}

// mockContextDevice implements gpucontext.Device for testing.
type mockContextDevice struct{}

func (m *mockContextDevice) Poll(wait bool) {}
func (m *mockContextDevice) Destroy()       {}

// mockContextQueue implements gpucontext.Queue for testing.
type mockContextQueue struct{}

// mockContextAdapter implements gpucontext.Adapter for testing.
type mockContextAdapter struct{}

// plainProvider implements gpucontext.DeviceProvider without exposing HAL
// objects.
type plainProvider struct{}

func (p *plainProvider) Device() gpucontext.Device             { return &mockContextDevice{} }
func (p *plainProvider) Queue() gpucontext.Queue               { return &mockContextQueue{} }
func (p *plainProvider) Adapter() gpucontext.Adapter           { return &mockContextAdapter{} }
func (p *plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p *plainProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "mock", Type: gpucontext.AdapterTypeSoftware}
}

// The provider mocks must satisfy the gpucontext contract or the New
// tests prove nothing.
var _ gpucontext.DeviceProvider = (*plainProvider)(nil)
var _ gpucontext.DeviceProvider = (*halProviderMock)(nil)

// halProviderMock additionally exposes HAL objects the way gpu-backed
// providers do.
type halProviderMock struct {
	plainProvider
	halDevice any
	halQueue  any
}

func (p *halProviderMock) HalDevice() any { return p.halDevice }
func (p *halProviderMock) HalQueue() any  { return p.halQueue }

func TestNewWithHAL_NilArgs(t *testing.T) {
	halDev, queue, cleanup := newNoopHAL(t)
	defer cleanup()

	if _, err := NewWithHAL(nil, queue); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewWithHAL(nil, queue): err = %v, want ErrNilDevice", err)
	}
	if _, err := NewWithHAL(halDev, nil); !errors.Is(err, ErrNilQueue) {
		t.Errorf("NewWithHAL(dev, nil): err = %v, want ErrNilQueue", err)
	}
}

func TestNew_ProviderWithoutHALAccess(t *testing.T) {
	if _, err := New(&plainProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Fatalf("New: err = %v, want ErrNoHALProvider", err)
	}
}

func TestNew_ProviderWithWrongHALTypes(t *testing.T) {
	p := &halProviderMock{halDevice: "not a device", halQueue: "not a queue"}
	if _, err := New(p); !errors.Is(err, ErrNoHALProvider) {
		t.Fatalf("New: err = %v, want ErrNoHALProvider", err)
	}
}

func TestNew_ProviderWithHALAccess(t *testing.T) {
	halDev, queue, cleanup := newNoopHAL(t)
	defer cleanup()

	d, err := New(&halProviderMock{halDevice: halDev, halQueue: queue})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	if d.HAL() != halDev {
		t.Error("HAL() does not return the provider's device")
	}
	if d.Queue() != queue {
		t.Error("Queue() does not return the provider's queue")
	}
}

func TestDevice_BufferLifecycle(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	id, err := d.CreateBuffer(&BufferDescriptor{
		Label: "vertices",
		Size:  1024,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if d.BufferCount() != 1 {
		t.Errorf("BufferCount() = %d, want 1", d.BufferCount())
	}

	buf, err := d.Buffer(id)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}
	if buf.Label() != "vertices" || buf.Size() != 1024 {
		t.Errorf("resolved buffer = %q/%d, want vertices/1024", buf.Label(), buf.Size())
	}
	if buf.Raw() == nil {
		t.Error("Raw() = nil, want a HAL buffer")
	}

	if err := d.DestroyBuffer(id); err != nil {
		t.Fatalf("DestroyBuffer failed: %v", err)
	}
	if d.BufferCount() != 0 {
		t.Errorf("BufferCount() = %d after destroy, want 0", d.BufferCount())
	}
	if _, err := d.Buffer(id); !errors.Is(err, taskgraph.ErrInvalidHandle) {
		t.Errorf("Buffer after destroy: err = %v, want ErrInvalidHandle", err)
	}
	if err := d.DestroyBuffer(id); err == nil {
		t.Error("second DestroyBuffer succeeded, want error")
	}
}

func TestDevice_CreateBuffer_ZeroSize(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	if _, err := d.CreateBuffer(&BufferDescriptor{Label: "empty"}); !errors.Is(err, ErrInvalidBufferSize) {
		t.Fatalf("CreateBuffer: err = %v, want ErrInvalidBufferSize", err)
	}
}

func TestDevice_StaleHandleAfterSlotReuse(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	old, err := d.CreateBuffer(&BufferDescriptor{Label: "old", Size: 16})
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if err := d.DestroyBuffer(old); err != nil {
		t.Fatalf("DestroyBuffer failed: %v", err)
	}

	// The next create reuses the freed slot with a bumped version.
	fresh, err := d.CreateBuffer(&BufferDescriptor{Label: "fresh", Size: 32})
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if fresh == old {
		t.Fatal("reused slot produced an identical handle")
	}

	if _, err := d.Buffer(old); !errors.Is(err, taskgraph.ErrStaleHandle) {
		t.Errorf("Buffer(old): err = %v, want ErrStaleHandle", err)
	}
	if buf, err := d.Buffer(fresh); err != nil || buf.Label() != "fresh" {
		t.Errorf("Buffer(fresh) = %v, %v, want the new buffer", buf, err)
	}
}

func TestDevice_ImageAndViewLifecycle(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	img, err := d.CreateImage(&ImageDescriptor{
		Label:  "albedo",
		Width:  256,
		Height: 128,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}

	resolved, err := d.Image(img)
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if resolved.Width() != 256 || resolved.Height() != 128 {
		t.Errorf("resolved image = %dx%d, want 256x128", resolved.Width(), resolved.Height())
	}
	if resolved.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format() = %v, want RGBA8Unorm", resolved.Format())
	}

	view, err := d.CreateImageView(img, &ImageViewDescriptor{Label: "albedo-mip0"})
	if err != nil {
		t.Fatalf("CreateImageView failed: %v", err)
	}
	v, err := d.ImageView(view)
	if err != nil {
		t.Fatalf("ImageView failed: %v", err)
	}
	if v.Parent() != img {
		t.Errorf("Parent() = %v, want %v", v.Parent(), img)
	}
	if d.ImageViewCount() != 1 {
		t.Errorf("ImageViewCount() = %d, want 1", d.ImageViewCount())
	}

	if err := d.DestroyImageView(view); err != nil {
		t.Fatalf("DestroyImageView failed: %v", err)
	}
	if err := d.DestroyImage(img); err != nil {
		t.Fatalf("DestroyImage failed: %v", err)
	}
	if d.ImageCount() != 0 || d.ImageViewCount() != 0 {
		t.Error("counts nonzero after destroying image and view")
	}
}

func TestDevice_CreateImageView_DestroyedParent(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	img, err := d.CreateImage(&ImageDescriptor{
		Label: "gone", Width: 8, Height: 8,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}
	if err := d.DestroyImage(img); err != nil {
		t.Fatalf("DestroyImage failed: %v", err)
	}

	if _, err := d.CreateImageView(img, &ImageViewDescriptor{}); !errors.Is(err, taskgraph.ErrInvalidHandle) {
		t.Fatalf("CreateImageView with dead parent: err = %v, want ErrInvalidHandle", err)
	}
}

func TestDevice_CreateImage_ZeroSize(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	tests := []struct {
		name string
		w, h uint32
	}{
		{"zero width", 0, 8},
		{"zero height", 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CreateImage(&ImageDescriptor{Label: tt.name, Width: tt.w, Height: tt.h})
			if !errors.Is(err, ErrInvalidImageSize) {
				t.Errorf("err = %v, want ErrInvalidImageSize", err)
			}
		})
	}
}

func TestDevice_SamplerLifecycle(t *testing.T) {
	d, cleanup := newTestDevice(t)
	defer cleanup()

	id, err := d.CreateSampler(&SamplerDescriptor{
		Label:     "linear",
		MagFilter: gputypes.FilterModeLinear,
		MinFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		t.Fatalf("CreateSampler failed: %v", err)
	}
	s, err := d.Sampler(id)
	if err != nil {
		t.Fatalf("Sampler failed: %v", err)
	}
	if s.Label() != "linear" {
		t.Errorf("Label() = %q, want linear", s.Label())
	}

	if err := d.DestroySampler(id); err != nil {
		t.Fatalf("DestroySampler failed: %v", err)
	}
	if _, err := d.Sampler(id); !errors.Is(err, taskgraph.ErrInvalidHandle) {
		t.Errorf("Sampler after destroy: err = %v, want ErrInvalidHandle", err)
	}
}

func TestDevice_Close(t *testing.T) {
	halDev, queue, cleanup := newNoopHAL(t)
	defer cleanup()

	d, err := NewWithHAL(halDev, queue)
	if err != nil {
		t.Fatalf("NewWithHAL failed: %v", err)
	}

	buf, err := d.CreateBuffer(&BufferDescriptor{Label: "b", Size: 64})
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	img, err := d.CreateImage(&ImageDescriptor{
		Label: "i", Width: 4, Height: 4,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}
	if _, err := d.CreateImageView(img, &ImageViewDescriptor{Label: "v"}); err != nil {
		t.Fatalf("CreateImageView failed: %v", err)
	}
	if _, err := d.CreateSampler(&SamplerDescriptor{Label: "s"}); err != nil {
		t.Fatalf("CreateSampler failed: %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if n := d.BufferCount() + d.ImageCount() + d.ImageViewCount() + d.SamplerCount(); n != 0 {
		t.Errorf("live objects after Close = %d, want 0", n)
	}
	if _, err := d.Buffer(buf); err == nil {
		t.Error("handle still resolves after Close")
	}
	if _, err := d.CreateBuffer(&BufferDescriptor{Label: "late", Size: 16}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateBuffer after Close: err = %v, want ErrClosed", err)
	}
	if _, err := d.CreateSampler(&SamplerDescriptor{}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateSampler after Close: err = %v, want ErrClosed", err)
	}

	// Close is idempotent.
	if err := d.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
