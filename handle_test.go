package taskgraph

import "testing"

func TestHandle_EncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		slot    int
		version uint64
	}{
		{"zero", 0, 0, 0},
		{"first page", 0, 17, 3},
		{"later page", 9, 255, 1},
		{"max fields", 0xFFFF, 0xFFFF, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandle(tt.page, tt.slot, tt.version)
			if h.page() != tt.page {
				t.Errorf("page() = %d, want %d", h.page(), tt.page)
			}
			if h.slot() != tt.slot {
				t.Errorf("slot() = %d, want %d", h.slot(), tt.slot)
			}
			if h.version() != tt.version {
				t.Errorf("version() = %d, want %d", h.version(), tt.version)
			}
			// The reserved high bits stay clear.
			if uint64(h)>>48 != 0 {
				t.Errorf("reserved bits set in %#x", uint64(h))
			}
		})
	}
}

func TestHandle_VersionMasked(t *testing.T) {
	// A version beyond 16 bits must not leak into the slot field.
	h := newHandle(0, 0, 0x1FFFF)
	if h.version() != 0xFFFF {
		t.Errorf("version() = %d, want %d", h.version(), 0xFFFF)
	}
	if h.slot() != 0 {
		t.Errorf("slot() = %d, want 0", h.slot())
	}
}

func TestHandle_String(t *testing.T) {
	h := newHandle(2, 7, 1)
	want := "Handle(page=2 slot=7 v=1)"
	if h.String() != want {
		t.Errorf("String() = %q, want %q", h.String(), want)
	}

	if got := BufferID(h).String(); got != "Buffer"+want {
		t.Errorf("BufferID.String() = %q, want %q", got, "Buffer"+want)
	}
	if got := ImageViewID(h).String(); got != "ImageView"+want {
		t.Errorf("ImageViewID.String() = %q, want %q", got, "ImageView"+want)
	}
}
