// Package surface implements the Surface Provider collaborator: access to
// the currently displayed framebuffer the capture pipeline reads each tick.
// The pipeline does not wrap it zero-copy: it takes a CopyDisplayedSurface
// snapshot, which pixel.NewFromBitmap then copies into the image's own
// buffer.
//
// Grounded on IntuitionEngine's video_compositor.go, which holds frame buffers
// as raw byte slices accessed via unsafe.Pointer for row-level blending; the
// same shape is used here for BaseAddress so a real IOSurface-backed
// implementation can hand over a pointer without a copy.
package surface

import "unsafe"

// Format describes the pixel layout of a Surface. Only ARGB32 is produced
// by any implementation in this package; the type exists so a future
// native backend with a different configured pixel format has somewhere
// to report it.
type Format struct {
	BitsPerPixel int
	RedShift     int
	GreenShift   int
	BlueShift    int
	AlphaShift   int
}

// ARGB32 is the only format implementations in this package emit.
var ARGB32 = Format{BitsPerPixel: 32, RedShift: 0, GreenShift: 8, BlueShift: 16, AlphaShift: 24}

// Surface is a non-owning view onto a framebuffer: base address, stride
// (bytes per row), width/height in pixels, and pixel format.
type Surface struct {
	BaseAddress unsafe.Pointer
	Stride      int
	Width       int
	Height      int
	Format      Format

	// generation increments whenever the underlying bytes change identity;
	// the capture pipeline's no-change check in step 1 compares only this
	// counter, not BaseAddress.
	generation uint64
	backing    []byte
}

// Generation reports the surface's change counter.
func (s *Surface) Generation() uint64 { return s.generation }

// Bytes returns the surface's backing bytes for implementations and tests
// that cannot use unsafe.Pointer directly.
func (s *Surface) Bytes() []byte { return s.backing }

// Handle identifies a physical display.
type Handle uint64

// Layer identifies a compositing layer within a display; 0 is the default.
type Layer uint32

// Provider is the display-capture contract: enumerate displays, query size,
// and fetch either the live compositing surface or a snapshot copy.
type Provider interface {
	MainDisplay() Handle
	DisplaySize(h Handle) (width, height int, err error)
	DefaultSurface(h Handle, layer Layer) (*Surface, error)
	CopyDisplayedSurface(h Handle, layer Layer) (*Surface, error)
	IsInUse(s *Surface) bool
}

// ErrUnsupportedPlatform is returned by platform-specific providers that
// have no real backend on the running OS.
type ErrUnsupportedPlatform struct{ Platform string }

func (e ErrUnsupportedPlatform) Error() string {
	return "surface: unsupported platform: " + e.Platform
}
