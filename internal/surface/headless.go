package surface

import "unsafe"

// Headless synthesizes surfaces from an in-memory ARGB32 buffer, for tests
// and non-device builds. Calling Paint advances the generation counter so
// consumers following step 1's "pointer or generation changed" check
// see a new frame.
type Headless struct {
	width, height int
	pixels        []byte
	generation    uint64
	inUse         bool
}

// NewHeadless creates a headless provider backing one display of the given
// size, initially filled with zero (transparent black) pixels.
func NewHeadless(width, height int) *Headless {
	return &Headless{
		width:  width,
		height: height,
		pixels: make([]byte, width*height*4),
	}
}

// Paint overwrites the backing buffer with src (which must be width*height*4
// bytes of tightly packed ARGB32) and bumps the generation counter.
func (h *Headless) Paint(src []byte) {
	n := copy(h.pixels, src)
	_ = n
	h.generation++
}

// SetInUse controls what IsInUse reports. The capture pipeline does not
// call IsInUse.
func (h *Headless) SetInUse(v bool) { h.inUse = v }

func (h *Headless) MainDisplay() Handle { return Handle(1) }

func (h *Headless) DisplaySize(Handle) (int, int, error) {
	return h.width, h.height, nil
}

func (h *Headless) surface() *Surface {
	var base unsafe.Pointer
	if len(h.pixels) > 0 {
		base = unsafe.Pointer(&h.pixels[0])
	}
	return &Surface{
		BaseAddress: base,
		Stride:      h.width * 4,
		Width:       h.width,
		Height:      h.height,
		Format:      ARGB32,
		generation:  h.generation,
		backing:     h.pixels,
	}
}

func (h *Headless) DefaultSurface(Handle, Layer) (*Surface, error) {
	return h.surface(), nil
}

// CopyDisplayedSurface returns an independent snapshot of the current
// buffer, so callers may hold it across subsequent Paint calls.
func (h *Headless) CopyDisplayedSurface(Handle, Layer) (*Surface, error) {
	cp := make([]byte, len(h.pixels))
	copy(cp, h.pixels)
	var base unsafe.Pointer
	if len(cp) > 0 {
		base = unsafe.Pointer(&cp[0])
	}
	return &Surface{
		BaseAddress: base,
		Stride:      h.width * 4,
		Width:       h.width,
		Height:      h.height,
		Format:      ARGB32,
		generation:  h.generation,
		backing:     cp,
	}, nil
}

func (h *Headless) IsInUse(*Surface) bool { return h.inUse }
