package pixel

// Point is an (x, y) coordinate in oriented space.
type Point struct{ X, Y int }

// Rect is an axis-aligned rectangle in oriented space.
type Rect struct{ X, Y, W, H int }

// Image owns a contiguous 32-bit-per-pixel buffer. aligned_width is the
// storage stride in pixels (>= width, for SIMD/row alignment); an image is
// normalized iff orientation == HomeBottom and alignedWidth == width.
type Image struct {
	width        int
	height       int
	alignedWidth int
	orientation  Orientation
	pixels       []Pixel
	destroyed    bool
}

// New creates a blank, normalized image of the given storage size filled
// with transparent pixels.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	return &Image{
		width:        width,
		height:       height,
		alignedWidth: width,
		orientation:  HomeBottom,
		pixels:       make([]Pixel, width*height),
	}, nil
}

// NewFromBitmap wraps an external row-major RGBA bitmap. stride is given in
// pixels (aligned width); pass width for a tightly packed bitmap.
func NewFromBitmap(rgba []byte, width, height, stride int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	if stride < width {
		stride = width
	}
	need := stride * height * 4
	if len(rgba) < need {
		return nil, ErrInvalidSize
	}
	pixels := make([]Pixel, stride*height)
	for i := range pixels {
		o := i * 4
		pixels[i] = NewPixel(rgba[o], rgba[o+1], rgba[o+2], rgba[o+3])
	}
	return &Image{
		width:        width,
		height:       height,
		alignedWidth: stride,
		orientation:  HomeBottom,
		pixels:       pixels,
	}, nil
}

// Destroy frees the backing buffer. Safe to call more than once: the second
// and subsequent calls are a no-op.
func (img *Image) Destroy() {
	if img.destroyed {
		return
	}
	img.destroyed = true
	img.pixels = nil
}

// Width, Height and AlignedWidth report the storage extents.
func (img *Image) Width() int        { return img.width }
func (img *Image) Height() int       { return img.height }
func (img *Image) AlignedWidth() int { return img.alignedWidth }

// Orientation reports the current orientation.
func (img *Image) Orientation() Orientation { return img.orientation }

// SetOrientation composes the requested rotation with the image's current
// orientation, per the GET_ROTATE_ROTATE table. This changes how oriented
// coordinates map to storage but does not touch the backing buffer.
func (img *Image) SetOrientation(o Orientation) {
	if !o.valid() {
		return
	}
	img.orientation = ComposeRotation(img.orientation, o)
}

// OrientedSize returns the (width, height) as seen by the user at the
// current orientation.
func (img *Image) OrientedSize() (int, int) {
	return img.orientation.OrientedSize(img.width, img.height)
}

// IsNormalized reports whether orientation is HomeBottom and the stride
// equals the width.
func (img *Image) IsNormalized() bool {
	return img.orientation == HomeBottom && img.alignedWidth == img.width
}

// ContainsOrientedPoint reports whether p lies within the oriented bounds.
func (img *Image) ContainsOrientedPoint(p Point) bool {
	ow, oh := img.OrientedSize()
	return p.X >= 0 && p.Y >= 0 && p.X < ow && p.Y < oh
}

// IntersectsOrientedRect reports whether r overlaps the oriented bounds.
func (img *Image) IntersectsOrientedRect(r Rect) bool {
	ow, oh := img.OrientedSize()
	if r.W <= 0 || r.H <= 0 {
		return false
	}
	return r.X < ow && r.Y < oh && r.X+r.W > 0 && r.Y+r.H > 0
}

func (img *Image) storageIndex(sx, sy int) (int, bool) {
	if sx < 0 || sy < 0 || sx >= img.width || sy >= img.height {
		return 0, false
	}
	return sy*img.alignedWidth + sx, true
}

// GetColorSafe returns the color at the oriented point p, or Transparent if
// p is out of bounds or the image has been destroyed.
func (img *Image) GetColorSafe(p Point) Pixel {
	if img.destroyed {
		return Transparent
	}
	sx, sy := shiftXY(p.X, p.Y, img.width, img.height, img.orientation)
	idx, ok := img.storageIndex(sx, sy)
	if !ok {
		return Transparent
	}
	return img.pixels[idx]
}

// GetColorUnsafe returns the color at the oriented point p without bounds
// checking. The caller must have validated p via ContainsOrientedPoint.
func (img *Image) GetColorUnsafe(p Point) Pixel {
	sx, sy := shiftXY(p.X, p.Y, img.width, img.height, img.orientation)
	return img.pixels[sy*img.alignedWidth+sx]
}

// SetColorSafe writes c at the oriented point p, doing nothing if p is out
// of bounds or the image has been destroyed.
func (img *Image) SetColorSafe(p Point, c Pixel) {
	if img.destroyed {
		return
	}
	sx, sy := shiftXY(p.X, p.Y, img.width, img.height, img.orientation)
	idx, ok := img.storageIndex(sx, sy)
	if !ok {
		return
	}
	img.pixels[idx] = c
}

// SetColorUnsafe writes c at the oriented point p without bounds checking.
func (img *Image) SetColorUnsafe(p Point, c Pixel) {
	sx, sy := shiftXY(p.X, p.Y, img.width, img.height, img.orientation)
	img.pixels[sy*img.alignedWidth+sx] = c
}

// BlendColorSafe alpha-blends c over the existing color at p.
func (img *Image) BlendColorSafe(p Point, c Pixel, frontAlpha, backAlpha *uint8) {
	if img.destroyed || !img.ContainsOrientedPoint(p) {
		return
	}
	back := img.GetColorUnsafe(p)
	img.SetColorUnsafe(p, Blend(back, c, frontAlpha, backAlpha))
}

// Clone returns a deep copy of img, including its destroyed flag.
func (img *Image) Clone() *Image {
	out := &Image{
		width:        img.width,
		height:       img.height,
		alignedWidth: img.alignedWidth,
		orientation:  img.orientation,
		destroyed:    img.destroyed,
	}
	if img.pixels != nil {
		out.pixels = make([]Pixel, len(img.pixels))
		copy(out.pixels, img.pixels)
	}
	return out
}
