package pixel

// ReflectAxis selects which axis Reflect mirrors across.
type ReflectAxis uint8

const (
	ReflectHorizontal ReflectAxis = iota // Mirror left-right.
	ReflectVertical                      // Mirror top-bottom.
	ReflectBoth                          // Mirror both axes (180° turn).
)

// adopt grafts out's buffer and dimensions onto img, used by the in-place
// transforms to take ownership of a freshly computed copy-variant result.
func (img *Image) adopt(out *Image) {
	img.width = out.width
	img.height = out.height
	img.alignedWidth = out.alignedWidth
	img.orientation = out.orientation
	img.pixels = out.pixels
}

// Normalize rewrites img's backing buffer in place so that orientation is
// HomeBottom and alignedWidth equals width, returning the number of bytes
// now owned by the image, or -1 on failure (img already destroyed). img is
// left unchanged on failure.
func (img *Image) Normalize() int {
	out, err := img.ImageWithNormalize()
	if err != nil {
		return -1
	}
	img.adopt(out)
	return len(img.pixels) * 4
}

// ImageWithNormalize returns a new image with orientation HomeBottom and no
// row padding, such that GetColorSafe at any oriented point P on img returns
// the same color as GetColorSafe at P on the result, leaving img unchanged.
// Because HomeRight/HomeLeft swap the storage axes relative to the oriented
// view, the returned image's width/height are img's ORIENTED size, not its
// storage size.
func (img *Image) ImageWithNormalize() (*Image, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	ow, oh := img.OrientedSize()
	out, err := New(ow, oh)
	if err != nil {
		return nil, err
	}
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			out.SetColorUnsafe(Point{x, y}, img.GetColorUnsafe(Point{x, y}))
		}
	}
	return out, nil
}

// Crop replaces img's content in place with the oriented sub-rectangle r,
// normalized afterward, returning the number of bytes now owned by the
// image, or -1 on failure (img destroyed, r has non-positive size, or r is
// not contained in img's oriented bounds). img is left unchanged on
// failure.
func (img *Image) Crop(r Rect) int {
	out, err := img.ImageWithCrop(r)
	if err != nil {
		return -1
	}
	img.adopt(out)
	return len(img.pixels) * 4
}

// ImageWithCrop returns a new normalized image containing the oriented
// sub-rectangle r of img, leaving img unchanged. r must lie entirely
// within img's oriented bounds, or ErrOutOfBounds is returned.
func (img *Image) ImageWithCrop(r Rect) (*Image, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	if r.W <= 0 || r.H <= 0 {
		return nil, ErrInvalidSize
	}
	ow, oh := img.OrientedSize()
	if r.X < 0 || r.Y < 0 || r.X+r.W > ow || r.Y+r.H > oh {
		return nil, ErrOutOfBounds
	}
	out, err := New(r.W, r.H)
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			out.SetColorUnsafe(Point{x, y}, img.GetColorUnsafe(Point{r.X + x, r.Y + y}))
		}
	}
	return out, nil
}

// Resize replaces img's content in place with its content scaled to the
// given oriented size via nearest-neighbor sampling, normalized afterward,
// returning the number of bytes now owned by the image, or -1 on failure.
// img is left unchanged on failure.
func (img *Image) Resize(width, height int) int {
	out, err := img.ImageWithResize(width, height)
	if err != nil {
		return -1
	}
	img.adopt(out)
	return len(img.pixels) * 4
}

// ImageWithResize returns a new normalized image of the given oriented
// size, scaling img's content via nearest-neighbor sampling, leaving img
// unchanged.
func (img *Image) ImageWithResize(width, height int) (*Image, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	ow, oh := img.OrientedSize()
	out, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		sy := y * oh / height
		for x := 0; x < width; x++ {
			sx := x * ow / width
			out.SetColorUnsafe(Point{x, y}, img.GetColorUnsafe(Point{sx, sy}))
		}
	}
	return out, nil
}

// Reflect mirrors img's content in place across the given axis, in oriented
// space, normalized afterward, returning the number of bytes now owned by
// the image, or -1 on failure. img is left unchanged on failure.
func (img *Image) Reflect(axis ReflectAxis) int {
	out, err := img.ImageWithReflect(axis)
	if err != nil {
		return -1
	}
	img.adopt(out)
	return len(img.pixels) * 4
}

// ImageWithReflect returns a new normalized image mirrored across the given
// axis, in oriented space, leaving img unchanged.
func (img *Image) ImageWithReflect(axis ReflectAxis) (*Image, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	ow, oh := img.OrientedSize()
	out, err := New(ow, oh)
	if err != nil {
		return nil, err
	}
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			sx, sy := x, y
			switch axis {
			case ReflectHorizontal:
				sx = ow - 1 - x
			case ReflectVertical:
				sy = oh - 1 - y
			case ReflectBoth:
				sx, sy = ow-1-x, oh-1-y
			}
			out.SetColorUnsafe(Point{x, y}, img.GetColorUnsafe(Point{sx, sy}))
		}
	}
	return out, nil
}
