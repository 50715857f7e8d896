// Package pixel implements the oriented, 32-bit-per-pixel image engine: owned
// pixel buffers, orientation-aware coordinate remapping, alpha blending, and
// crop/resize/reflect/normalize transforms.
//
// Grounded on IntuitionEngine's video_compositor.go (raw pixel buffer blending
// with unsafe.Pointer row access) and the original TrollVNC JSTPixelImage
// implementation (src/JSTPixel/JSTPixelImage+Private.h SHIFT_XY_BY_ORIEN /
// GET_ROTATE_ROTATE macros), reworked as pure functions per the "Macro-based
// orientation math" redesign note.
package pixel

// Orientation is the physical rotation of the device relative to its home
// button / canonical edge. It is encoded 0..3 as in the source.
type Orientation uint8

const (
	HomeBottom Orientation = iota // No change.
	HomeRight                     // Turn left, counter-clockwise 90 degrees.
	HomeLeft                      // Turn right, clockwise 90 degrees.
	HomeTop                       // 180 degrees.
)

func (o Orientation) valid() bool {
	return o <= HomeTop
}

// OrientedSize returns the (width, height) seen by the user at the given
// orientation for a buffer whose storage size is (w, h).
func (o Orientation) OrientedSize(w, h int) (int, int) {
	if o == HomeBottom || o == HomeTop {
		return w, h
	}
	return h, w
}

// shiftXY remaps an oriented point to storage coordinates. W, H are the
// storage extents.
func shiftXY(x, y, w, h int, o Orientation) (int, int) {
	switch o {
	case HomeRight:
		return w - 1 - y, x
	case HomeLeft:
		return y, h - 1 - x
	case HomeTop:
		return w - 1 - x, h - 1 - y
	default:
		return x, y
	}
}

// unshiftXY is the inverse of shiftXY: given storage coordinates it recovers
// the oriented point.
func unshiftXY(sx, sy, w, h int, o Orientation) (int, int) {
	switch o {
	case HomeRight:
		return sy, w - 1 - sx
	case HomeLeft:
		return h - 1 - sy, sx
	case HomeTop:
		return w - 1 - sx, h - 1 - sy
	default:
		return sx, sy
	}
}

// shiftRect remaps an oriented rectangle's two corners to storage space and
// reorders them so (x1,y1) is top-left.
func shiftRect(x1, y1, x2, y2, w, h int, o Orientation) (int, int, int, int) {
	x1, y1 = shiftXY(x1, y1, w, h, o)
	x2, y2 = shiftXY(x2, y2, w, h, o)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return x1, y1, x2, y2
}

// rotateRotateTable is the 4x4 GET_ROTATE_ROTATE dispatch table: composing an
// existing orientation O with an applied rotation F yields the resulting
// orientation. Row is the applied rotation F, column is the current
// orientation O, matching the source macro's switch-on-FO-then-OO structure.
var rotateRotateTable = [4][4]Orientation{
	HomeBottom: {HomeBottom, HomeRight, HomeLeft, HomeTop},
	HomeRight:  {HomeRight, HomeTop, HomeBottom, HomeLeft},
	HomeLeft:   {HomeLeft, HomeBottom, HomeTop, HomeRight},
	HomeTop:    {HomeTop, HomeLeft, HomeRight, HomeBottom},
}

// ComposeRotation returns the orientation that results from applying
// rotation "applied" on top of an image currently at orientation "current".
func ComposeRotation(current, applied Orientation) Orientation {
	return rotateRotateTable[applied][current]
}
