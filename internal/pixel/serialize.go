package pixel

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/tiff"
)

// toGoImage copies img into a stdlib image.NRGBA in oriented order, so the
// standard encoders (and x/image/tiff) see the picture the user sees rather
// than the raw storage layout.
func (img *Image) toGoImage() *image.NRGBA {
	ow, oh := img.OrientedSize()
	out := image.NewNRGBA(image.Rect(0, 0, ow, oh))
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			c := img.GetColorUnsafe(Point{x, y})
			out.SetNRGBA(x, y, color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()})
		}
	}
	return out
}

// PNGRepresentation encodes the image's oriented content as PNG.
func (img *Image) PNGRepresentation() ([]byte, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.toGoImage()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEGRepresentation encodes the image's oriented content as JPEG at the
// given quality, a value in [0.0, 1.0] where 1.0 is best.
func (img *Image) JPEGRepresentation(quality01 float64) ([]byte, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	quality := int(quality01*99) + 1
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.toGoImage(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TIFFRepresentation encodes the image's oriented content as TIFF. The
// standard library has no TIFF encoder, so this delegates to x/image/tiff.
func (img *Image) TIFFRepresentation() ([]byte, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img.toGoImage(), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataRepresentation returns the raw oriented RGBA bytes, row-major, with no
// stride padding: 4 bytes per pixel, ow*oh*4 bytes total.
func (img *Image) DataRepresentation() ([]byte, error) {
	if img.destroyed {
		return nil, ErrDestroyed
	}
	ow, oh := img.OrientedSize()
	out := make([]byte, 0, ow*oh*4)
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			c := img.GetColorUnsafe(Point{x, y})
			out = append(out, c.R(), c.G(), c.B(), c.A())
		}
	}
	return out, nil
}
