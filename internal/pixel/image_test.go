package pixel

import "testing"

func TestNewInvalidSize(t *testing.T) {
	if _, err := New(0, 10); err != ErrInvalidSize {
		t.Fatalf("New(0,10) err = %v, want ErrInvalidSize", err)
	}
	if _, err := New(10, -1); err != ErrInvalidSize {
		t.Fatalf("New(10,-1) err = %v, want ErrInvalidSize", err)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	img, err := New(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	p := Point{2, 1}
	c := NewPixel(10, 20, 30, 40)
	img.SetColorSafe(p, c)
	if got := img.GetColorSafe(p); got != c {
		t.Fatalf("GetColorSafe = %+v, want %+v", got, c)
	}
}

func TestGetColorSafeOutOfBoundsIsTransparent(t *testing.T) {
	img, _ := New(4, 3)
	if got := img.GetColorSafe(Point{100, 100}); got != Transparent {
		t.Fatalf("out-of-bounds get = %+v, want Transparent", got)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	img, _ := New(2, 2)
	img.Destroy()
	img.Destroy()
	if got := img.GetColorSafe(Point{0, 0}); got != Transparent {
		t.Fatalf("get on destroyed image = %+v, want Transparent", got)
	}
}

func TestNormalizePreservesOrientedPixels(t *testing.T) {
	img, _ := New(2, 4) // storage 2x4
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			img.SetColorUnsafe(Point{x, y}, NewPixel(uint8(x*10), uint8(y*10), 0, 255))
		}
	}
	img.SetOrientation(HomeRight)

	ow, oh := img.OrientedSize()
	want := make([]Pixel, ow*oh)
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			want[y*ow+x] = img.GetColorSafe(Point{x, y})
		}
	}

	norm, err := img.ImageWithNormalize()
	if err != nil {
		t.Fatal(err)
	}
	if !norm.IsNormalized() {
		t.Fatal("result of ImageWithNormalize() is not normalized")
	}
	nw, nh := norm.OrientedSize()
	if nw != ow || nh != oh {
		t.Fatalf("normalized size = (%d,%d), want (%d,%d)", nw, nh, ow, oh)
	}
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			got := norm.GetColorSafe(Point{x, y})
			if got != want[y*ow+x] {
				t.Fatalf("normalize mismatch at (%d,%d): got %+v, want %+v", x, y, got, want[y*ow+x])
			}
		}
	}
}

func TestCropOutOfBoundsFails(t *testing.T) {
	img, _ := New(4, 4)
	before := img.Clone()
	if _, err := img.ImageWithCrop(Rect{X: -1, Y: -1, W: 3, H: 3}); err != ErrOutOfBounds {
		t.Fatalf("ImageWithCrop out-of-bounds err = %v, want ErrOutOfBounds", err)
	}
	if n := img.Crop(Rect{X: 2, Y: 2, W: 3, H: 3}); n != -1 {
		t.Fatalf("Crop out-of-bounds = %d, want -1", n)
	}
	ow, oh := img.OrientedSize()
	bow, boh := before.OrientedSize()
	if ow != bow || oh != boh {
		t.Fatal("img was mutated by a failed Crop")
	}
}

func TestCropInBounds(t *testing.T) {
	img, _ := New(4, 4)
	img.SetColorUnsafe(Point{1, 1}, NewPixel(1, 2, 3, 255))
	cropped, err := img.ImageWithCrop(Rect{X: 1, Y: 1, W: 2, H: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := cropped.GetColorSafe(Point{0, 0}); got.R() != 1 || got.G() != 2 || got.B() != 3 {
		t.Fatalf("in-bounds crop region = %+v, want {1,2,3,255}", got)
	}
}

func TestCropInPlaceAdoptsResult(t *testing.T) {
	img, _ := New(4, 4)
	img.SetColorUnsafe(Point{1, 1}, NewPixel(1, 2, 3, 255))
	n := img.Crop(Rect{X: 1, Y: 1, W: 2, H: 2})
	if n != 2*2*4 {
		t.Fatalf("Crop byte count = %d, want %d", n, 2*2*4)
	}
	ow, oh := img.OrientedSize()
	if ow != 2 || oh != 2 {
		t.Fatalf("img size after in-place Crop = (%d,%d), want (2,2)", ow, oh)
	}
	if got := img.GetColorSafe(Point{0, 0}); got.R() != 1 || got.G() != 2 || got.B() != 3 {
		t.Fatalf("img content after in-place Crop = %+v, want {1,2,3,255}", got)
	}
}

func TestResizeIdentity(t *testing.T) {
	img, _ := New(3, 3)
	img.SetColorUnsafe(Point{1, 1}, NewPixel(9, 9, 9, 255))
	resized, err := img.ImageWithResize(3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := resized.GetColorSafe(Point{1, 1}); got.R() != 9 {
		t.Fatalf("identity resize mismatch: %+v", got)
	}
}

func TestResizeInPlaceAdoptsResult(t *testing.T) {
	img, _ := New(3, 3)
	img.SetColorUnsafe(Point{1, 1}, NewPixel(9, 9, 9, 255))
	if n := img.Resize(6, 6); n != 6*6*4 {
		t.Fatalf("Resize byte count = %d, want %d", n, 6*6*4)
	}
	ow, oh := img.OrientedSize()
	if ow != 6 || oh != 6 {
		t.Fatalf("img size after in-place Resize = (%d,%d), want (6,6)", ow, oh)
	}
}

func TestResizeInvalidSizeFailsAndLeavesImageUnchanged(t *testing.T) {
	img, _ := New(3, 3)
	if n := img.Resize(0, 3); n != -1 {
		t.Fatalf("Resize(0,3) = %d, want -1", n)
	}
	ow, oh := img.OrientedSize()
	if ow != 3 || oh != 3 {
		t.Fatal("img was mutated by a failed Resize")
	}
}

func TestReflectHorizontal(t *testing.T) {
	img, _ := New(3, 1)
	img.SetColorUnsafe(Point{0, 0}, NewPixel(1, 0, 0, 255))
	img.SetColorUnsafe(Point{2, 0}, NewPixel(2, 0, 0, 255))
	out, err := img.ImageWithReflect(ReflectHorizontal)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.GetColorSafe(Point{0, 0}); got.R() != 2 {
		t.Fatalf("reflected (0,0).R = %d, want 2", got.R())
	}
	if got := out.GetColorSafe(Point{2, 0}); got.R() != 1 {
		t.Fatalf("reflected (2,0).R = %d, want 1", got.R())
	}
}

func TestReflectBoth(t *testing.T) {
	img, _ := New(2, 2)
	img.SetColorUnsafe(Point{0, 0}, NewPixel(1, 0, 0, 255))
	img.SetColorUnsafe(Point{1, 1}, NewPixel(2, 0, 0, 255))
	out, err := img.ImageWithReflect(ReflectBoth)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.GetColorSafe(Point{1, 1}); got.R() != 1 {
		t.Fatalf("both-reflected (1,1).R = %d, want 1", got.R())
	}
	if got := out.GetColorSafe(Point{0, 0}); got.R() != 2 {
		t.Fatalf("both-reflected (0,0).R = %d, want 2", got.R())
	}
}

func TestReflectInPlaceAdoptsResult(t *testing.T) {
	img, _ := New(3, 1)
	img.SetColorUnsafe(Point{0, 0}, NewPixel(1, 0, 0, 255))
	img.SetColorUnsafe(Point{2, 0}, NewPixel(2, 0, 0, 255))
	if n := img.Reflect(ReflectHorizontal); n != 3*1*4 {
		t.Fatalf("Reflect byte count = %d, want %d", n, 3*1*4)
	}
	if got := img.GetColorSafe(Point{0, 0}); got.R() != 2 {
		t.Fatalf("reflected-in-place (0,0).R = %d, want 2", got.R())
	}
}

func TestIntersectsOrientedRect(t *testing.T) {
	img, _ := New(10, 10)
	if !img.IntersectsOrientedRect(Rect{X: -5, Y: -5, W: 10, H: 10}) {
		t.Fatal("expected intersection")
	}
	if img.IntersectsOrientedRect(Rect{X: 20, Y: 20, W: 5, H: 5}) {
		t.Fatal("expected no intersection")
	}
}
