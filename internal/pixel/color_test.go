package pixel

import "testing"

func TestBlendOpaqueFrontWins(t *testing.T) {
	back := NewPixel(10, 20, 30, 255)
	front := NewPixel(200, 100, 50, 255)
	got := Blend(back, front, nil, nil)
	if got.R() != 200 || got.G() != 100 || got.B() != 50 || got.A() != 255 {
		t.Fatalf("Blend with opaque front = %+v, want front unchanged", got)
	}
}

func TestBlendTransparentFrontNoOp(t *testing.T) {
	back := NewPixel(10, 20, 30, 255)
	front := NewPixel(200, 100, 50, 0)
	got := Blend(back, front, nil, nil)
	if got.R() != back.R() || got.G() != back.G() || got.B() != back.B() || got.A() != back.A() {
		t.Fatalf("Blend with transparent front = %+v, want back unchanged", got)
	}
}

func TestBlendHalfAlpha(t *testing.T) {
	// back {128,0,0,255} + front {0,0,128,128} -> R~=64, G=0, B~=64, A=255.
	back := NewPixel(128, 0, 0, 255)
	front := NewPixel(0, 0, 128, 128)
	got := Blend(back, front, nil, nil)
	if got.A() != 255 {
		t.Fatalf("A = %d, want 255", got.A())
	}
	if d := int(got.R()) - 64; d < -2 || d > 2 {
		t.Fatalf("R = %d, want ~64", got.R())
	}
	if got.G() != 0 {
		t.Fatalf("G = %d, want 0", got.G())
	}
	if d := int(got.B()) - 64; d < -2 || d > 2 {
		t.Fatalf("B = %d, want ~64", got.B())
	}
}

func TestBlendBothTransparentIsTransparent(t *testing.T) {
	got := Blend(Transparent, Transparent, nil, nil)
	if got != Transparent {
		t.Fatalf("Blend(Transparent, Transparent) = %+v, want Transparent", got)
	}
}
