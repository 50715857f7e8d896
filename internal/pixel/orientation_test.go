package pixel

import "testing"

func TestShiftXYHomeRight(t *testing.T) {
	// 4x2 storage image (w=4, h=2; oriented 2x4) at HomeRight, per the worked
	// example: oriented (0,0) -> storage (3,0); oriented (1,0) -> storage (3,1).
	const w, h = 4, 2
	if sx, sy := shiftXY(0, 0, w, h, HomeRight); sx != 3 || sy != 0 {
		t.Fatalf("shiftXY(0,0) = (%d,%d), want (3,0)", sx, sy)
	}
	if sx, sy := shiftXY(1, 0, w, h, HomeRight); sx != 3 || sy != 1 {
		t.Fatalf("shiftXY(1,0) = (%d,%d), want (3,1)", sx, sy)
	}
}

func TestShiftUnshiftRoundTrip(t *testing.T) {
	const w, h = 5, 7
	for _, o := range []Orientation{HomeBottom, HomeRight, HomeLeft, HomeTop} {
		ow, oh := o.OrientedSize(w, h)
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				sx, sy := shiftXY(x, y, w, h, o)
				ux, uy := unshiftXY(sx, sy, w, h, o)
				if ux != x || uy != y {
					t.Fatalf("orientation %d: round-trip (%d,%d) -> (%d,%d) -> (%d,%d)", o, x, y, sx, sy, ux, uy)
				}
			}
		}
	}
}

func TestOrientedSizeSwapsAxes(t *testing.T) {
	if w, h := HomeRight.OrientedSize(2, 4); w != 4 || h != 2 {
		t.Fatalf("HomeRight.OrientedSize(2,4) = (%d,%d), want (4,2)", w, h)
	}
	if w, h := HomeBottom.OrientedSize(2, 4); w != 2 || h != 4 {
		t.Fatalf("HomeBottom.OrientedSize(2,4) = (%d,%d), want (2,4)", w, h)
	}
}

func TestComposeRotationIdentity(t *testing.T) {
	for _, o := range []Orientation{HomeBottom, HomeRight, HomeLeft, HomeTop} {
		if got := ComposeRotation(o, HomeBottom); got != o {
			t.Fatalf("ComposeRotation(%d, HomeBottom) = %d, want %d", o, got, o)
		}
	}
}

func TestComposeRotationFullCircle(t *testing.T) {
	o := HomeBottom
	for i := 0; i < 4; i++ {
		o = ComposeRotation(o, HomeRight)
	}
	if o != HomeBottom {
		t.Fatalf("four quarter turns = %d, want HomeBottom", o)
	}
}
