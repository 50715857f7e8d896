//go:build darwin

package surface

// IOSurfaceStub is a documented extension point for a real
// IOSurface/IOMobileFramebuffer-backed Provider. Real device access is out
// of scope here; this stub exists so a darwin build links against a named
// type while the real bridge is implemented elsewhere, the same spirit as
// IntuitionEngine's headless audio/video backends gating real backends behind
// build tags.
type IOSurfaceStub struct{}

func (IOSurfaceStub) MainDisplay() Handle { return 0 }

func (IOSurfaceStub) DisplaySize(Handle) (int, int, error) {
	return 0, 0, ErrUnsupportedPlatform{Platform: "darwin (IOSurface bridge not implemented)"}
}

func (IOSurfaceStub) DefaultSurface(Handle, Layer) (*Surface, error) {
	return nil, ErrUnsupportedPlatform{Platform: "darwin (IOSurface bridge not implemented)"}
}

func (IOSurfaceStub) CopyDisplayedSurface(Handle, Layer) (*Surface, error) {
	return nil, ErrUnsupportedPlatform{Platform: "darwin (IOSurface bridge not implemented)"}
}

func (IOSurfaceStub) IsInUse(*Surface) bool { return false }
