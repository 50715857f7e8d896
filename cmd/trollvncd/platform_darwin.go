//go:build darwin

package main

import "github.com/trollvnc/trollvncd/internal/surface"

// platformSurfaceProvider returns the darwin-only IOSurface stub. It always
// fails DisplaySize (the real IOSurface/IOMobileFramebuffer bridge is out of
// scope here), so newSurfaceProvider falls back to Headless whenever this
// build is run without a real device bridge wired in.
func platformSurfaceProvider() surface.Provider {
	return surface.IOSurfaceStub{}
}
