//go:build !darwin

package main

import "github.com/trollvnc/trollvncd/internal/surface"

// platformSurfaceProvider reports no native backend on platforms other than
// darwin; newSurfaceProvider falls back to Headless.
func platformSurfaceProvider() surface.Provider {
	return nil
}
