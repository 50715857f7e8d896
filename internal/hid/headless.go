package hid

import (
	"log/slog"
	"time"
)

// Headless is a no-op Injector that logs every call, for tests and
// non-device builds where no real HID backend is wired in.
type Headless struct {
	log *slog.Logger
}

// NewHeadless constructs a logging no-op Injector.
func NewHeadless(log *slog.Logger) *Headless {
	if log == nil {
		log = slog.Default()
	}
	return &Headless{log: log}
}

func (h *Headless) TouchDown(p Point, count int) {
	h.log.Debug("hid: touch down", "point", p, "count", count)
}
func (h *Headless) LiftUp(p Point, count int) {
	h.log.Debug("hid: lift up", "point", p, "count", count)
}

func (h *Headless) StylusDown(s StylusState) { h.log.Debug("hid: stylus down", "state", s) }
func (h *Headless) StylusMove(s StylusState) { h.log.Debug("hid: stylus move", "state", s) }
func (h *Headless) StylusUp(s StylusState)   { h.log.Debug("hid: stylus up", "state", s) }
func (h *Headless) StylusTap(s StylusState)  { h.log.Debug("hid: stylus tap", "state", s) }

func (h *Headless) Tap(p Point)            { h.log.Debug("hid: tap", "point", p) }
func (h *Headless) DoubleTap(p Point)      { h.log.Debug("hid: double tap", "point", p) }
func (h *Headless) TwoFingerTap(p Point)   { h.log.Debug("hid: two finger tap", "point", p) }
func (h *Headless) ThreeFingerTap(p Point) { h.log.Debug("hid: three finger tap", "point", p) }
func (h *Headless) SendTaps(p Point, count, fingers int) {
	h.log.Debug("hid: send taps", "point", p, "count", count, "fingers", fingers)
}

func (h *Headless) DragLinear(from, to Point, duration time.Duration) {
	h.log.Debug("hid: drag linear", "from", from, "to", to, "duration", duration)
}
func (h *Headless) DragCurved(points []Point, duration time.Duration) {
	h.log.Debug("hid: drag curved", "points", len(points), "duration", duration)
}
func (h *Headless) Pinch(center Point, bounds [2]Point, scale float64, duration time.Duration) {
	h.log.Debug("hid: pinch", "center", center, "scale", scale, "duration", duration)
}
func (h *Headless) LongPress(p Point, duration time.Duration) {
	h.log.Debug("hid: long press", "point", p, "duration", duration)
}

func (h *Headless) KeyPress(char rune) { h.log.Debug("hid: key press", "char", char) }
func (h *Headless) KeyDown(char rune)  { h.log.Debug("hid: key down", "char", char) }
func (h *Headless) KeyUp(char rune)    { h.log.Debug("hid: key up", "char", char) }

func (h *Headless) ButtonPress(b HardwareButton) { h.log.Debug("hid: button press", "button", b) }
func (h *Headless) ButtonDoublePress(b HardwareButton) {
	h.log.Debug("hid: button double press", "button", b)
}
func (h *Headless) ButtonTriplePress(b HardwareButton) {
	h.log.Debug("hid: button triple press", "button", b)
}
func (h *Headless) ButtonLongPress(b HardwareButton) {
	h.log.Debug("hid: button long press", "button", b)
}
func (h *Headless) ButtonDown(b HardwareButton) { h.log.Debug("hid: button down", "button", b) }
func (h *Headless) ButtonUp(b HardwareButton)   { h.log.Debug("hid: button up", "button", b) }

func (h *Headless) Shake() { h.log.Debug("hid: shake") }
func (h *Headless) OtherPageUsagePress(page, usage uint16) {
	h.log.Debug("hid: other page/usage press", "page", page, "usage", usage)
}
func (h *Headless) OtherPageUsageDown(page, usage uint16) {
	h.log.Debug("hid: other page/usage down", "page", page, "usage", usage)
}
func (h *Headless) OtherPageUsageUp(page, usage uint16) {
	h.log.Debug("hid: other page/usage up", "page", page, "usage", usage)
}

func (h *Headless) SnapshotPress()          { h.log.Debug("hid: snapshot press") }
func (h *Headless) ToggleOnScreenKeyboard() { h.log.Debug("hid: toggle on-screen keyboard") }
func (h *Headless) ToggleSpotlight()        { h.log.Debug("hid: toggle spotlight") }
func (h *Headless) HardwareLock()           { h.log.Debug("hid: hardware lock") }
func (h *Headless) HardwareUnlock()         { h.log.Debug("hid: hardware unlock") }
func (h *Headless) ReleaseEveryKey()        { h.log.Debug("hid: release every key") }
