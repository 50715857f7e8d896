// Package hid is a thin façade translating decoded RFB client messages into
// calls against an Injector implementing touch, key, and button injection.
package hid

import "time"

// Timing constants for synthesized press/tap gestures.
const (
	SinglePressDuration = 50 * time.Millisecond
	DoublePressGap      = 150 * time.Millisecond
	LongPressDuration   = 2 * time.Second
)

// Point is a location in screen coordinates.
type Point struct{ X, Y float64 }

// StylusState describes a stylus contact.
type StylusState struct {
	Point    Point
	Azimuth  float64
	Altitude float64
	Pressure float64
}

// HardwareButton names a physical button.
type HardwareButton int

const (
	ButtonHome HardwareButton = iota
	ButtonPower
	ButtonMute
	ButtonVolumeUp
	ButtonVolumeDown
	ButtonBrightnessUp
	ButtonBrightnessDown
)

// Injector is the full HID gesture/button/keyboard primitive set.
type Injector interface {
	TouchDown(p Point, count int)
	LiftUp(p Point, count int)

	StylusDown(s StylusState)
	StylusMove(s StylusState)
	StylusUp(s StylusState)
	StylusTap(s StylusState)

	Tap(p Point)
	DoubleTap(p Point)
	TwoFingerTap(p Point)
	ThreeFingerTap(p Point)
	SendTaps(p Point, count int, fingers int)

	DragLinear(from, to Point, duration time.Duration)
	DragCurved(points []Point, duration time.Duration)
	Pinch(center Point, bounds [2]Point, scale float64, duration time.Duration)
	LongPress(p Point, duration time.Duration)

	KeyPress(char rune)
	KeyDown(char rune)
	KeyUp(char rune)

	ButtonPress(b HardwareButton)
	ButtonDoublePress(b HardwareButton)
	ButtonTriplePress(b HardwareButton)
	ButtonLongPress(b HardwareButton)
	ButtonDown(b HardwareButton)
	ButtonUp(b HardwareButton)

	Shake()
	OtherPageUsagePress(page, usage uint16)
	OtherPageUsageDown(page, usage uint16)
	OtherPageUsageUp(page, usage uint16)

	SnapshotPress()
	ToggleOnScreenKeyboard()
	ToggleSpotlight()
	HardwareLock()
	HardwareUnlock()
	ReleaseEveryKey()
}

// Facade sequences multi-step gestures (tap, double-tap, long-press) out of
// Down/Up primitives using the timing constants, and forwards everything
// else directly to the underlying Injector.
type Facade struct {
	Injector
	sleep func(time.Duration)
}

// New wraps injector. sleep defaults to time.Sleep; tests may override it
// to avoid real delays.
func New(injector Injector) *Facade {
	return &Facade{Injector: injector, sleep: time.Sleep}
}

// Tap composes Down+sleep(SinglePressDuration)+Up, overriding the embedded
// Injector's direct Tap so the façade's timing constants govern.
func (f *Facade) Tap(p Point) {
	f.Injector.TouchDown(p, 1)
	f.sleep(SinglePressDuration)
	f.Injector.LiftUp(p, 1)
}

// DoubleTap composes two Taps separated by DoublePressGap.
func (f *Facade) DoubleTap(p Point) {
	f.Tap(p)
	f.sleep(DoublePressGap)
	f.Tap(p)
}

// LongPress composes Down+sleep(LongPressDuration)+Up.
func (f *Facade) LongPress(p Point, duration time.Duration) {
	if duration <= 0 {
		duration = LongPressDuration
	}
	f.Injector.TouchDown(p, 1)
	f.sleep(duration)
	f.Injector.LiftUp(p, 1)
}
