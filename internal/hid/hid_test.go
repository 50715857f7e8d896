package hid

import (
	"testing"
	"time"
)

type recorder struct {
	Headless
	calls []string
}

func newRecorder() *recorder {
	r := &recorder{Headless: *NewHeadless(nil)}
	return r
}

func (r *recorder) TouchDown(p Point, count int) { r.calls = append(r.calls, "down") }
func (r *recorder) LiftUp(p Point, count int)    { r.calls = append(r.calls, "up") }

func TestTapComposesDownSleepUp(t *testing.T) {
	rec := newRecorder()
	f := New(rec)
	var slept time.Duration
	f.sleep = func(d time.Duration) { slept = d }

	f.Tap(Point{1, 2})

	if len(rec.calls) != 2 || rec.calls[0] != "down" || rec.calls[1] != "up" {
		t.Fatalf("calls = %v, want [down up]", rec.calls)
	}
	if slept != SinglePressDuration {
		t.Fatalf("slept %v, want %v", slept, SinglePressDuration)
	}
}

func TestDoubleTapSleepsGapBetweenTaps(t *testing.T) {
	rec := newRecorder()
	f := New(rec)
	var sleeps []time.Duration
	f.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	f.DoubleTap(Point{0, 0})

	if len(rec.calls) != 4 {
		t.Fatalf("calls = %v, want 4 entries for two taps", rec.calls)
	}
	if len(sleeps) != 3 || sleeps[1] != DoublePressGap {
		t.Fatalf("sleeps = %v, want gap in the middle", sleeps)
	}
}
