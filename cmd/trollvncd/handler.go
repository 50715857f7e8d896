package main

import (
	"log/slog"
	"sync"

	"github.com/trollvnc/trollvncd/internal/clipboard"
	"github.com/trollvnc/trollvncd/internal/hid"
	"github.com/trollvnc/trollvncd/internal/rfbserver"
)

// buttonMaskLeft is the pointer-event button-mask bit for the primary
// button, per the RFB PointerEvent wire format.
const buttonMaskLeft = 1

// clientHandler implements rfbserver.ClientMessageHandler, translating
// decoded client messages into hid.Facade gesture calls and clipboard
// bridge writes. One clientHandler is shared across every connection the
// Server accepts, mirroring Server's own single-handler-for-all-conns
// design.
type clientHandler struct {
	hid    *hid.Facade
	bridge *clipboard.Bridge
	log    *slog.Logger

	mu          sync.Mutex
	lastButtons uint8
}

func (h *clientHandler) HandleSetPixelFormat(rfbserver.PixelFormat) {}

func (h *clientHandler) HandleSetEncodings(encodings []int32) {
	h.log.Debug("rfb: client encodings", "encodings", encodings)
}

func (h *clientHandler) HandleFramebufferUpdateRequest(rfbserver.FramebufferUpdateRequest) {}

// HandleKeyEvent forwards to the HID façade. The RFB key code is an X11
// keysym, not a rune; for the printable-ASCII range the two coincide, which
// covers ordinary text entry without a full keysym table.
func (h *clientHandler) HandleKeyEvent(ev rfbserver.KeyEvent) {
	r := rune(ev.Key)
	if ev.Down {
		h.hid.KeyDown(r)
	} else {
		h.hid.KeyUp(r)
	}
}

// HandlePointerEvent tracks the primary button's mask bit across calls and
// issues TouchDown/LiftUp on its rising/falling edge. Pointer motion while
// the button stays down is not separately forwarded: the façade's
// primitives are discrete gestures, not a continuous drag stream.
func (h *clientHandler) HandlePointerEvent(ev rfbserver.PointerEvent) {
	p := hid.Point{X: float64(ev.X), Y: float64(ev.Y)}

	h.mu.Lock()
	wasDown := h.lastButtons&buttonMaskLeft != 0
	isDown := ev.ButtonMask&buttonMaskLeft != 0
	h.lastButtons = ev.ButtonMask
	h.mu.Unlock()

	switch {
	case isDown && !wasDown:
		h.hid.TouchDown(p, 1)
	case !isDown && wasDown:
		h.hid.LiftUp(p, 1)
	}
}

func (h *clientHandler) HandleClientCutText(text string) {
	if h.bridge != nil {
		h.bridge.SetFromRemote(text)
	}
}
