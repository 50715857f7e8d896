package rfbserver

import (
	"bufio"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/trollvnc/trollvncd/internal/capture"
	"github.com/trollvnc/trollvncd/internal/pixel"
)

type recordingHandler struct {
	pointerEvents []PointerEvent
	cutTexts      []string
}

func (h *recordingHandler) HandleSetPixelFormat(PixelFormat)                        {}
func (h *recordingHandler) HandleSetEncodings([]int32)                              {}
func (h *recordingHandler) HandleFramebufferUpdateRequest(FramebufferUpdateRequest) {}
func (h *recordingHandler) HandleKeyEvent(KeyEvent)                                 {}
func (h *recordingHandler) HandlePointerEvent(ev PointerEvent) {
	h.pointerEvents = append(h.pointerEvents, ev)
}
func (h *recordingHandler) HandleClientCutText(text string) { h.cutTexts = append(h.cutTexts, text) }

// fakeClient drives the RFB 3.8 handshake by hand over a net.Pipe, mirroring
// what a real VNC client does wire-for-wire.
type fakeClient struct {
	br *bufio.Reader
	bw *bufio.Writer
}

func newFakeClient(nc net.Conn) *fakeClient {
	return &fakeClient{br: bufio.NewReader(nc), bw: bufio.NewWriter(nc)}
}

func (f *fakeClient) handshakeNoAuth(t *testing.T) (width, height int) {
	t.Helper()
	line, err := f.br.ReadSlice('\n')
	if err != nil || string(line) != protoVersion38 {
		t.Fatalf("protocol version line = %q, err %v", line, err)
	}
	f.bw.WriteString(protoVersion38)
	f.bw.Flush()

	numTypes, _ := f.br.ReadByte()
	if numTypes != 1 {
		t.Fatalf("numTypes = %d, want 1", numTypes)
	}
	secType, _ := f.br.ReadByte()
	if secType != SecurityNone {
		t.Fatalf("secType = %d, want SecurityNone", secType)
	}
	f.bw.WriteByte(secType)
	f.bw.Flush()

	var result uint32
	binary.Read(f.br, binary.BigEndian, &result)
	if result != statusOK {
		t.Fatalf("security result = %d, want statusOK", result)
	}

	f.bw.WriteByte(1) // shared-flag
	f.bw.Flush()

	var w, h uint16
	binary.Read(f.br, binary.BigEndian, &w)
	binary.Read(f.br, binary.BigEndian, &h)
	pf := make([]byte, 16)
	f.br.Read(pf)
	var nameLen int32
	binary.Read(f.br, binary.BigEndian, &nameLen)
	name := make([]byte, nameLen)
	f.br.Read(name)

	return int(w), int(h)
}

func (f *fakeClient) requestUpdate(t *testing.T, w, h int) {
	t.Helper()
	binary.Write(f.bw, binary.BigEndian, uint8(cmdFramebufferUpdateRequest))
	binary.Write(f.bw, binary.BigEndian, uint8(0))
	binary.Write(f.bw, binary.BigEndian, uint16(0))
	binary.Write(f.bw, binary.BigEndian, uint16(0))
	binary.Write(f.bw, binary.BigEndian, uint16(w))
	binary.Write(f.bw, binary.BigEndian, uint16(h))
	f.bw.Flush()
}

func (f *fakeClient) readFramebufferUpdate(t *testing.T) []byte {
	t.Helper()
	msgType, _ := f.br.ReadByte()
	if msgType != cmdFramebufferUpdate {
		t.Fatalf("message type = %d, want FramebufferUpdate", msgType)
	}
	f.br.ReadByte() // padding
	var numRects uint16
	binary.Read(f.br, binary.BigEndian, &numRects)
	if numRects != 1 {
		t.Fatalf("numRects = %d, want 1", numRects)
	}
	var x, y, w, h uint16
	var encoding int32
	binary.Read(f.br, binary.BigEndian, &x)
	binary.Read(f.br, binary.BigEndian, &y)
	binary.Read(f.br, binary.BigEndian, &w)
	binary.Read(f.br, binary.BigEndian, &h)
	binary.Read(f.br, binary.BigEndian, &encoding)
	if encoding != EncodingRaw {
		t.Fatalf("encoding = %d, want Raw", encoding)
	}
	pixels := make([]byte, int(w)*int(h)*4)
	n := 0
	for n < len(pixels) {
		k, err := f.br.Read(pixels[n:])
		if err != nil {
			t.Fatalf("reading pixel data: %v", err)
		}
		n += k
	}
	return pixels
}

func TestHandshakeAndFramebufferUpdateRoundTrip(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	handler := &recordingHandler{}
	srv := New(Options{Width: 2, Height: 2}, handler)
	conn := srv.newConn(serverSide)

	done := make(chan struct{})
	go func() {
		conn.serve()
		close(done)
	}()

	client := newFakeClient(clientSide)
	w, h := client.handshakeNoAuth(t)
	if w != 2 || h != 2 {
		t.Fatalf("ServerInit size = %dx%d, want 2x2", w, h)
	}

	client.requestUpdate(t, w, h)

	img, err := pixel.New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []pixel.Pixel{
		pixel.NewPixel(10, 20, 30, 255),
		pixel.NewPixel(40, 50, 60, 255),
		pixel.NewPixel(70, 80, 90, 255),
		pixel.NewPixel(100, 110, 120, 255),
	}
	i := 0
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetColorSafe(pixel.Point{X: x, Y: y}, want[i])
			i++
		}
	}

	// Give the writer goroutine a moment to park in Cond.Wait before the
	// frame arrives, so this doesn't race the update-request handling.
	time.Sleep(10 * time.Millisecond)
	conn.offerFrame(capture.Frame{Image: img, DirtyRects: nil, Seed: 1})

	got := client.readFramebufferUpdate(t)
	i = 0
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			off := (y*2 + x) * 4
			c := want[i]
			v := (uint32(c.R()) << DefaultPixelFormat.RedShift) |
				(uint32(c.G()) << DefaultPixelFormat.GreenShift) |
				(uint32(c.B()) << DefaultPixelFormat.BlueShift)
			wantBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(wantBytes, v)
			for k := 0; k < 4; k++ {
				if got[off+k] != wantBytes[k] {
					t.Fatalf("pixel (%d,%d) byte %d = %#x, want %#x", x, y, k, got[off+k], wantBytes[k])
				}
			}
			i++
		}
	}

	clientSide.Close()
	<-done
}

func TestClientMessagesDispatchToHandler(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	handler := &recordingHandler{}
	srv := New(Options{Width: 1, Height: 1}, handler)
	conn := srv.newConn(serverSide)

	done := make(chan struct{})
	go func() {
		conn.serve()
		close(done)
	}()

	client := newFakeClient(clientSide)
	client.handshakeNoAuth(t)

	binary.Write(client.bw, binary.BigEndian, uint8(cmdPointerEvent))
	binary.Write(client.bw, binary.BigEndian, uint8(1))
	binary.Write(client.bw, binary.BigEndian, uint16(5))
	binary.Write(client.bw, binary.BigEndian, uint16(6))
	client.bw.Flush()

	text := "hello"
	binary.Write(client.bw, binary.BigEndian, uint8(cmdClientCutText))
	client.bw.Write([]byte{0, 0, 0})
	binary.Write(client.bw, binary.BigEndian, uint32(len(text)))
	client.bw.WriteString(text)
	client.bw.Flush()

	time.Sleep(20 * time.Millisecond)
	clientSide.Close()
	<-done

	if len(handler.pointerEvents) != 1 || handler.pointerEvents[0].X != 5 || handler.pointerEvents[0].Y != 6 {
		t.Fatalf("pointerEvents = %+v", handler.pointerEvents)
	}
	if len(handler.cutTexts) != 1 || handler.cutTexts[0] != text {
		t.Fatalf("cutTexts = %+v", handler.cutTexts)
	}
}
