package rfbserver

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/trollvnc/trollvncd/internal/capture"
	"github.com/trollvnc/trollvncd/internal/pixel"
)

// Auth configures the security type offered to connecting clients. An empty
// Password means security type None; a non-empty Password offers VncAuth.
type Auth struct {
	Password string
}

// Options configures a Server.
type Options struct {
	Width, Height int
	ServerName    string
	Auth          Auth
	Log           *slog.Logger
}

// Server accepts RFB client connections, streams capture.Frame updates to
// each, and dispatches decoded client messages to a ClientMessageHandler.
//
// Grounded on bradfitz-rfbgo/rfb.go's Conn/serve/pushFramesLoop split: one
// goroutine reads client commands, a second drains frame/update-request
// traffic, generalized here to support N concurrent connections sharing one
// capture feed instead of one Conn per process.
type Server struct {
	opts    Options
	log     *slog.Logger
	handler ClientMessageHandler

	mu      sync.Mutex
	conns   map[*conn]struct{}
	latest  capture.Frame
	haveOne bool
}

// New constructs a Server. handler receives every decoded client message
// from every connection.
func New(opts Options, handler ClientMessageHandler) *Server {
	if opts.ServerName == "" {
		opts.ServerName = "trollvncd"
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Server{
		opts:    opts,
		log:     opts.Log,
		handler: handler,
		conns:   make(map[*conn]struct{}),
	}
}

// CaptureHandler returns a capture.Handler suitable for capture.Pipeline.Start:
// each frame is broadcast to every currently connected client.
func (s *Server) CaptureHandler() capture.Handler {
	return func(f capture.Frame) {
		s.mu.Lock()
		s.latest = f
		s.haveOne = true
		targets := make([]*conn, 0, len(s.conns))
		for c := range s.conns {
			targets = append(targets, c)
		}
		s.mu.Unlock()

		for _, c := range targets {
			c.offerFrame(f)
		}
	}
}

// BroadcastCutText sends ServerCutText to every connected client. Intended
// to be wired as a clipboard.Bridge OnChange callback.
func (s *Server) BroadcastCutText(text string, ok bool) {
	if !ok {
		return
	}
	s.mu.Lock()
	targets := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		c.sendCutText(text)
	}
}

// Serve accepts connections on ln until it returns an error (typically from
// ln.Close during shutdown).
func (s *Server) Serve(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		c := s.newConn(nc)
		s.mu.Lock()
		s.conns[c] = struct{}{}
		last, haveOne := s.latest, s.haveOne
		s.mu.Unlock()

		go func() {
			defer func() {
				s.mu.Lock()
				delete(s.conns, c)
				s.mu.Unlock()
			}()
			if haveOne {
				c.forceNextUpdate = true
				c.offerFrame(last)
			}
			c.serve()
		}()
	}
}

// conn is one client connection.
type conn struct {
	s  *Server
	nc net.Conn
	w  *wireConn

	format          PixelFormat
	forceNextUpdate bool

	updateMu    sync.Mutex
	updateCond  *sync.Cond
	pending     bool
	incremental bool
	haveFrame   bool
	frame       capture.Frame
	closed      bool

	writeMu sync.Mutex
}

func (s *Server) newConn(nc net.Conn) *conn {
	c := &conn{
		s:      s,
		nc:     nc,
		w:      newWireConn(bufio.NewReader(nc), bufio.NewWriter(nc)),
		format: DefaultPixelFormat,
	}
	c.updateCond = sync.NewCond(&c.updateMu)
	return c
}

// offerFrame records the latest frame and, if the client has an outstanding
// FramebufferUpdateRequest, wakes the writer to send it.
func (c *conn) offerFrame(f capture.Frame) {
	c.updateMu.Lock()
	c.frame = f
	c.haveFrame = true
	c.updateCond.Signal()
	c.updateMu.Unlock()
}

func (c *conn) serve() {
	defer c.nc.Close()
	defer func() {
		c.updateMu.Lock()
		c.closed = true
		c.updateMu.Unlock()
		c.updateCond.Broadcast()
	}()

	if err := c.handshake(); err != nil {
		c.s.log.Info("rfb: handshake failed", "error", err, "remote", c.nc.RemoteAddr())
		return
	}

	go c.writeLoop()

	for {
		cmd, err := c.w.readByte("client-message-type")
		if err != nil {
			return
		}
		if err := c.dispatch(cmd); err != nil {
			c.s.log.Info("rfb: client message error", "error", err, "remote", c.nc.RemoteAddr())
			return
		}
	}
}

func (c *conn) handshake() error {
	if _, err := c.w.bw.WriteString(protoVersion38); err != nil {
		return err
	}
	if err := c.w.flush(); err != nil {
		return err
	}
	line, err := c.w.br.ReadSlice('\n')
	if err != nil {
		return fmt.Errorf("reading client protocol version: %w", err)
	}
	ver := string(line)
	switch ver {
	case protoVersion33, protoVersion37, protoVersion38:
	default:
		return fmt.Errorf("unsupported client protocol version %q", ver)
	}

	if err := c.negotiateSecurity(ver); err != nil {
		return err
	}

	if _, err := c.w.readByte("client-init.shared-flag"); err != nil {
		return err
	}

	return c.sendServerInit()
}

// negotiateSecurity offers None or VncAuth depending on Server.opts.Auth,
// using the RFB 3.7+ security-type list negotiation (or the RFB 3.3 way of
// unilaterally declaring a type, for older clients).
func (c *conn) negotiateSecurity(ver string) error {
	secType := byte(SecurityNone)
	if c.s.opts.Auth.Password != "" {
		secType = SecurityVncAuth
	}

	if ver >= protoVersion37 {
		if _, err := c.w.bw.Write([]byte{1, secType}); err != nil {
			return err
		}
		if err := c.w.flush(); err != nil {
			return err
		}
		wanted, err := c.w.readByte("security-type")
		if err != nil {
			return err
		}
		if wanted != secType {
			return fmt.Errorf("client requested unsupported security type %d", wanted)
		}
	} else {
		if err := c.w.write(uint32(secType)); err != nil {
			return err
		}
		if err := c.w.flush(); err != nil {
			return err
		}
	}

	if secType == SecurityVncAuth {
		if err := c.runVncAuth(); err != nil {
			return err
		}
	}

	if ver >= protoVersion38 || secType == SecurityVncAuth {
		if err := c.w.write(uint32(statusOK)); err != nil {
			return err
		}
		return c.w.flush()
	}
	return nil
}

func (c *conn) runVncAuth() error {
	var challenge [vncAuthChallengeSize]byte
	if _, err := rand.Read(challenge[:]); err != nil {
		return err
	}
	if _, err := c.w.bw.Write(challenge[:]); err != nil {
		return err
	}
	if err := c.w.flush(); err != nil {
		return err
	}

	var response [vncAuthChallengeSize]byte
	if err := c.w.read("vnc-auth.response", &response); err != nil {
		return err
	}

	expected, err := vncAuthEncrypt(challenge, c.s.opts.Auth.Password)
	if err != nil {
		return err
	}
	if response != expected {
		c.w.write(uint32(statusFailed))
		c.w.flush()
		return fmt.Errorf("vnc auth failed for %v", c.nc.RemoteAddr())
	}
	return nil
}

func (c *conn) sendServerInit() error {
	w := c.w
	if err := w.write(uint16(c.s.opts.Width)); err != nil {
		return err
	}
	if err := w.write(uint16(c.s.opts.Height)); err != nil {
		return err
	}
	if err := w.writePixelFormat(c.format); err != nil {
		return err
	}
	name := c.s.opts.ServerName
	if err := w.write(int32(len(name))); err != nil {
		return err
	}
	if _, err := w.bw.WriteString(name); err != nil {
		return err
	}
	return w.flush()
}

func (c *conn) dispatch(cmd byte) error {
	switch cmd {
	case cmdSetPixelFormat:
		return c.handleSetPixelFormat()
	case cmdSetEncodings:
		return c.handleSetEncodings()
	case cmdFramebufferUpdateRequest:
		return c.handleFramebufferUpdateRequest()
	case cmdKeyEvent:
		return c.handleKeyEvent()
	case cmdPointerEvent:
		return c.handlePointerEvent()
	case cmdClientCutText:
		return c.handleClientCutText()
	default:
		return fmt.Errorf("unsupported client message type %d", cmd)
	}
}

func (c *conn) handleSetPixelFormat() error {
	if err := c.w.readPadding(3); err != nil {
		return err
	}
	pf, err := c.w.readPixelFormat()
	if err != nil {
		return err
	}
	c.format = pf
	if c.s.handler != nil {
		c.s.handler.HandleSetPixelFormat(pf)
	}
	return nil
}

func (c *conn) handleSetEncodings() error {
	if err := c.w.readPadding(1); err != nil {
		return err
	}
	var n uint16
	if err := c.w.read("encoding-count", &n); err != nil {
		return err
	}
	encodings := make([]int32, n)
	for i := range encodings {
		if err := c.w.read("encoding-type", &encodings[i]); err != nil {
			return err
		}
	}
	if c.s.handler != nil {
		c.s.handler.HandleSetEncodings(encodings)
	}
	return nil
}

func (c *conn) handleFramebufferUpdateRequest() error {
	var req FramebufferUpdateRequest
	var incFlag uint8
	if err := c.w.read("incremental", &incFlag); err != nil {
		return err
	}
	req.Incremental = incFlag != 0
	for _, f := range []struct {
		name string
		v    *uint16
	}{
		{"x", &req.X}, {"y", &req.Y}, {"width", &req.Width}, {"height", &req.Height},
	} {
		if err := c.w.read(f.name, f.v); err != nil {
			return err
		}
	}

	if c.s.handler != nil {
		c.s.handler.HandleFramebufferUpdateRequest(req)
	}

	c.updateMu.Lock()
	c.pending = true
	c.incremental = req.Incremental
	if !req.Incremental {
		c.forceNextUpdate = true
	}
	c.updateCond.Signal()
	c.updateMu.Unlock()
	return nil
}

func (c *conn) handleKeyEvent() error {
	var ev KeyEvent
	var down uint8
	if err := c.w.read("down-flag", &down); err != nil {
		return err
	}
	ev.Down = down != 0
	if err := c.w.readPadding(2); err != nil {
		return err
	}
	if err := c.w.read("key", &ev.Key); err != nil {
		return err
	}
	if c.s.handler != nil {
		c.s.handler.HandleKeyEvent(ev)
	}
	return nil
}

func (c *conn) handlePointerEvent() error {
	var ev PointerEvent
	if err := c.w.read("button-mask", &ev.ButtonMask); err != nil {
		return err
	}
	if err := c.w.read("x", &ev.X); err != nil {
		return err
	}
	if err := c.w.read("y", &ev.Y); err != nil {
		return err
	}
	if c.s.handler != nil {
		c.s.handler.HandlePointerEvent(ev)
	}
	return nil
}

func (c *conn) handleClientCutText() error {
	if err := c.w.readPadding(3); err != nil {
		return err
	}
	var length uint32
	if err := c.w.read("cut-text-length", &length); err != nil {
		return err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(c.w.br, buf); err != nil {
		return err
	}
	if c.s.handler != nil {
		c.s.handler.HandleClientCutText(string(buf))
	}
	return nil
}

// writeLoop sends FramebufferUpdate (and, via sendCutText, ServerCutText)
// messages as update requests and frames become available, mirroring
// bradfitz-rfbgo's pushFramesLoop split of command-reading vs frame-pushing.
func (c *conn) writeLoop() {
	for {
		c.updateMu.Lock()
		for !c.closed && !(c.pending && c.haveFrame) {
			c.updateCond.Wait()
		}
		if c.closed {
			c.updateMu.Unlock()
			return
		}
		frame := c.frame
		force := c.forceNextUpdate || !c.incremental
		c.pending = false
		c.forceNextUpdate = false
		c.updateMu.Unlock()

		if err := c.sendFramebufferUpdate(frame, force); err != nil {
			return
		}
	}
}

func (c *conn) sendCutText(text string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.w.write(uint8(cmdServerCutText))
	c.w.write([3]byte{})
	c.w.write(int32(len(text)))
	c.w.bw.WriteString(text)
	c.w.flush()
}

// sendFramebufferUpdate encodes frame's dirty rects as Raw, or CopyRect
// where a rect's tile content matches content elsewhere in the previous
// frame.
func (c *conn) sendFramebufferUpdate(f capture.Frame, force bool) error {
	rects := f.DirtyRects
	if force || len(rects) == 0 {
		rects = []capture.Rect{{X: 0, Y: 0, W: f.Image.Width(), H: f.Image.Height()}}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.w.write(uint8(cmdFramebufferUpdate)); err != nil {
		return err
	}
	if err := c.w.write(uint8(0)); err != nil {
		return err
	}
	if err := c.w.write(uint16(len(rects))); err != nil {
		return err
	}

	for _, r := range rects {
		srcX, srcY, isCopy := findCopySource(f, r)
		if isCopy {
			if err := c.writeCopyRectHeader(r); err != nil {
				return err
			}
			if err := c.w.write(uint16(srcX)); err != nil {
				return err
			}
			if err := c.w.write(uint16(srcY)); err != nil {
				return err
			}
			continue
		}
		if err := c.writeRawRect(f.Image, r); err != nil {
			return err
		}
	}
	return c.w.flush()
}

func (c *conn) writeCopyRectHeader(r capture.Rect) error {
	for _, v := range []interface{}{uint16(r.X), uint16(r.Y), uint16(r.W), uint16(r.H), int32(EncodingCopyRect)} {
		if err := c.w.write(v); err != nil {
			return err
		}
	}
	return nil
}

func (c *conn) writeRawRect(img *pixel.Image, r capture.Rect) error {
	for _, v := range []interface{}{uint16(r.X), uint16(r.Y), uint16(r.W), uint16(r.H), int32(EncodingRaw)} {
		if err := c.w.write(v); err != nil {
			return err
		}
	}
	return encodePixels(c.w.bw, img, r, c.format)
}

// findCopySource looks for a tile in the previous frame whose hash matches
// a tile backing rect r in the current frame, reusing the hashes the
// capture pipeline already computed. It only fires for rects that align to
// a single tile and whose source tile moved to a different position, since
// matching a hash to itself is not a useful CopyRect.
func findCopySource(f capture.Frame, r capture.Rect) (srcX, srcY int, ok bool) {
	if f.TileCols == 0 || f.TileHashes == nil || f.PrevTileHashes == nil {
		return 0, 0, false
	}
	if r.W != capture.TileSize || r.H != capture.TileSize {
		return 0, 0, false
	}
	if r.X%capture.TileSize != 0 || r.Y%capture.TileSize != 0 {
		return 0, 0, false
	}
	tx, ty := r.X/capture.TileSize, r.Y/capture.TileSize
	idx := ty*f.TileCols + tx
	h, ok := f.TileHashes[idx]
	if !ok {
		return 0, 0, false
	}
	for pidx, ph := range f.PrevTileHashes {
		if ph != h || pidx == idx {
			continue
		}
		ptx := pidx % f.TileCols
		pty := pidx / f.TileCols
		return ptx * capture.TileSize, pty * capture.TileSize, true
	}
	return 0, 0, false
}

// encodePixels writes r's pixels from img in the client's negotiated
// format, generalizing bradfitz-rfbgo's pushGenericLocked shift/mask
// packing to arbitrary channel maxima instead of the 5-bit-only inRange.
func encodePixels(bw *bufio.Writer, img *pixel.Image, r capture.Rect, format PixelFormat) error {
	var order binary.ByteOrder = binary.BigEndian
	if format.BigEndian == 0 {
		order = binary.LittleEndian
	}

	buf := make([]byte, 4)
	for y := 0; y < int(r.H); y++ {
		for x := 0; x < int(r.W); x++ {
			c := img.GetColorSafe(pixel.Point{X: int(r.X) + x, Y: int(r.Y) + y})
			rr := scaleChannel(c.R(), format.RedMax)
			gg := scaleChannel(c.G(), format.GreenMax)
			bb := scaleChannel(c.B(), format.BlueMax)
			v := (rr << format.RedShift) | (gg << format.GreenShift) | (bb << format.BlueShift)

			switch format.BPP {
			case 32:
				order.PutUint32(buf, v)
				if _, err := bw.Write(buf[:4]); err != nil {
					return err
				}
			case 16:
				order.PutUint16(buf, uint16(v))
				if _, err := bw.Write(buf[:2]); err != nil {
					return err
				}
			case 8:
				if err := bw.WriteByte(byte(v)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported client bits-per-pixel %d", format.BPP)
			}
		}
	}
	return nil
}

// scaleChannel maps an 8-bit channel value onto the client's requested
// channel maximum (e.g. 31 for 5-bit channels, 255 for 8-bit channels).
func scaleChannel(v uint8, max uint16) uint32 {
	if max == 255 {
		return uint32(v)
	}
	return uint32(v) * uint32(max) / 255
}
