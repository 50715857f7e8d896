// Package capture implements the capture pipeline: per-tick acquisition of
// the displayed surface, dirty-rectangle detection via tile hashing, and
// frame emission to a configured handler.
//
// Grounded on IntuitionEngine's video_compositor.go for the "wrap a raw pixel
// buffer, diff against the previous frame" shape, generalized from strip-
// parallel blending to tile-hash dirty tracking.
package capture

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/trollvnc/trollvncd/internal/pixel"
	"github.com/trollvnc/trollvncd/internal/surface"
)

// TileSize is the dirty-rect tile granularity.
const TileSize = 64

// Rect is an axis-aligned dirty rectangle in surface pixel coordinates.
type Rect struct{ X, Y, W, H int }

// Frame is the payload delivered to a Handler once per tick.
type Frame struct {
	Image      *pixel.Image
	DirtyRects []Rect
	Seed       uint64

	// TileHashes and PrevTileHashes are the current and previous tick's
	// per-tile FNV-1a hashes (indexed by ty*TileCols+tx), already computed
	// during dirty-rect detection. A rfbserver encoder can reuse these to
	// spot a dirty rect whose content matches a tile elsewhere in the
	// previous frame and emit CopyRect instead of Raw, at no extra hashing
	// cost.
	TileHashes     map[int]uint64
	PrevTileHashes map[int]uint64
	TileCols       int
	TileRows       int
	PrevImage      *pixel.Image
}

// Handler receives frames on the capture thread.
type Handler func(Frame)

// FPSTriple is the min/preferred/max FPS configuration; 0 means
// unspecified and defers to the system default.
type FPSTriple struct {
	Min, Preferred, Max int
}

// Pipeline is the capture pipeline for one display/layer pair.
type Pipeline struct {
	provider surface.Provider
	display  surface.Handle
	layer    surface.Layer
	fps      FPSTriple
	log      *slog.Logger

	statsWindow time.Duration
	emaAlpha    float64

	mu              sync.Mutex
	handler         Handler
	active          bool
	stopCh          chan struct{}
	seed            uint64
	hasTicked       bool
	lastGeneration  uint64
	forceNextUpdate bool
	lastTileHashes  map[int]uint64
	lastTileCols    int
	lastTileRows    int
	lastImage       *pixel.Image

	ema           float64
	emaValid      bool
	lastTickTime  time.Time
	windowSamples []time.Time
}

// New constructs a Pipeline against the given Surface Provider and display.
func New(provider surface.Provider, display surface.Handle, layer surface.Layer, fps FPSTriple, statsWindow time.Duration, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	alpha := 0.2
	return &Pipeline{
		provider:    provider,
		display:     display,
		layer:       layer,
		fps:         fps,
		statsWindow: statsWindow,
		emaAlpha:    alpha,
		log:         log,
	}
}

// ForceNextUpdate marks the next tick's entire frame as one dirty rectangle.
func (p *Pipeline) ForceNextUpdate() {
	p.mu.Lock()
	p.forceNextUpdate = true
	p.mu.Unlock()
}

// Start begins ticking at the pipeline's configured vsync-driven cadence
// (simulated here via a ticker at the preferred FPS, or 60 if unset), and
// installs handler. If already active, Start replaces the handler without
// restarting.
func (p *Pipeline) Start(handler Handler) {
	p.mu.Lock()
	p.handler = handler
	if p.active {
		p.mu.Unlock()
		return
	}
	p.active = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	interval := p.tickInterval()
	p.mu.Unlock()

	go p.run(interval, stop)
}

func (p *Pipeline) tickInterval() time.Duration {
	fps := p.fps.Preferred
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

func (p *Pipeline) run(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			p.tick(now)
		}
	}
}

// Stop cancels the vsync link and releases the surface wrapping. Idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	stop := p.stopCh
	p.stopCh = nil
	p.mu.Unlock()
	close(stop)
}

func tileHash(surf *surface.Surface, tx, ty, tileW, tileH int) uint64 {
	h := fnv.New64a()
	row := make([]byte, tileW*4)
	data := surf.Bytes()
	for y := 0; y < tileH; y++ {
		sy := ty*TileSize + y
		if sy >= surf.Height {
			break
		}
		off := sy*surf.Stride + tx*TileSize*4
		n := copy(row, data[off:min(off+tileW*4, len(data))])
		h.Write(row[:n])
	}
	return h.Sum64()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// tick runs one capture iteration: step 1 (change detection), step 2 (wrap),
// step 3 (dirty rects), step 4 (emit).
func (p *Pipeline) tick(now time.Time) {
	p.mu.Lock()
	handler := p.handler
	force := p.forceNextUpdate
	hasTicked := p.hasTicked
	lastGen := p.lastGeneration
	p.mu.Unlock()

	if handler == nil {
		return
	}

	surf, err := p.provider.CopyDisplayedSurface(p.display, p.layer)
	if err != nil {
		p.log.Warn("capture: surface unavailable", "error", err)
		return
	}

	if !force && hasTicked && surf.Generation() == lastGen {
		return
	}

	img, err := pixel.NewFromBitmap(surf.Bytes(), surf.Width, surf.Height, surf.Stride/4)
	if err != nil {
		p.log.Warn("capture: wrap surface failed", "error", err)
		return
	}

	prevHashes := p.lastTileHashes
	prevImage := p.lastImage
	dirty := p.computeDirtyRects(surf, force)

	p.mu.Lock()
	p.forceNextUpdate = false
	p.hasTicked = true
	p.lastGeneration = surf.Generation()
	p.lastImage = img
	p.seed++
	seed := p.seed
	curHashes, cols, rows := p.lastTileHashes, p.lastTileCols, p.lastTileRows
	p.recordTick(now)
	p.mu.Unlock()

	handler(Frame{
		Image:          img,
		DirtyRects:     dirty,
		Seed:           seed,
		TileHashes:     curHashes,
		PrevTileHashes: prevHashes,
		TileCols:       cols,
		TileRows:       rows,
		PrevImage:      prevImage,
	})
}

// computeDirtyRects implements step 3: tile-hash comparison against the
// previous frame, coalesced into axis-aligned rectangles. When force is set,
// the whole frame is one dirty rectangle.
func (p *Pipeline) computeDirtyRects(surf *surface.Surface, force bool) []Rect {
	cols := (surf.Width + TileSize - 1) / TileSize
	rows := (surf.Height + TileSize - 1) / TileSize

	if force || p.lastTileHashes == nil {
		p.lastTileHashes = hashAllTiles(surf, cols, rows)
		p.lastTileCols, p.lastTileRows = cols, rows
		return []Rect{{X: 0, Y: 0, W: surf.Width, H: surf.Height}}
	}

	cur := hashAllTiles(surf, cols, rows)
	changed := make(map[int]bool, len(cur))
	for idx, h := range cur {
		if p.lastTileCols != cols || p.lastTileRows != rows || p.lastTileHashes[idx] != h {
			changed[idx] = true
		}
	}
	p.lastTileHashes = cur
	p.lastTileCols, p.lastTileRows = cols, rows

	return coalesceTiles(changed, cols, rows, surf.Width, surf.Height)
}

func hashAllTiles(surf *surface.Surface, cols, rows int) map[int]uint64 {
	out := make(map[int]uint64, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			tw := TileSize
			if tx*TileSize+tw > surf.Width {
				tw = surf.Width - tx*TileSize
			}
			th := TileSize
			if ty*TileSize+th > surf.Height {
				th = surf.Height - ty*TileSize
			}
			out[ty*cols+tx] = tileHash(surf, tx, ty, tw, th)
		}
	}
	return out
}

// coalesceTiles greedily merges each changed tile row into maximal
// horizontal runs, then emits one rectangle per run. This is a simple but
// correct coalescing strategy; it does not attempt maximal-rectangle
// merging across rows.
func coalesceTiles(changed map[int]bool, cols, rows, width, height int) []Rect {
	var out []Rect
	for ty := 0; ty < rows; ty++ {
		tx := 0
		for tx < cols {
			if !changed[ty*cols+tx] {
				tx++
				continue
			}
			start := tx
			for tx < cols && changed[ty*cols+tx] {
				tx++
			}
			x := start * TileSize
			w := (tx - start) * TileSize
			if x+w > width {
				w = width - x
			}
			y := ty * TileSize
			h := TileSize
			if y+h > height {
				h = height - y
			}
			out = append(out, Rect{X: x, Y: y, W: w, H: h})
		}
	}
	return out
}

func (p *Pipeline) recordTick(now time.Time) {
	if !p.lastTickTime.IsZero() {
		sample := now.Sub(p.lastTickTime).Seconds()
		if sample > 0 {
			instFPS := 1 / sample
			alpha := p.emaAlpha
			if alpha < 0 {
				alpha = 0
			}
			if alpha > 1 {
				alpha = 1
			}
			if !p.emaValid {
				p.ema = instFPS
				p.emaValid = true
			} else {
				p.ema = alpha*instFPS + (1-alpha)*p.ema
			}
		}
	}
	p.lastTickTime = now

	if p.statsWindow > 0 {
		p.windowSamples = append(p.windowSamples, now)
		cutoff := now.Add(-p.statsWindow)
		i := 0
		for i < len(p.windowSamples) && p.windowSamples[i].Before(cutoff) {
			i++
		}
		p.windowSamples = p.windowSamples[i:]
	}
}

// InstantFPS returns the EMA-smoothed instantaneous FPS estimate.
func (p *Pipeline) InstantFPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ema
}

// WindowFPS returns the rolling-window average FPS, or 0 if the window is
// disabled or has fewer than two samples.
func (p *Pipeline) WindowFPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statsWindow <= 0 || len(p.windowSamples) < 2 {
		return 0
	}
	span := p.windowSamples[len(p.windowSamples)-1].Sub(p.windowSamples[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(p.windowSamples)-1) / span
}
