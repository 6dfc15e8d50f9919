package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/common"
	"github.com/ristryder/pgsplay/interfaces"
)

const DefaultFrameInterval = 16 * time.Millisecond

type Options struct {
	//FrameInterval is the repaint check period, DefaultFrameInterval when zero
	FrameInterval time.Duration
	Logger        *slog.Logger
	//OnRepaint is called after every repaint with the frame now shown, nil after a
	//clear. It runs on the render goroutine for ticks and on the calling goroutine for
	//Start, Resize and NotifySeek, so calls may overlap. It must not call Stop.
	OnRepaint func(frame *bluraysup.Frame)
	Parser    *bluraysup.Parser
	//Smoothing enables filtered scaling whenever the overlay is scaled by more than 1%
	Smoothing bool
}

// shownHandle identifies what the surface currently shows. The generation changes with
// every load so a frame index from an old timeline never matches.
type shownHandle struct {
	generation uint64
	index      int
}

var nothingShown = shownHandle{index: -1}

// Renderer keeps an overlay surface in sync with a playback clock. All methods are safe
// for concurrent use.
type Renderer struct {
	clock     interfaces.PlaybackClock
	surface   interfaces.OverlaySurface
	viewport  interfaces.Viewport
	interval  time.Duration
	logger    *slog.Logger
	onRepaint func(frame *bluraysup.Frame)
	parser    *bluraysup.Parser
	smoothing bool

	generation atomic.Uint64
	timeline   atomic.Pointer[Timeline]

	mu         sync.Mutex
	active     bool
	cancel     context.CancelFunc
	done       chan struct{}
	shown      shownHandle
	shownFrame *bluraysup.Frame
}

func NewRenderer(clock interfaces.PlaybackClock, viewport interfaces.Viewport, surface interfaces.OverlaySurface, options Options) *Renderer {
	renderer := &Renderer{
		clock:     clock,
		interval:  options.FrameInterval,
		logger:    options.Logger,
		onRepaint: options.OnRepaint,
		parser:    options.Parser,
		shown:     nothingShown,
		smoothing: options.Smoothing,
		surface:   surface,
		viewport:  viewport,
	}
	if renderer.interval <= 0 {
		renderer.interval = DefaultFrameInterval
	}
	if renderer.logger == nil {
		renderer.logger = slog.Default()
	}
	if renderer.parser == nil {
		renderer.parser = bluraysup.NewParser(bluraysup.Options{Logger: renderer.logger})
	}
	renderer.timeline.Store(newTimeline(nil, 0))

	return renderer
}

// LoadSubtitles parses raw and replaces the timeline. Frames left open end at
// duration, or never when duration is not positive. It returns the number of frames
// loaded and never fails: anything unusable yields zero frames.
func (r *Renderer) LoadSubtitles(raw []byte, duration time.Duration) (count int) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("Failed to load subtitles", slog.String("panic", fmt.Sprint(recovered)))
			r.swapTimeline(nil)
			count = 0
		}
	}()

	result := r.parser.Parse(raw)
	frames := bluraysup.ResolveEndTimes(result.Frames, duration)
	for _, issue := range result.Issues {
		r.logger.Debug("Subtitle stream issue", slog.Any("error", issue))
	}
	if len(frames) == 0 {
		r.logger.Warn("No subtitle frames decoded",
			slog.Int("bytes", len(raw)), slog.Int("issues", len(result.Issues)))
	} else {
		r.logger.Info("Loaded subtitles",
			slog.Int("frames", len(frames)), slog.Int("issues", len(result.Issues)), slog.Int("skipped_bytes", result.SkippedBytes))
	}

	r.swapTimeline(frames)

	return len(frames)
}

func (r *Renderer) swapTimeline(frames []*bluraysup.Frame) {
	r.timeline.Store(newTimeline(frames, r.generation.Add(1)))
}

// Timeline is the currently loaded timeline.
func (r *Renderer) Timeline() *Timeline {
	return r.timeline.Load()
}

// FrameCount is the number of frames in the loaded timeline.
func (r *Renderer) FrameCount() int {
	return r.timeline.Load().Len()
}

// FindActiveFrame returns the frame showing content at t, or nil when nothing is shown,
// including during a clear frame.
func (r *Renderer) FindActiveFrame(t time.Duration) *bluraysup.Frame {
	_, frame := r.timeline.Load().Lookup(t)
	if frame == nil || frame.IsClear() {
		return nil
	}

	return frame
}

func (r *Renderer) IsRendering() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

// Start sizes the surface, paints the current position and begins following the clock.
// Starting an active renderer does nothing.
func (r *Renderer) Start() {
	r.mu.Lock()

	if r.active {
		r.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.active = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.shown = nothingShown
	r.shownFrame = nil
	r.resizeSurfaceLocked()
	repainted, frame := r.refreshLocked()

	go r.loop(ctx, r.done)

	r.mu.Unlock()

	r.notify(repainted, frame)
}

// Stop ends the render loop and clears the surface. No repaint happens after Stop
// returns, including when another Stop is already in progress.
func (r *Renderer) Stop() {
	r.mu.Lock()

	if r.active {
		r.active = false
		r.cancel()
	}
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return
	}

	<-done

	r.Clear()
}

// Clear blanks the surface. An active renderer paints again on the next tick.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.surface.Clear()
	r.shown = nothingShown
	r.shownFrame = nil
}

// Resize adapts the surface to the current viewport and repaints the shown frame.
func (r *Renderer) Resize() {
	r.mu.Lock()

	r.resizeSurfaceLocked()

	frame := r.shownFrame
	repainted := false
	if r.active && frame != nil && !frame.IsClear() {
		r.paintLocked(frame, r.timeline.Load())
		repainted = true
	}

	r.mu.Unlock()

	r.notify(repainted, frame)
}

// NotifySeek re-evaluates the clock immediately instead of waiting for the next tick.
func (r *Renderer) NotifySeek() {
	r.mu.Lock()

	if !r.active {
		r.mu.Unlock()
		return
	}

	repainted, frame := r.refreshLocked()
	r.mu.Unlock()

	r.notify(repainted, frame)
}

func (r *Renderer) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Renderer) tick() {
	r.mu.Lock()

	if !r.active {
		r.mu.Unlock()
		return
	}

	repainted, frame := r.refreshLocked()
	r.mu.Unlock()

	r.notify(repainted, frame)
}

// refreshLocked repaints when the frame for the clock position differs from the one
// shown. Gating on the handle leaves a still subtitle untouched between ticks.
func (r *Renderer) refreshLocked() (bool, *bluraysup.Frame) {
	timeline := r.timeline.Load()
	index, frame := timeline.Lookup(r.clock.CurrentTime())

	handle := shownHandle{generation: timeline.generation, index: index}
	if index < 0 {
		handle = nothingShown
	}
	if handle == r.shown {
		return false, nil
	}

	r.shown = handle
	r.shownFrame = frame

	if frame == nil || frame.IsClear() {
		r.surface.Clear()
		return true, nil
	}

	r.paintLocked(frame, timeline)

	return true, frame
}

func (r *Renderer) paintLocked(frame *bluraysup.Frame, timeline *Timeline) {
	r.resizeSurfaceLocked()
	r.surface.Clear()

	rect := r.viewport.DisplayRect()
	ratio := r.devicePixelRatio()

	video := r.viewport.VideoSize()
	if video.Empty() {
		video = timeline.screenSize
	}

	area := DisplayArea(rect.Width, rect.Height, video)
	if area.Empty() {
		return
	}

	screen := frame.Size
	if screen.Empty() {
		screen = video
	}

	scaleX, scaleY := ScaleFactors(area, screen)
	if scaleX <= 0 || scaleY <= 0 {
		return
	}
	smooth := r.smoothing && isScaled(scaleX, scaleY)

	for _, img := range frame.Images {
		if img.Pixels == nil {
			continue
		}

		r.surface.Draw(img.Pixels, common.Rect{
			Height: float64(img.Height()) * scaleY * ratio,
			Width:  float64(img.Width()) * scaleX * ratio,
			X:      (area.X + float64(img.X)*scaleX) * ratio,
			Y:      (area.Y + float64(img.Y)*scaleY) * ratio,
		}, smooth)
	}
}

func (r *Renderer) resizeSurfaceLocked() {
	size := SurfaceSize(r.viewport.DisplayRect(), r.devicePixelRatio())
	if size != r.surface.Size() {
		r.logger.Debug("Resizing overlay surface", slog.String("size", size.String()))
		r.surface.Resize(size)
	}
}

func (r *Renderer) devicePixelRatio() float64 {
	ratio := r.viewport.DevicePixelRatio()
	if ratio <= 0 {
		return 1
	}

	return ratio
}

func (r *Renderer) notify(repainted bool, frame *bluraysup.Frame) {
	if repainted && r.onRepaint != nil {
		r.onRepaint(frame)
	}
}
