package render

import (
	"sync"
	"time"

	"github.com/ristryder/pgsplay/common"
)

// WallClock is a playback position advancing with real time from a start offset.
type WallClock struct {
	mu      sync.Mutex
	origin  time.Time
	offset  time.Duration
	speed   float64
	nowFunc func() time.Time
}

func NewWallClock(offset time.Duration, speed float64) *WallClock {
	if speed <= 0 {
		speed = 1
	}

	return &WallClock{origin: time.Now(), offset: offset, speed: speed, nowFunc: time.Now}
}

func (w *WallClock) CurrentTime() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	elapsed := w.nowFunc().Sub(w.origin)

	return w.offset + time.Duration(float64(elapsed)*w.speed)
}

// Seek moves the position, as a user seeking in the player would.
func (w *WallClock) Seek(position time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.origin = w.nowFunc()
	w.offset = position
}

// FixedClock always reports the same position until Set.
type FixedClock struct {
	mu       sync.Mutex
	position time.Duration
}

func NewFixedClock(position time.Duration) *FixedClock {
	return &FixedClock{position: position}
}

func (f *FixedClock) CurrentTime() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.position
}

func (f *FixedClock) Set(position time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.position = position
}

// StaticViewport is a viewport whose geometry only changes through its setters.
type StaticViewport struct {
	mu               sync.Mutex
	devicePixelRatio float64
	rect             common.Rect
	video            common.Size
}

func NewStaticViewport(rect common.Rect, devicePixelRatio float64, video common.Size) *StaticViewport {
	return &StaticViewport{devicePixelRatio: devicePixelRatio, rect: rect, video: video}
}

func (s *StaticViewport) DevicePixelRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.devicePixelRatio
}

func (s *StaticViewport) DisplayRect() common.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rect
}

func (s *StaticViewport) VideoSize() common.Size {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.video
}

func (s *StaticViewport) SetDisplayRect(rect common.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rect = rect
}

func (s *StaticViewport) SetDevicePixelRatio(ratio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devicePixelRatio = ratio
}

func (s *StaticViewport) SetVideoSize(size common.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.video = size
}
