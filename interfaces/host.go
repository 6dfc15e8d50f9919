package interfaces

import (
	"image"
	"time"

	"github.com/ristryder/pgsplay/common"
)

// PlaybackClock is the host player's position. The overlay only reads it.
type PlaybackClock interface {
	CurrentTime() time.Duration
}

// Viewport describes the element the video is displayed in.
type Viewport interface {
	// DevicePixelRatio is the number of surface pixels per viewport pixel.
	DevicePixelRatio() float64
	// DisplayRect is the displayed position and size of the video element.
	DisplayRect() common.Rect
	// VideoSize is the native pixel size of the content, zero while unknown.
	VideoSize() common.Size
}

// OverlaySurface is the raster painted over the video. Coordinates are surface pixels.
type OverlaySurface interface {
	Clear()
	Draw(src image.Image, dst common.Rect, smooth bool)
	Resize(size common.Size)
	Size() common.Size
}
