package bluraysup

import (
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/ristryder/pgsplay/common"
)

const (
	// EndUnset marks a frame whose end time has not been resolved yet.
	EndUnset time.Duration = -1
	// Unbounded is the end time of a last frame when the media duration is unknown.
	Unbounded time.Duration = math.MaxInt64
)

// Image is one decoded object placed at its composition position, in subtitle
// (screen) pixel coordinates.
type Image struct {
	Forced   bool
	ObjectId int
	Pixels   *image.NRGBA
	WindowId int
	X        int
	Y        int
}

func (i Image) Width() int {
	return i.Pixels.Rect.Dx()
}

func (i Image) Height() int {
	return i.Pixels.Rect.Dy()
}

// Bounds returns where the image sits on the subtitle screen.
func (i Image) Bounds() image.Rectangle {
	return image.Rect(i.X, i.Y, i.X+i.Width(), i.Y+i.Height())
}

// Frame is one finalized display set. A frame without images is a clear marker: it
// shows nothing from StartTime on and ends the previous frame's display period.
type Frame struct {
	CompNum          int
	CompositionState CompositionState
	EndTime          time.Duration
	Images           []Image
	PaletteId        int
	PtsTimestamp     int64
	Size             common.Size
	StartTime        time.Duration
	Windows          []Window
}

func (f *Frame) IsClear() bool {
	return len(f.Images) == 0
}

// IsForced reports whether any image is flagged forced-on.
func (f *Frame) IsForced() bool {
	for _, img := range f.Images {
		if img.Forced {
			return true
		}
	}

	return false
}

// Contains reports whether t falls in [StartTime, EndTime).
func (f *Frame) Contains(t time.Duration) bool {
	if t < f.StartTime {
		return false
	}

	return f.EndTime == Unbounded || t < f.EndTime
}

// GetBitmap composites all images onto a transparent canvas of the subtitle screen size.
// When the composition declared no screen size the union of the image bounds is used.
func (f *Frame) GetBitmap() image.Image {
	bounds := image.Rect(0, 0, f.Size.Width, f.Size.Height)
	if f.Size.Empty() {
		bounds = image.Rectangle{}
		for _, img := range f.Images {
			bounds = bounds.Union(img.Bounds())
		}
	}

	canvas := image.NewNRGBA(bounds)
	for _, img := range f.Images {
		draw.Draw(canvas, img.Bounds(), img.Pixels, image.Point{}, draw.Over)
	}

	return canvas
}

// ResolveEndTimes fills every unset end time with the next frame's start time. The last
// frame ends at duration, or Unbounded when duration is not positive.
func ResolveEndTimes(frames []*Frame, duration time.Duration) []*Frame {
	last := Unbounded
	if duration > 0 {
		last = duration
	}

	for i, frame := range frames {
		if frame.EndTime != EndUnset {
			continue
		}

		if i+1 < len(frames) {
			frame.EndTime = frames[i+1].StartTime
		} else {
			frame.EndTime = last
		}
	}

	return frames
}

func (f *Frame) StartTimeCode() time.Duration {
	return f.StartTime
}

func (f *Frame) EndTimeCode() time.Duration {
	return f.EndTime
}

func (f *Frame) ScreenSize() common.Size {
	return f.Size
}
