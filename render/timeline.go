package render

import (
	"time"

	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/common"
)

// Timeline is an immutable, ordered list of frames. A new load replaces the whole
// Timeline, so a reader always sees one consistent list.
type Timeline struct {
	frames     []*bluraysup.Frame
	generation uint64
	screenSize common.Size
}

func newTimeline(frames []*bluraysup.Frame, generation uint64) *Timeline {
	timeline := &Timeline{frames: frames, generation: generation}
	for _, frame := range frames {
		if !frame.Size.Empty() {
			timeline.screenSize = frame.Size
			break
		}
	}

	return timeline
}

func (t *Timeline) Frames() []*bluraysup.Frame {
	return t.frames
}

func (t *Timeline) Len() int {
	return len(t.frames)
}

// Lookup returns the first frame with StartTime <= at < EndTime and its index, or -1 and
// nil. Clear frames are returned like any other frame. Realistic streams hold a few
// hundred frames, so a linear scan is enough.
func (t *Timeline) Lookup(at time.Duration) (int, *bluraysup.Frame) {
	for index, frame := range t.frames {
		if frame.Contains(at) {
			return index, frame
		}
	}

	return -1, nil
}
