package render

import (
	"math"

	"github.com/ristryder/pgsplay/common"
)

// DisplayArea returns the part of a width x height container that the video content
// occupies once its aspect ratio is preserved, relative to the container's top left.
// An unknown video size yields the whole container, an empty container an empty area.
func DisplayArea(width, height float64, video common.Size) common.Rect {
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return common.Rect{}
	}
	if video.Empty() {
		return common.Rect{Height: height, Width: width}
	}

	videoWidth := float64(video.Width)
	videoHeight := float64(video.Height)

	//compare aspects by cross multiplication so equal aspects stay exact
	if videoWidth*height > videoHeight*width {
		//letterbox: full width, bars top and bottom
		displayHeight := width * videoHeight / videoWidth

		return common.Rect{Height: displayHeight, Width: width, Y: (height - displayHeight) / 2}
	}

	//pillarbox: full height, bars left and right
	displayWidth := height * videoWidth / videoHeight

	return common.Rect{Height: height, Width: displayWidth, X: (width - displayWidth) / 2}
}

// ScaleFactors maps subtitle screen pixels onto the display area. The axes scale
// independently so the overlay follows the displayed video aspect.
func ScaleFactors(area common.Rect, screen common.Size) (float64, float64) {
	if screen.Empty() {
		return 0, 0
	}

	return area.Width / float64(screen.Width), area.Height / float64(screen.Height)
}

// SurfaceSize is the surface pixel size of a viewport rectangle at a device pixel ratio.
func SurfaceSize(rect common.Rect, devicePixelRatio float64) common.Size {
	if rect.Empty() {
		return common.Size{}
	}

	return common.Size{
		Height: int(math.Round(rect.Height * devicePixelRatio)),
		Width:  int(math.Round(rect.Width * devicePixelRatio)),
	}
}

func isScaled(scaleX, scaleY float64) bool {
	return math.Abs(scaleX-1) > 0.01 || math.Abs(scaleY-1) > 0.01
}
