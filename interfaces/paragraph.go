package interfaces

import (
	"image"
	"time"

	"github.com/ristryder/pgsplay/common"
)

// BinaryParagraph is one bitmap subtitle.
type BinaryParagraph interface {
	GetBitmap() image.Image
	IsForced() bool
}

// BinaryParagraphWithPosition is a bitmap subtitle placed on the subtitle screen and the
// media timeline.
type BinaryParagraphWithPosition interface {
	BinaryParagraph
	EndTimeCode() time.Duration
	ScreenSize() common.Size
	StartTimeCode() time.Duration
}
