package bluraysup

import "image"

const windowRecordSize = 9

// Window is a placement/clipping region defined by a WDS.
type Window struct {
	Bounds image.Rectangle
	Id     int
}

func parseWds(buffer []byte) ([]Window, error) {
	if len(buffer) < 1 {
		return nil, segmentDecodeErrorf("empty WDS payload")
	}

	windowCount := int(buffer[0])
	if 1+windowCount*windowRecordSize > len(buffer) {
		return nil, segmentDecodeErrorf("WDS declares %d windows but carries only %d bytes", windowCount, len(buffer))
	}

	windows := make([]Window, 0, windowCount)
	offset := 1
	for i := 0; i < windowCount; i++ {
		x := int(BigEndianInt16(buffer, offset+1))
		y := int(BigEndianInt16(buffer, offset+3))
		width := int(BigEndianInt16(buffer, offset+5))
		height := int(BigEndianInt16(buffer, offset+7))

		windows = append(windows, Window{Bounds: image.Rect(x, y, x+width, y+height), Id: int(buffer[offset])})
		offset += windowRecordSize
	}

	return windows, nil
}
