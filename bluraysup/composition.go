package bluraysup

import (
	"image"

	"github.com/ristryder/pgsplay/common"
)

const (
	compositionHeaderSize = 11
	compositionObjectSize = 8
	croppedObjectSize     = 16

	objectCroppedFlag = 0x80
	objectForcedFlag  = 0x40
)

// Composition is the decoded PCS: where objects go, not what they contain.
type Composition struct {
	CompNum             int
	CompositionState    CompositionState
	FramesPerSecondType int
	Objects             []CompositionObject
	PaletteId           int
	PaletteUpdate       bool
	PtsTimestamp        int64
	Size                common.Size
}

type CompositionObject struct {
	Cropped  byte
	Crop     image.Rectangle
	IsForced bool
	ObjectId int
	Origin   image.Point
	WindowId int
}

func (c CompositionObject) IsCropped() bool {
	return c.Cropped&objectCroppedFlag == objectCroppedFlag
}

func parseCompositionObject(buffer []byte, offset int) (CompositionObject, int, error) {
	if offset+compositionObjectSize > len(buffer) {
		return CompositionObject{}, 0, segmentDecodeErrorf("composition object at %d exceeds PCS payload of %d bytes", offset, len(buffer))
	}

	//16bit object_id_ref, 8bit window_id_ref
	//object_cropped_flag: 0x80, forced_on_flag = 0x040, 6bit reserved
	obj := CompositionObject{
		Cropped:  buffer[offset+3],
		ObjectId: int(BigEndianInt16(buffer, offset)),
		Origin:   image.Point{X: int(BigEndianInt16(buffer, offset+4)), Y: int(BigEndianInt16(buffer, offset+6))},
		WindowId: int(buffer[offset+2]),
	}
	obj.IsForced = obj.Cropped&objectForcedFlag == objectForcedFlag

	if !obj.IsCropped() {
		return obj, compositionObjectSize, nil
	}

	if offset+croppedObjectSize > len(buffer) {
		return CompositionObject{}, 0, segmentDecodeErrorf("cropped composition object at %d exceeds PCS payload of %d bytes", offset, len(buffer))
	}

	cropX := int(BigEndianInt16(buffer, offset+8))
	cropY := int(BigEndianInt16(buffer, offset+10))
	obj.Crop = image.Rect(cropX, cropY, cropX+int(BigEndianInt16(buffer, offset+12)), cropY+int(BigEndianInt16(buffer, offset+14)))

	return obj, croppedObjectSize, nil
}

func parsePcs(buffer []byte, segment supSegment) (*Composition, error) {
	if len(buffer) < compositionHeaderSize {
		return nil, segmentDecodeErrorf("PCS payload of %d bytes is shorter than its %d byte header", len(buffer), compositionHeaderSize)
	}

	pcs := &Composition{
		CompNum:             int(BigEndianInt16(buffer, 5)),
		CompositionState:    getCompositionState(buffer[7]),
		FramesPerSecondType: int(buffer[4]),
		PaletteId:           int(buffer[9]),
		PaletteUpdate:       buffer[8] == 0x80,
		PtsTimestamp:        segment.PtsTimestamp,
		Size:                common.Size{Height: int(BigEndianInt16(buffer, 2)), Width: int(BigEndianInt16(buffer, 0))},
	}

	compositionObjectCount := int(buffer[10])
	pcs.Objects = make([]CompositionObject, 0, compositionObjectCount)

	offset := compositionHeaderSize
	for i := 0; i < compositionObjectCount && offset < len(buffer); i++ {
		obj, consumed, objErr := parseCompositionObject(buffer, offset)
		if objErr != nil {
			return nil, objErr
		}

		pcs.Objects = append(pcs.Objects, obj)
		offset += consumed
	}

	return pcs, nil
}
