// Package pgstest builds small synthetic PGS streams for tests.
package pgstest

import (
	"encoding/binary"

	"github.com/ristryder/pgsplay/bluraysup"
)

const (
	ScreenWidth  = 1920
	ScreenHeight = 1080
)

// Segment is an unframed segment, as stored in a Matroska block.
type Segment struct {
	Kind    bluraysup.SegmentKind
	Payload []byte
}

// DisplaySet is an epoch start showing one solid white object.
func DisplaySet(objectId, x, y, width, height int) []Segment {
	pcs := []byte{0, 0, 0, 0, 0x10, 0, 1, 0x80, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(pcs[0:], ScreenWidth)
	binary.BigEndian.PutUint16(pcs[2:], ScreenHeight)
	binary.BigEndian.PutUint16(pcs[11:], uint16(objectId))
	binary.BigEndian.PutUint16(pcs[15:], uint16(x))
	binary.BigEndian.PutUint16(pcs[17:], uint16(y))

	wds := make([]byte, 10)
	wds[0] = 1
	binary.BigEndian.PutUint16(wds[2:], uint16(x))
	binary.BigEndian.PutUint16(wds[4:], uint16(y))
	binary.BigEndian.PutUint16(wds[6:], uint16(width))
	binary.BigEndian.PutUint16(wds[8:], uint16(height))

	//palette 0, entry 1 is opaque white
	pds := []byte{0, 0, 1, 235, 128, 128, 255}

	rle := SolidRle(width, height, 1)
	ods := make([]byte, 11, 11+len(rle))
	binary.BigEndian.PutUint16(ods[0:], uint16(objectId))
	ods[3] = 0xC0
	length := len(rle) + 4
	ods[4], ods[5], ods[6] = byte(length>>16), byte(length>>8), byte(length)
	binary.BigEndian.PutUint16(ods[7:], uint16(width))
	binary.BigEndian.PutUint16(ods[9:], uint16(height))
	ods = append(ods, rle...)

	return []Segment{
		{Kind: bluraysup.SegmentPcs, Payload: pcs},
		{Kind: bluraysup.SegmentWds, Payload: wds},
		{Kind: bluraysup.SegmentPds, Payload: pds},
		{Kind: bluraysup.SegmentOds, Payload: ods},
		{Kind: bluraysup.SegmentEnd},
	}
}

// ClearSet is a composition with no objects, which hides whatever was shown.
func ClearSet() []Segment {
	pcs := []byte{0, 0, 0, 0, 0x10, 0, 2, 0x00, 0, 0, 0}
	binary.BigEndian.PutUint16(pcs[0:], ScreenWidth)
	binary.BigEndian.PutUint16(pcs[2:], ScreenHeight)

	return []Segment{
		{Kind: bluraysup.SegmentPcs, Payload: pcs},
		{Kind: bluraysup.SegmentEnd},
	}
}

// SolidRle encodes a width x height block of one palette index.
func SolidRle(width, height int, colorIndex byte) []byte {
	var rle []byte
	for line := 0; line < height; line++ {
		if width < 64 {
			rle = append(rle, 0x00, 0x80|byte(width), colorIndex)
		} else {
			rle = append(rle, 0x00, 0xC0|byte(width>>8), byte(width), colorIndex)
		}
		rle = append(rle, 0x00, 0x00)
	}

	return rle
}

// Stream accumulates framed segments.
type Stream struct {
	data []byte
}

// Add frames segments with the presentation time pts, in 90 kHz ticks.
func (s *Stream) Add(pts uint32, segments []Segment) *Stream {
	for _, segment := range segments {
		framed, err := bluraysup.AppendSegment(s.data, segment.Kind, pts, 0, segment.Payload)
		if err != nil {
			panic(err)
		}
		s.data = framed
	}

	return s
}

func (s *Stream) Bytes() []byte {
	return s.data
}

// BlockData lays segments out the way a Matroska block stores them: kind, 16 bit
// length and payload, with no magic or timestamps.
func BlockData(segments []Segment) []byte {
	var data []byte
	for _, segment := range segments {
		data = append(data, byte(segment.Kind))
		data = binary.BigEndian.AppendUint16(data, uint16(len(segment.Payload)))
		data = append(data, segment.Payload...)
	}

	return data
}
