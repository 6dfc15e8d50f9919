package bluraysup

import (
	"bytes"
	"encoding/binary"
)

type testObject struct {
	cropped  byte
	id       int
	windowId int
	x, y     int
}

type streamBuilder struct {
	bytes.Buffer
}

func (s *streamBuilder) segment(kind SegmentKind, pts uint32, payload []byte) *streamBuilder {
	framed, err := AppendSegment(nil, kind, pts, 0, payload)
	if err != nil {
		panic(err)
	}
	s.Write(framed)

	return s
}

func pcsPayload(width, height int, state byte, paletteId int, objects ...testObject) []byte {
	payload := []byte{0, 0, 0, 0, 0x10, 0, 1, state, 0, byte(paletteId), byte(len(objects))}
	binary.BigEndian.PutUint16(payload[0:], uint16(width))
	binary.BigEndian.PutUint16(payload[2:], uint16(height))

	for _, obj := range objects {
		record := make([]byte, compositionObjectSize)
		binary.BigEndian.PutUint16(record[0:], uint16(obj.id))
		record[2] = byte(obj.windowId)
		record[3] = obj.cropped
		binary.BigEndian.PutUint16(record[4:], uint16(obj.x))
		binary.BigEndian.PutUint16(record[6:], uint16(obj.y))
		payload = append(payload, record...)
		if obj.cropped&objectCroppedFlag != 0 {
			payload = append(payload, 0, 0, 0, 0, 0, 4, 0, 2)
		}
	}

	return payload
}

func wdsPayload(id, x, y, width, height int) []byte {
	payload := make([]byte, 1+windowRecordSize)
	payload[0] = 1
	payload[1] = byte(id)
	binary.BigEndian.PutUint16(payload[2:], uint16(x))
	binary.BigEndian.PutUint16(payload[4:], uint16(y))
	binary.BigEndian.PutUint16(payload[6:], uint16(width))
	binary.BigEndian.PutUint16(payload[8:], uint16(height))

	return payload
}

// pdsPayload takes entries of index, Y, Cr, Cb, alpha.
func pdsPayload(id int, entries ...[5]byte) []byte {
	payload := []byte{byte(id), 0}
	for _, entry := range entries {
		payload = append(payload, entry[:]...)
	}

	return payload
}

func odsPayload(id int, seq byte, width, height int, rle []byte) []byte {
	payload := []byte{0, 0, 0, seq}
	binary.BigEndian.PutUint16(payload[0:], uint16(id))
	if seq&firstInSequence != 0 {
		header := make([]byte, 7)
		length := len(rle) + 4
		header[0], header[1], header[2] = byte(length>>16), byte(length>>8), byte(length)
		binary.BigEndian.PutUint16(header[3:], uint16(width))
		binary.BigEndian.PutUint16(header[5:], uint16(height))
		payload = append(payload, header...)
	}

	return append(payload, rle...)
}

// solidRle encodes a width x height block of one palette index, one EOL per line.
func solidRle(width, height int, colorIndex byte) []byte {
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

var whiteEntry = [5]byte{1, 235, 128, 128, 255}

// displaySet writes PCS, WDS, PDS, ODS and END for a single solid object.
func (s *streamBuilder) displaySet(pts uint32, objectId, x, y, width, height int) *streamBuilder {
	return s.segment(SegmentPcs, pts, pcsPayload(1920, 1080, 0x80, 0, testObject{id: objectId, x: x, y: y})).
		segment(SegmentWds, pts, wdsPayload(0, x, y, width, height)).
		segment(SegmentPds, pts, pdsPayload(0, whiteEntry)).
		segment(SegmentOds, pts, odsPayload(objectId, firstInSequence|lastInSequence, width, height, solidRle(width, height, 1))).
		segment(SegmentEnd, pts, nil)
}

func (s *streamBuilder) clearSet(pts uint32) *streamBuilder {
	return s.segment(SegmentPcs, pts, pcsPayload(1920, 1080, 0x00, 0)).
		segment(SegmentEnd, pts, nil)
}
