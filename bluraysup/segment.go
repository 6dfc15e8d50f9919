package bluraysup

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
)

const (
	headerSize = 13

	magicP = 0x50 //'P'
	magicG = 0x47 //'G'
)

type SegmentKind byte

const (
	SegmentPds SegmentKind = 0x14 //Palette Definition Segment
	SegmentOds SegmentKind = 0x15 //Object Definition Segment
	SegmentPcs SegmentKind = 0x16 //Presentation Composition Segment
	SegmentWds SegmentKind = 0x17 //Window Definition Segment
	SegmentEnd SegmentKind = 0x80 //End of Display Set Segment
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentPds:
		return "PDS"
	case SegmentOds:
		return "ODS"
	case SegmentPcs:
		return "PCS"
	case SegmentWds:
		return "WDS"
	case SegmentEnd:
		return "END"
	default:
		return fmt.Sprintf("0x%02X", byte(k))
	}
}

type supSegment struct {
	DtsTimestamp int64
	Kind         SegmentKind
	Offset       int
	PtsTimestamp int64
	Size         int
}

func (s supSegment) payloadStart() int {
	return s.Offset + headerSize
}

func (s supSegment) end() int {
	return s.Offset + headerSize + s.Size
}

func bigEndianInt32(buffer []byte, index int) uint32 {
	if index < 0 || len(buffer) < index+4 {
		return 0
	}

	return uint32(buffer[index+3]) + (uint32(buffer[index+2]) << 8) + (uint32(buffer[index+1]) << 0x10) + (uint32(buffer[index]) << 0x18)
}

func bigEndianInt24(buffer []byte, index int) uint32 {
	if index < 0 || len(buffer) < index+3 {
		return 0
	}

	return uint32(buffer[index+2]) | (uint32(buffer[index+1]) << 8) | (uint32(buffer[index]) << 0x10)
}

func BigEndianInt16(buffer []byte, index int) uint16 {
	if index < 0 || len(buffer) < index+2 {
		return 0
	}

	return uint16(buffer[index+1]) | (uint16(buffer[index]) << 8)
}

func hasMagic(buffer []byte, offset int) bool {
	return offset+1 < len(buffer) && buffer[offset] == magicP && buffer[offset+1] == magicG
}

// parseSegmentHeader reads the 13 byte header at offset. The caller has already checked
// the magic and that the header fits in the buffer.
func parseSegmentHeader(buffer []byte, offset int) supSegment {
	return supSegment{
		DtsTimestamp: int64(bigEndianInt32(buffer, offset+6)),
		Kind:         SegmentKind(buffer[offset+10]),
		Offset:       offset,
		PtsTimestamp: int64(bigEndianInt32(buffer, offset+2)),
		Size:         int(BigEndianInt16(buffer, offset+11)),
	}
}

// MaxSegmentPayload is the largest payload a segment header can describe.
const MaxSegmentPayload = 0xFFFF

// AppendSegment frames payload with a segment header and appends it to dst.
func AppendSegment(dst []byte, kind SegmentKind, pts, dts uint32, payload []byte) ([]byte, error) {
	if len(payload) > MaxSegmentPayload {
		return dst, errors.Mark(errors.Newf("%s payload of %d bytes does not fit a segment", kind, len(payload)), ErrStructural)
	}

	dst = append(dst, magicP, magicG)
	dst = binary.BigEndian.AppendUint32(dst, pts)
	dst = binary.BigEndian.AppendUint32(dst, dts)
	dst = append(dst, byte(kind))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(payload)))

	return append(dst, payload...), nil
}
