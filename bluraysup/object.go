package bluraysup

import "fmt"

const (
	objectHeaderSize      = 4
	firstObjectHeaderSize = 11

	firstInSequence = 0x80
	lastInSequence  = 0x40
)

// ObjectFragment is one ODS. Only the first fragment of an object carries the declared
// data length and dimensions.
type ObjectFragment struct {
	DataLength    int
	Height        int
	IsFirst       bool
	IsLast        bool
	ObjectId      int
	ObjectVersion int
	RleData       []byte
	Width         int
}

func (o ObjectFragment) String() string {
	seq := ""
	if o.IsFirst {
		seq = "first"
	}
	if o.IsLast {
		if seq != "" {
			seq += "/"
		}
		seq += "last"
	}

	if o.IsFirst {
		return fmt.Sprintf("ObjId: %v, ver: %v, seq: %v, width: %v, height: %v, rle: %v bytes", o.ObjectId, o.ObjectVersion, seq, o.Width, o.Height, len(o.RleData))
	}

	return fmt.Sprintf("Continued ObjId: %v, ver: %v, seq: %v, rle: %v bytes", o.ObjectId, o.ObjectVersion, seq, len(o.RleData))
}

// decodedObject accumulates the fragments of one object id within a display set.
type decodedObject struct {
	height  int
	id      int
	rleData []byte
	width   int
}

func parseOds(buffer []byte) (ObjectFragment, error) {
	if len(buffer) < objectHeaderSize {
		return ObjectFragment{}, segmentDecodeErrorf("ODS payload of %d bytes is shorter than its header", len(buffer))
	}

	objSeq := buffer[3] //8bit first_in_sequence (0x80), last_in_sequence (0x40), 6bits reserved
	fragment := ObjectFragment{
		IsFirst:       objSeq&firstInSequence == firstInSequence,
		IsLast:        objSeq&lastInSequence == lastInSequence,
		ObjectId:      int(BigEndianInt16(buffer, 0)),
		ObjectVersion: int(buffer[2]),
	}

	rleStart := objectHeaderSize
	if fragment.IsFirst {
		if len(buffer) < firstObjectHeaderSize {
			return ObjectFragment{}, segmentDecodeErrorf("first ODS fragment of object %d has %d bytes, need %d", fragment.ObjectId, len(buffer), firstObjectHeaderSize)
		}

		fragment.DataLength = int(bigEndianInt24(buffer, 4))
		fragment.Width = int(BigEndianInt16(buffer, 7))
		fragment.Height = int(BigEndianInt16(buffer, 9))
		rleStart = firstObjectHeaderSize
	}

	fragment.RleData = make([]byte, len(buffer)-rleStart)
	copy(fragment.RleData, buffer[rleStart:])

	return fragment, nil
}

// merge appends a continuation fragment. Dimensions only change when the fragment
// declares a positive value.
func (d *decodedObject) merge(fragment ObjectFragment) {
	d.rleData = append(d.rleData, fragment.RleData...)
	if fragment.Width > 0 {
		d.width = fragment.Width
	}
	if fragment.Height > 0 {
		d.height = fragment.Height
	}
}
