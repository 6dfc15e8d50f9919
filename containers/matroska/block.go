package matroska

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	lacingMask  = 0x06
	lacingNone  = 0x00
	lacingXiph  = 0x02
	lacingFixed = 0x04
	lacingEbml  = 0x06
)

// vintLength is the total length of a variable length integer from its first byte,
// 0 when the byte has no marker bit.
func vintLength(first byte) int {
	for length := 1; length <= 8; length++ {
		if first&(0x80>>(length-1)) != 0 {
			return length
		}
	}

	return 0
}

// decodeVint reads a variable length integer without its marker bit from the start of
// data.
func decodeVint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, errors.New("missing variable length integer")
	}

	length := vintLength(data[0])
	if length == 0 || length > len(data) {
		return 0, 0, errors.Newf("invalid variable length integer 0x%02X", data[0])
	}

	value := uint64(data[0]) & (0xFF >> length)
	for _, b := range data[1:length] {
		value = value<<8 | uint64(b)
	}

	return value, length, nil
}

// parseBlockBody splits the part of a block after the track number into its relative
// timecode and its laced frames.
func parseBlockBody(data []byte) (int16, [][]byte, error) {
	if len(data) < 3 {
		return 0, nil, errors.Newf("block of %d bytes is too short", len(data))
	}

	timeCode := int16(binary.BigEndian.Uint16(data))
	flags := data[2]
	body := data[3:]

	if flags&lacingMask == lacingNone {
		return timeCode, [][]byte{body}, nil
	}

	if len(body) == 0 {
		return 0, nil, errors.New("laced block without frame count")
	}

	count := int(body[0]) + 1
	body = body[1:]
	sizes := make([]int, count-1)

	switch flags & lacingMask {
	case lacingXiph:
		for i := range sizes {
			for {
				if len(body) == 0 {
					return 0, nil, errors.New("truncated Xiph lace sizes")
				}

				value := body[0]
				body = body[1:]
				sizes[i] += int(value)
				if value != 255 {
					break
				}
			}
		}
	case lacingFixed:
		if len(body)%count != 0 {
			return 0, nil, errors.Newf("%d bytes do not split into %d fixed size frames", len(body), count)
		}

		for i := range sizes {
			sizes[i] = len(body) / count
		}
	case lacingEbml:
		if len(sizes) > 0 {
			first, read, vintErr := decodeVint(body)
			if vintErr != nil {
				return 0, nil, errors.Wrap(vintErr, "failed to read first EBML lace size")
			}

			sizes[0] = int(first)
			body = body[read:]

			for i := 1; i < len(sizes); i++ {
				raw, read, vintErr := decodeVint(body)
				if vintErr != nil {
					return 0, nil, errors.Wrap(vintErr, "failed to read EBML lace size")
				}

				//signed difference to the previous size, stored with a bias
				bias := int64(1)<<(7*read-1) - 1
				sizes[i] = sizes[i-1] + int(int64(raw)-bias)
				body = body[read:]
			}
		}
	}

	frames := make([][]byte, 0, count)
	for _, size := range sizes {
		if size < 0 || size > len(body) {
			return 0, nil, errors.Newf("lace of %d bytes exceeds the %d remaining", size, len(body))
		}

		frames = append(frames, body[:size])
		body = body[size:]
	}

	return timeCode, append(frames, body), nil
}
