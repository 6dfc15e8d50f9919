package bluraysup

import "github.com/cockroachdb/errors"

// Problems found while parsing are recovered locally and reported as issues marked
// with one of these sentinels. Use errors.Is to classify them.
var (
	// ErrStructural marks a segment header that is malformed or whose payload runs past
	// the end of the buffer. Parsing stops at the first one.
	ErrStructural = errors.New("structural error")
	// ErrSegmentDecode marks a PCS, WDS, PDS or ODS whose fields could not be decoded.
	// The segment is skipped.
	ErrSegmentDecode = errors.New("segment decode error")
	// ErrDanglingReference marks a composition object that refers to an unknown object or
	// to an object without dimensions. Only that image is dropped.
	ErrDanglingReference = errors.New("dangling object reference")
	// ErrCapacityExceeded marks an object whose RLE data implies more lines than the
	// decoder ceiling. The image is truncated at the ceiling.
	ErrCapacityExceeded = errors.New("decoder capacity exceeded")
)

func segmentDecodeErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrSegmentDecode)
}
