package matroska

import (
	"bytes"
	"compress/zlib"
	"io"
	"time"

	"github.com/cockroachdb/errors"
)

// MatroskaSubtitle is the payload of one block of a subtitle track.
type MatroskaSubtitle struct {
	Data     []byte
	Duration time.Duration
	Start    time.Duration
}

func (m *MatroskaSubtitle) End() time.Duration {
	return m.Start + m.Duration
}

func NewMatroskaSubtitle(data []byte, start time.Duration) *MatroskaSubtitle {
	return &MatroskaSubtitle{Data: data, Start: start}
}

// UncompressedData undoes the track's content compression, zlib or header stripping.
func (m *MatroskaSubtitle) UncompressedData(matroskaTrackInfo *MatroskaTrackInfo) ([]byte, error) {
	if !matroskaTrackInfo.HasContentEncoding ||
		matroskaTrackInfo.ContentEncodingType != ContentEncodingTypeCompression ||
		(matroskaTrackInfo.ContentEncodingScope&ContentEncodingScopeTracks) == 0 {
		return m.Data, nil
	}

	switch matroskaTrackInfo.ContentCompressionAlgorithm {
	case ContentCompAlgoZlib:
		zlibReader, zlibReaderErr := zlib.NewReader(bytes.NewReader(m.Data))
		if zlibReaderErr != nil {
			return nil, errors.Wrap(zlibReaderErr, "failed to create zlib reader")
		}

		defer zlibReader.Close()

		uncompressedData, uncompressedDataErr := io.ReadAll(zlibReader)
		if uncompressedDataErr != nil {
			return nil, errors.Wrap(uncompressedDataErr, "failed to read all data from zlib reader")
		}

		return uncompressedData, nil
	case ContentCompAlgoHeaderStripping:
		stripped := matroskaTrackInfo.ContentCompressionSettings
		restored := make([]byte, 0, len(stripped)+len(m.Data))

		return append(append(restored, stripped...), m.Data...), nil
	default:
		return nil, errors.Newf("unsupported content compression algorithm %d", matroskaTrackInfo.ContentCompressionAlgorithm)
	}
}
