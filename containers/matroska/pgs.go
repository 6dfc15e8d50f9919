package matroska

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
)

// blockSegmentHeaderSize is kind plus 16 bit length, the header a PGS segment keeps
// inside a Matroska block.
const blockSegmentHeaderSize = 3

// SupTrack is a PGS track rebuilt as a standalone .sup stream.
type SupTrack struct {
	Data     []byte
	Segments int
	//TruncatedBlocks counts blocks whose last segment claimed more bytes than remained
	TruncatedBlocks int
}

// ToSup frames every segment of a PGS track's blocks with a "PG" header. The block start
// becomes the presentation timestamp, the decoding timestamp is left zero.
func ToSup(subtitles []MatroskaSubtitle, track *MatroskaTrackInfo) (*SupTrack, error) {
	if !track.IsPgs() {
		return nil, errors.Newf("track %d is %s, not a PGS track", track.TrackNumber, track.CodecId)
	}

	result := &SupTrack{}

	for blockIndex := range subtitles {
		data, uncompressErr := subtitles[blockIndex].UncompressedData(track)
		if uncompressErr != nil {
			return nil, errors.Wrapf(uncompressErr, "failed to uncompress block %d", blockIndex)
		}

		pts := uint32(bluraysup.DurationToPts(subtitles[blockIndex].Start))

		for offset := 0; offset+blockSegmentHeaderSize <= len(data); {
			kind := bluraysup.SegmentKind(data[offset])
			size := int(binary.BigEndian.Uint16(data[offset+1:]))
			payloadStart := offset + blockSegmentHeaderSize

			if payloadStart+size > len(data) {
				result.TruncatedBlocks++
				break
			}

			framed, appendErr := bluraysup.AppendSegment(result.Data, kind, pts, 0, data[payloadStart:payloadStart+size])
			if appendErr != nil {
				return nil, appendErr
			}

			result.Data = framed
			result.Segments++
			offset = payloadStart + size
		}
	}

	return result, nil
}

// ReadSupTrack reads the PGS track with the given track number as a .sup stream.
func (m *MatroskaFile) ReadSupTrack(trackNumber int, progressCallback func(int64, int64)) (*SupTrack, error) {
	tracks, tracksErr := m.Tracks(true)
	if tracksErr != nil {
		return nil, tracksErr
	}

	for i := range tracks {
		if tracks[i].TrackNumber != trackNumber {
			continue
		}

		subtitles, subtitlesErr := m.Subtitle(uint64(trackNumber), progressCallback)
		if subtitlesErr != nil {
			return nil, subtitlesErr
		}

		return ToSup(subtitles, &tracks[i])
	}

	return nil, errors.Newf("no subtitle track number %d in %s", trackNumber, m.Path)
}
