package matroska

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// maxClusterSearch bounds the byte by byte scan for the next cluster after damage.
const maxClusterSearch = 5000000

func (m *MatroskaFile) readBytes(length int64) ([]byte, error) {
	if length < 0 || m.file.Position()+length > m.file.Size() {
		return nil, errors.Newf("%d bytes at %d run past the end of the file", length, m.file.Position())
	}

	data := make([]byte, length)
	if length == 0 {
		return data, nil
	}

	bytesRead, readErr := m.file.Read(data)
	if int64(bytesRead) < length {
		if readErr == nil {
			readErr = io.ErrUnexpectedEOF
		}

		return nil, errors.Wrapf(readErr, "short read of %d bytes from Matroska file", length)
	}

	return data, nil
}

func (m *MatroskaFile) skip(element Element) error {
	if element == InvalidElement {
		return nil
	}

	_, seekErr := m.file.Seek(element.EndPosition(), io.SeekStart)

	return errors.Wrapf(seekErr, "failed to skip element %s", element.String())
}

func (m *MatroskaFile) readBlockGroupElement(blockGroupElement Element, clusterTimeCode int64, options MatroskaFileOptions) error {
	element := EmptyElement
	var elementErr error
	var subtitles []MatroskaSubtitle
	duration := int64(-1)

	for m.file.Position() < blockGroupElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read block group element")
		}

		if element == InvalidElement {
			break
		}

		switch element.Id {
		case ElementBlock:
			blockSubtitles, blockErr := m.readSubtitleBlock(element, clusterTimeCode, options)
			if blockErr != nil {
				return errors.Wrap(blockErr, "failed to read subtitle block")
			}

			subtitles = append(subtitles, blockSubtitles...)
		case ElementBlockDuration:
			blockDuration, durationErr := m.readUInt(element.DataSize)
			if durationErr != nil {
				return errors.Wrap(durationErr, "failed to read block duration element")
			}

			duration = int64(blockDuration)
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	for i := range subtitles {
		if duration >= 0 {
			subtitles[i].Duration = m.scaleTime(float64(duration))
		}
	}
	m.subtitles = append(m.subtitles, subtitles...)

	return nil
}

func (m *MatroskaFile) readCluster(clusterElement Element, options MatroskaFileOptions) error {
	clusterTimeCode := int64(0)
	element := EmptyElement
	var elementErr error

	for m.file.Position() < clusterElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read cluster element")
		}

		if element == InvalidElement {
			return nil
		}

		switch element.Id {
		case ElementTimecode:
			timeCode, timeCodeErr := m.readUInt(element.DataSize)
			if timeCodeErr != nil {
				return errors.Wrap(timeCodeErr, "failed to read cluster time code")
			}

			clusterTimeCode = int64(timeCode)
		case ElementBlockGroup:
			blockGroupErr := m.readBlockGroupElement(element, clusterTimeCode, options)
			if blockGroupErr != nil {
				return errors.Wrap(blockGroupErr, "failed to read block group element")
			}
		case ElementSimpleBlock:
			subtitles, subtitleErr := m.readSubtitleBlock(element, clusterTimeCode, options)
			if subtitleErr != nil {
				return errors.Wrap(subtitleErr, "failed to read simple block")
			}

			m.subtitles = append(m.subtitles, subtitles...)
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}

func (m *MatroskaFile) readContentCompressionElement(compressionElement Element, track *MatroskaTrackInfo) error {
	element := EmptyElement
	var elementErr error

	for m.file.Position() < compressionElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read content compression element")
		}

		switch element.Id {
		case ElementContentCompAlgo:
			algorithm, algorithmErr := m.readUInt(element.DataSize)
			if algorithmErr != nil {
				return errors.Wrap(algorithmErr, "failed to read content compression algorithm")
			}

			track.ContentCompressionAlgorithm = int(algorithm)
		case ElementContentCompSettings:
			settings, settingsErr := m.readBytes(element.DataSize)
			if settingsErr != nil {
				return errors.Wrap(settingsErr, "failed to read content compression settings")
			}

			track.ContentCompressionSettings = settings
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}

func (m *MatroskaFile) readContentEncodingElement(contentEncodingElement Element, track *MatroskaTrackInfo) error {
	element := EmptyElement
	var elementErr error

	track.HasContentEncoding = true
	track.ContentEncodingScope = ContentEncodingScopeTracks
	track.ContentEncodingType = ContentEncodingTypeCompression

	for m.file.Position() < contentEncodingElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read content encoding element")
		}

		switch element.Id {
		case ElementContentEncodingScope:
			scope, scopeErr := m.readUInt(element.DataSize)
			if scopeErr != nil {
				return errors.Wrap(scopeErr, "failed to read content encoding scope")
			}

			track.ContentEncodingScope = uint(scope)
		case ElementContentEncodingType:
			encodingType, encodingTypeErr := m.readUInt(element.DataSize)
			if encodingTypeErr != nil {
				return errors.Wrap(encodingTypeErr, "failed to read content encoding type")
			}

			track.ContentEncodingType = int(encodingType)
		case ElementContentCompression:
			if compressionErr := m.readContentCompressionElement(element, track); compressionErr != nil {
				return compressionErr
			}
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}

func (m *MatroskaFile) readContentEncodingsElement(contentEncodingsElement Element, track *MatroskaTrackInfo) error {
	element := EmptyElement
	var elementErr error

	for m.file.Position() < contentEncodingsElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read content encodings element")
		}

		//only the first encoding is applied
		if element.Id == ElementContentEncoding && !track.HasContentEncoding {
			if encodingErr := m.readContentEncodingElement(element, track); encodingErr != nil {
				return encodingErr
			}
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}

func (m *MatroskaFile) readElement() (Element, error) {
	idElement, idErr := m.readVariableLengthUInt(false)
	if idErr != nil {
		return InvalidElement, errors.Wrap(idErr, "failed to read Id element from Matroska file")
	}

	id := ElementId(idElement)
	if id == ElementNone {
		return InvalidElement, nil
	}

	sizeElement, sizeErr := m.readVariableLengthUIntDefault()
	if sizeErr != nil {
		return InvalidElement, errors.Wrap(sizeErr, "failed to read size element from Matroska file")
	}

	size := int64(sizeElement)
	if sizeElement > math.MaxInt64/2 {
		size = m.file.Size() - m.file.Position()
	}

	return *NewElement(id, m.file.Position(), size), nil
}

// readFloat reads an EBML float, which is big endian and 4 or 8 bytes long.
func (m *MatroskaFile) readFloat(length int64) (float64, error) {
	data, readErr := m.readBytes(length)
	if readErr != nil {
		return 0, errors.Wrap(readErr, "failed to read float from Matroska file")
	}

	switch length {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(data))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
	case 0:
		return 0, nil
	default:
		return 0, errors.Newf("invalid float length %d", length)
	}
}

func (m *MatroskaFile) readInfoElement(infoElement Element) error {
	element := EmptyElement
	var elementErr error
	var rawDuration float64

	for m.file.Position() < infoElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read info element")
		}

		switch element.Id {
		case ElementTimecodeScale:
			timecodeScale, timecodeScaleErr := m.readUInt(element.DataSize)
			if timecodeScaleErr != nil {
				return errors.Wrap(timecodeScaleErr, "failed to read timecode scale")
			}

			if timecodeScale > 0 {
				m.TimeCodeScale = int64(timecodeScale)
			}
		case ElementDuration:
			duration, durationErr := m.readFloat(element.DataSize)
			if durationErr != nil {
				return errors.Wrap(durationErr, "failed to read duration")
			}

			rawDuration = duration
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	//the scale may follow the duration
	m.Duration = m.scaleTime(rawDuration)

	return nil
}

func (m *MatroskaFile) readSegmentCluster(options MatroskaFileOptions, progressCallback func(int64, int64)) error {
	//go to segment
	_, seekErr := m.file.Seek(m.SegmentElement.DataPosition, io.SeekStart)
	if seekErr != nil {
		return errors.Wrap(seekErr, "failed to advance to segment cluster")
	}

	for m.file.Position() < m.SegmentElement.EndPosition() {
		beforeReadElementIdPosition := m.file.Position()
		rawElementId, elementIdErr := m.readVariableLengthUInt(false)
		if elementIdErr != nil {
			return errors.Wrap(elementIdErr, "failed to read segment cluster element")
		}

		elementId := ElementId(rawElementId)
		if elementId == ElementNone && beforeReadElementIdPosition+1000 < m.file.Size() {
			//damaged: search for the start of the next cluster byte by byte
			errorCount := 0
			for elementId != ElementCluster && beforeReadElementIdPosition+1000 < m.file.Size() {
				errorCount++
				if errorCount > maxClusterSearch {
					return errors.New("maximum error count reached while searching for segment cluster")
				}

				beforeReadElementIdPosition++
				if _, seekErr = m.file.Seek(beforeReadElementIdPosition, io.SeekStart); seekErr != nil {
					return errors.Wrap(seekErr, "failed to advance while searching for segment cluster")
				}

				rawElementId, elementIdErr = m.readVariableLengthUInt(false)
				if elementIdErr != nil {
					return errors.Wrap(elementIdErr, "failed to read element while searching for segment cluster")
				}

				elementId = ElementId(rawElementId)
			}
		} else if elementId == ElementNone {
			return nil
		}

		size, sizeErr := m.readVariableLengthUIntDefault()
		if sizeErr != nil {
			return errors.Wrap(sizeErr, "failed to read size for segment cluster")
		}

		element := NewElement(elementId, m.file.Position(), int64(size))
		if size > math.MaxInt64/2 || element.EndPosition() > m.SegmentElement.EndPosition() {
			element.DataSize = m.SegmentElement.EndPosition() - element.DataPosition
		}

		if element.Id == ElementCluster {
			if clusterErr := m.readCluster(*element, options); clusterErr != nil {
				return errors.Wrapf(clusterErr, "failed to read cluster at %d", element.DataPosition)
			}
		}

		if skipErr := m.skip(*element); skipErr != nil {
			return skipErr
		}

		if progressCallback != nil {
			progressCallback(element.EndPosition(), m.file.Size())
		}
	}

	return nil
}

func (m *MatroskaFile) readSegmentInfoAndTracks() error {
	//go to segment
	_, seekErr := m.file.Seek(m.SegmentElement.DataPosition, io.SeekStart)
	if seekErr != nil {
		return errors.Wrap(seekErr, "failed to advance to segment element")
	}

	element := EmptyElement
	var elementErr error

	for m.file.Position() < m.SegmentElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read segment element")
		}

		switch element.Id {
		case ElementInfo:
			if infoErr := m.readInfoElement(element); infoErr != nil {
				return errors.Wrap(infoErr, "failed to read info element")
			}
		case ElementTracks:
			if tracksErr := m.readTracksElement(element); tracksErr != nil {
				return errors.Wrap(tracksErr, "failed to read tracks element")
			}
		case ElementCluster:
			//info and tracks precede the first cluster
			return nil
		}

		if element == InvalidElement {
			break
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}

func (m *MatroskaFile) readString(length int64) (string, error) {
	data, readErr := m.readBytes(length)
	if readErr != nil {
		return "", errors.Wrap(readErr, "failed to read string from Matroska file")
	}

	//strings are zero padded
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}

	return string(data), nil
}

// readSubtitleBlock reads a Block or SimpleBlock and returns one subtitle per laced
// frame. Blocks of other tracks are skipped.
func (m *MatroskaFile) readSubtitleBlock(blockElement Element, clusterTimeCode int64, options MatroskaFileOptions) ([]MatroskaSubtitle, error) {
	trackNumber, trackNumberErr := m.readVariableLengthUIntDefault()
	if trackNumberErr != nil {
		return nil, errors.Wrap(trackNumberErr, "failed to read block track number")
	}

	if options.SubtitleTrack != trackNumber {
		return nil, nil
	}

	data, readErr := m.readBytes(blockElement.EndPosition() - m.file.Position())
	if readErr != nil {
		return nil, errors.Wrap(readErr, "failed to read block data")
	}

	timeCode, frames, parseErr := parseBlockBody(data)
	if parseErr != nil {
		return nil, errors.Wrapf(parseErr, "failed to parse block of track %d", trackNumber)
	}

	start := m.scaleTime(float64(clusterTimeCode + int64(timeCode)))
	subtitles := make([]MatroskaSubtitle, 0, len(frames))
	for _, frame := range frames {
		subtitles = append(subtitles, *NewMatroskaSubtitle(frame, start))
	}

	return subtitles, nil
}

func (m *MatroskaFile) readTrackEntryElement(trackEntryElement Element) (*MatroskaTrackInfo, error) {
	element := EmptyElement
	var elementErr error
	track := &MatroskaTrackInfo{IsDefault: true, Language: "eng"}

	for m.file.Position() < trackEntryElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return nil, errors.Wrap(elementErr, "failed to read track entry element")
		}

		switch element.Id {
		case ElementDefaultDuration:
			defaultDuration, defaultDurationErr := m.readUInt(element.DataSize)
			if defaultDurationErr != nil {
				return nil, errors.Wrap(defaultDurationErr, "failed to read track default duration")
			}

			track.DefaultDuration = int(defaultDuration)
		case ElementVideo:
			if videoErr := m.readVideoElement(element); videoErr != nil {
				return nil, errors.Wrap(videoErr, "failed to read track video")
			}

			track.IsVideo = true
		case ElementAudio:
			track.IsAudio = true
		case ElementTrackNumber:
			trackNumber, trackNumberErr := m.readUInt(element.DataSize)
			if trackNumberErr != nil {
				return nil, errors.Wrap(trackNumberErr, "failed to read track number")
			}

			track.TrackNumber = int(trackNumber)
		case ElementTrackUid:
			uid, uidErr := m.readUInt(element.DataSize)
			if uidErr != nil {
				return nil, errors.Wrap(uidErr, "failed to read track uid")
			}

			track.Uid = uid
		case ElementName:
			name, nameErr := m.readString(element.DataSize)
			if nameErr != nil {
				return nil, errors.Wrap(nameErr, "failed to read track name")
			}

			track.Name = name
		case ElementLanguage:
			language, languageErr := m.readString(element.DataSize)
			if languageErr != nil {
				return nil, errors.Wrap(languageErr, "failed to read track language")
			}

			track.Language = language
		case ElementCodecId:
			codecId, codecIdErr := m.readString(element.DataSize)
			if codecIdErr != nil {
				return nil, errors.Wrap(codecIdErr, "failed to read track codec id")
			}

			track.CodecId = codecId
		case ElementTrackType:
			trackType, trackTypeErr := m.readUInt(element.DataSize)
			if trackTypeErr != nil {
				return nil, errors.Wrap(trackTypeErr, "failed to read track type")
			}

			switch trackType {
			case TrackTypeVideo:
				track.IsVideo = true
			case TrackTypeAudio:
				track.IsAudio = true
			case TrackTypeSubtitle:
				track.IsSubtitle = true
			}
		case ElementCodecPrivate:
			codecPrivate, codecPrivateErr := m.readBytes(element.DataSize)
			if codecPrivateErr != nil {
				return nil, errors.Wrap(codecPrivateErr, "failed to read track private codec")
			}

			track.CodecPrivate = codecPrivate
		case ElementContentEncodings:
			if encodingsErr := m.readContentEncodingsElement(element, track); encodingsErr != nil {
				return nil, errors.Wrap(encodingsErr, "failed to read track content encoding")
			}
		case ElementFlagDefault:
			flagDefault, flagDefaultErr := m.readUInt(element.DataSize)
			if flagDefaultErr != nil {
				return nil, errors.Wrap(flagDefaultErr, "failed to read track 'default' flag")
			}

			track.IsDefault = flagDefault == 1
		case ElementFlagForced:
			flagForced, flagForcedErr := m.readUInt(element.DataSize)
			if flagForcedErr != nil {
				return nil, errors.Wrap(flagForcedErr, "failed to read track 'forced' flag")
			}

			track.IsForced = flagForced == 1
		}

		if skipErr := m.skip(element); skipErr != nil {
			return nil, skipErr
		}
	}

	if track.IsVideo {
		if track.DefaultDuration > 0 {
			m.FrameRate = 1.0 / (float64(track.DefaultDuration) / 1000000000.0)
		}

		m.VideoCodecId = track.CodecId
	}

	return track, nil
}

func (m *MatroskaFile) readTracksElement(tracksElement Element) error {
	m.tracks = []MatroskaTrackInfo{}

	element := EmptyElement
	var elementErr error

	for m.file.Position() < tracksElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read tracks element")
		}

		if element.Id == ElementTrackEntry {
			track, trackErr := m.readTrackEntryElement(element)
			if trackErr != nil {
				return errors.Wrap(trackErr, "failed to read tracks entry element")
			}

			m.tracks = append(m.tracks, *track)
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}

// readUInt reads a big endian unsigned integer of up to 8 bytes.
func (m *MatroskaFile) readUInt(length int64) (uint64, error) {
	if length > 8 {
		return 0, errors.Newf("invalid unsigned integer length %d", length)
	}

	data, readErr := m.readBytes(length)
	if readErr != nil {
		return 0, errors.Wrap(readErr, "failed to read uint from Matroska file")
	}

	result := uint64(0)
	for _, b := range data {
		result = result<<8 | uint64(b)
	}

	return result, nil
}

// readVariableLengthUInt reads an EBML variable length integer. Element ids keep their
// length marker bit, sizes and track numbers drop it.
func (m *MatroskaFile) readVariableLengthUInt(unsetFirstBit bool) (uint64, error) {
	first, readErr := m.readBytes(1)
	if readErr != nil {
		return 0, errors.Wrap(readErr, "failed to read byte from Matroska file")
	}

	length := vintLength(first[0])
	if length == 0 {
		return 0, nil
	}

	result := uint64(first[0])
	if unsetFirstBit {
		result &= 0xFF >> length
	}

	rest, restErr := m.readBytes(int64(length - 1))
	if restErr != nil {
		return 0, errors.Wrap(restErr, "failed to read variable length integer from Matroska file")
	}

	for _, b := range rest {
		result = result<<8 | uint64(b)
	}

	return result, nil
}

func (m *MatroskaFile) readVariableLengthUIntDefault() (uint64, error) {
	return m.readVariableLengthUInt(true)
}

func (m *MatroskaFile) readVideoElement(videoElement Element) error {
	element := EmptyElement
	var elementErr error

	for m.file.Position() < videoElement.EndPosition() && element != InvalidElement {
		element, elementErr = m.readElement()
		if elementErr != nil {
			return errors.Wrap(elementErr, "failed to read video element")
		}

		switch element.Id {
		case ElementPixelWidth:
			pixelWidth, pixelWidthErr := m.readUInt(element.DataSize)
			if pixelWidthErr != nil {
				return errors.Wrap(pixelWidthErr, "failed to read pixel width")
			}

			m.PixelWidth = int(pixelWidth)
		case ElementPixelHeight:
			pixelHeight, pixelHeightErr := m.readUInt(element.DataSize)
			if pixelHeightErr != nil {
				return errors.Wrap(pixelHeightErr, "failed to read pixel height")
			}

			m.PixelHeight = int(pixelHeight)
		}

		if skipErr := m.skip(element); skipErr != nil {
			return skipErr
		}
	}

	return nil
}
