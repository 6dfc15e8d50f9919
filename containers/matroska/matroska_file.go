package matroska

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/common"
)

// DefaultTimeCodeScale is the tick length in nanoseconds when the file declares none.
const DefaultTimeCodeScale = 1000000

type MatroskaFileOptions struct {
	SubtitleTrack uint64
}

// MatroskaFile reads track information and subtitle blocks from a Matroska or WebM file.
// It is not safe for concurrent use.
type MatroskaFile struct {
	Duration       time.Duration
	FrameRate      float64
	IsValid        bool
	Path           string
	PixelHeight    int
	PixelWidth     int
	SegmentElement *Element
	TimeCodeScale  int64
	VideoCodecId   string

	file      *common.FileStream
	isOpen    bool
	subtitles []MatroskaSubtitle
	tracks    []MatroskaTrackInfo
}

// scaleTime converts a count of timecode ticks into a duration.
func (m *MatroskaFile) scaleTime(ticks float64) time.Duration {
	return time.Duration(ticks * float64(m.TimeCodeScale))
}

func (m *MatroskaFile) Close() error {
	if !m.isOpen {
		return nil
	}

	m.Duration = 0
	m.FrameRate = -1
	m.isOpen = false
	m.IsValid = false
	m.PixelHeight = 0
	m.PixelWidth = 0
	m.SegmentElement = nil
	m.subtitles = nil
	m.TimeCodeScale = DefaultTimeCodeScale
	m.tracks = nil
	m.VideoCodecId = ""

	return m.file.Close()
}

func NewMatroskaFile(path string) (*MatroskaFile, error) {
	file, openErr := common.NewFileStream(path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "failed to open Matroska file %s", path)
	}

	matroskaFile := &MatroskaFile{file: file, isOpen: true, IsValid: false, Path: path, TimeCodeScale: DefaultTimeCodeScale}

	headerElement, headerErr := matroskaFile.readElement()
	if headerErr != nil || headerElement == InvalidElement || headerElement.Id != ElementEbml {
		file.Close()

		return nil, errors.Newf("%s is not an EBML file", path)
	}

	if _, seekErr := file.Seek(headerElement.DataSize, io.SeekCurrent); seekErr != nil {
		file.Close()

		return nil, errors.Wrapf(seekErr, "failed to seek while opening Matroska file %s", path)
	}

	segmentElement, segmentErr := matroskaFile.readElement()
	if segmentErr != nil || segmentElement == InvalidElement || segmentElement.Id != ElementSegment {
		file.Close()

		return nil, errors.Newf("failed to read segment of Matroska file %s", path)
	}

	//a truncated file or an unknown size segment runs to the end of the file
	if segmentElement.EndPosition() > file.Size() || segmentElement.DataSize < 0 {
		segmentElement.DataSize = file.Size() - segmentElement.DataPosition
	}

	matroskaFile.IsValid = true
	matroskaFile.SegmentElement = &segmentElement

	return matroskaFile, nil
}

func (m *MatroskaFile) String() string {
	return fmt.Sprintf("Duration: %v, FrameRate: %v, Video: %s %dx%d", m.Duration, m.FrameRate, m.VideoCodecId, m.PixelWidth, m.PixelHeight)
}

// Subtitle reads every block of the given track number in file order.
func (m *MatroskaFile) Subtitle(trackNumber uint64, progressCallback func(int64, int64)) ([]MatroskaSubtitle, error) {
	m.subtitles = nil

	matroskaFileOptions := MatroskaFileOptions{SubtitleTrack: trackNumber}

	readSegmentClusterErr := m.readSegmentCluster(matroskaFileOptions, progressCallback)
	if readSegmentClusterErr != nil {
		return nil, errors.Wrap(readSegmentClusterErr, "failed to read subtitles")
	}

	return m.subtitles, nil
}

func (m *MatroskaFile) Tracks(subtitleOnly bool) ([]MatroskaTrackInfo, error) {
	segmentInfoAndTracksErr := m.readSegmentInfoAndTracks()
	if segmentInfoAndTracksErr != nil {
		return nil, errors.Wrap(segmentInfoAndTracksErr, "failed to read tracks")
	}

	if m.tracks == nil {
		return []MatroskaTrackInfo{}, nil
	}

	if subtitleOnly {
		return slices.Collect(func(yield func(MatroskaTrackInfo) bool) {
			for _, track := range m.tracks {
				if track.IsSubtitle {
					if !yield(track) {
						return
					}
				}
			}
		}), nil
	}

	return m.tracks, nil
}

// PgsTracks lists the Blu-ray subtitle tracks in file order.
func (m *MatroskaFile) PgsTracks() ([]MatroskaTrackInfo, error) {
	subtitleTracks, tracksErr := m.Tracks(true)
	if tracksErr != nil {
		return nil, tracksErr
	}

	return slices.DeleteFunc(subtitleTracks, func(track MatroskaTrackInfo) bool {
		return !track.IsPgs()
	}), nil
}
