package matroska

import "fmt"

const (
	ContentEncodingScopeTracks      = 1
	ContentEncodingScopePrivateData = 2

	ContentEncodingTypeCompression = 0

	ContentCompAlgoZlib           = 0
	ContentCompAlgoHeaderStripping = 3

	TrackTypeVideo    = 1
	TrackTypeAudio    = 2
	TrackTypeSubtitle = 17

	// CodecIdPgs is the codec id of Blu-ray presentation graphics subtitle tracks.
	CodecIdPgs = "S_HDMV/PGS"
)

type MatroskaTrackInfo struct {
	CodecId                     string
	CodecPrivate                []byte
	ContentCompressionAlgorithm int
	ContentCompressionSettings  []byte
	ContentEncodingScope        uint
	ContentEncodingType         int
	DefaultDuration             int
	HasContentEncoding          bool
	IsAudio                     bool
	IsDefault                   bool
	IsForced                    bool
	IsSubtitle                  bool
	IsVideo                     bool
	Language                    string
	Name                        string
	TrackNumber                 int
	Uid                         uint64
}

func (m *MatroskaTrackInfo) IsPgs() bool {
	return m.IsSubtitle && m.CodecId == CodecIdPgs
}

func (m *MatroskaTrackInfo) String() string {
	return fmt.Sprintf("#%d %s, language: %s, name: %q, default: %v, forced: %v", m.TrackNumber, m.CodecId, m.Language, m.Name, m.IsDefault, m.IsForced)
}
