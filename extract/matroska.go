package extract

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/containers/matroska"
)

// MatroskaExtractor reads PGS tracks straight out of Matroska files.
type MatroskaExtractor struct {
	logger *slog.Logger
}

func NewMatroskaExtractor(logger *slog.Logger) *MatroskaExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &MatroskaExtractor{logger: logger}
}

// SubtitleTracks lists the subtitle tracks of a file in stream index order.
func (m *MatroskaExtractor) SubtitleTracks(path string) ([]matroska.MatroskaTrackInfo, error) {
	file, openErr := matroska.NewMatroskaFile(path)
	if openErr != nil {
		return nil, openErr
	}

	defer file.Close()

	return file.Tracks(true)
}

func (m *MatroskaExtractor) Extract(ctx context.Context, path string, streamIndex int) ([]byte, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	file, openErr := matroska.NewMatroskaFile(path)
	if openErr != nil {
		return nil, openErr
	}

	defer file.Close()

	tracks, tracksErr := file.Tracks(true)
	if tracksErr != nil {
		return nil, errors.Wrapf(tracksErr, "failed to list tracks of %s", path)
	}

	if streamIndex < 0 || streamIndex >= len(tracks) {
		return nil, errors.Wrapf(ErrStreamNotFound, "%s has %d subtitle streams, wanted index %d", path, len(tracks), streamIndex)
	}

	track := tracks[streamIndex]
	if !track.IsPgs() {
		return nil, errors.Wrapf(ErrNotPgs, "stream %d of %s is %s", streamIndex, path, track.CodecId)
	}

	sup, supErr := file.ReadSupTrack(track.TrackNumber, nil)
	if supErr != nil {
		return nil, errors.Wrapf(supErr, "failed to read stream %d of %s", streamIndex, path)
	}

	if sup.TruncatedBlocks > 0 {
		m.logger.Warn("Truncated PGS blocks in Matroska track",
			slog.String("path", path), slog.Int("track", track.TrackNumber), slog.Int("blocks", sup.TruncatedBlocks))
	}

	m.logger.Debug("Extracted PGS track",
		slog.String("path", path), slog.Int("track", track.TrackNumber), slog.Int("segments", sup.Segments), slog.Int("bytes", len(sup.Data)))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	return sup.Data, nil
}
