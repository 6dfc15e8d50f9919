package extract

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"golang.org/x/sync/errgroup"
)

// Track is one decoded subtitle stream.
type Track struct {
	Frames      []*bluraysup.Frame
	Issues      []error
	StreamIndex int
}

// DecodeTracks extracts and parses several subtitle streams of a file concurrently.
// Results follow the order of streamIndexes. The first failure cancels the rest.
func DecodeTracks(ctx context.Context, extractor Extractor, parser *bluraysup.Parser, path string, streamIndexes []int, duration time.Duration) ([]Track, error) {
	tracks := make([]Track, len(streamIndexes))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, streamIndex := range streamIndexes {
		group.Go(func() error {
			data, extractErr := Load(groupCtx, extractor, path, streamIndex)
			if extractErr != nil {
				return errors.Wrapf(extractErr, "stream %d", streamIndex)
			}

			result := parser.Parse(data)
			tracks[i] = Track{
				Frames:      bluraysup.ResolveEndTimes(result.Frames, duration),
				Issues:      result.Issues,
				StreamIndex: streamIndex,
			}

			return nil
		})
	}

	if waitErr := group.Wait(); waitErr != nil {
		return nil, waitErr
	}

	return tracks, nil
}
