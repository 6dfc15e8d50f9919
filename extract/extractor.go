// Package extract pulls raw PGS subtitle streams out of media files.
package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/common"
)

var (
	// ErrStreamNotFound is returned when a file has no subtitle stream at the index.
	ErrStreamNotFound = errors.New("subtitle stream not found")
	// ErrNotPgs is returned when the selected stream is not a PGS stream.
	ErrNotPgs = errors.New("subtitle stream is not PGS")
)

// Extractor returns the raw PGS bitstream of the streamIndex-th subtitle stream of a
// file, counted from zero over subtitle streams only.
type Extractor interface {
	Extract(ctx context.Context, path string, streamIndex int) ([]byte, error)
}

// IsSupFile reports whether path names a raw PGS stream rather than a container.
func IsSupFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sup")
}

// Load returns the PGS bitstream of a .sup file as is, or extracts it from a container.
func Load(ctx context.Context, extractor Extractor, path string, streamIndex int) ([]byte, error) {
	if IsSupFile(path) {
		data, readErr := common.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}

		if len(data) > 0 && !bytes.HasPrefix(data, []byte("PG")) {
			return nil, errors.Newf("%s does not start with a PGS segment", path)
		}

		return data, nil
	}

	return extractor.Extract(ctx, path, streamIndex)
}
