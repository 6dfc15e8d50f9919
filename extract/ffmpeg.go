package extract

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// FFmpegBinaryEnv overrides the ffmpeg binary location.
const FFmpegBinaryEnv = "PGSPLAY_FFMPEG_BINARY"

// FindFFmpeg resolves the ffmpeg binary: the environment override first, then the
// configured name or path, then ffmpeg in PATH.
func FindFFmpeg(configured string) (string, error) {
	candidates := []string{os.Getenv(FFmpegBinaryEnv), configured, "ffmpeg"}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		path, lookErr := exec.LookPath(candidate)
		if lookErr == nil {
			return path, nil
		}
	}

	return "", errors.New("ffmpeg not found, install it or set " + FFmpegBinaryEnv)
}

// FFmpegExtractor copies a subtitle stream out of any container ffmpeg can demux.
type FFmpegExtractor struct {
	binary string
	logger *slog.Logger
}

func NewFFmpegExtractor(binary string, logger *slog.Logger) *FFmpegExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &FFmpegExtractor{binary: binary, logger: logger}
}

func ffmpegArgs(path string, streamIndex int) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-map", "0:s:" + strconv.Itoa(streamIndex),
		"-c:s", "copy",
		"-f", "sup",
		"pipe:1",
	}
}

func (f *FFmpegExtractor) Extract(ctx context.Context, path string, streamIndex int) ([]byte, error) {
	if streamIndex < 0 {
		return nil, errors.Wrapf(ErrStreamNotFound, "invalid stream index %d", streamIndex)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binary, ffmpegArgs(path, streamIndex)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	f.logger.Debug("Running ffmpeg", slog.String("binary", f.binary), slog.Any("args", cmd.Args[1:]))

	if runErr := cmd.Run(); runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		message := strings.TrimSpace(stderr.String())
		if strings.Contains(message, "matches no streams") {
			return nil, errors.Wrapf(ErrStreamNotFound, "%s: %s", path, message)
		}

		return nil, errors.Wrapf(runErr, "ffmpeg failed on %s: %s", path, message)
	}

	if stdout.Len() == 0 {
		return nil, errors.Wrapf(ErrStreamNotFound, "ffmpeg produced no data for stream %d of %s", streamIndex, path)
	}

	return stdout.Bytes(), nil
}
