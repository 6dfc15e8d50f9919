package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/internal/observability"
	"github.com/ristryder/pgsplay/render"
	"github.com/spf13/cobra"
)

var (
	playFlags        overlayFlags
	playFrom         string
	playSnapshotsDir string
	playSpeed        float64
)

// playCmd follows a wall clock and reports every repaint until the last frame ends.
var playCmd = &cobra.Command{
	Use:   "play INPUT",
	Short: "Play the subtitle overlay against a wall clock",
	Long: `Play the subtitle overlay against a wall clock, logging each repaint. With
--snapshots the surface is written as a PNG after every repaint. Playback stops after
the last frame ends or on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parsePosition(playFrom)
		if err != nil {
			return err
		}
		if playSpeed <= 0 {
			return errors.Newf("invalid speed %v", playSpeed)
		}

		if playSnapshotsDir != "" {
			if err := os.MkdirAll(playSnapshotsDir, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create %s", playSnapshotsDir)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		clock := render.NewWallClock(from, playSpeed)

		var surface *render.RasterSurface
		var repaints atomic.Int64
		onRepaint := func(frame *bluraysup.Frame) {
			count := repaints.Add(1)
			position := bluraysup.FormatDuration(clock.CurrentTime())
			if frame == nil {
				logger.Info("Cleared overlay", slog.String("at", position))
			} else {
				logger.Info("Showing frame",
					slog.String("at", position),
					slog.String("start", bluraysup.FormatDuration(frame.StartTime)),
					slog.String("end", bluraysup.FormatDuration(frame.EndTime)),
					slog.Int("images", len(frame.Images)),
					slog.Bool("forced", frame.IsForced()))
			}

			if playSnapshotsDir == "" || surface == nil {
				return
			}
			path := filepath.Join(playSnapshotsDir, fmt.Sprintf("repaint_%04d.png", count))
			if err := writeSurfacePng(surface, path); err != nil {
				observability.WithError(logger, err).Warn("Failed to write snapshot", slog.String("path", path))
			}
		}

		renderer, rasterSurface, err := playFlags.newOverlay(cmd, args[0], clock, onRepaint)
		if err != nil {
			return err
		}
		surface = rasterSurface

		end := lastEndTime(renderer.Timeline().Frames())

		renderer.Start()
		defer renderer.Stop()

		waitForPlayback(ctx, clock, end)

		logger.Info("Playback finished",
			slog.String("at", bluraysup.FormatDuration(clock.CurrentTime())), slog.Int64("repaints", repaints.Load()))

		return nil
	},
}

// lastEndTime is the latest finite end time, or bluraysup.Unbounded when there is none.
func lastEndTime(frames []*bluraysup.Frame) time.Duration {
	end := bluraysup.Unbounded
	for _, frame := range frames {
		if frame.EndTime == bluraysup.Unbounded || frame.EndTime == bluraysup.EndUnset {
			continue
		}
		if end == bluraysup.Unbounded || frame.EndTime > end {
			end = frame.EndTime
		}
	}

	return end
}

func waitForPlayback(ctx context.Context, clock *render.WallClock, end time.Duration) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if end != bluraysup.Unbounded && clock.CurrentTime() > end {
				return
			}
		}
	}
}

func init() {
	playFlags.register(playCmd)
	playCmd.Flags().StringVar(&playFrom, "from", "0", "start position, seconds or a duration")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1, "playback speed")
	playCmd.Flags().StringVar(&playSnapshotsDir, "snapshots", "", "directory to write a PNG after every repaint")
	rootCmd.AddCommand(playCmd)
}
