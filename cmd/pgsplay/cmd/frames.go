package cmd

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/extract"
	"github.com/ristryder/pgsplay/interfaces"
	"github.com/spf13/cobra"
)

var (
	framesDuration string
	framesPngDir   string
	framesStream   int
)

// framesCmd lists the decoded frames of a subtitle stream.
var framesCmd = &cobra.Command{
	Use:   "frames INPUT",
	Short: "Decode a subtitle stream and list its frames",
	Long: `Decode a subtitle stream and list its frames. INPUT is a .sup file or a container
holding the stream. With --png every frame with content is written as a PNG of the
full subtitle screen.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, err := parsePosition(framesDuration)
		if err != nil {
			return err
		}

		extractor, err := newExtractor()
		if err != nil {
			return err
		}

		data, err := extract.Load(cmd.Context(), extractor, args[0], framesStream)
		if err != nil {
			return err
		}

		result := newParser().Parse(data)
		frames := bluraysup.ResolveEndTimes(result.Frames, duration)

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "#\tSTART\tEND\tSTATE\tIMAGES\tFORCED\tSCREEN")
		for index, frame := range frames {
			fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%d\t%v\t%s\n",
				index, bluraysup.FormatDuration(frame.StartTime), bluraysup.FormatDuration(frame.EndTime),
				frame.CompositionState, len(frame.Images), frame.IsForced(), frame.Size)
		}
		if err := writer.Flush(); err != nil {
			return err
		}

		for _, issue := range result.Issues {
			logger.Warn("Stream issue", slog.Any("error", issue))
		}
		logger.Info("Decoded subtitle stream",
			slog.Int("frames", len(frames)), slog.Int("segments", result.Segments),
			slog.Int("issues", len(result.Issues)), slog.Int("skipped_bytes", result.SkippedBytes))

		if framesPngDir == "" {
			return nil
		}

		if err := os.MkdirAll(framesPngDir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", framesPngDir)
		}

		for index, frame := range frames {
			if frame.IsClear() {
				continue
			}

			path := filepath.Join(framesPngDir, fmt.Sprintf("frame_%04d.png", index))
			if err := writeParagraphPng(path, frame); err != nil {
				return err
			}
		}

		return nil
	},
}

func writeParagraphPng(path string, paragraph interfaces.BinaryParagraphWithPosition) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	if err := png.Encode(file, paragraph.GetBitmap()); err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}

	logger.Debug("Wrote frame",
		slog.String("path", path),
		slog.String("start", bluraysup.FormatDuration(paragraph.StartTimeCode())),
		slog.String("end", bluraysup.FormatDuration(paragraph.EndTimeCode())),
		slog.String("screen", paragraph.ScreenSize().String()),
		slog.Bool("forced", paragraph.IsForced()))

	return file.Close()
}

func init() {
	framesCmd.Flags().IntVarP(&framesStream, "stream", "s", 0, "subtitle stream index for containers")
	framesCmd.Flags().StringVar(&framesPngDir, "png", "", "directory to write frame PNGs to")
	framesCmd.Flags().StringVar(&framesDuration, "duration", "", "media duration, ends the last frame")
	rootCmd.AddCommand(framesCmd)
}
