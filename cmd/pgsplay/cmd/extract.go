package cmd

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/internal/observability"
	"github.com/spf13/cobra"
)

var (
	extractStream int
	extractOut    string
)

// extractCmd writes one subtitle stream as a .sup file.
var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Write a PGS subtitle stream to a .sup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extractor, err := newExtractor()
		if err != nil {
			return err
		}

		done := observability.TimedOperation(logger, "extract")
		data, err := extractor.Extract(cmd.Context(), args[0], extractStream)
		if err != nil {
			return err
		}
		done()

		if err := os.WriteFile(extractOut, data, 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", extractOut)
		}

		logger.Info("Wrote subtitle stream", slog.String("path", extractOut), slog.Int("bytes", len(data)))

		return nil
	},
}

func init() {
	extractCmd.Flags().IntVarP(&extractStream, "stream", "s", 0, "subtitle stream index")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "output .sup file")
	_ = extractCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(extractCmd)
}
