package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/ristryder/pgsplay/extract"
	"github.com/spf13/cobra"
)

// tracksCmd lists the subtitle tracks of a Matroska file.
var tracksCmd = &cobra.Command{
	Use:   "tracks FILE",
	Short: "List the subtitle tracks of a Matroska file",
	Long: `List the subtitle tracks of a Matroska file. The INDEX column is the stream
index the other commands take with --stream.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks, err := extract.NewMatroskaExtractor(logger).SubtitleTracks(args[0])
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "INDEX\tTRACK\tCODEC\tLANGUAGE\tNAME\tDEFAULT\tFORCED\tPGS")
		for index, track := range tracks {
			fmt.Fprintf(writer, "%d\t%d\t%s\t%s\t%s\t%v\t%v\t%v\n",
				index, track.TrackNumber, track.CodecId, track.Language, track.Name, track.IsDefault, track.IsForced, track.IsPgs())
		}

		return writer.Flush()
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd)
}
