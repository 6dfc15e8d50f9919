// Package cmd implements the CLI commands for pgsplay.
package cmd

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/extract"
	"github.com/ristryder/pgsplay/internal/config"
	"github.com/ristryder/pgsplay/internal/observability"
	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the config file path from CLI flag.
	cfgFile string

	appConfig *config.Config
	logger    = observability.Discard()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pgsplay",
	Short: "Decode and render Blu-ray PGS subtitles",
	Long: `pgsplay decodes Presentation Graphic Stream subtitles, the bitmap subtitles of
Blu-ray discs, from .sup files or Matroska tracks. It lists and exports the decoded
frames and paints the subtitle overlay for any playback position.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return errors.Wrap(err, "executing root command")
	}
	return nil
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pgsplay.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("method", config.ExtractMethodNative, "subtitle extraction method (native, ffmpeg)")
	rootCmd.PersistentFlags().String("ffmpeg", "", "ffmpeg binary for the ffmpeg extraction method")
}

// initConfig loads the configuration and installs the logger it describes.
func initConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	return nil
}

func newParser() *bluraysup.Parser {
	return bluraysup.NewParser(bluraysup.Options{
		Logger:   observability.WithComponent(logger, "parser"),
		MaxLines: appConfig.Decoder.MaxLines,
		MaxWidth: appConfig.Decoder.MaxWidth,
	})
}

func newExtractor() (extract.Extractor, error) {
	extractorLogger := observability.WithComponent(logger, "extract")

	switch appConfig.Extract.Method {
	case config.ExtractMethodFFmpeg:
		binary, findErr := extract.FindFFmpeg(appConfig.Extract.FFmpegBinary)
		if findErr != nil {
			return nil, findErr
		}

		return extract.NewFFmpegExtractor(binary, extractorLogger), nil
	default:
		return extract.NewMatroskaExtractor(extractorLogger), nil
	}
}
