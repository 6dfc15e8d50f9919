package cmd

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/common"
	"github.com/ristryder/pgsplay/extract"
	"github.com/ristryder/pgsplay/interfaces"
	"github.com/ristryder/pgsplay/internal/observability"
	"github.com/ristryder/pgsplay/render"
	"github.com/spf13/cobra"
)

// overlayFlags are the flags shared by the commands driving a renderer.
type overlayFlags struct {
	devicePixelRatio float64
	duration         string
	stream           int
	video            string
	viewport         string
}

func (o *overlayFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.stream, "stream", "s", 0, "subtitle stream index for containers")
	cmd.Flags().StringVar(&o.viewport, "viewport", "1280x720", "displayed video size, WIDTHxHEIGHT")
	cmd.Flags().StringVar(&o.video, "video", "", "native video size, WIDTHxHEIGHT (default: subtitle screen size)")
	cmd.Flags().Float64Var(&o.devicePixelRatio, "dpr", 1, "device pixel ratio")
	cmd.Flags().StringVar(&o.duration, "duration", "", "media duration, ends the last frame")
}

// newOverlay loads the subtitle stream of input into a renderer following clock.
func (o *overlayFlags) newOverlay(cmd *cobra.Command, input string, clock interfaces.PlaybackClock, onRepaint func(*bluraysup.Frame)) (*render.Renderer, *render.RasterSurface, error) {
	viewportSize, err := parseSize(o.viewport)
	if err != nil {
		return nil, nil, err
	}
	videoSize, err := parseSize(o.video)
	if err != nil {
		return nil, nil, err
	}
	duration, err := parsePosition(o.duration)
	if err != nil {
		return nil, nil, err
	}
	if o.devicePixelRatio <= 0 {
		return nil, nil, errors.Newf("invalid device pixel ratio %v", o.devicePixelRatio)
	}

	extractor, err := newExtractor()
	if err != nil {
		return nil, nil, err
	}

	data, err := extract.Load(cmd.Context(), extractor, input, o.stream)
	if err != nil {
		return nil, nil, err
	}

	displayRect := common.Rect{Height: float64(viewportSize.Height), Width: float64(viewportSize.Width)}
	viewport := render.NewStaticViewport(displayRect, o.devicePixelRatio, videoSize)
	surface := render.NewRasterSurface()
	renderer := render.NewRenderer(clock, viewport, surface, render.Options{
		FrameInterval: appConfig.Render.FrameInterval,
		Logger:        observability.WithComponent(logger, "renderer"),
		OnRepaint:     onRepaint,
		Parser:        newParser(),
		Smoothing:     appConfig.Render.Smoothing,
	})

	if count := renderer.LoadSubtitles(data, duration); count == 0 {
		return nil, nil, errors.Newf("no subtitle frames in %s", input)
	}

	return renderer, surface, nil
}

func writeSurfacePng(surface *render.RasterSurface, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	if err := surface.WritePNG(file); err != nil {
		return err
	}

	return file.Close()
}

var (
	renderAt      string
	renderFlags   overlayFlags
	renderOutPath string
)

// renderCmd paints the overlay for one playback position.
var renderCmd = &cobra.Command{
	Use:   "render INPUT",
	Short: "Paint the subtitle overlay at one playback position into a PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parsePosition(renderAt)
		if err != nil {
			return err
		}

		renderer, surface, err := renderFlags.newOverlay(cmd, args[0], render.NewFixedClock(at), nil)
		if err != nil {
			return err
		}

		renderer.Start()
		defer renderer.Stop()

		if renderer.FindActiveFrame(at) == nil {
			logger.Info("Nothing shown at position", slog.String("at", bluraysup.FormatDuration(at)))
		}

		return writeSurfacePng(surface, renderOutPath)
	},
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVar(&renderAt, "at", "0", "playback position, seconds or a duration")
	renderCmd.Flags().StringVarP(&renderOutPath, "out", "o", "overlay.png", "output PNG")
	rootCmd.AddCommand(renderCmd)
}
