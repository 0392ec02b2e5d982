package subcmd

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mengelbart/mediarecorder"
	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/config"
	"github.com/mengelbart/mediarecorder/flags"
	"github.com/mengelbart/mediarecorder/gstreamer"
	"github.com/mengelbart/mediarecorder/logging"
)

// parseFlags parses args into fs and fills flags not given on the command
// line from the config file, if one is set.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown extra arguments: %v\n", fs.Args())
		fs.Usage()
		os.Exit(1)
	}
	if flags.Config == "" {
		return nil
	}
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	return flags.SetDefaults(fs, cfg.Values())
}

// recorderFlags are the flags shared by all commands creating a recorder.
var recorderFlags = []flags.FlagName{
	flags.ConfigFlag,
	flags.MimeTypeFlag,
	flags.VideoBitrateFlag,
	flags.AudioBitrateFlag,
	flags.TimesliceFlag,
	flags.BlockSizeFlag,
	flags.VideoFlag,
	flags.AudioFlag,
	flags.WidthFlag,
	flags.HeightFlag,
	flags.FrameRateFlag,
	flags.SampleRateFlag,
	flags.ChannelsFlag,
	flags.DotFileFlag,
	flags.TraceEventsFlag,
	flags.StartTimeoutFlag,
}

func newRecorder(name string, stream capture.Stream) (*mediarecorder.MediaRecorder, error) {
	if !mediarecorder.IsTypeSupported(flags.MimeType) {
		slog.Warn("mime type is not in the supported list, using closest match", "mime-type", flags.MimeType)
	}
	var engineOpts []gstreamer.EngineOption
	if flags.DotFile != "" {
		engineOpts = append(engineOpts, gstreamer.WithDotFile(flags.DotFile))
	}
	opts := append(flags.RecorderOptions(), mediarecorder.WithLogger(slog.Default().With("recorder", name)))
	r, err := mediarecorder.New(stream, gstreamer.NewEngineFactory(engineOpts...), opts...)
	if err != nil {
		return nil, err
	}
	if flags.TraceEvents {
		logging.NewEventLogger(name, nil).Attach(r)
	}
	return r, nil
}

// outputPath appends the container extension of mimeType unless path
// already has an extension.
func outputPath(path, mimeType string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + mediarecorder.SelectFormat(mimeType).Extension()
}
