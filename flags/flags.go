// Package flags implements command-line flags for mediarecorder.
//
// The design idea is taken from [upspin.io/flags], but most of the code is
// modified. This package uses a slightly modified version of [RegisterInto] and
// the internal [flags]-map. See [Upspin LICENSE] for upspins copyright and
// license information.
//
// [upspin.io/flags]: https://github.com/upspin/upspin/tree/334f107fe3d98225d7adfbb35b74e066fbca9875/flags
// [Upspin LICENSE]: https://github.com/upspin/upspin/blob/334f107fe3d98225d7adfbb35b74e066fbca9875/LICENSE
package flags

import (
	"flag"
	"fmt"
	"time"

	"github.com/mengelbart/mediarecorder"
	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/capture/devices"
)

type FlagName string

// flag keys
const (
	ConfigFlag   FlagName = "config"
	HTTPAddrFlag FlagName = "http-address"

	MimeTypeFlag     FlagName = "mime-type"
	VideoBitrateFlag FlagName = "video-bitrate"
	AudioBitrateFlag FlagName = "audio-bitrate"
	TimesliceFlag    FlagName = "timeslice"
	BlockSizeFlag    FlagName = "block-size"

	VideoFlag      FlagName = "video"
	AudioFlag      FlagName = "audio"
	WidthFlag      FlagName = "width"
	HeightFlag     FlagName = "height"
	FrameRateFlag  FlagName = "frame-rate"
	SampleRateFlag FlagName = "sample-rate"
	ChannelsFlag   FlagName = "channels"

	OutputFlag     FlagName = "output"
	OutputDirFlag  FlagName = "output-dir"
	DurationFlag   FlagName = "duration"
	PauseAfterFlag FlagName = "pause-after"
	PauseForFlag   FlagName = "pause-for"

	DotFileFlag      FlagName = "dot-file"
	TraceEventsFlag  FlagName = "trace-events"
	StartTimeoutFlag FlagName = "start-timeout"
)

var defaultDevices = devices.DefaultConfig()

// Flag vars
var (
	// Config is a YAML file with defaults for all other flags
	Config = ""

	// HTTP Server
	HTTPAddr = "127.0.0.1:8080"

	MimeType     = mediarecorder.DefaultMimeType
	VideoBitrate = mediarecorder.HighVideoBitsPerSecond
	AudioBitrate = mediarecorder.HighAudioBitsPerSecond
	Timeslice    = time.Duration(0)
	BlockSize    = uint(capture.DefaultBlockSize)

	// Capture devices
	Video      = defaultDevices.Video
	Audio      = defaultDevices.Audio
	Width      = uint(defaultDevices.Width)
	Height     = uint(defaultDevices.Height)
	FrameRate  = uint(defaultDevices.FrameRate)
	SampleRate = uint(defaultDevices.SampleRate)
	Channels   = uint(defaultDevices.Channels)

	Output     = "recording"
	OutputDir  = "recordings"
	Duration   = 10 * time.Second
	PauseAfter = time.Duration(0)
	PauseFor   = time.Duration(0)

	DotFile      = ""
	TraceEvents  = false
	StartTimeout = 10 * time.Second
)

type flagVar func(*flag.FlagSet)

func stringVar(p *string, name FlagName, defaultValue *string, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.StringVar(p, string(name), *defaultValue, usage)
	}
}

func uintVar(p *uint, name FlagName, defaultValue *uint, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.UintVar(p, string(name), *defaultValue, usage)
	}
}

func boolVar(p *bool, name FlagName, defaultValue *bool, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.BoolVar(p, string(name), *defaultValue, usage)
	}
}

func durationVar(p *time.Duration, name FlagName, defaultValue *time.Duration, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.DurationVar(p, string(name), *defaultValue, usage)
	}
}

var flags = map[FlagName]flagVar{
	ConfigFlag:   stringVar(&Config, ConfigFlag, &Config, "YAML config file, explicitly set flags take precedence"),
	HTTPAddrFlag: stringVar(&HTTPAddr, HTTPAddrFlag, &HTTPAddr, "HTTP Server address"),

	// Recorder flags
	MimeTypeFlag:     stringVar(&MimeType, MimeTypeFlag, &MimeType, "Mime type selecting container and codecs, e.g. 'video/webm; codecs=vp9,opus'"),
	VideoBitrateFlag: uintVar(&VideoBitrate, VideoBitrateFlag, &VideoBitrate, "Video target bitrate in bits per second"),
	AudioBitrateFlag: uintVar(&AudioBitrate, AudioBitrateFlag, &AudioBitrate, "Audio target bitrate in bits per second"),
	TimesliceFlag:    durationVar(&Timeslice, TimesliceFlag, &Timeslice, "Interval of intermediate dataavailable events, 0 disables them"),
	BlockSizeFlag:    uintVar(&BlockSize, BlockSizeFlag, &BlockSize, "Audio samples per channel processed at once"),

	// Device flags
	VideoFlag:      boolVar(&Video, VideoFlag, &Video, "Capture video from a camera"),
	AudioFlag:      boolVar(&Audio, AudioFlag, &Audio, "Capture audio from a microphone"),
	WidthFlag:      uintVar(&Width, WidthFlag, &Width, "Requested video width"),
	HeightFlag:     uintVar(&Height, HeightFlag, &Height, "Requested video height"),
	FrameRateFlag:  uintVar(&FrameRate, FrameRateFlag, &FrameRate, "Requested video frame rate"),
	SampleRateFlag: uintVar(&SampleRate, SampleRateFlag, &SampleRate, "Requested audio sample rate"),
	ChannelsFlag:   uintVar(&Channels, ChannelsFlag, &Channels, "Requested audio channel count"),

	// Output flags
	OutputFlag:     stringVar(&Output, OutputFlag, &Output, "Output file, the container extension is added if missing"),
	OutputDirFlag:  stringVar(&OutputDir, OutputDirFlag, &OutputDir, "Directory for recordings made through the HTTP API"),
	DurationFlag:   durationVar(&Duration, DurationFlag, &Duration, "Recording duration, 0 records until interrupted"),
	PauseAfterFlag: durationVar(&PauseAfter, PauseAfterFlag, &PauseAfter, "Pause the recording after this duration, 0 never pauses"),
	PauseForFlag:   durationVar(&PauseFor, PauseForFlag, &PauseFor, "How long to stay paused"),

	// tracing flags
	DotFileFlag:      stringVar(&DotFile, DotFileFlag, &DotFile, "Write the GStreamer pipeline graph to this dot file name in GST_DEBUG_DUMP_DOT_DIR"),
	TraceEventsFlag:  boolVar(&TraceEvents, TraceEventsFlag, &TraceEvents, "Log all recorder events"),
	StartTimeoutFlag: durationVar(&StartTimeout, StartTimeoutFlag, &StartTimeout, "How long to wait for capture devices when starting"),
}

func RegisterInto(fs *flag.FlagSet, names ...FlagName) {
	if len(names) == 0 {
		for _, f := range flags {
			f(fs)
		}
	} else {
		for _, n := range names {
			f, ok := flags[n]
			if !ok {
				panic(fmt.Sprintf("unknown flag: %q", n))
			}
			f(fs)
		}
	}
}

// SetDefaults assigns values to the registered flags of fs that were not
// set on the command line. Values for flags fs does not know are ignored.
func SetDefaults(fs *flag.FlagSet, values map[FlagName]string) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	for name, value := range values {
		if set[string(name)] || fs.Lookup(string(name)) == nil {
			continue
		}
		if err := fs.Set(string(name), value); err != nil {
			return fmt.Errorf("invalid value %q for flag %v: %w", value, name, err)
		}
	}
	return nil
}

// DeviceConfig returns the capture device configuration selected by the
// device flags.
func DeviceConfig() devices.Config {
	return devices.Config{
		Video:      Video,
		Audio:      Audio,
		Width:      int(Width),
		Height:     int(Height),
		FrameRate:  int(FrameRate),
		SampleRate: int(SampleRate),
		Channels:   int(Channels),
	}
}

// RecorderOptions returns the recorder options selected by the recorder
// flags.
func RecorderOptions() []mediarecorder.Option {
	return []mediarecorder.Option{
		mediarecorder.MimeType(MimeType),
		mediarecorder.VideoBitsPerSecond(VideoBitrate),
		mediarecorder.AudioBitsPerSecond(AudioBitrate),
		mediarecorder.WithBlockSize(int(BlockSize)),
	}
}
