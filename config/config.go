// Package config reads recorder settings from a YAML file. Every setting
// mirrors a command-line flag and only fills flags that were not set
// explicitly.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mengelbart/mediarecorder/flags"
)

type Config struct {
	Recorder Recorder `yaml:"recorder"`
	Devices  Devices  `yaml:"devices"`
	Output   Output   `yaml:"output"`
	HTTP     HTTP     `yaml:"http"`
}

type Recorder struct {
	MimeType           string        `yaml:"mime_type"`
	VideoBitsPerSecond uint          `yaml:"video_bits_per_second"`
	AudioBitsPerSecond uint          `yaml:"audio_bits_per_second"`
	Timeslice          time.Duration `yaml:"timeslice"`
	BlockSize          uint          `yaml:"block_size"`
	StartTimeout       time.Duration `yaml:"start_timeout"`
}

type Devices struct {
	Video      *bool `yaml:"video"`
	Audio      *bool `yaml:"audio"`
	Width      uint  `yaml:"width"`
	Height     uint  `yaml:"height"`
	FrameRate  uint  `yaml:"frame_rate"`
	SampleRate uint  `yaml:"sample_rate"`
	Channels   uint  `yaml:"channels"`
}

type Output struct {
	File     string        `yaml:"file"`
	Dir      string        `yaml:"dir"`
	Duration time.Duration `yaml:"duration"`
}

type HTTP struct {
	Address string `yaml:"address"`
}

func (cfg *Config) ReadFrom(r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return int64(len(b)), fmt.Errorf("unable to read: %w", err)
	}
	return int64(len(b)), yaml.Unmarshal(b, cfg)
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &Config{}
	if _, err := cfg.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", path, err)
	}
	return cfg, nil
}

// Values returns the flag values of all settings present in the file.
func (cfg *Config) Values() map[flags.FlagName]string {
	v := map[flags.FlagName]string{}
	setString := func(name flags.FlagName, s string) {
		if s != "" {
			v[name] = s
		}
	}
	setUint := func(name flags.FlagName, u uint) {
		if u != 0 {
			v[name] = strconv.FormatUint(uint64(u), 10)
		}
	}
	setDuration := func(name flags.FlagName, d time.Duration) {
		if d != 0 {
			v[name] = d.String()
		}
	}
	setBool := func(name flags.FlagName, b *bool) {
		if b != nil {
			v[name] = strconv.FormatBool(*b)
		}
	}

	setString(flags.MimeTypeFlag, cfg.Recorder.MimeType)
	setUint(flags.VideoBitrateFlag, cfg.Recorder.VideoBitsPerSecond)
	setUint(flags.AudioBitrateFlag, cfg.Recorder.AudioBitsPerSecond)
	setDuration(flags.TimesliceFlag, cfg.Recorder.Timeslice)
	setUint(flags.BlockSizeFlag, cfg.Recorder.BlockSize)
	setDuration(flags.StartTimeoutFlag, cfg.Recorder.StartTimeout)

	setBool(flags.VideoFlag, cfg.Devices.Video)
	setBool(flags.AudioFlag, cfg.Devices.Audio)
	setUint(flags.WidthFlag, cfg.Devices.Width)
	setUint(flags.HeightFlag, cfg.Devices.Height)
	setUint(flags.FrameRateFlag, cfg.Devices.FrameRate)
	setUint(flags.SampleRateFlag, cfg.Devices.SampleRate)
	setUint(flags.ChannelsFlag, cfg.Devices.Channels)

	setString(flags.OutputFlag, cfg.Output.File)
	setString(flags.OutputDirFlag, cfg.Output.Dir)
	setDuration(flags.DurationFlag, cfg.Output.Duration)

	setString(flags.HTTPAddrFlag, cfg.HTTP.Address)
	return v
}
