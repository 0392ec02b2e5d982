package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mengelbart/mediarecorder/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
recorder:
  mime_type: "video/webm; codecs=vp9,opus"
  video_bits_per_second: 2500000
  timeslice: 2s
devices:
  audio: false
  width: 1280
  height: 720
output:
  dir: /tmp/recordings
http:
  address: ":9000"
`

func TestReadFrom(t *testing.T) {
	var cfg Config
	_, err := cfg.ReadFrom(strings.NewReader(testConfig))
	require.NoError(t, err)

	assert.Equal(t, "video/webm; codecs=vp9,opus", cfg.Recorder.MimeType)
	assert.Equal(t, uint(2_500_000), cfg.Recorder.VideoBitsPerSecond)
	assert.Equal(t, 2*time.Second, cfg.Recorder.Timeslice)
	require.NotNil(t, cfg.Devices.Audio)
	assert.False(t, *cfg.Devices.Audio)
	assert.Nil(t, cfg.Devices.Video)
	assert.Equal(t, uint(1280), cfg.Devices.Width)

	v := cfg.Values()
	assert.Equal(t, "video/webm; codecs=vp9,opus", v[flags.MimeTypeFlag])
	assert.Equal(t, "2500000", v[flags.VideoBitrateFlag])
	assert.Equal(t, "2s", v[flags.TimesliceFlag])
	assert.Equal(t, "false", v[flags.AudioFlag])
	assert.Equal(t, ":9000", v[flags.HTTPAddrFlag])
	assert.NotContains(t, v, flags.VideoFlag)
	assert.NotContains(t, v, flags.AudioBitrateFlag)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recorder: [unterminated"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestFlagsTakePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	var mimeType, addr string
	var width uint
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&mimeType, string(flags.MimeTypeFlag), "video/mp4", "")
	fs.StringVar(&addr, string(flags.HTTPAddrFlag), "127.0.0.1:8080", "")
	fs.UintVar(&width, string(flags.WidthFlag), 640, "")
	require.NoError(t, fs.Parse([]string{"-mime-type", "video/mp4; codecs=avc1"}))

	require.NoError(t, flags.SetDefaults(fs, cfg.Values()))
	assert.Equal(t, "video/mp4; codecs=avc1", mimeType)
	assert.Equal(t, ":9000", addr)
	assert.Equal(t, uint(1280), width)
}
