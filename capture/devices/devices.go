// Package devices opens camera and microphone tracks with
// [github.com/pion/mediadevices] and exposes them as a [capture.Stream].
//
// Drivers must be registered by the importing program, for example with
//
//	import _ "github.com/pion/mediadevices/pkg/driver/camera"
package devices

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/mengelbart/mediarecorder/capture"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/io/audio"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
)

type Config struct {
	Video bool
	Audio bool

	Width      int
	Height     int
	FrameRate  int
	SampleRate int
	Channels   int
}

func DefaultConfig() Config {
	return Config{
		Video:      true,
		Audio:      true,
		Width:      640,
		Height:     480,
		FrameRate:  30,
		SampleRate: 48_000,
		Channels:   1,
	}
}

type Stream struct {
	stream mediadevices.MediaStream
	video  []capture.VideoTrack
	audio  []capture.AudioTrack
}

// Open acquires the requested devices.
func Open(c Config) (*Stream, error) {
	if !c.Video && !c.Audio {
		return nil, errors.New("neither video nor audio requested")
	}
	constraints := mediadevices.MediaStreamConstraints{}
	if c.Video {
		constraints.Video = func(mtc *mediadevices.MediaTrackConstraints) {
			mtc.FrameFormat = prop.FrameFormat(frame.FormatI420)
			mtc.Width = prop.Int(c.Width)
			mtc.Height = prop.Int(c.Height)
			mtc.FrameRate = prop.Float(float32(c.FrameRate))
		}
	}
	if c.Audio {
		constraints.Audio = func(mtc *mediadevices.MediaTrackConstraints) {
			mtc.SampleRate = prop.Int(c.SampleRate)
			mtc.ChannelCount = prop.Int(c.Channels)
		}
	}
	ms, err := mediadevices.GetUserMedia(constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to get user media: %w", err)
	}
	return Wrap(ms, c), nil
}

// Wrap exposes an existing media stream. The config provides the track
// settings reported to the recorder.
func Wrap(ms mediadevices.MediaStream, c Config) *Stream {
	s := &Stream{stream: ms}
	for _, t := range ms.GetVideoTracks() {
		vt, ok := t.(*mediadevices.VideoTrack)
		if !ok {
			continue
		}
		s.video = append(s.video, &videoTrack{
			track: vt,
			settings: capture.TrackSettings{
				DeviceID:  vt.ID(),
				Width:     c.Width,
				Height:    c.Height,
				FrameRate: c.FrameRate,
			},
		})
	}
	for _, t := range ms.GetAudioTracks() {
		at, ok := t.(*mediadevices.AudioTrack)
		if !ok {
			continue
		}
		s.audio = append(s.audio, &audioTrack{
			track: at,
			settings: capture.TrackSettings{
				DeviceID:     at.ID(),
				SampleRate:   c.SampleRate,
				ChannelCount: c.Channels,
			},
		})
	}
	return s
}

func (s *Stream) VideoTracks() []capture.VideoTrack {
	return s.video
}

func (s *Stream) AudioTracks() []capture.AudioTrack {
	return s.audio
}

// Close stops all device tracks.
func (s *Stream) Close() error {
	var result *multierror.Error
	for _, t := range s.stream.GetTracks() {
		if err := t.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type videoTrack struct {
	track    *mediadevices.VideoTrack
	settings capture.TrackSettings
}

func (t *videoTrack) ID() string                      { return t.track.ID() }
func (t *videoTrack) Kind() capture.Kind              { return capture.KindVideo }
func (t *videoTrack) Settings() capture.TrackSettings { return t.settings }

func (t *videoTrack) NewReader() (video.Reader, error) {
	return t.track.NewReader(true), nil
}

type audioTrack struct {
	track    *mediadevices.AudioTrack
	settings capture.TrackSettings
}

func (t *audioTrack) ID() string                      { return t.track.ID() }
func (t *audioTrack) Kind() capture.Kind              { return capture.KindAudio }
func (t *audioTrack) Settings() capture.TrackSettings { return t.settings }

func (t *audioTrack) NewReader() (audio.Reader, error) {
	return t.track.NewReader(true), nil
}
