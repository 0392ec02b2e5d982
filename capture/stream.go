// Package capture provides the platform side of a recording: capture
// streams and their tracks, a playback element that decodes a video track,
// an off-screen surface frames are painted onto, an audio processing graph
// with a fixed-block sample tap, and the display refresh signal that paces
// repainting.
//
// Track readers use the reader types of [github.com/pion/mediadevices] so
// devices opened through that package plug in directly.
package capture

import (
	"github.com/pion/mediadevices/pkg/io/audio"
	"github.com/pion/mediadevices/pkg/io/video"
)

type Kind int

const (
	KindVideo Kind = iota
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	}
	return "unknown"
}

// TrackSettings holds the configured properties of a track. Zero values
// mean unset.
type TrackSettings struct {
	DeviceID     string
	Width        int
	Height       int
	FrameRate    int
	SampleRate   int
	ChannelCount int
}

type Track interface {
	ID() string
	Kind() Kind
	Settings() TrackSettings
}

type VideoTrack interface {
	Track
	NewReader() (video.Reader, error)
}

type AudioTrack interface {
	Track
	NewReader() (audio.Reader, error)
}

type Stream interface {
	VideoTracks() []VideoTrack
	AudioTracks() []AudioTrack
}

type stream struct {
	video []VideoTrack
	audio []AudioTrack
}

// NewStream groups tracks into a stream. Tracks of other types are ignored.
func NewStream(tracks ...Track) Stream {
	s := &stream{}
	for _, t := range tracks {
		switch tt := t.(type) {
		case VideoTrack:
			s.video = append(s.video, tt)
		case AudioTrack:
			s.audio = append(s.audio, tt)
		}
	}
	return s
}

func (s *stream) VideoTracks() []VideoTrack {
	return s.video
}

func (s *stream) AudioTracks() []AudioTrack {
	return s.audio
}
