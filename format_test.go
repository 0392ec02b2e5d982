package mediarecorder

import (
	"testing"

	"github.com/mengelbart/mediarecorder/mux"
	"github.com/stretchr/testify/assert"
)

func TestIsTypeSupported(t *testing.T) {
	cases := []struct {
		mimeType string
		expected bool
	}{
		{"video/mp4", true},
		{"video/webm", true},
		{`video/mp4; codecs="avc1.42E01E"`, true},
		{`video/mp4; codecs="avc1.42E01E, mp4a.40.2"`, true},
		{`VIDEO/WEBM; CODECS="VP9, OPUS"`, true},
		{`video/webm; codecs="av01.0.04M.08, opus"`, true},
		{"video/webm;codecs=vp8", true},
		{"audio/ogg", false},
		{"video/x-matroska", false},
		{"", false},
		{"video/mp", false},
	}
	for _, tc := range cases {
		t.Run(tc.mimeType, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsTypeSupported(tc.mimeType))
		})
	}
}

func TestSelect(t *testing.T) {
	cases := []struct {
		mimeType string
		format   mux.Format
		video    mux.VideoCodec
		audio    mux.AudioCodec
	}{
		{"video/mp4", mux.MP4, mux.H264, mux.AAC},
		{"video/unknown", mux.MP4, mux.H264, mux.AAC},
		{"video/webm; codecs=vp9,opus", mux.WebM, mux.VP9, mux.Opus},
		{"video/webm; codecs=vp8,vorbis", mux.WebM, mux.VP8, mux.Vorbis},
		{`video/webm; codecs="av01.0.04M.08, opus"`, mux.WebM, mux.AV1, mux.Opus},
		{"video/mp4; codecs=av1", mux.MP4, mux.AV1, mux.AAC},
		{"VIDEO/WEBM; CODECS=VP9", mux.WebM, mux.VP9, mux.AAC},
	}
	for _, tc := range cases {
		t.Run(tc.mimeType, func(t *testing.T) {
			assert.Equal(t, tc.format, SelectFormat(tc.mimeType))
			assert.Equal(t, tc.video, SelectVideoCodec(tc.mimeType))
			assert.Equal(t, tc.audio, SelectAudioCodec(tc.mimeType))
		})
	}
}

func TestRecordingState(t *testing.T) {
	for _, s := range []RecordingState{Inactive, Recording, Paused} {
		parsed, err := NewRecordingState(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := NewRecordingState("stopped")
	assert.Error(t, err)
}
