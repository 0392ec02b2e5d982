package gstreamer

import (
	"testing"

	"github.com/mengelbart/mediarecorder/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factories(specs []elementSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.factory)
	}
	return names
}

func TestVideoEncoder(t *testing.T) {
	cases := []struct {
		codec    mux.VideoCodec
		expected []string
	}{
		{mux.H264, []string{"x264enc", "h264parse"}},
		{mux.VP8, []string{"vp8enc"}},
		{mux.VP9, []string{"vp9enc"}},
		{mux.AV1, []string{"av1enc", "av1parse"}},
	}
	for _, tc := range cases {
		t.Run(tc.codec.String(), func(t *testing.T) {
			specs, err := videoEncoder(mux.VideoTrackConfig{Codec: tc.codec, BitsPerSecond: 2_500_000, FrameRate: 30})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, factories(specs))
		})
	}

	specs, err := videoEncoder(mux.VideoTrackConfig{Codec: mux.H264, BitsPerSecond: 2_500_000, FrameRate: 25})
	require.NoError(t, err)
	assert.Equal(t, uint(2500), specs[0].properties["bitrate"])
	assert.Equal(t, 50, specs[0].properties["key-int-max"])

	_, err = videoEncoder(mux.VideoTrackConfig{Codec: mux.VideoCodec(42)})
	assert.Error(t, err)
}

func TestAudioEncoder(t *testing.T) {
	cases := []struct {
		codec    mux.AudioCodec
		expected []string
	}{
		{mux.AAC, []string{"avenc_aac", "aacparse"}},
		{mux.Opus, []string{"opusenc"}},
		{mux.Vorbis, []string{"vorbisenc"}},
	}
	for _, tc := range cases {
		t.Run(tc.codec.String(), func(t *testing.T) {
			specs, err := audioEncoder(mux.AudioTrackConfig{Codec: tc.codec, BitsPerSecond: 128_000})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, factories(specs))
			assert.Equal(t, 128_000, specs[0].properties["bitrate"])
		})
	}
}

func TestMuxer(t *testing.T) {
	m, err := muxer(mux.MP4)
	require.NoError(t, err)
	assert.Equal(t, "mp4mux", m.factory)
	assert.Contains(t, m.properties, "fragment-duration")

	m, err = muxer(mux.WebM)
	require.NoError(t, err)
	assert.Equal(t, "webmmux", m.factory)

	_, err = muxer(mux.Format(7))
	assert.Error(t, err)
}

func TestNegotiate(t *testing.T) {
	assert.Equal(t, mux.VP8, negotiateVideo(mux.WebM, mux.H264))
	assert.Equal(t, mux.VP9, negotiateVideo(mux.WebM, mux.VP9))
	assert.Equal(t, mux.H264, negotiateVideo(mux.MP4, mux.VP8))
	assert.Equal(t, mux.AV1, negotiateVideo(mux.MP4, mux.AV1))

	assert.Equal(t, mux.Opus, negotiateAudio(mux.WebM, mux.AAC))
	assert.Equal(t, mux.Vorbis, negotiateAudio(mux.WebM, mux.Vorbis))
	assert.Equal(t, mux.AAC, negotiateAudio(mux.MP4, mux.Vorbis))
	assert.Equal(t, mux.Opus, negotiateAudio(mux.MP4, mux.Opus))
}

func TestCaps(t *testing.T) {
	assert.Equal(t,
		"video/x-raw,format=RGBA,width=640,height=480,framerate=30/1",
		videoCaps(mux.VideoTrackConfig{Width: 640, Height: 480, FrameRate: 30}),
	)
	assert.Equal(t,
		"audio/x-raw,format=F32LE,layout=interleaved,rate=48000,channels=2",
		audioCaps(mux.AudioTrackConfig{SampleRate: 48000, Channels: 2}),
	)
}
