package gstreamer

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/mengelbart/mediarecorder/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ebmlMagic starts every WebM file.
var ebmlMagic = []byte{0x1a, 0x45, 0xdf, 0xa3}

func requireElements(t *testing.T, names ...string) {
	t.Helper()
	initGStreamer()
	for _, name := range names {
		if gst.Find(name) == nil {
			t.Skipf("GStreamer element %v not available", name)
		}
	}
}

func finalize(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.Finalize(ctx))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestEngineAudioWebM(t *testing.T) {
	requireElements(t, "appsrc", "appsink", "audioconvert", "audioresample", "opusenc", "webmmux")

	target := mux.NewBufferTarget()
	e, err := NewEngine(mux.WebM, target)
	require.NoError(t, err)
	in, err := e.AddAudioTrack(mux.AudioTrackConfig{
		Codec:         mux.Opus,
		BitsPerSecond: 64_000,
		SampleRate:    48_000,
		Channels:      2,
	})
	require.NoError(t, err)
	require.NoError(t, e.Start())

	const block = 960
	for i := range 50 {
		planar := [][]float32{make([]float32, block), make([]float32, block)}
		for j := range block {
			planar[0][j] = 0.1
			planar[1][j] = -0.1
		}
		require.NoError(t, in.WriteSamples(planar, mux.SamplesDuration(int64(i*block), 48_000)))
	}
	finalize(t, e)

	require.Greater(t, target.Len(), len(ebmlMagic))
	assert.Equal(t, ebmlMagic, target.Bytes()[:len(ebmlMagic)])
	assert.Error(t, in.WriteSamples([][]float32{{0}, {0}}, time.Second))
}

func TestEngineVideoWebM(t *testing.T) {
	requireElements(t, "appsrc", "appsink", "videoconvert", "vp8enc", "webmmux")

	target := mux.NewBufferTarget()
	e, err := NewEngine(mux.WebM, target)
	require.NoError(t, err)
	in, err := e.AddVideoTrack(mux.VideoTrackConfig{
		Codec:         mux.VP8,
		BitsPerSecond: 500_000,
		Width:         64,
		Height:        48,
		FrameRate:     30,
	})
	require.NoError(t, err)
	require.NoError(t, e.Start())

	_, err = e.AddAudioTrack(mux.AudioTrackConfig{Codec: mux.Opus, SampleRate: 48_000, Channels: 1})
	assert.Error(t, err)

	for i := range 15 {
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 16)
			img.Pix[p+3] = 0xff
		}
		require.NoError(t, in.WriteFrame(img, time.Duration(i)*time.Second/30))
	}
	finalize(t, e)

	require.Greater(t, target.Len(), len(ebmlMagic))
	assert.Equal(t, ebmlMagic, target.Bytes()[:len(ebmlMagic)])
}

func TestEngineWithoutTracks(t *testing.T) {
	requireElements(t, "appsink", "mp4mux")

	target := mux.NewBufferTarget()
	e, err := NewEngine(mux.MP4, target)
	require.NoError(t, err)
	require.NoError(t, e.Start())
	finalize(t, e)
	assert.Equal(t, 0, target.Len())
	assert.Error(t, e.Start())
}
