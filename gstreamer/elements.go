package gstreamer

import (
	"fmt"

	"github.com/go-gst/go-gst/gst"
	"github.com/mengelbart/mediarecorder/mux"
)

// elementSpec names an element factory and the properties to set on it.
type elementSpec struct {
	factory    string
	properties map[string]any
}

func (s elementSpec) build() (*gst.Element, error) {
	if len(s.properties) == 0 {
		return gst.NewElement(s.factory)
	}
	return gst.NewElementWithProperties(s.factory, s.properties)
}

func buildAll(specs []elementSpec) ([]*gst.Element, error) {
	elements := make([]*gst.Element, 0, len(specs))
	for _, s := range specs {
		e, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("failed to create %v: %w", s.factory, err)
		}
		elements = append(elements, e)
	}
	return elements, nil
}

// keyframeInterval is the maximum distance between key frames in frames.
func keyframeInterval(frameRate int) int {
	return max(frameRate, 1) * 2
}

// videoEncoder returns the encoder chain for c. Bitrates are configured in
// the unit each encoder expects.
func videoEncoder(c mux.VideoTrackConfig) ([]elementSpec, error) {
	kbps := c.BitsPerSecond / 1000
	switch c.Codec {
	case mux.H264:
		return []elementSpec{
			{"x264enc", map[string]any{
				"bitrate":      kbps,
				"speed-preset": 1,
				"tune":         4,
				"key-int-max":  keyframeInterval(c.FrameRate),
			}},
			{"h264parse", nil},
		}, nil
	case mux.VP8, mux.VP9:
		factory := "vp8enc"
		if c.Codec == mux.VP9 {
			factory = "vp9enc"
		}
		return []elementSpec{
			{factory, map[string]any{
				"target-bitrate":    int(c.BitsPerSecond),
				"deadline":          int64(1),
				"keyframe-max-dist": keyframeInterval(c.FrameRate),
			}},
		}, nil
	case mux.AV1:
		return []elementSpec{
			{"av1enc", map[string]any{
				"target-bitrate": kbps,
				"cpu-used":       8,
				"usage-profile":  1,
			}},
			{"av1parse", nil},
		}, nil
	}
	return nil, fmt.Errorf("unknown video codec: %v", c.Codec)
}

func audioEncoder(c mux.AudioTrackConfig) ([]elementSpec, error) {
	switch c.Codec {
	case mux.AAC:
		return []elementSpec{
			{"avenc_aac", map[string]any{"bitrate": int(c.BitsPerSecond)}},
			{"aacparse", nil},
		}, nil
	case mux.Opus:
		return []elementSpec{
			{"opusenc", map[string]any{"bitrate": int(c.BitsPerSecond)}},
		}, nil
	case mux.Vorbis:
		return []elementSpec{
			{"vorbisenc", map[string]any{"bitrate": int(c.BitsPerSecond)}},
		}, nil
	}
	return nil, fmt.Errorf("unknown audio codec: %v", c.Codec)
}

// muxer returns the container muxer. MP4 output is fragmented because the
// appsink cannot seek back to rewrite the header.
func muxer(f mux.Format) (elementSpec, error) {
	switch f {
	case mux.MP4:
		return elementSpec{"mp4mux", map[string]any{"fragment-duration": uint(1000)}}, nil
	case mux.WebM:
		return elementSpec{"webmmux", map[string]any{"streamable": true}}, nil
	}
	return elementSpec{}, fmt.Errorf("unknown format: %v", f)
}

// negotiateVideo replaces a codec the container cannot carry with the
// container's default codec.
func negotiateVideo(f mux.Format, c mux.VideoCodec) mux.VideoCodec {
	if f.Muxable(c) {
		return c
	}
	if f == mux.WebM {
		return mux.VP8
	}
	return mux.H264
}

func negotiateAudio(f mux.Format, c mux.AudioCodec) mux.AudioCodec {
	if f.MuxableAudio(c) {
		return c
	}
	if f == mux.WebM {
		return mux.Opus
	}
	return mux.AAC
}

func videoCaps(c mux.VideoTrackConfig) string {
	return fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/1", c.Width, c.Height, c.FrameRate)
}

func audioCaps(c mux.AudioTrackConfig) string {
	return fmt.Sprintf("audio/x-raw,format=F32LE,layout=interleaved,rate=%d,channels=%d", c.SampleRate, c.Channels)
}
