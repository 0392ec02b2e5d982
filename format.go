package mediarecorder

import (
	"strings"

	"github.com/mengelbart/mediarecorder/mux"
)

var supportedTypes = []string{
	`video/mp4`,
	`video/webm`,
	`video/mp4; codecs="avc1.42E01E"`,
	`video/mp4; codecs="avc1.42E01E, mp4a.40.2"`,
	`video/webm; codecs="vp8, opus"`,
	`video/webm; codecs="vp9, opus"`,
	`video/webm; codecs="av01.0.04M.08, opus"`,
}

// IsTypeSupported reports whether mimeType starts with one of the supported
// container/codec combinations. The comparison ignores case.
func IsTypeSupported(mimeType string) bool {
	t := strings.ToLower(mimeType)
	for _, s := range supportedTypes {
		if strings.HasPrefix(t, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// SelectFormat picks the container for mimeType. MP4 is the default.
func SelectFormat(mimeType string) mux.Format {
	if strings.Contains(strings.ToLower(mimeType), "webm") {
		return mux.WebM
	}
	return mux.MP4
}

// SelectVideoCodec picks the video codec for mimeType. H.264 is the default.
func SelectVideoCodec(mimeType string) mux.VideoCodec {
	t := strings.ToLower(mimeType)
	switch {
	case strings.Contains(t, "av1"), strings.Contains(t, "av01"):
		return mux.AV1
	case strings.Contains(t, "vp9"):
		return mux.VP9
	case strings.Contains(t, "vp8"):
		return mux.VP8
	}
	return mux.H264
}

// SelectAudioCodec picks the audio codec for mimeType. AAC is the default.
func SelectAudioCodec(mimeType string) mux.AudioCodec {
	t := strings.ToLower(mimeType)
	switch {
	case strings.Contains(t, "opus"):
		return mux.Opus
	case strings.Contains(t, "vorbis"):
		return mux.Vorbis
	}
	return mux.AAC
}
