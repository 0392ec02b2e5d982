package mux

import (
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

type Format int

const (
	MP4 Format = iota
	WebM
)

func NewFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "mp4":
		return MP4, nil
	case "webm":
		return WebM, nil
	}
	return MP4, fmt.Errorf("unknown container format: %s", s)
}

func (f Format) String() string {
	switch f {
	case MP4:
		return "mp4"
	case WebM:
		return "webm"
	}
	return "unknown"
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + f.String()
}

type VideoCodec int

const (
	H264 VideoCodec = iota
	VP8
	VP9
	AV1
)

func NewVideoCodec(s string) (VideoCodec, error) {
	switch strings.ToUpper(s) {
	case "H264", "AVC":
		return H264, nil
	case "VP8":
		return VP8, nil
	case "VP9":
		return VP9, nil
	case "AV1":
		return AV1, nil
	}
	return H264, fmt.Errorf("unknown video codec: %s", s)
}

func (c VideoCodec) String() string {
	switch c {
	case H264:
		return "H264"
	case VP8:
		return "VP8"
	case VP9:
		return "VP9"
	case AV1:
		return "AV1"
	}
	return "unknown"
}

func (c VideoCodec) MimeType() string {
	switch c {
	case H264:
		return webrtc.MimeTypeH264
	case VP8:
		return webrtc.MimeTypeVP8
	case VP9:
		return webrtc.MimeTypeVP9
	case AV1:
		return webrtc.MimeTypeAV1
	}
	return "video/unknown"
}

func (c VideoCodec) ClockRate() int {
	return 90_000
}

type AudioCodec int

const (
	AAC AudioCodec = iota
	Opus
	Vorbis
)

func NewAudioCodec(s string) (AudioCodec, error) {
	switch strings.ToLower(s) {
	case "aac":
		return AAC, nil
	case "opus":
		return Opus, nil
	case "vorbis":
		return Vorbis, nil
	}
	return AAC, fmt.Errorf("unknown audio codec: %s", s)
}

func (c AudioCodec) String() string {
	switch c {
	case AAC:
		return "AAC"
	case Opus:
		return "Opus"
	case Vorbis:
		return "Vorbis"
	}
	return "unknown"
}

func (c AudioCodec) MimeType() string {
	switch c {
	case AAC:
		return "audio/aac"
	case Opus:
		return webrtc.MimeTypeOpus
	case Vorbis:
		return "audio/vorbis"
	}
	return "audio/unknown"
}

// Muxable reports whether the container can carry the video codec.
func (f Format) Muxable(c VideoCodec) bool {
	switch f {
	case WebM:
		return c != H264
	case MP4:
		return c != VP8
	}
	return false
}

// MuxableAudio reports whether the container can carry the audio codec.
func (f Format) MuxableAudio(c AudioCodec) bool {
	switch f {
	case WebM:
		return c != AAC
	case MP4:
		return c != Vorbis
	}
	return false
}
