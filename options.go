package mediarecorder

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mengelbart/mediarecorder/capture"
)

const (
	DefaultMimeType = "video/mp4"

	// HighVideoBitsPerSecond and HighAudioBitsPerSecond are the default
	// target bitrates.
	HighVideoBitsPerSecond = uint(5_000_000)
	HighAudioBitsPerSecond = uint(192_000)
)

type Option func(*MediaRecorder) error

func MimeType(mimeType string) Option {
	return func(r *MediaRecorder) error {
		if mimeType == "" {
			return errors.New("empty mime type")
		}
		r.mimeType = mimeType
		return nil
	}
}

func VideoBitsPerSecond(bps uint) Option {
	return func(r *MediaRecorder) error {
		if bps == 0 {
			return errors.New("video bitrate must be positive")
		}
		r.videoBitsPerSecond = bps
		return nil
	}
}

func AudioBitsPerSecond(bps uint) Option {
	return func(r *MediaRecorder) error {
		if bps == 0 {
			return errors.New("audio bitrate must be positive")
		}
		r.audioBitsPerSecond = bps
		return nil
	}
}

// WithDisplay sets the refresh signal driving video capture. The default
// ticks at the video track's frame rate.
func WithDisplay(d capture.Display) Option {
	return func(r *MediaRecorder) error {
		r.display = d
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *MediaRecorder) error {
		r.logger = logger
		return nil
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *MediaRecorder) error {
		r.now = now
		return nil
	}
}

// WithBlockSize sets the number of samples per channel the audio tap
// processes at once.
func WithBlockSize(n int) Option {
	return func(r *MediaRecorder) error {
		if n <= 0 {
			return errors.New("block size must be positive")
		}
		r.blockSize = n
		return nil
	}
}
