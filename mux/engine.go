// Package mux defines the interface of the encode/mux engine a recorder
// feeds. An engine is constructed for one container format and one output
// target, accepts at most one video and one audio track, and writes the
// complete container into the target when it is finalized.
package mux

import (
	"context"
	"image"
	"time"
)

type VideoTrackConfig struct {
	Codec         VideoCodec
	BitsPerSecond uint
	Width         int
	Height        int
	FrameRate     int
}

type AudioTrackConfig struct {
	Codec         AudioCodec
	BitsPerSecond uint
	SampleRate    int
	Channels      int
}

// VideoInput receives raw frames. The image must match the configured
// dimensions; pts must be monotonically increasing.
type VideoInput interface {
	WriteFrame(img *image.RGBA, pts time.Duration) error
}

// AudioInput receives planar float32 samples, one slice per channel. All
// channel slices must have the same length.
type AudioInput interface {
	WriteSamples(planar [][]float32, pts time.Duration) error
}

type Engine interface {
	AddVideoTrack(VideoTrackConfig) (VideoInput, error)
	AddAudioTrack(AudioTrackConfig) (AudioInput, error)

	// Start must be called after all tracks were added.
	Start() error

	// Finalize flushes all tracks and completes the container in the
	// target. It blocks until the engine is done or ctx is cancelled.
	Finalize(ctx context.Context) error

	// Close releases the engine. It is safe to call after Finalize and
	// more than once.
	Close() error
}

type EngineFactory func(format Format, target *BufferTarget) (Engine, error)
