package mediarecorder

import (
	"fmt"

	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/mux"
)

const defaultChannels = 2

// acquireAudio builds the audio graph for all audio tracks of the stream.
// Streams without audio are skipped.
func (r *MediaRecorder) acquireAudio(s *session) error {
	tracks := r.stream.AudioTracks()
	if len(tracks) == 0 {
		return nil
	}
	channels := 0
	for _, t := range tracks {
		channels = max(channels, t.Settings().ChannelCount)
	}
	if channels <= 0 {
		channels = defaultChannels
	}

	audioCtx := capture.NewAudioContext(tracks[0].Settings().SampleRate)
	source, err := audioCtx.CreateMediaStreamSource(tracks)
	if err != nil {
		audioCtx.Close()
		return fmt.Errorf("%w: failed to create audio source: %w", ErrSetupFailure, err)
	}
	tap, err := audioCtx.CreateTap(r.blockSize, channels)
	if err != nil {
		audioCtx.Close()
		return fmt.Errorf("%w: failed to create audio tap: %w", ErrSetupFailure, err)
	}

	s.lock.Lock()
	s.audioCtx, s.source, s.tap = audioCtx, source, tap
	s.lock.Unlock()

	r.logger.Debug("audio graph created", "tracks", len(tracks), "sample-rate", audioCtx.SampleRate(), "channels", channels)
	return nil
}

// registerAudio adds the audio input and connects the source to the tap.
// Blocks are forwarded only while recording.
func (r *MediaRecorder) registerAudio(s *session) error {
	s.lock.Lock()
	audioCtx, source, tap := s.audioCtx, s.source, s.tap
	s.lock.Unlock()
	if tap == nil {
		return nil
	}

	in, err := s.engine.AddAudioTrack(mux.AudioTrackConfig{
		Codec:         SelectAudioCodec(r.mimeType),
		BitsPerSecond: r.audioBitsPerSecond,
		SampleRate:    audioCtx.SampleRate(),
		Channels:      tap.Channels(),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to add audio track: %w", ErrEngineFailure, err)
	}
	s.lock.Lock()
	s.audio = in
	s.lock.Unlock()

	tap.OnProcess(func(b capture.AudioBlock) {
		if r.State() != Recording {
			return
		}
		s.forwardAudio(b)
	})
	if err := source.Connect(tap); err != nil {
		return fmt.Errorf("%w: %w", ErrSetupFailure, err)
	}
	return nil
}

// connectAudioOutput starts block processing.
func (r *MediaRecorder) connectAudioOutput(s *session) error {
	s.lock.Lock()
	audioCtx, tap := s.audioCtx, s.tap
	s.lock.Unlock()
	if tap == nil {
		return nil
	}
	if err := tap.Connect(audioCtx.Destination()); err != nil {
		return fmt.Errorf("%w: %w", ErrSetupFailure, err)
	}
	return nil
}
