package mediarecorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/mux"
)

// session holds everything one recording owns: the engine and its output
// target, the video capture surface with its player and frame driver, and
// the audio graph feeding the engine.
type session struct {
	logger *slog.Logger

	lock   sync.Mutex
	engine mux.Engine
	target *mux.BufferTarget
	clock  *mediaClock

	surface   *capture.Surface
	player    *capture.Player
	frameRate int
	video     mux.VideoInput
	driver    *frameDriver
	frames    int64
	lastPTS   time.Duration

	audioCtx *capture.AudioContext
	source   *capture.SourceNode
	tap      *capture.TapNode
	audio    mux.AudioInput
	samples  int64
}

func newSession(logger *slog.Logger, engine mux.Engine, target *mux.BufferTarget) *session {
	return &session{
		logger: logger,
		engine: engine,
		target: target,
	}
}

// paint copies the current video frame onto the surface and hands the
// surface to the engine.
func (s *session) paint() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.player == nil || s.surface == nil || s.video == nil || s.clock == nil {
		return
	}
	if !s.player.Paint(s.surface) {
		return
	}
	pts := s.clock.elapsed()
	if s.frames > 0 && pts <= s.lastPTS {
		return
	}
	if err := s.video.WriteFrame(s.surface.Snapshot(), pts); err != nil {
		s.logger.Warn("failed to write video frame", "pts", pts, "error", err)
		return
	}
	s.frames++
	s.lastPTS = pts
}

// forwardAudio writes one block to the engine. The PTS counts forwarded
// samples only, so dropped blocks leave no gap in the audio timeline.
func (s *session) forwardAudio(b capture.AudioBlock) {
	if len(b.Channels) == 0 {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.audio == nil {
		return
	}
	pts := mux.SamplesDuration(s.samples, b.SampleRate)
	if err := s.audio.WriteSamples(b.Channels, pts); err != nil {
		s.logger.Warn("failed to write audio samples", "pts", pts, "error", err)
		return
	}
	s.samples += int64(len(b.Channels[0]))
}

func (s *session) startDriver() {
	s.lock.Lock()
	d := s.driver
	s.lock.Unlock()
	if d != nil {
		d.start()
	}
}

func (s *session) haltDriver() {
	s.lock.Lock()
	d := s.driver
	s.lock.Unlock()
	if d != nil {
		d.halt()
	}
}

func (s *session) pause() {
	s.haltDriver()
	if s.clock != nil {
		s.clock.pause()
	}
}

func (s *session) resume() {
	if s.clock != nil {
		s.clock.resume()
	}
	s.startDriver()
}

// finalize stops capturing and completes the container.
func (s *session) finalize(ctx context.Context, mimeType string) (*Blob, error) {
	s.haltDriver()

	s.lock.Lock()
	tap, engine, target := s.tap, s.engine, s.target
	s.lock.Unlock()

	if tap != nil {
		tap.Disconnect()
	}
	if engine == nil {
		return &Blob{Data: []byte{}, Type: mimeType}, nil
	}
	if err := engine.Finalize(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("encode session finalized", "bytes", target.Len(), "video-frames", s.frameCount(), "audio-samples", s.sampleCount())
	return &Blob{Data: target.Bytes(), Type: mimeType}, nil
}

func (s *session) frameCount() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.frames
}

func (s *session) sampleCount() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.samples
}

// release disconnects and closes every resource the session acquired. It
// is safe to call more than once and with resources missing.
func (s *session) release() error {
	s.lock.Lock()
	driver, tap, source, audioCtx, player, engine := s.driver, s.tap, s.source, s.audioCtx, s.player, s.engine
	s.driver, s.tap, s.source, s.audioCtx, s.player, s.engine = nil, nil, nil, nil, nil, nil
	s.surface, s.video, s.audio, s.target = nil, nil, nil, nil
	s.lock.Unlock()

	var result *multierror.Error
	if driver != nil {
		driver.halt()
	}
	if tap != nil {
		tap.Disconnect()
	}
	if source != nil {
		source.Disconnect()
	}
	if audioCtx != nil {
		if err := audioCtx.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if player != nil {
		if err := player.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if engine != nil {
		if err := engine.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
