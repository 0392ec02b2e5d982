package mediarecorder

import (
	"context"
	"fmt"
	"time"

	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/mux"
)

const (
	defaultWidth     = 640
	defaultHeight    = 480
	defaultFrameRate = 30
)

// acquireVideo binds a player to the first video track and waits until it
// plays. Streams without video are skipped.
func (r *MediaRecorder) acquireVideo(ctx context.Context, s *session) error {
	tracks := r.stream.VideoTracks()
	if len(tracks) == 0 {
		return nil
	}
	track := tracks[0]
	settings := track.Settings()
	width, height := settings.Width, settings.Height
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}
	frameRate := settings.FrameRate
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}

	surface := capture.NewSurface(width, height)
	player := capture.NewPlayer(capture.NewStream(track))

	s.lock.Lock()
	s.surface, s.player, s.frameRate = surface, player, frameRate
	s.lock.Unlock()

	if err := player.Play(ctx); err != nil {
		return fmt.Errorf("%w: video track %v did not start playing: %w", ErrSetupFailure, track.ID(), err)
	}
	r.logger.Debug("video track playing", "track", track.ID(), "width", width, "height", height, "frame-rate", frameRate)
	return nil
}

// registerVideo adds the video input backed by the capture surface and
// prepares the frame driver.
func (r *MediaRecorder) registerVideo(s *session) error {
	s.lock.Lock()
	surface, frameRate := s.surface, s.frameRate
	s.lock.Unlock()
	if surface == nil {
		return nil
	}

	in, err := s.engine.AddVideoTrack(mux.VideoTrackConfig{
		Codec:         SelectVideoCodec(r.mimeType),
		BitsPerSecond: r.videoBitsPerSecond,
		Width:         surface.Width(),
		Height:        surface.Height(),
		FrameRate:     frameRate,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to add video track: %w", ErrEngineFailure, err)
	}

	display := r.display
	if display == nil {
		display = capture.NewRefreshClock(frameRate)
	}
	driver := newFrameDriver(display, func(time.Time) {
		if r.State() != Recording {
			return
		}
		s.paint()
	})

	s.lock.Lock()
	s.video, s.driver = in, driver
	s.lock.Unlock()
	return nil
}
