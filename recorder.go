// Package mediarecorder records capture streams into a single container
// file with the lifecycle and events of the browser's MediaRecorder.
//
// A recorder paints the first video track onto an off-screen surface on
// every display refresh tick and taps all audio tracks in fixed-size blocks.
// Frames and samples are handed to a [mux.Engine], which encodes and muxes
// them. When the recording stops, the engine output is delivered as a
// [Blob] in a dataavailable event:
//
//	r, err := mediarecorder.New(stream, gstreamer.NewEngineFactory(), mediarecorder.MimeType("video/webm; codecs=vp9,opus"))
//	r.OnDataAvailable(func(e mediarecorder.Event) {
//		e.Data.Save("out.webm")
//	})
//	r.Start(ctx, 0)
//	...
//	r.Stop(ctx)
package mediarecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/mux"
	"golang.org/x/sync/errgroup"
)

type MediaRecorder struct {
	*eventTarget

	stream             capture.Stream
	engineFactory      mux.EngineFactory
	mimeType           string
	videoBitsPerSecond uint
	audioBitsPerSecond uint
	display            capture.Display
	logger             *slog.Logger
	now                func() time.Time
	blockSize          int

	lock      sync.Mutex
	state     atomic.Int32
	startTime time.Time
	session   *session
	emitter   *periodicEmitter

	// cancelSetup is set while Start acquires capture resources. Stop
	// takes and calls it to abort the setup.
	cancelSetup context.CancelFunc
	// finalizing is closed when the running Stop has released its
	// session. Start waits for it before acquiring devices again.
	finalizing chan struct{}
}

func New(stream capture.Stream, engine mux.EngineFactory, opts ...Option) (*MediaRecorder, error) {
	if stream == nil {
		return nil, errors.New("nil stream")
	}
	if engine == nil {
		return nil, errors.New("nil engine factory")
	}
	r := &MediaRecorder{
		eventTarget:        newEventTarget(),
		stream:             stream,
		engineFactory:      engine,
		mimeType:           DefaultMimeType,
		videoBitsPerSecond: HighVideoBitsPerSecond,
		audioBitsPerSecond: HighAudioBitsPerSecond,
		display:            nil,
		logger:             slog.Default(),
		now:                time.Now,
		blockSize:          capture.DefaultBlockSize,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *MediaRecorder) State() RecordingState {
	return RecordingState(r.state.Load())
}

// setState must be called with r.lock held.
func (r *MediaRecorder) setState(s RecordingState) {
	r.state.Store(int32(s))
}

func (r *MediaRecorder) MimeType() string {
	return r.mimeType
}

func (r *MediaRecorder) VideoBitsPerSecond() uint {
	return r.videoBitsPerSecond
}

func (r *MediaRecorder) AudioBitsPerSecond() uint {
	return r.audioBitsPerSecond
}

func (r *MediaRecorder) Stream() capture.Stream {
	return r.stream
}

// StartTime returns when the current or last recording started.
func (r *MediaRecorder) StartTime() time.Time {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.startTime
}

func (r *MediaRecorder) event(typ EventType, data *Blob, err error) Event {
	return Event{
		Type: typ,
		Data: data,
		Err:  err,
		Time: r.now(),
	}
}

func (r *MediaRecorder) dispatch(typ EventType, data *Blob, err error) {
	r.eventTarget.dispatch(r.event(typ, data, err))
}

// Start begins recording. ctx bounds waiting for the video track to play;
// it is not used after Start returns. Stop aborts a Start that is still
// waiting. If timeslice is positive, an empty dataavailable event is emitted
// every timeslice until the recording stops. Event handlers run after Start
// has released its locks and may call back into the recorder.
func (r *MediaRecorder) Start(ctx context.Context, timeslice time.Duration) error {
	events, err := r.start(ctx, timeslice)
	for _, e := range events {
		r.eventTarget.dispatch(e)
	}
	return err
}

func (r *MediaRecorder) start(ctx context.Context, timeslice time.Duration) ([]Event, error) {
	r.lock.Lock()
	for r.finalizing != nil && r.State() == Inactive {
		done := r.finalizing
		r.lock.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		r.lock.Lock()
	}
	if st := r.State(); st != Inactive {
		r.lock.Unlock()
		return nil, fmt.Errorf("%w: cannot start while %v", ErrInvalidState, st)
	}
	r.setState(Recording)
	r.startTime = r.now()
	setupCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.cancelSetup = cancel
	r.lock.Unlock()

	s, err := r.setup(setupCtx)

	r.lock.Lock()
	if r.cancelSetup == nil {
		// Stop ran during setup and already reported the recording.
		r.lock.Unlock()
		if s != nil {
			if rerr := s.release(); rerr != nil {
				r.logger.Warn("failed to release capture resources", "error", rerr)
			}
		}
		r.logger.Info("recording stopped during setup")
		return nil, fmt.Errorf("%w: stopped during setup", ErrAborted)
	}
	r.cancelSetup = nil
	if err != nil {
		r.setState(Inactive)
		r.lock.Unlock()
		return r.failStart(s, err)
	}

	r.session = s
	events := []Event{r.event(EventStart, nil, nil)}
	switch r.State() {
	case Recording:
		s.startDriver()
	case Paused:
		// Pause was called during setup; report it after start.
		s.pause()
		events = append(events, r.event(EventPause, nil, nil))
	}
	if timeslice > 0 {
		r.emitter = newPeriodicEmitter(timeslice, r.RequestData)
	}
	r.lock.Unlock()

	r.logger.Info(
		"recording started",
		"mime-type", r.mimeType,
		"format", SelectFormat(r.mimeType),
		"video-codec", SelectVideoCodec(r.mimeType),
		"audio-codec", SelectAudioCodec(r.mimeType),
		"video-tracks", len(r.stream.VideoTracks()),
		"audio-tracks", len(r.stream.AudioTracks()),
		"timeslice", timeslice,
	)
	return events, nil
}

func (r *MediaRecorder) setup(ctx context.Context) (*session, error) {
	target := mux.NewBufferTarget()
	engine, err := r.engineFactory(SelectFormat(r.mimeType), target)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create engine: %w", ErrEngineFailure, err)
	}
	s := newSession(r.logger, engine, target)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return r.acquireVideo(egCtx, s)
	})
	eg.Go(func() error {
		return r.acquireAudio(s)
	})
	if err := eg.Wait(); err != nil {
		return s, err
	}

	if err := r.registerVideo(s); err != nil {
		return s, err
	}
	if err := r.registerAudio(s); err != nil {
		return s, err
	}
	if err := engine.Start(); err != nil {
		return s, fmt.Errorf("%w: failed to start engine: %w", ErrEngineFailure, err)
	}
	s.lock.Lock()
	s.clock = newMediaClock(r.now)
	s.lock.Unlock()

	if err := r.connectAudioOutput(s); err != nil {
		return s, err
	}
	return s, nil
}

// failStart releases what setup acquired. The state is already inactive.
func (r *MediaRecorder) failStart(s *session, err error) ([]Event, error) {
	if s != nil {
		if rerr := s.release(); rerr != nil {
			r.logger.Warn("failed to release capture resources", "error", rerr)
		}
	}
	r.logger.Error("failed to start recording", "error", err)
	return []Event{r.event(EventError, nil, err)}, err
}

// Pause stops capturing until Resume. It does nothing unless recording.
// During Start's setup only the state changes; the pause event follows the
// start event.
func (r *MediaRecorder) Pause() {
	r.lock.Lock()
	if r.State() != Recording {
		r.lock.Unlock()
		return
	}
	r.setState(Paused)
	if r.session == nil {
		r.lock.Unlock()
		return
	}
	r.session.pause()
	r.lock.Unlock()

	r.logger.Info("recording paused")
	r.dispatch(EventPause, nil, nil)
}

// Resume continues a paused recording. It does nothing unless paused.
func (r *MediaRecorder) Resume() {
	r.lock.Lock()
	if r.State() != Paused {
		r.lock.Unlock()
		return
	}
	r.setState(Recording)
	if r.session == nil {
		r.lock.Unlock()
		return
	}
	r.session.resume()
	r.lock.Unlock()

	r.logger.Info("recording resumed")
	r.dispatch(EventResume, nil, nil)
}

// RequestData emits a dataavailable event with an empty blob. Intermediate
// chunks are not cut; the complete recording is delivered on Stop.
func (r *MediaRecorder) RequestData() {
	if r.State() == Inactive {
		return
	}
	r.dispatch(EventDataAvailable, &Blob{Data: []byte{}, Type: r.mimeType}, nil)
}

// Stop ends the recording, delivers the recorded blob in a dataavailable
// event followed by a stop event and releases all capture resources. The
// recorder is inactive as soon as Stop is called, even if finalizing
// fails. A Start still acquiring capture resources is aborted and the
// blob is empty. ctx bounds waiting for the engine.
func (r *MediaRecorder) Stop(ctx context.Context) error {
	events, err := r.stop(ctx)
	for _, e := range events {
		r.eventTarget.dispatch(e)
	}
	return err
}

func (r *MediaRecorder) stop(ctx context.Context) ([]Event, error) {
	r.lock.Lock()
	if r.State() == Inactive {
		r.lock.Unlock()
		return nil, nil
	}
	r.setState(Inactive)
	if cancel := r.cancelSetup; cancel != nil {
		r.cancelSetup = nil
		r.lock.Unlock()
		cancel()
		r.logger.Info("aborting recording setup")
		return []Event{
			r.event(EventDataAvailable, &Blob{Data: []byte{}, Type: r.mimeType}, nil),
			r.event(EventStop, nil, nil),
		}, nil
	}
	s, emitter := r.session, r.emitter
	r.session, r.emitter = nil, nil
	if s == nil {
		r.lock.Unlock()
		return []Event{
			r.event(EventDataAvailable, &Blob{Data: []byte{}, Type: r.mimeType}, nil),
			r.event(EventStop, nil, nil),
		}, nil
	}
	done := make(chan struct{})
	r.finalizing = done
	r.lock.Unlock()

	if emitter != nil {
		emitter.stop()
	}
	defer func() {
		if err := s.release(); err != nil {
			r.logger.Warn("failed to release capture resources", "error", err)
		}
		r.lock.Lock()
		if r.finalizing == done {
			r.finalizing = nil
		}
		r.lock.Unlock()
		close(done)
	}()

	blob, err := s.finalize(ctx, r.mimeType)
	if err != nil {
		err = fmt.Errorf("%w: failed to finalize: %w", ErrEngineFailure, err)
		r.logger.Error("failed to stop recording", "error", err)
		return []Event{r.event(EventError, nil, err)}, err
	}

	r.logger.Info("recording stopped", "size", blob.Size(), "duration", r.now().Sub(r.StartTime()))
	return []Event{
		r.event(EventDataAvailable, blob, nil),
		r.event(EventStop, nil, nil),
	}, nil
}
