package mediarecorder

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/mengelbart/mediarecorder/capture"
	"github.com/mengelbart/mediarecorder/mux"
	"github.com/pion/mediadevices/pkg/io/audio"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/wave"
)

type fakeEngine struct {
	lock   sync.Mutex
	format mux.Format
	target *mux.BufferTarget

	video     *mux.VideoTrackConfig
	audio     *mux.AudioTrackConfig
	framePTS  []time.Duration
	samplePTS []time.Duration
	samples   int

	started   int
	finalized int
	closed    int

	output      []byte
	startErr    error
	finalizeErr error
}

func (e *fakeEngine) AddVideoTrack(c mux.VideoTrackConfig) (mux.VideoInput, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.video = &c
	return videoInputFunc(func(img *image.RGBA, pts time.Duration) error {
		e.lock.Lock()
		defer e.lock.Unlock()
		e.framePTS = append(e.framePTS, pts)
		return nil
	}), nil
}

func (e *fakeEngine) AddAudioTrack(c mux.AudioTrackConfig) (mux.AudioInput, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.audio = &c
	return audioInputFunc(func(planar [][]float32, pts time.Duration) error {
		e.lock.Lock()
		defer e.lock.Unlock()
		e.samplePTS = append(e.samplePTS, pts)
		e.samples += len(planar[0])
		return nil
	}), nil
}

func (e *fakeEngine) Start() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.started++
	return e.startErr
}

func (e *fakeEngine) Finalize(ctx context.Context) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.finalized++
	if e.finalizeErr != nil {
		return e.finalizeErr
	}
	_, err := e.target.Write(e.output)
	return err
}

func (e *fakeEngine) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.closed++
	return nil
}

func (e *fakeEngine) frameCount() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.framePTS)
}

func (e *fakeEngine) sampleCount() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.samples
}

type videoInputFunc func(*image.RGBA, time.Duration) error

func (f videoInputFunc) WriteFrame(img *image.RGBA, pts time.Duration) error {
	return f(img, pts)
}

type audioInputFunc func([][]float32, time.Duration) error

func (f audioInputFunc) WriteSamples(planar [][]float32, pts time.Duration) error {
	return f(planar, pts)
}

// engineRecorder creates fake engines, configured by setup, and keeps them.
type engineRecorder struct {
	lock    sync.Mutex
	engines []*fakeEngine
	setup   func(*fakeEngine)
	err     error
}

func (r *engineRecorder) factory(format mux.Format, target *mux.BufferTarget) (mux.Engine, error) {
	if r.err != nil {
		return nil, r.err
	}
	e := &fakeEngine{format: format, target: target, output: []byte("container")}
	if r.setup != nil {
		r.setup(e)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.engines = append(r.engines, e)
	return e, nil
}

func (r *engineRecorder) last() *fakeEngine {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.engines) == 0 {
		return nil
	}
	return r.engines[len(r.engines)-1]
}

type fakeVideoTrack struct {
	settings capture.TrackSettings
	frames   chan image.Image
	readErr  error
}

func newFakeVideoTrack(w, h int) *fakeVideoTrack {
	t := &fakeVideoTrack{
		settings: capture.TrackSettings{Width: w, Height: h, FrameRate: 30},
		frames:   make(chan image.Image, 1),
	}
	t.frames <- image.NewRGBA(image.Rect(0, 0, w, h))
	return t
}

func (t *fakeVideoTrack) ID() string                      { return "camera" }
func (t *fakeVideoTrack) Kind() capture.Kind              { return capture.KindVideo }
func (t *fakeVideoTrack) Settings() capture.TrackSettings { return t.settings }

func (t *fakeVideoTrack) NewReader() (video.Reader, error) {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		if t.readErr != nil {
			return nil, nil, t.readErr
		}
		img, ok := <-t.frames
		if !ok {
			return nil, nil, io.EOF
		}
		return img, func() {}, nil
	}), nil
}

type fakeAudioTrack struct {
	settings capture.TrackSettings
	chunks   chan wave.Audio
}

func newFakeAudioTrack(sampleRate, channels int) *fakeAudioTrack {
	return &fakeAudioTrack{
		settings: capture.TrackSettings{SampleRate: sampleRate, ChannelCount: channels},
		chunks:   make(chan wave.Audio, 16),
	}
}

func (t *fakeAudioTrack) ID() string                      { return "microphone" }
func (t *fakeAudioTrack) Kind() capture.Kind              { return capture.KindAudio }
func (t *fakeAudioTrack) Settings() capture.TrackSettings { return t.settings }

func (t *fakeAudioTrack) NewReader() (audio.Reader, error) {
	return audio.ReaderFunc(func() (wave.Audio, func(), error) {
		c, ok := <-t.chunks
		if !ok {
			return nil, nil, io.EOF
		}
		return c, func() {}, nil
	}), nil
}

func (t *fakeAudioTrack) push(samples int) {
	data := make([]float32, samples*t.settings.ChannelCount)
	for i := range data {
		data[i] = 0.25
	}
	t.chunks <- &wave.Float32Interleaved{
		Data: data,
		Size: wave.ChunkInfo{Len: samples, Channels: t.settings.ChannelCount, SamplingRate: t.settings.SampleRate},
	}
}

// manualDisplay fires refresh ticks only when tick is called.
type manualDisplay struct {
	lock    sync.Mutex
	id      int
	pending map[int]func(time.Time)
}

func newManualDisplay() *manualDisplay {
	return &manualDisplay{pending: map[int]func(time.Time){}}
}

func (d *manualDisplay) RequestFrame(cb func(time.Time)) func() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.id++
	id := d.id
	d.pending[id] = cb
	return func() {
		d.lock.Lock()
		defer d.lock.Unlock()
		delete(d.pending, id)
	}
}

// tick runs all pending callbacks and returns how many ran.
func (d *manualDisplay) tick() int {
	d.lock.Lock()
	cbs := make([]func(time.Time), 0, len(d.pending))
	for _, cb := range d.pending {
		cbs = append(cbs, cb)
	}
	clear(d.pending)
	d.lock.Unlock()

	for _, cb := range cbs {
		cb(time.Now())
	}
	return len(cbs)
}

func (d *manualDisplay) pendingCount() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.pending)
}

// steppingClock advances by step on every call.
type steppingClock struct {
	lock sync.Mutex
	t    time.Time
	step time.Duration
}

func newSteppingClock(step time.Duration) *steppingClock {
	return &steppingClock{t: time.Unix(1_700_000_000, 0), step: step}
}

func (c *steppingClock) now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

type eventLog struct {
	lock   sync.Mutex
	events []Event
}

func (l *eventLog) record(e Event) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []EventType {
	l.lock.Lock()
	defer l.lock.Unlock()
	types := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		types = append(types, e.Type)
	}
	return types
}

func (l *eventLog) ofType(t EventType) []Event {
	l.lock.Lock()
	defer l.lock.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// listenAll registers log for every event type.
func listenAll(r *MediaRecorder, log *eventLog) {
	for _, t := range []EventType{EventStart, EventStop, EventPause, EventResume, EventDataAvailable, EventError} {
		r.AddEventListener(t, log.record)
	}
}
