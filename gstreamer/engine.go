package gstreamer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/mengelbart/mediarecorder/mux"
)

var errEngineClosed = errors.New("engine closed")

type EngineOption func(*Engine) error

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithDotFile writes the negotiated pipeline graph to name.dot in
// GST_DEBUG_DUMP_DOT_DIR once the pipeline plays.
func WithDotFile(name string) EngineOption {
	return func(e *Engine) error {
		e.dotFile = name
		return nil
	}
}

// NewEngineFactory returns a factory creating one pipeline per recording.
func NewEngineFactory(opts ...EngineOption) mux.EngineFactory {
	return func(format mux.Format, target *mux.BufferTarget) (mux.Engine, error) {
		return NewEngine(format, target, opts...)
	}
}

// Engine encodes raw frames and samples and muxes them into target.
type Engine struct {
	logger  *slog.Logger
	format  mux.Format
	target  *mux.BufferTarget
	dotFile string

	pipeline *gst.Pipeline
	muxer    *gst.Element
	sink     *app.Sink

	lock    sync.Mutex
	inputs  []*appInput
	watch   *busWatch
	started bool
	closed  bool

	eos     chan struct{}
	eosOnce sync.Once
	errs    chan error
}

func NewEngine(format mux.Format, target *mux.BufferTarget, opts ...EngineOption) (*Engine, error) {
	initGStreamer()

	pipeline, err := gst.NewPipeline(fmt.Sprintf("mediarecorder-%v", format))
	if err != nil {
		return nil, err
	}
	e := &Engine{
		logger:   slog.Default(),
		format:   format,
		target:   target,
		pipeline: pipeline,
		eos:      make(chan struct{}),
		errs:     make(chan error, 1),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if err := e.setupOutput(); err != nil {
		return nil, err
	}
	return e, nil
}

// setupOutput links the muxer to an appsink that appends every buffer to
// the target.
func (e *Engine) setupOutput() error {
	spec, err := muxer(e.format)
	if err != nil {
		return err
	}
	e.muxer, err = spec.build()
	if err != nil {
		return fmt.Errorf("failed to create %v: %w", spec.factory, err)
	}
	e.sink, err = app.NewAppSink()
	if err != nil {
		return err
	}
	if err := e.sink.SetProperty("sync", false); err != nil {
		return err
	}
	e.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: e.onSample,
	})
	if err := e.pipeline.AddMany(e.muxer, e.sink.Element); err != nil {
		return err
	}
	return e.muxer.Link(e.sink.Element)
}

func (e *Engine) onSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowEOS
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowError
	}
	mapinfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()
	if _, err := e.target.Write(mapinfo.Bytes()); err != nil {
		e.logger.Error("failed to write container data", "error", err)
		return gst.FlowError
	}
	return gst.FlowOK
}

func (e *Engine) AddVideoTrack(c mux.VideoTrackConfig) (mux.VideoInput, error) {
	codec := negotiateVideo(e.format, c.Codec)
	if codec != c.Codec {
		e.logger.Warn("video codec not supported by container, falling back", "format", e.format, "requested", c.Codec, "codec", codec)
		c.Codec = codec
	}
	encoder, err := videoEncoder(c)
	if err != nil {
		return nil, err
	}
	chain := append([]elementSpec{{"videoconvert", nil}}, encoder...)
	in, err := e.addInput(videoCaps(c), chain)
	if err != nil {
		return nil, err
	}
	in.frameDuration = time.Second / time.Duration(max(c.FrameRate, 1))
	e.logger.Info("added video track", "codec", c.Codec, "bitrate", c.BitsPerSecond, "width", c.Width, "height", c.Height, "frame-rate", c.FrameRate)
	return &videoInput{in}, nil
}

func (e *Engine) AddAudioTrack(c mux.AudioTrackConfig) (mux.AudioInput, error) {
	codec := negotiateAudio(e.format, c.Codec)
	if codec != c.Codec {
		e.logger.Warn("audio codec not supported by container, falling back", "format", e.format, "requested", c.Codec, "codec", codec)
		c.Codec = codec
	}
	encoder, err := audioEncoder(c)
	if err != nil {
		return nil, err
	}
	chain := append([]elementSpec{{"audioconvert", nil}, {"audioresample", nil}}, encoder...)
	in, err := e.addInput(audioCaps(c), chain)
	if err != nil {
		return nil, err
	}
	in.sampleRate = c.SampleRate
	e.logger.Info("added audio track", "codec", c.Codec, "bitrate", c.BitsPerSecond, "sample-rate", c.SampleRate, "channels", c.Channels)
	return &audioInput{in}, nil
}

// addInput creates an appsrc with the given caps and links it through chain
// into the muxer.
func (e *Engine) addInput(caps string, chain []elementSpec) (*appInput, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return nil, errEngineClosed
	}
	if e.started {
		return nil, errors.New("cannot add tracks after start")
	}

	src, err := app.NewAppSrc()
	if err != nil {
		return nil, err
	}
	src.SetCaps(gst.NewCapsFromString(caps))
	src.SetFormat(gst.FormatTime)
	if err := SetProperties(src.Element, map[string]any{
		"is-live":      true,
		"do-timestamp": false,
	}); err != nil {
		return nil, err
	}
	elements, err := buildAll(chain)
	if err != nil {
		return nil, err
	}
	elements = append([]*gst.Element{src.Element}, elements...)
	if err := e.pipeline.AddMany(elements...); err != nil {
		return nil, err
	}
	elements = append(elements, e.muxer)
	if err := gst.ElementLinkMany(elements...); err != nil {
		return nil, err
	}
	in := &appInput{src: src}
	e.inputs = append(e.inputs, in)
	return in, nil
}

// Start sets the pipeline to playing. An engine without tracks does not run
// a pipeline and produces no output.
func (e *Engine) Start() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return errEngineClosed
	}
	if e.started {
		return nil
	}
	e.started = true
	if len(e.inputs) == 0 {
		return nil
	}
	e.watch = watchBus(e.logger, e.pipeline, e.onEOS, e.onError)
	if err := e.pipeline.SetState(gst.StatePlaying); err != nil {
		return err
	}
	if e.dotFile != "" {
		e.pipeline.DebugBinToDotFile(gst.DebugGraphShowAll, e.dotFile)
	}
	return nil
}

func (e *Engine) onEOS() {
	e.eosOnce.Do(func() {
		close(e.eos)
	})
}

func (e *Engine) onError(err error) {
	select {
	case e.errs <- err:
	default:
	}
}

// Finalize ends all input streams and waits until the muxer has written
// the complete container.
func (e *Engine) Finalize(ctx context.Context) error {
	e.lock.Lock()
	if e.closed {
		e.lock.Unlock()
		return errEngineClosed
	}
	if !e.started {
		e.lock.Unlock()
		return errors.New("engine not started")
	}
	inputs := e.inputs
	e.lock.Unlock()

	if len(inputs) == 0 {
		return nil
	}
	for _, in := range inputs {
		in.end()
	}
	select {
	case <-e.eos:
		e.logger.Debug("pipeline reached end of stream", "bytes", e.target.Len())
		return nil
	case err := <-e.errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the pipeline and releases it. It is safe to call more than
// once.
func (e *Engine) Close() error {
	e.lock.Lock()
	if e.closed {
		e.lock.Unlock()
		return nil
	}
	e.closed = true
	watch := e.watch
	e.watch = nil
	e.lock.Unlock()

	err := e.pipeline.BlockSetState(gst.StateNull)
	if watch != nil {
		watch.quit()
	}
	return err
}

type appInput struct {
	src *app.Source

	lock          sync.Mutex
	ended         bool
	frameDuration time.Duration
	sampleRate    int
}

func (in *appInput) push(data []byte, pts, duration time.Duration) error {
	in.lock.Lock()
	defer in.lock.Unlock()
	if in.ended {
		return errors.New("input stream ended")
	}
	buffer := gst.NewBufferFromBytes(data)
	buffer.SetPresentationTimestamp(gst.ClockTime(pts.Nanoseconds()))
	buffer.SetDuration(gst.ClockTime(duration.Nanoseconds()))
	if ret := in.src.PushBuffer(buffer); ret != gst.FlowOK {
		return fmt.Errorf("failed to push buffer: %v", ret)
	}
	return nil
}

func (in *appInput) end() {
	in.lock.Lock()
	defer in.lock.Unlock()
	if in.ended {
		return
	}
	in.ended = true
	in.src.EndStream()
}

type videoInput struct {
	*appInput
}

func (v *videoInput) WriteFrame(img *image.RGBA, pts time.Duration) error {
	return v.push(img.Pix, pts, v.frameDuration)
}

type audioInput struct {
	*appInput
}

func (a *audioInput) WriteSamples(planar [][]float32, pts time.Duration) error {
	data, err := mux.InterleaveF32LE(planar)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return a.push(data, pts, mux.SamplesDuration(int64(len(planar[0])), a.sampleRate))
}
